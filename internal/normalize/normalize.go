package normalize

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Normalizer strips markup from text before it is handed downstream.
type Normalizer interface {
	// Normalize cleans text. hasHeaderBlock indicates the text may start
	// with a metadata header block that should be removed.
	Normalize(text string, hasHeaderBlock bool) string
}

// Markdown normalizes markdown-flavored note text to plain prose.
//
// It removes YAML frontmatter, comments, code fence markers, emphasis,
// heading and blockquote prefixes, and unwraps links to their visible text.
// List content is kept; only the markers go.
type Markdown struct{}

// NewMarkdown creates the markdown normalizer.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	fenceLineRe   = regexp.MustCompile("(?m)^```[^\n]*$")
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	wikiLinkRe    = regexp.MustCompile(`\[\[([^\]|]*)(?:\|([^\]]*))?\]\]`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]*)\)`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe  = regexp.MustCompile(`(?m)^>\s?`)
	listMarkerRe  = regexp.MustCompile(`(?m)^(\s*)(?:[-*+]|\d+\.)\s+`)
	hruleRe       = regexp.MustCompile(`(?m)^(?:-{3,}|\*{3,}|_{3,})\s*$`)
	emphasisRe    = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)([^*_~]+?)(\*{1,3}|_{1,3}|~~)`)
	inlineCodeRe  = regexp.MustCompile("`([^`]*)`")
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Normalize implements Normalizer.
func (m *Markdown) Normalize(text string, hasHeaderBlock bool) string {
	if hasHeaderBlock {
		text = stripFrontmatter(text)
	}

	text = htmlCommentRe.ReplaceAllString(text, "")
	text = fenceLineRe.ReplaceAllString(text, "")
	text = imageRe.ReplaceAllString(text, "$1")
	text = wikiLinkRe.ReplaceAllStringFunc(text, func(s string) string {
		parts := wikiLinkRe.FindStringSubmatch(s)
		if parts[2] != "" {
			return parts[2]
		}
		return parts[1]
	})
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = blockquoteRe.ReplaceAllString(text, "")
	text = hruleRe.ReplaceAllString(text, "")
	text = listMarkerRe.ReplaceAllString(text, "$1")
	text = emphasisRe.ReplaceAllString(text, "$2")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// stripFrontmatter removes a leading YAML frontmatter block. Only a block
// that actually parses as YAML is removed; anything else stays untouched,
// since stripping mid-document separators would eat real content.
func stripFrontmatter(text string) string {
	if !strings.HasPrefix(text, "---\n") && text != "---" {
		return text
	}

	rest := strings.TrimPrefix(text, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return text
	}

	block := rest[:end]
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(block), &parsed); err != nil {
		return text
	}

	after := rest[end+len("\n---"):]
	after = strings.TrimPrefix(after, "\n")
	return after
}
