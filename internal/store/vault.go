package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/archive"
)

const historyDir = ".history"

// Vault is a filesystem DocumentStore over a notes directory.
//
// Documents are the .md files under the root; the archive for a document
// lives at .history/<id>.zip, written by an external history process.
type Vault struct {
	root   string
	reader *archive.Reader
	logger *zap.Logger
}

// NewVault creates a vault store rooted at dir.
func NewVault(dir string, logger *zap.Logger) (*Vault, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path is not a directory: %s", abs)
	}

	return &Vault{
		root:   abs,
		reader: archive.NewReader(logger.Named("archive")),
		logger: logger,
	}, nil
}

// Root returns the vault's absolute root directory.
func (v *Vault) Root() string {
	return v.root
}

// List walks the vault and returns the IDs of all markdown documents.
// Dot-directories (including the history directory) are skipped.
func (v *Vault) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			rel, rerr := filepath.Rel(v.root, path)
			if rerr != nil {
				return rerr
			}
			ids = append(ids, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}
	return ids, nil
}

// Load reads a document's live content and timestamps.
//
// The creation time is taken from the earliest archive entry when one
// exists; the filesystem does not keep birth times portably. A document
// with no archive falls back to its modification time.
func (v *Vault) Load(ctx context.Context, id string) (*Document, error) {
	path, err := v.resolve(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	text := string(data)
	modified := info.ModTime().UnixMilli()

	doc := &Document{
		ID:             id,
		LiveText:       text,
		ModifiedMs:     modified,
		CreatedMs:      modified,
		HasHeaderBlock: strings.HasPrefix(text, "---\n"),
	}

	if raw, ok, aerr := v.Archive(ctx, id); aerr == nil && ok {
		if entries, perr := v.reader.Parse(raw); perr == nil && len(entries) > 0 {
			doc.CreatedMs = entries[0].TimestampMs
		}
	}

	return doc, nil
}

// Archive returns the raw archive bytes for a document, or ok=false when
// the external history writer has not produced one.
func (v *Vault) Archive(ctx context.Context, id string) ([]byte, bool, error) {
	if _, err := v.resolve(id); err != nil {
		return nil, false, err
	}

	path := filepath.Join(v.root, historyDir, filepath.FromSlash(id)+".zip")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read archive: %w", err)
	}
	return raw, true, nil
}

// resolve maps an ID to an absolute path inside the vault, rejecting
// traversal outside the root.
func (v *Vault) resolve(id string) (string, error) {
	path := filepath.Join(v.root, filepath.FromSlash(id))
	rel, err := filepath.Rel(v.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return path, nil
}
