package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sift/internal/changeset"
)

var showCmd = &cobra.Command{
	Use:   "show <document>",
	Short: "Resolve new content for a single document",
	Long: `Show resolves one document by its vault-relative path and prints the
text added since the cutoff.

Examples:
  sift show --vault ~/notes projects/roadmap.md
  sift show --vault ~/notes --since 24h daily/today.md`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	id := args[0]
	doc, err := a.vault.Load(ctx, id)
	if err != nil {
		return err
	}
	raw, _, err := a.vault.Archive(ctx, id)
	if err != nil {
		return err
	}

	content, err := a.resolver.Resolve(ctx, &changeset.Request{
		ArchiveRaw:     raw,
		LiveText:       doc.LiveText,
		LiveModifiedMs: doc.ModifiedMs,
		CreatedAtMs:    doc.CreatedMs,
		ThresholdMs:    a.thresholdMs(),
		HasHeaderBlock: doc.HasHeaderBlock,
	})
	if err != nil {
		return err
	}

	if content == "" {
		fmt.Println("nothing changed")
		return nil
	}
	fmt.Println(content)
	return nil
}
