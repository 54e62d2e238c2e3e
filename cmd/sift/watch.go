package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/changeset"
	"github.com/fyrsmithlabs/sift/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and resolve documents as they change",
	Long: `Watch keeps running, invalidates cached results when a document is
edited, re-resolves it, and prints any new content. Stop with Ctrl-C.

Examples:
  sift watch --vault ~/notes --since 168h`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	watcher, err := store.NewWatcher(a.vault, a.logger.Named("watcher"))
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("watching %s\n", a.cfg.Vault)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("watch stopped")
			return nil
		case ev := <-watcher.Events():
			a.results.Invalidate(ev.DocumentID)
			a.onChange(ctx, ev.DocumentID)
		}
	}
}

// onChange re-resolves one edited document and prints its new content.
// A document removed between the event and the load is skipped quietly.
func (a *app) onChange(ctx context.Context, id string) {
	doc, err := a.vault.Load(ctx, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return
	}
	if err != nil {
		a.logger.Warn("failed to load changed document",
			zap.String("document_id", id), zap.Error(err))
		return
	}
	raw, _, err := a.vault.Archive(ctx, id)
	if err != nil {
		a.logger.Warn("failed to read archive",
			zap.String("document_id", id), zap.Error(err))
		return
	}

	threshold := a.thresholdMs()
	content, err := a.resolver.Resolve(ctx, &changeset.Request{
		ArchiveRaw:     raw,
		LiveText:       doc.LiveText,
		LiveModifiedMs: doc.ModifiedMs,
		CreatedAtMs:    doc.CreatedMs,
		ThresholdMs:    threshold,
		HasHeaderBlock: doc.HasHeaderBlock,
	})
	if err != nil {
		a.logger.Warn("resolve failed",
			zap.String("document_id", id), zap.Error(err))
		return
	}
	if content == "" {
		return
	}

	a.results.Put(id, threshold, content)
	fmt.Printf("--- %s ---\n%s\n\n", id, content)
}
