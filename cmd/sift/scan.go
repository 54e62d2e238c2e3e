package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sift/internal/worklist"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Resolve new content for every document in the vault",
	Long: `Scan walks the vault, resolves each document's new content since the
cutoff concurrently, and prints the non-empty results.

Examples:
  # Everything added in the last week (default)
  sift scan --vault ~/notes

  # Everything added in the last 30 days
  sift scan --vault ~/notes --since 720h`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	ids, err := a.vault.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vault: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("no documents found")
		return nil
	}

	results := a.runner.Run(ctx, ids, a.thresholdMs())

	printed := 0
	pending := 0
	for _, r := range results {
		switch {
		case r.Status == worklist.StatusNeedsRecompute:
			pending++
		case r.NewContent != "":
			fmt.Printf("--- %s ---\n%s\n\n", r.DocumentID, r.NewContent)
			printed++
		}
	}

	fmt.Printf("%d of %d documents have new content", printed, len(results))
	if pending > 0 {
		fmt.Printf(" (%d need recomputation)", pending)
	}
	fmt.Println()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	return nil
}
