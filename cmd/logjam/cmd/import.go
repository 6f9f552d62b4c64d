package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/weswalla/logjam/internal/events"
	"github.com/weswalla/logjam/internal/importer"
	"github.com/weswalla/logjam/internal/output"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <root>",
		Short: "Import a directory of markdown pages into the index",
		Long: `Scans <root> for markdown pages, parses each one, embeds its
blocks, and saves everything into the configured store.

This is a one-shot bulk load; use 'logjam sync' afterward to pick up
incremental changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, args[0])
		},
	}
	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, root string) error {
	out := output.New(cmd.OutOrStdout())

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	store, err := openVectorStore(ctx, cfg, repo)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := newEmbeddingService(cfg, store)

	imp := importer.New(repo, importer.Config{MaxConcurrentFiles: cfg.Import.MaxConcurrentFiles})

	onEvent := func(e events.ImportEvent) {
		switch e.Kind {
		case events.ImportStarted:
			out.Scanning("scanning %s (%d files)", root, e.TotalFiles)
		case events.ImportFileProcessed:
			out.Progress(e.Progress.Processed, e.Progress.Total, e.Progress.CurrentFile)
		case events.ImportCompleted:
			out.Successf("imported %d pages in %dms", e.PagesImported, e.DurationMs)
		case events.ImportFailed:
			out.Warningf("import finished with errors: %s", e.Err)
		}
	}

	summary, err := imp.Import(ctx, root, onEvent)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	pages, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("reload imported pages: %w", err)
	}
	for _, page := range pages {
		if _, err := embedder.EmbedPage(ctx, page); err != nil {
			slog.Warn("embed page failed", slog.String("page", string(page.ID())), slog.String("error", err.Error()))
		}
	}

	if err := persistVectorStore(cfg, store); err != nil {
		return err
	}

	for _, fe := range summary.FilesFailed {
		out.Warningf("%s: %s", fe.Path, fe.Message)
	}

	return nil
}
