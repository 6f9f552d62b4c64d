package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weswalla/logjam/internal/output"
	"github.com/weswalla/logjam/internal/search"
)

func newSearchCmd() *cobra.Command {
	var resultType string
	var semantic bool
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed pages",
		Long: `Searches the configured store for <query>.

By default this is a keyword search over page titles, block content,
and URLs. With --semantic, it instead runs a nearest-neighbour search
over the embedded chunks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if semantic {
				return runSemanticSearch(cmd.Context(), cmd, query, limit)
			}
			return runKeywordSearch(cmd.Context(), cmd, query, resultType)
		},
	}

	cmd.Flags().StringVarP(&resultType, "type", "t", "all", "Result type: page, block, url, all")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "Use semantic (vector) search instead of keyword search")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of semantic results")

	return cmd
}

func runKeywordSearch(ctx context.Context, cmd *cobra.Command, query, resultType string) error {
	out := output.New(cmd.OutOrStdout())

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	kind, err := parseResultType(resultType)
	if err != nil {
		return err
	}

	ks := search.NewKeywordSearch(repo)
	results, err := ks.Search(ctx, search.KeywordRequest{Query: query, ResultType: kind})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, p := range results.Pages {
		out.Page("[%.2f] page %q (%d blocks)", p.Score, p.Title, p.BlockCount)
	}
	for _, b := range results.Blocks {
		out.Block("[%.2f] %s: %s", b.Score, strings.Join(b.HierarchyPath, " > "), truncate(b.Content, 80))
	}
	for _, u := range results.Urls {
		out.Link("[%.2f] %s", u.Score, u.Url.String())
	}

	if len(results.Pages) == 0 && len(results.Blocks) == 0 && len(results.Urls) == 0 {
		out.Status("", "no results")
	}
	return nil
}

func runSemanticSearch(ctx context.Context, cmd *cobra.Command, query string, limit int) error {
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

	svc := newEmbeddingService(cfg, store)
	hits, err := svc.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("semantic search failed: %w", err)
	}

	for _, h := range hits {
		out.Semantic("[%.2f] %s: %s", h.Score.Float64(), h.PageTitle, truncate(h.OriginalContent, 80))
	}
	if len(hits) == 0 {
		out.Status("", "no results")
	}
	return nil
}

func parseResultType(s string) (search.ResultType, error) {
	switch s {
	case "page":
		return search.PagesOnly, nil
	case "block":
		return search.BlocksOnly, nil
	case "url":
		return search.UrlsOnly, nil
	case "all", "":
		return search.AllResults, nil
	default:
		return 0, fmt.Errorf("unknown result type %q: want page, block, url, or all", s)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
