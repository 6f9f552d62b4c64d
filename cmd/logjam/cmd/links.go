package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/output"
	"github.com/weswalla/logjam/internal/search"
)

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Inspect the link graph between pages and URLs",
	}

	cmd.AddCommand(newLinksUrlCmd())
	cmd.AddCommand(newLinksPageCmd())
	return cmd
}

func newLinksUrlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "List every page that references a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinksUrl(cmd.Context(), cmd, args[0])
		},
	}
}

func newLinksPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <id>",
		Short: "List every URL reachable from a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinksPage(cmd.Context(), cmd, args[0])
		},
	}
}

func runLinksUrl(ctx context.Context, cmd *cobra.Command, rawURL string) error {
	out := output.New(cmd.OutOrStdout())

	target, err := domain.NewUrl(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	graph := search.NewLinkGraph(repo)
	connections, err := graph.PagesForUrl(ctx, target)
	if err != nil {
		return fmt.Errorf("list pages for url failed: %w", err)
	}

	for _, c := range connections {
		out.Page("%s (%d blocks)", c.PageTitle, len(c.BlocksWithUrl))
	}
	if len(connections) == 0 {
		out.Status("", "no pages reference this url")
	}
	return nil
}

func runLinksPage(ctx context.Context, cmd *cobra.Command, rawID string) error {
	out := output.New(cmd.OutOrStdout())

	pageID, err := domain.NewPageID(rawID)
	if err != nil {
		return fmt.Errorf("invalid page id: %w", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	graph := search.NewLinkGraph(repo)
	urls, err := graph.UrlsForPage(ctx, pageID)
	if err != nil {
		return fmt.Errorf("list urls for page failed: %w", err)
	}

	for _, u := range urls {
		out.Link("%s: %s", strings.Join(u.HierarchyPath, " > "), u.Url.String())
	}
	if len(urls) == 0 {
		out.Status("", "no urls reachable from this page")
	}
	return nil
}
