package search

import (
	"context"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/repository"
)

// PageConnection is one page's blocks that reference a given URL (spec
// §4.11 "URL → pages").
type PageConnection struct {
	PageID        domain.PageID
	PageTitle     string
	BlocksWithUrl []domain.BlockID
}

// UrlWithContext is a URL owned by a page's block, plus the page
// references gathered from the block's ancestor and descendant chains
// (spec §4.11 "Page → URLs").
type UrlWithContext struct {
	Url             domain.Url
	BlockID         domain.BlockID
	BlockContent    string
	HierarchyPath   []string
	RelatedPageRefs []domain.PageReference
}

// LinkGraph implements the spec §4.11 link-graph use-cases over a
// Repository.
type LinkGraph struct {
	repo repository.Repository
}

// NewLinkGraph constructs a LinkGraph over repo.
func NewLinkGraph(repo repository.Repository) *LinkGraph {
	return &LinkGraph{repo: repo}
}

// PagesForUrl enumerates every page with at least one block containing
// target, in repository iteration order.
func (g *LinkGraph) PagesForUrl(ctx context.Context, target domain.Url) ([]PageConnection, error) {
	pages, err := g.repo.FindAll(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "load pages", err)
	}

	var out []PageConnection
	for _, page := range pages {
		var blocksWithUrl []domain.BlockID
		for _, block := range page.AllBlocks() {
			for _, u := range block.Urls() {
				if u.Equal(target) {
					blocksWithUrl = append(blocksWithUrl, block.ID())
					break
				}
			}
		}
		if len(blocksWithUrl) > 0 {
			out = append(out, PageConnection{
				PageID:        page.ID(),
				PageTitle:     page.Title(),
				BlocksWithUrl: blocksWithUrl,
			})
		}
	}
	return out, nil
}

// UrlsForPage enumerates every URL reachable from pageID's blocks, with
// hierarchy and reference context. Returns a NotFound error if pageID is
// absent.
func (g *LinkGraph) UrlsForPage(ctx context.Context, pageID domain.PageID) ([]UrlWithContext, error) {
	page, ok, err := g.repo.FindByID(ctx, pageID)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "load page", err)
	}
	if !ok {
		return nil, errs.NotFoundf("page %q not found", pageID)
	}

	var out []UrlWithContext
	for _, uc := range page.GetUrlsWithContext() {
		path := page.GetHierarchyPath(uc.BlockID)
		hierarchy := make([]string, len(path))
		for i, b := range path {
			hierarchy[i] = b.Content().String()
		}

		block, _ := page.GetBlock(uc.BlockID)
		content := ""
		if block != nil {
			content = block.Content().String()
		}

		related := append(append([]domain.PageReference{}, uc.AncestorRefs...), uc.DescendantRefs...)

		out = append(out, UrlWithContext{
			Url:             uc.Url,
			BlockID:         uc.BlockID,
			BlockContent:    content,
			HierarchyPath:   hierarchy,
			RelatedPageRefs: related,
		})
	}
	return out, nil
}
