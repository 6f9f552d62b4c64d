package search

import (
	"context"
	"sort"
	"strings"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/repository"
)

// ResultType selects which entity kinds a keyword search returns.
type ResultType int

const (
	PagesOnly ResultType = iota
	BlocksOnly
	UrlsOnly
	AllResults
)

// KeywordRequest is the keyword search use-case's input (spec §4.10).
type KeywordRequest struct {
	Query      string
	ResultType ResultType
	PageFilter []domain.PageID // empty means search every page
}

// PageHit is a matched page, carrying its block count and every URL and
// reference it contains.
type PageHit struct {
	PageID     domain.PageID
	Title      string
	Score      float64
	BlockCount int
	Urls       []domain.Url
	References []domain.PageReference
}

// BlockHit is a matched block, carrying the root-to-block hierarchy path
// and the page references/URLs gathered from its ancestors and
// descendants.
type BlockHit struct {
	PageID        domain.PageID
	BlockID       domain.BlockID
	Content       string
	Score         float64
	HierarchyPath []string
	RelatedPages  []domain.PageReference
	RelatedUrls   []domain.Url
}

// UrlHit is a matched URL, identified by the single block that owns it.
type UrlHit struct {
	PageID  domain.PageID
	BlockID domain.BlockID
	Url     domain.Url
	Score   float64
}

// KeywordResults is the combined, score-sorted output of a keyword
// search.
type KeywordResults struct {
	Pages  []PageHit
	Blocks []BlockHit
	Urls   []UrlHit
}

// scored pairs a result's sort key with its discovery index, so ties
// preserve discovery order (spec §4.10 step 4 / spec §9's ambiguity call
// resolved via a stable sort key).
type scored struct {
	score float64
	index int
	kind  string // "page", "block", "url"
	page  PageHit
	block BlockHit
	url   UrlHit
}

// KeywordSearch implements the spec §4.10 keyword search use-case over a
// Repository.
type KeywordSearch struct {
	repo repository.Repository
}

// NewKeywordSearch constructs a KeywordSearch over repo.
func NewKeywordSearch(repo repository.Repository) *KeywordSearch {
	return &KeywordSearch{repo: repo}
}

// Search runs req against the repository's pages.
func (k *KeywordSearch) Search(ctx context.Context, req KeywordRequest) (KeywordResults, error) {
	pages, err := k.candidatePages(ctx, req.PageFilter)
	if err != nil {
		return KeywordResults{}, err
	}

	query := strings.ToLower(req.Query)
	wantPages := req.ResultType == PagesOnly || req.ResultType == AllResults
	wantBlocks := req.ResultType == BlocksOnly || req.ResultType == AllResults
	wantUrls := req.ResultType == UrlsOnly || req.ResultType == AllResults

	var matches []scored
	index := 0

	for _, page := range pages {
		if wantPages {
			title := strings.ToLower(page.Title())
			if s, ok := matchScorePageOrBlock(title, query); ok {
				matches = append(matches, scored{
					score: s,
					index: index,
					kind:  "page",
					page: PageHit{
						PageID:     page.ID(),
						Title:      page.Title(),
						Score:      s,
						BlockCount: page.BlockCount(),
						Urls:       page.AllUrls(),
						References: page.AllPageReferences(),
					},
				})
				index++
			}
		}

		if wantBlocks {
			for _, block := range page.AllBlocks() {
				content := strings.ToLower(block.Content().String())
				if s, ok := matchScorePageOrBlock(content, query); ok {
					path := page.GetHierarchyPath(block.ID())
					hierarchy := make([]string, len(path))
					for i, b := range path {
						hierarchy[i] = b.Content().String()
					}

					ancestors := page.GetAncestors(block.ID())
					descendants := page.GetDescendants(block.ID())
					matches = append(matches, scored{
						score: s,
						index: index,
						kind:  "block",
						block: BlockHit{
							PageID:        page.ID(),
							BlockID:       block.ID(),
							Content:       block.Content().String(),
							Score:         s,
							HierarchyPath: hierarchy,
							RelatedPages:  append(refsOfBlocks(ancestors), refsOfBlocks(descendants)...),
							RelatedUrls:   append(urlsOfBlocks(ancestors), urlsOfBlocks(descendants)...),
						},
					})
					index++
				}
			}
		}

		if wantUrls {
			for _, uc := range page.GetUrlsWithContext() {
				lowered := strings.ToLower(uc.Url.String())
				if s, ok := matchScoreURL(lowered, query); ok {
					matches = append(matches, scored{
						score: s,
						index: index,
						kind:  "url",
						url: UrlHit{
							PageID:  page.ID(),
							BlockID: uc.BlockID,
							Url:     uc.Url,
							Score:   s,
						},
					})
					index++
				}
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})

	var out KeywordResults
	for _, m := range matches {
		switch m.kind {
		case "page":
			out.Pages = append(out.Pages, m.page)
		case "block":
			out.Blocks = append(out.Blocks, m.block)
		case "url":
			out.Urls = append(out.Urls, m.url)
		}
	}
	return out, nil
}

func (k *KeywordSearch) candidatePages(ctx context.Context, filter []domain.PageID) ([]*domain.Page, error) {
	if len(filter) == 0 {
		return k.repo.FindAll(ctx)
	}

	var pages []*domain.Page
	for _, id := range filter {
		page, ok, err := k.repo.FindByID(ctx, id)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidOperation, "load filtered page", err)
		}
		if ok {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// matchScorePageOrBlock scores a page title or block content match per
// spec §4.10's table.
func matchScorePageOrBlock(haystack, query string) (float64, bool) {
	if query == "" {
		return 0, false
	}
	switch {
	case haystack == query:
		return 1.0, true
	case strings.HasPrefix(haystack, query):
		return 0.9, true
	case strings.Contains(haystack, query):
		return 0.7, true
	default:
		return 0, false
	}
}

// matchScoreURL scores a URL match: exact and prefix matches share the
// page/block scale, but a bare substring match scores higher for URLs
// than for pages/blocks per spec §4.10's table.
func matchScoreURL(haystack, query string) (float64, bool) {
	if query == "" {
		return 0, false
	}
	switch {
	case haystack == query:
		return 1.0, true
	case strings.HasPrefix(haystack, query):
		return 0.9, true
	case strings.Contains(haystack, query):
		return 0.8, true
	default:
		return 0, false
	}
}

func refsOfBlocks(blocks []*domain.Block) []domain.PageReference {
	var out []domain.PageReference
	for _, b := range blocks {
		out = append(out, b.PageReferences()...)
	}
	return out
}

func urlsOfBlocks(blocks []*domain.Block) []domain.Url {
	var out []domain.Url
	for _, b := range blocks {
		out = append(out, b.Urls()...)
	}
	return out
}
