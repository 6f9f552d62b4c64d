package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/repository"
)

func pageWithURL(t *testing.T, title string, url domain.Url, withURL bool) *domain.Page {
	t.Helper()
	pageID, err := domain.NewPageID(title)
	require.NoError(t, err)
	page := domain.NewPage(pageID, title)

	blockID, err := domain.NewBlockID(title + "-b1")
	require.NoError(t, err)
	content := "some unrelated content"
	block := domain.NewBlock(blockID, domain.NewBlockContent(content), domain.RootIndent, nil)
	if withURL {
		block.SetUrls([]domain.Url{url})
	}
	require.NoError(t, page.AddBlock(block))
	return page
}

// TestLinkGraph_PagesForUrl_Scenario exercises spec scenario D: three
// pages, two containing the target URL.
func TestLinkGraph_PagesForUrl_Scenario(t *testing.T) {
	target, err := domain.NewUrl("https://rust-lang.org")
	require.NoError(t, err)

	page1 := pageWithURL(t, "a", target, true)
	page2 := pageWithURL(t, "b", target, true)
	page3 := pageWithURL(t, "c", target, false)

	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, page1))
	require.NoError(t, repo.Save(ctx, page2))
	require.NoError(t, repo.Save(ctx, page3))

	lg := NewLinkGraph(repo)
	connections, err := lg.PagesForUrl(ctx, target)
	require.NoError(t, err)

	require.Len(t, connections, 2)
	ids := map[domain.PageID]bool{}
	for _, c := range connections {
		ids[c.PageID] = true
		assert.NotEmpty(t, c.BlocksWithUrl)
	}
	assert.True(t, ids[page1.ID()])
	assert.True(t, ids[page2.ID()])
	assert.False(t, ids[page3.ID()])
}

func TestLinkGraph_UrlsForPage_ReturnsHierarchyAndRefs(t *testing.T) {
	pageID, err := domain.NewPageID("notes")
	require.NoError(t, err)
	page := domain.NewPage(pageID, "notes")

	rootID, err := domain.NewBlockID("root")
	require.NoError(t, err)
	root := domain.NewBlock(rootID, domain.NewBlockContent("[[Parent Ref]]"), domain.RootIndent, nil)
	parentRef, err := domain.NewPageReference("Parent Ref", domain.ReferenceKindPage)
	require.NoError(t, err)
	root.SetPageReferences([]domain.PageReference{parentRef})
	require.NoError(t, page.AddBlock(root))

	childID, err := domain.NewBlockID("child")
	require.NoError(t, err)
	u, err := domain.NewUrl("https://example.com")
	require.NoError(t, err)
	child := domain.NewBlock(childID, domain.NewBlockContent("see https://example.com"), domain.IndentLevel(1), &rootID)
	child.SetUrls([]domain.Url{u})
	require.NoError(t, page.AddBlock(child))

	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, page))

	lg := NewLinkGraph(repo)
	urls, err := lg.UrlsForPage(ctx, pageID)
	require.NoError(t, err)

	require.Len(t, urls, 1)
	assert.Equal(t, childID, urls[0].BlockID)
	assert.Len(t, urls[0].HierarchyPath, 2)
	assert.NotEmpty(t, urls[0].RelatedPageRefs)
}

func TestLinkGraph_UrlsForPage_MissingPageReturnsNotFound(t *testing.T) {
	repo := repository.NewMemoryRepository()
	lg := NewLinkGraph(repo)

	missing, err := domain.NewPageID("missing")
	require.NoError(t, err)

	_, err = lg.UrlsForPage(context.Background(), missing)
	require.Error(t, err)
}

func TestLinkGraph_PagesForUrl_NoMatchesReturnsEmpty(t *testing.T) {
	target, err := domain.NewUrl("https://nowhere.example.com")
	require.NoError(t, err)

	page := pageWithURL(t, "x", target, false)
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), page))

	lg := NewLinkGraph(repo)
	connections, err := lg.PagesForUrl(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, connections)
}
