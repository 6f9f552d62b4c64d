package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, s string) Url {
	t.Helper()
	u, err := NewUrl(s)
	require.NoError(t, err)
	return u
}

func mustRef(t *testing.T, title string, kind ReferenceKind) PageReference {
	t.Helper()
	r, err := NewPageReference(title, kind)
	require.NoError(t, err)
	return r
}

// buildScenarioA constructs the tree from spec scenario A:
//
//	root (refs: [[notes]], [[logseq]])
//	  child1 (url: logseq.com)
//	  child2 (url: github.com/logseq/logseq)
//	    grandchild ([[workflow]])
func buildScenarioA(t *testing.T) (*Page, BlockID, BlockID, BlockID, BlockID) {
	t.Helper()
	page := NewPage(NewPageIDGen(), "logseq")

	rootID := NewBlockIDGen()
	root := NewBlock(rootID, NewBlockContent("im starting to make some [[notes]] about various things like [[logseq]]"), RootIndent, nil)
	root.SetPageReferences([]PageReference{
		mustRef(t, "notes", ReferenceKindPage),
		mustRef(t, "logseq", ReferenceKindPage),
	})
	require.NoError(t, page.AddBlock(root))

	child1ID := NewBlockIDGen()
	child1 := NewBlock(child1ID, NewBlockContent("https://logseq.com/"), 1, &rootID)
	child1.SetUrls([]Url{mustURL(t, "https://logseq.com/")})
	require.NoError(t, page.AddBlock(child1))

	child2ID := NewBlockIDGen()
	child2 := NewBlock(child2ID, NewBlockContent("I'd like to stay up to date on the github repo: https://github.com/logseq/logseq"), 1, &rootID)
	child2.SetUrls([]Url{mustURL(t, "https://github.com/logseq/logseq")})
	require.NoError(t, page.AddBlock(child2))

	grandchildID := NewBlockIDGen()
	grandchild := NewBlock(grandchildID, NewBlockContent("[[workflow]] needs an update thought"), 2, &child2ID)
	grandchild.SetPageReferences([]PageReference{mustRef(t, "workflow", ReferenceKindPage)})
	require.NoError(t, page.AddBlock(grandchild))

	return page, rootID, child1ID, child2ID, grandchildID
}

func TestScenarioA_TreeAssembly(t *testing.T) {
	page, rootID, child1ID, child2ID, _ := buildScenarioA(t)

	assert.Equal(t, 4, page.BlockCount())

	root, ok := page.GetBlock(rootID)
	require.True(t, ok)
	assert.Equal(t, []BlockID{child1ID, child2ID}, root.ChildIDs())

	refs := root.PageReferences()
	assert.Len(t, refs, 2)
	assert.Contains(t, refs, mustRef(t, "notes", ReferenceKindPage))
	assert.Contains(t, refs, mustRef(t, "logseq", ReferenceKindPage))

	var githubCtx *UrlContext
	for _, ctx := range page.GetUrlsWithContext() {
		ctx := ctx
		if ctx.Url.String() == "https://github.com/logseq/logseq" {
			githubCtx = &ctx
		}
	}
	require.NotNil(t, githubCtx)
	assert.Equal(t, child2ID, githubCtx.BlockID)
	assert.Contains(t, githubCtx.AncestorRefs, mustRef(t, "notes", ReferenceKindPage))
	assert.Contains(t, githubCtx.AncestorRefs, mustRef(t, "logseq", ReferenceKindPage))
	assert.Contains(t, githubCtx.DescendantRefs, mustRef(t, "workflow", ReferenceKindPage))
}

func TestScenarioB_ContextPropagation(t *testing.T) {
	page := NewPage(NewPageIDGen(), "depth")

	d0ID := NewBlockIDGen()
	d0 := NewBlock(d0ID, NewBlockContent("root"), 0, nil)
	require.NoError(t, page.AddBlock(d0))

	d1ID := NewBlockIDGen()
	d1 := NewBlock(d1ID, NewBlockContent("has [[notes]]"), 1, &d0ID)
	d1.SetPageReferences([]PageReference{mustRef(t, "notes", ReferenceKindPage)})
	require.NoError(t, page.AddBlock(d1))

	d2ID := NewBlockIDGen()
	d2 := NewBlock(d2ID, NewBlockContent("https://google.com"), 2, &d1ID)
	d2.SetUrls([]Url{mustURL(t, "https://google.com")})
	require.NoError(t, page.AddBlock(d2))

	d3ID := NewBlockIDGen()
	d3 := NewBlock(d3ID, NewBlockContent("[[evil tech]]"), 3, &d2ID)
	d3.SetPageReferences([]PageReference{mustRef(t, "evil tech", ReferenceKindPage)})
	require.NoError(t, page.AddBlock(d3))

	contexts := page.GetUrlsWithContext()
	require.Len(t, contexts, 1)
	ctx := contexts[0]
	assert.Equal(t, "https://google.com", ctx.Url.String())
	assert.Equal(t, []PageReference{mustRef(t, "notes", ReferenceKindPage)}, ctx.AncestorRefs)
	assert.Equal(t, []PageReference{mustRef(t, "evil tech", ReferenceKindPage)}, ctx.DescendantRefs)
}

func TestAddBlock_UnknownParentFails(t *testing.T) {
	page := NewPage(NewPageIDGen(), "p")
	missing := NewBlockIDGen()
	child := NewBlock(NewBlockIDGen(), NewBlockContent("x"), 1, &missing)

	err := page.AddBlock(child)
	require.Error(t, err)
	assert.Equal(t, 0, page.BlockCount())
}

func TestRemoveBlock_CascadesToDescendants(t *testing.T) {
	page, rootID, child1ID, child2ID, grandchildID := buildScenarioA(t)

	require.NoError(t, page.RemoveBlock(child2ID))

	assert.Equal(t, 2, page.BlockCount())
	_, ok := page.GetBlock(child2ID)
	assert.False(t, ok)
	_, ok = page.GetBlock(grandchildID)
	assert.False(t, ok)

	root, ok := page.GetBlock(rootID)
	require.True(t, ok)
	assert.Equal(t, []BlockID{child1ID}, root.ChildIDs())
}

func TestRemoveBlock_RootDetachesFromRootBlockIDs(t *testing.T) {
	page := NewPage(NewPageIDGen(), "p")
	rootID := NewBlockIDGen()
	require.NoError(t, page.AddBlock(NewBlock(rootID, NewBlockContent("r"), 0, nil)))

	require.NoError(t, page.RemoveBlock(rootID))
	assert.Empty(t, page.RootBlockIDs())
	assert.Equal(t, 0, page.BlockCount())
}

func TestRemoveBlock_UnknownFails(t *testing.T) {
	page := NewPage(NewPageIDGen(), "p")
	err := page.RemoveBlock(NewBlockIDGen())
	require.Error(t, err)
}

func TestGetHierarchyPath(t *testing.T) {
	page, rootID, _, child2ID, grandchildID := buildScenarioA(t)

	path := page.GetHierarchyPath(grandchildID)
	require.Len(t, path, 3)
	assert.Equal(t, rootID, path[0].ID())
	assert.Equal(t, child2ID, path[1].ID())
	assert.Equal(t, grandchildID, path[2].ID())

	ancestors := page.GetAncestors(grandchildID)
	assert.Len(t, path, len(ancestors)+1)
	assert.Equal(t, path[len(path)-1].ID(), grandchildID)
	assert.True(t, path[0].IsRoot())
}

func TestGetHierarchyPath_RootHasNoAncestors(t *testing.T) {
	page, rootID, _, _, _ := buildScenarioA(t)
	assert.Empty(t, page.GetAncestors(rootID))
	path := page.GetHierarchyPath(rootID)
	require.Len(t, path, 1)
	assert.Equal(t, rootID, path[0].ID())
}

func TestGetDescendants_PreOrder(t *testing.T) {
	page, rootID, child1ID, child2ID, grandchildID := buildScenarioA(t)
	desc := page.GetDescendants(rootID)
	require.Len(t, desc, 3)
	ids := []BlockID{desc[0].ID(), desc[1].ID(), desc[2].ID()}
	assert.Equal(t, []BlockID{child1ID, child2ID, grandchildID}, ids)
}

func TestAllUrlsAndAllPageReferences_FlattenAcrossBlocks(t *testing.T) {
	page, _, _, _, _ := buildScenarioA(t)
	assert.Len(t, page.AllUrls(), 2)
	assert.Len(t, page.AllPageReferences(), 3)
}

func TestAddBlock_SameBlockTwice_IsIdempotent(t *testing.T) {
	page := NewPage(NewPageIDGen(), "p")
	rootID := NewBlockIDGen()
	block := NewBlock(rootID, NewBlockContent("x"), 0, nil)
	require.NoError(t, page.AddBlock(block))
	require.NoError(t, page.AddBlock(block))

	assert.Equal(t, 1, page.BlockCount())
	assert.Equal(t, []BlockID{rootID}, page.RootBlockIDs())
}
