package domain

import "github.com/weswalla/logjam/internal/errs"

// Page is the aggregate root: a page's title plus every block it owns,
// keyed by id, with root ordering tracked separately. A Page exclusively
// owns every block it contains — blocks are never shared across pages —
// and invariants 1-5 of spec §3 hold after every mutating call that
// returns success:
//
//  1. every block.parentID, if present, resolves to a key in blocks
//  2. for every block with parentId=p, p's childIds contains it exactly once
//  3. rootBlockIds contains exactly the parentless block ids, no duplicates
//  4. blocks keys are unique (guaranteed by the Go map itself)
//  5. no cycles: following parentId from any block terminates at a root
type Page struct {
	id           PageID
	title        string
	blocks       map[BlockID]*Block
	rootBlockIDs []BlockID
}

// NewPage creates an empty page. Both the parser and the repository
// loader start from an empty Page and add blocks one at a time.
func NewPage(id PageID, title string) *Page {
	return &Page{
		id:     id,
		title:  title,
		blocks: make(map[BlockID]*Block),
	}
}

// ID returns the page's identity.
func (p *Page) ID() PageID { return p.id }

// Title returns the page's title.
func (p *Page) Title() string { return p.title }

// SetTitle updates the page's title.
func (p *Page) SetTitle(title string) { p.title = title }

// BlockCount returns the number of blocks owned by the page.
func (p *Page) BlockCount() int { return len(p.blocks) }

// AddBlock inserts block into the page. If block.ParentID() is set and
// unknown, returns an InvalidOperation error and the page is left
// unchanged. Otherwise the block is installed: a root block's id is
// appended to rootBlockIds (unless already present), a child block's id
// is appended to its parent's childIds (unless already present).
func (p *Page) AddBlock(block *Block) error {
	if block.parentID != nil {
		if _, ok := p.blocks[*block.parentID]; !ok {
			return errs.InvalidOpf("cannot add block %q: parent %q does not exist", block.id, *block.parentID)
		}
	}

	p.blocks[block.id] = block

	if block.parentID == nil {
		p.appendRoot(block.id)
	} else {
		p.blocks[*block.parentID].addChild(block.id)
	}
	return nil
}

func (p *Page) appendRoot(id BlockID) {
	for _, existing := range p.rootBlockIDs {
		if existing == id {
			return
		}
	}
	p.rootBlockIDs = append(p.rootBlockIDs, id)
}

func (p *Page) removeRoot(id BlockID) {
	for i, existing := range p.rootBlockIDs {
		if existing == id {
			p.rootBlockIDs = append(p.rootBlockIDs[:i], p.rootBlockIDs[i+1:]...)
			return
		}
	}
}

// GetBlock looks up a block by id.
func (p *Page) GetBlock(id BlockID) (*Block, bool) {
	b, ok := p.blocks[id]
	return b, ok
}

// GetBlockMut is an alias for GetBlock: the returned *Block is always
// mutable in this representation, since blocks are owned by reference
// through the map rather than copied.
func (p *Page) GetBlockMut(id BlockID) (*Block, bool) {
	return p.GetBlock(id)
}

// RemoveBlock removes the block and every descendant, post-order, then
// detaches the block from its parent's childIds or from rootBlockIds.
// Returns a NotFound error if id is unknown; the page is left unchanged
// in that case.
func (p *Page) RemoveBlock(id BlockID) error {
	block, ok := p.blocks[id]
	if !ok {
		return errs.NotFoundf("block %q not found", id)
	}

	for _, childID := range block.ChildIDs() {
		// Descendant removal cannot fail: every childID here is known to
		// exist by invariant 1, so this error is unreachable.
		_ = p.RemoveBlock(childID)
	}

	if block.parentID != nil {
		if parent, ok := p.blocks[*block.parentID]; ok {
			parent.removeChild(id)
		}
	} else {
		p.removeRoot(id)
	}

	delete(p.blocks, id)
	return nil
}

// RootBlocks returns the page's root blocks in rootBlockIds order.
func (p *Page) RootBlocks() []*Block {
	out := make([]*Block, 0, len(p.rootBlockIDs))
	for _, id := range p.rootBlockIDs {
		if b, ok := p.blocks[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// RootBlockIDs returns the root block ids in order.
func (p *Page) RootBlockIDs() []BlockID {
	cp := make([]BlockID, len(p.rootBlockIDs))
	copy(cp, p.rootBlockIDs)
	return cp
}

// AllBlocks returns every block in the page, in unspecified order.
func (p *Page) AllBlocks() []*Block {
	out := make([]*Block, 0, len(p.blocks))
	for _, b := range p.blocks {
		out = append(out, b)
	}
	return out
}

// GetAncestors returns the ordered chain from id's parent up to its
// root, nearest-parent first. Empty for root blocks. Terminates because
// invariant 5 rules out cycles.
func (p *Page) GetAncestors(id BlockID) []*Block {
	var out []*Block
	block, ok := p.blocks[id]
	if !ok {
		return out
	}
	cur := block.parentID
	for cur != nil {
		parent, ok := p.blocks[*cur]
		if !ok {
			break
		}
		out = append(out, parent)
		cur = parent.parentID
	}
	return out
}

// GetDescendants returns every transitive child of id, in pre-order of
// childIds traversal.
func (p *Page) GetDescendants(id BlockID) []*Block {
	var out []*Block
	block, ok := p.blocks[id]
	if !ok {
		return out
	}
	p.collectDescendants(block, &out)
	return out
}

func (p *Page) collectDescendants(block *Block, out *[]*Block) {
	for _, childID := range block.childIDs {
		child, ok := p.blocks[childID]
		if !ok {
			continue
		}
		*out = append(*out, child)
		p.collectDescendants(child, out)
	}
}

// GetHierarchyPath returns the root-to-id path, inclusive. It equals
// reverse(GetAncestors(id)) ++ [block(id)].
func (p *Page) GetHierarchyPath(id BlockID) []*Block {
	ancestors := p.GetAncestors(id)
	path := make([]*Block, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		path = append(path, ancestors[i])
	}
	if block, ok := p.blocks[id]; ok {
		path = append(path, block)
	}
	return path
}

// AllUrls returns every URL across every block, flattened; duplicates
// that occur in distinct blocks are preserved.
func (p *Page) AllUrls() []Url {
	var out []Url
	for _, b := range p.blocks {
		out = append(out, b.Urls()...)
	}
	return out
}

// AllPageReferences returns every reference across every block,
// flattened; duplicates that occur in distinct blocks are preserved.
func (p *Page) AllPageReferences() []PageReference {
	var out []PageReference
	for _, b := range p.blocks {
		out = append(out, b.PageReferences()...)
	}
	return out
}

// UrlContext pairs a URL-bearing block's URL with the page references
// found in its ancestor and descendant chains.
type UrlContext struct {
	Url            Url
	BlockID        BlockID
	AncestorRefs   []PageReference
	DescendantRefs []PageReference
}

// GetUrlsWithContext emits one UrlContext per (block, url) pair: for
// every block, for every URL it contains, the ancestor references
// (nearest-first concatenation of each ancestor's references) and the
// descendant references (pre-order concatenation over descendants).
func (p *Page) GetUrlsWithContext() []UrlContext {
	var out []UrlContext
	for _, b := range p.blocks {
		urls := b.Urls()
		if len(urls) == 0 {
			continue
		}
		ancestorRefs := refsOf(p.GetAncestors(b.id))
		descendantRefs := refsOf(p.GetDescendants(b.id))
		for _, u := range urls {
			out = append(out, UrlContext{
				Url:            u,
				BlockID:        b.id,
				AncestorRefs:   ancestorRefs,
				DescendantRefs: descendantRefs,
			})
		}
	}
	return out
}

// ReferenceContext pairs a reference-bearing block's reference with the
// URLs found in its ancestor and descendant chains.
type ReferenceContext struct {
	Reference      PageReference
	BlockID        BlockID
	AncestorUrls   []Url
	DescendantUrls []Url
}

// GetPageReferencesWithContext is the symmetric counterpart of
// GetUrlsWithContext: for every block, for every reference it contains,
// the ancestor and descendant URLs.
func (p *Page) GetPageReferencesWithContext() []ReferenceContext {
	var out []ReferenceContext
	for _, b := range p.blocks {
		refs := b.PageReferences()
		if len(refs) == 0 {
			continue
		}
		ancestorUrls := urlsOf(p.GetAncestors(b.id))
		descendantUrls := urlsOf(p.GetDescendants(b.id))
		for _, r := range refs {
			out = append(out, ReferenceContext{
				Reference:      r,
				BlockID:        b.id,
				AncestorUrls:   ancestorUrls,
				DescendantUrls: descendantUrls,
			})
		}
	}
	return out
}

func refsOf(blocks []*Block) []PageReference {
	var out []PageReference
	for _, b := range blocks {
		out = append(out, b.PageReferences()...)
	}
	return out
}

func urlsOf(blocks []*Block) []Url {
	var out []Url
	for _, b := range blocks {
		out = append(out, b.Urls()...)
	}
	return out
}
