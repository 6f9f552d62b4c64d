package domain

// Block is a single bullet line: a leaf node carrying content, its
// position in the tree, and any URLs or page references it contains.
// Blocks never reference other blocks by pointer — only by BlockID —
// so the owning Page's block map is the only place a cycle could be
// introduced, and Page enforces acyclicity at insertion time (see
// Page.AddBlock).
type Block struct {
	id       BlockID
	content  BlockContent
	indent   IndentLevel
	parentID *BlockID
	childIDs []BlockID
	urls     []Url
	refs     []PageReference
}

// NewBlock constructs a Block. parentID may be nil for a root block.
func NewBlock(id BlockID, content BlockContent, indent IndentLevel, parentID *BlockID) *Block {
	return &Block{
		id:       id,
		content:  content,
		indent:   indent,
		parentID: parentID,
	}
}

// ID returns the block's identity.
func (b *Block) ID() BlockID { return b.id }

// Content returns the block's content.
func (b *Block) Content() BlockContent { return b.content }

// SetContent updates the block's content in place.
func (b *Block) SetContent(c BlockContent) { b.content = c }

// Indent returns the block's indent level.
func (b *Block) Indent() IndentLevel { return b.indent }

// ParentID returns the parent block's id, or nil for a root block.
func (b *Block) ParentID() *BlockID { return b.parentID }

// IsRoot reports whether the block has no parent.
func (b *Block) IsRoot() bool { return b.parentID == nil }

// ChildIDs returns the ordered list of child block ids.
func (b *Block) ChildIDs() []BlockID {
	cp := make([]BlockID, len(b.childIDs))
	copy(cp, b.childIDs)
	return cp
}

// addChild appends childID to ChildIDs unless already present.
func (b *Block) addChild(childID BlockID) {
	for _, id := range b.childIDs {
		if id == childID {
			return
		}
	}
	b.childIDs = append(b.childIDs, childID)
}

// removeChild drops childID from ChildIDs, if present.
func (b *Block) removeChild(childID BlockID) {
	for i, id := range b.childIDs {
		if id == childID {
			b.childIDs = append(b.childIDs[:i], b.childIDs[i+1:]...)
			return
		}
	}
}

// Urls returns the block's URLs in insertion order.
func (b *Block) Urls() []Url {
	cp := make([]Url, len(b.urls))
	copy(cp, b.urls)
	return cp
}

// SetUrls replaces the block's URL list, deduplicating while preserving
// first-seen order.
func (b *Block) SetUrls(urls []Url) {
	b.urls = dedupURLs(urls)
}

// AddUrl appends a URL if not already present.
func (b *Block) AddUrl(u Url) {
	for _, existing := range b.urls {
		if existing.Equal(u) {
			return
		}
	}
	b.urls = append(b.urls, u)
}

// PageReferences returns the block's references in insertion order.
func (b *Block) PageReferences() []PageReference {
	cp := make([]PageReference, len(b.refs))
	copy(cp, b.refs)
	return cp
}

// SetPageReferences replaces the block's reference list, deduplicating
// while preserving first-seen order.
func (b *Block) SetPageReferences(refs []PageReference) {
	b.refs = dedupRefs(refs)
}

// AddPageReference appends a reference if not already present.
func (b *Block) AddPageReference(r PageReference) {
	for _, existing := range b.refs {
		if existing.Equal(r) {
			return
		}
	}
	b.refs = append(b.refs, r)
}

func dedupURLs(urls []Url) []Url {
	seen := make(map[string]struct{}, len(urls))
	out := make([]Url, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u.String()]; ok {
			continue
		}
		seen[u.String()] = struct{}{}
		out = append(out, u)
	}
	return out
}

func dedupRefs(refs []PageReference) []PageReference {
	seen := make(map[PageReference]struct{}, len(refs))
	out := make([]PageReference, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
