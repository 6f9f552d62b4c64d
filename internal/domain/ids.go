// Package domain holds the page aggregate: validated value types, the
// Block entity, and the Page aggregate root, plus the tree queries and
// context-propagation operations defined over them.
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/weswalla/logjam/internal/errs"
)

// PageID uniquely identifies a Page.
type PageID string

// BlockID uniquely identifies a Block within its owning Page.
type BlockID string

// ChunkID uniquely identifies a TextChunk derived from a Block.
type ChunkID string

// NewPageID validates and constructs a PageID from an arbitrary string.
func NewPageID(s string) (PageID, error) {
	if s == "" {
		return "", errs.Invalidf("page id must not be empty")
	}
	return PageID(s), nil
}

// NewBlockID validates and constructs a BlockID from an arbitrary string.
func NewBlockID(s string) (BlockID, error) {
	if s == "" {
		return "", errs.Invalidf("block id must not be empty")
	}
	return BlockID(s), nil
}

// NewChunkID validates and constructs a ChunkID from an arbitrary string.
func NewChunkID(s string) (ChunkID, error) {
	if s == "" {
		return "", errs.Invalidf("chunk id must not be empty")
	}
	return ChunkID(s), nil
}

// NewChunkIDFrom builds the canonical ChunkID for the index'th chunk of a
// block: "${blockId}-chunk-${index}".
func NewChunkIDFrom(blockID BlockID, index int) ChunkID {
	return ChunkID(fmt.Sprintf("%s-chunk-%d", blockID, index))
}

// ChunkIDPrefix returns the prefix shared by every chunk derived from
// blockID, e.g. for use in a prefix scan when a vector store has no
// predicate delete.
func ChunkIDPrefix(blockID BlockID) string {
	return fmt.Sprintf("%s-chunk-", blockID)
}

// NewPageIDGen allocates a fresh, opaque PageID. Used by the parser, which
// always mints a new page identity from scratch.
func NewPageIDGen() PageID {
	return PageID(uuid.NewString())
}

// NewBlockIDGen allocates a fresh, opaque BlockID. Used by the parser for
// every block it creates.
func NewBlockIDGen() BlockID {
	return BlockID(uuid.NewString())
}
