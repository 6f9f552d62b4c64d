package domain

import (
	"strings"

	"github.com/weswalla/logjam/internal/errs"
)

// BlockContent wraps a block's raw text. It is intentionally permissive —
// any string is a valid BlockContent — but exposes Empty() for callers
// that need to treat whitespace-only content as absent (e.g. the
// embedding pipeline skips such blocks per spec §4.9).
type BlockContent struct {
	value string
}

// NewBlockContent wraps an arbitrary string as BlockContent.
func NewBlockContent(s string) BlockContent {
	return BlockContent{value: s}
}

// String returns the wrapped text.
func (c BlockContent) String() string {
	return c.value
}

// Empty reports whether the trimmed content is empty.
func (c BlockContent) Empty() bool {
	return strings.TrimSpace(c.value) == ""
}

// IndentLevel is a block's depth within its page tree; 0 is the root.
type IndentLevel int

// RootIndent is the indent level of a top-level block.
const RootIndent IndentLevel = 0

// NewIndentLevel validates and constructs an IndentLevel.
func NewIndentLevel(n int) (IndentLevel, error) {
	if n < 0 {
		return 0, errs.Invalidf("indent level must be non-negative, got %d", n)
	}
	return IndentLevel(n), nil
}

// IsRoot reports whether this is the root indent level.
func (l IndentLevel) IsRoot() bool {
	return l == RootIndent
}

// Less reports whether l is shallower than other.
func (l IndentLevel) Less(other IndentLevel) bool {
	return l < other
}
