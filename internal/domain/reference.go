package domain

import "github.com/weswalla/logjam/internal/errs"

// ReferenceKind distinguishes a bracketed page reference from a tag.
type ReferenceKind string

const (
	// ReferenceKindPage marks a `[[title]]` reference.
	ReferenceKindPage ReferenceKind = "page"
	// ReferenceKindTag marks a `#title` reference.
	ReferenceKindTag ReferenceKind = "tag"
)

// PageReference is an inline link or tag found inside a block's content.
// Two references are equal iff both Title and Kind match; resolution to a
// PageID is explicitly out of scope (spec §1 Non-goals).
type PageReference struct {
	Title string
	Kind  ReferenceKind
}

// NewPageReference validates and constructs a PageReference.
func NewPageReference(title string, kind ReferenceKind) (PageReference, error) {
	if title == "" {
		return PageReference{}, errs.Invalidf("page reference title must not be empty")
	}
	if kind != ReferenceKindPage && kind != ReferenceKindTag {
		return PageReference{}, errs.Invalidf("unknown page reference kind: %q", kind)
	}
	return PageReference{Title: title, Kind: kind}, nil
}

// Equal reports whether two references have the same title and kind.
func (r PageReference) Equal(other PageReference) bool {
	return r.Title == other.Title && r.Kind == other.Kind
}

// String renders the reference in its source markup form: "[[title]]" for
// a page reference, "#title" for a tag.
func (r PageReference) String() string {
	switch r.Kind {
	case ReferenceKindTag:
		return "#" + r.Title
	default:
		return "[[" + r.Title + "]]"
	}
}
