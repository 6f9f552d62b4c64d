// Package markdown converts outliner-style indented bullet text into a
// domain.Page tree, extracting inline URLs and page references as it goes.
package markdown

import (
	"strings"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
)

// Parse reads the given markdown source and builds a fresh *domain.Page
// titled with title. Returns an error of kind Parse if a
// non-root line's indent level has no recorded ancestor.
func Parse(title, source string) (*domain.Page, error) {
	page := domain.NewPage(domain.NewPageIDGen(), title)

	levelToBlock := make(map[int]domain.BlockID)

	for _, rawLine := range strings.Split(source, "\n") {
		level, content, ok := stripLine(rawLine)
		if !ok {
			continue
		}

		blockID := domain.NewBlockIDGen()

		var parentID *domain.BlockID
		if level > 0 {
			parent, ok := levelToBlock[level-1]
			if !ok {
				return nil, errs.Parsef("line %q at level %d has no parent at level %d", content, level, level-1)
			}
			parentID = &parent
		}

		block := domain.NewBlock(blockID, domain.NewBlockContent(content), domain.IndentLevel(level), parentID)
		block.SetUrls(extractUrls(content))
		block.SetPageReferences(extractReferences(content))

		if err := page.AddBlock(block); err != nil {
			return nil, err
		}

		levelToBlock[level] = blockID
		for lvl := range levelToBlock {
			if lvl > level {
				delete(levelToBlock, lvl)
			}
		}
	}

	return page, nil
}

// stripLine computes a line's indent level and bullet-stripped content.
// Returns ok=false for blank lines or lines whose stripped content is
// empty.
func stripLine(line string) (level int, content string, ok bool) {
	i := 0
	for i < len(line) {
		switch line[i] {
		case '\t':
			level++
			i++
		case ' ':
			if i+1 < len(line) && line[i+1] == ' ' {
				level++
				i += 2
			} else {
				i++ // trailing single space does not count
				goto doneIndent
			}
		default:
			goto doneIndent
		}
	}
doneIndent:
	rest := line[i:]
	rest = stripBullet(rest)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 0, "", false
	}
	return level, rest, true
}

// stripBullet drops a leading "- ", "* ", "+ " pair, or a bare leading
// "-"/"*"/"+" followed by further leading whitespace trimmed.
func stripBullet(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '-', '*', '+':
		if len(s) > 1 && s[1] == ' ' {
			return s[2:]
		}
		return strings.TrimLeft(s[1:], " \t")
	default:
		return s
	}
}

// extractUrls splits on whitespace, trims trailing ASCII punctuation from
// each token, and keeps tokens that begin with http:// or https://.
func extractUrls(content string) []domain.Url {
	var out []domain.Url
	for _, tok := range strings.Fields(content) {
		tok = strings.TrimRight(tok, ".,;:!?)]}\"'")
		if u, err := domain.NewUrl(tok); err == nil {
			out = append(out, u)
		}
	}
	return out
}

// extractReferences performs a single left-to-right scan recognizing
// "[[title]]" bracketed references and "#tag" tags.
func extractReferences(content string) []domain.PageReference {
	var out []domain.PageReference
	runes := []rune(content)
	n := len(runes)

	for i := 0; i < n; {
		switch {
		case i+1 < n && runes[i] == '[' && runes[i+1] == '[':
			j := i + 2
			for j+1 < n && !(runes[j] == ']' && runes[j+1] == ']') {
				j++
			}
			if j+1 < n && runes[j] == ']' && runes[j+1] == ']' {
				title := strings.TrimSpace(string(runes[i+2 : j]))
				if title != "" {
					if ref, err := domain.NewPageReference(title, domain.ReferenceKindPage); err == nil {
						out = append(out, ref)
					}
				}
				i = j + 2
				continue
			}
			// malformed: no matching "]]" ahead
			i++
		case runes[i] == '#' && (i == 0 || isSpace(runes[i-1])):
			j := i + 1
			for j < n && !isSpace(runes[j]) && !isPunct(runes[j]) {
				j++
			}
			if j > i+1 {
				tag := string(runes[i+1 : j])
				if ref, err := domain.NewPageReference(tag, domain.ReferenceKindTag); err == nil {
					out = append(out, ref)
				}
			}
			i = j
		default:
			i++
		}
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', ')', '(', '[', ']', '{', '}', '"', '\'':
		return true
	default:
		return false
	}
}
