// Package preprocess turns a block's raw content into an embedding-ready
// string, and splits that string into overlapping word chunks sized for
// an embedding model's context window.
package preprocess

import (
	"regexp"
	"strings"
)

var statusMarker = regexp.MustCompile(`^(TODO|DONE|LATER|NOW|IN-PROGRESS)\s+`)
var pageRefPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
var tagPattern = regexp.MustCompile(`(^|\s)#(\w+)`)

// Process strips outliner markup from content, then splices page and
// hierarchy context around it. hierarchyPath is the block's root-to-self
// path (as returned by Page.GetHierarchyPath, stringified); only its
// ancestors — everything but the last, current-block entry — contribute
// context.
func Process(content, pageTitle string, hierarchyPath []string) string {
	body := statusMarker.ReplaceAllString(content, "")
	body = pageRefPattern.ReplaceAllString(body, "$1")
	body = tagPattern.ReplaceAllString(body, "$1$2")
	body = strings.TrimSpace(body)

	var b strings.Builder
	if pageTitle != "" {
		b.WriteString("Page: ")
		b.WriteString(pageTitle)
		b.WriteString(". ")
	}

	if ancestors := ancestorsOf(hierarchyPath); len(ancestors) > 0 {
		ctx := lastTwo(ancestors)
		b.WriteString("Context: ")
		b.WriteString(strings.Join(ctx, " > "))
		b.WriteString(". ")
	}

	b.WriteString(body)
	return strings.TrimSpace(b.String())
}

func ancestorsOf(hierarchyPath []string) []string {
	if len(hierarchyPath) <= 1 {
		return nil
	}
	return hierarchyPath[:len(hierarchyPath)-1]
}

func lastTwo(s []string) []string {
	if len(s) <= 2 {
		return s
	}
	return s[len(s)-2:]
}

// Chunk word-splits text and, if it fits within maxWords, returns it as
// the single chunk. Otherwise it produces overlapping chunks of at most
// maxWords words each, advancing by maxWords-overlapWords words per
// chunk. Callers must ensure overlapWords < maxWords; otherwise start
// never advances and Chunk does not terminate.
func Chunk(text string, maxWords, overlapWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= maxWords {
		return []string{strings.Join(words, " ")}
	}

	var chunks []string
	start := 0
	for {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlapWords
	}
	return chunks
}
