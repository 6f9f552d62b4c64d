package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
)

// Weights for the hash-based vector.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// stopWords filters common outliner/markup noise tokens out of the
// token component of the vector.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"this": true, "that": true, "todo": true, "done": true,
}

// StaticEmbedder produces deterministic, dimension-correct embeddings
// from a hash of the input text, with no network dependency or model
// download. Used as the offline fallback for domain.ModelStatic, and in
// tests so the whole chunk->embed->upsert->search pipeline is
// exercisable without a real model server.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a static embedder producing
// domain.ModelStatic-dimensioned vectors.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates a deterministic embedding for text.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errs.InvalidOpf("embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	dims := domain.ModelStatic.DimensionCount()
	if trimmed == "" {
		return make([]float32, dims), nil
	}
	return normalize(e.vectorFor(trimmed, dims)), nil
}

func (e *StaticEmbedder) vectorFor(text string, dims int) []float32 {
	vector := make([]float32, dims)

	for _, token := range tokenize(text) {
		if stopWords[token] {
			continue
		}
		vector[hashToIndex(token, dims)] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range ngrams(normalized, ngramSize) {
		vector[hashToIndex(ngram, dims)] += ngramWeight
	}
	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		if lower := strings.ToLower(word); lower != "" {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ngrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	mag := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / mag)
	}
	return out
}

// EmbedBatch generates embeddings for multiple texts in order.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errs.InvalidOpf("embedder is closed")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns domain.ModelStatic's dimension count.
func (e *StaticEmbedder) Dimensions() int {
	return domain.ModelStatic.DimensionCount()
}

// ModelName returns domain.ModelStatic's identifier.
func (e *StaticEmbedder) ModelName() string {
	return domain.ModelStatic.Identifier()
}

// Available always reports true unless the embedder has been closed.
func (e *StaticEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close marks the embedder closed.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
