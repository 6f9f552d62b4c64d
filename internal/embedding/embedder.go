// Package embedding orchestrates turning a page's blocks into stored,
// searchable vector chunks: preprocessing and chunking each block's
// content, batching calls to an Embedder, upserting into a
// vectorstore.Store, and serving semantic search and delete.
package embedding

import "context"

// Embedder generates vector embeddings for text. The concrete model
// backend (network-served or local) is an external collaborator; this
// interface only carries the shape the embedding service needs.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension this embedder produces.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
