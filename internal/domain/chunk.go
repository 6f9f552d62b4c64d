package domain

// TextChunk is a preprocessed, word-bounded slice of a block's content,
// sized for an embedding model. It is transient: produced by the
// embedding pipeline and never stored on the Page aggregate itself.
type TextChunk struct {
	ChunkID             ChunkID
	BlockID             BlockID
	PageID              PageID
	ChunkIndex          int
	TotalChunks         int
	OriginalContent     string
	PreprocessedContent string
	PageTitle           string
	HierarchyPath       []string
	Embedding           *EmbeddingVector
}
