package embedding

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/logging"
	"github.com/weswalla/logjam/internal/preprocess"
	"github.com/weswalla/logjam/internal/vectorstore"
)

// Default tuning values per spec §4.9.
const (
	DefaultMaxWordsPerChunk = 150
	DefaultOverlapWords     = 50
	DefaultBatchSize        = 32
)

// Config tunes the embedding service.
type Config struct {
	Model            domain.EmbeddingModel
	MaxWordsPerChunk int
	OverlapWords     int
	BatchSize        int
}

// WithDefaults fills zero-valued fields with the spec's defaults.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = domain.DefaultEmbeddingModel
	}
	if c.MaxWordsPerChunk == 0 {
		c.MaxWordsPerChunk = DefaultMaxWordsPerChunk
	}
	if c.OverlapWords == 0 {
		c.OverlapWords = DefaultOverlapWords
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Stats reports the outcome of a per-page embedding run.
type Stats struct {
	BlocksProcessed int
	ChunksCreated   int
	ChunksStored    int
	Errors          int
}

// SearchHit is a single semantic search result.
type SearchHit struct {
	ChunkID             domain.ChunkID
	BlockID             domain.BlockID
	PageID              domain.PageID
	PageTitle           string
	OriginalContent     string
	PreprocessedContent string
	HierarchyPath       []string
	Score               domain.SimilarityScore
}

// Service orchestrates chunk generation, batched embedding, vector
// store upsert, semantic search, and chunk-scoped delete. It keeps
// chunk metadata (everything but the embedding itself) in memory,
// indexed by chunk id and by owning page, since vectorstore.Store only
// maps an opaque id to a vector.
type Service struct {
	mu       sync.Mutex
	embedder Embedder
	store    vectorstore.Store
	config   Config
	log      *slog.Logger

	chunks       map[domain.ChunkID]domain.TextChunk
	blocksByPage map[domain.PageID]map[domain.BlockID]struct{}
}

// NewService constructs a Service. config is normalized with
// WithDefaults.
func NewService(embedder Embedder, store vectorstore.Store, config Config) *Service {
	return &Service{
		embedder:     embedder,
		store:        store,
		config:       config.WithDefaults(),
		log:          logging.Component(slog.Default(), "embedding"),
		chunks:       make(map[domain.ChunkID]domain.TextChunk),
		blocksByPage: make(map[domain.PageID]map[domain.BlockID]struct{}),
	}
}

// EmbedPage runs the per-page pipeline of spec §4.9: chunk every
// non-empty block, batch-embed, and upsert into the vector store.
func (s *Service) EmbedPage(ctx context.Context, page *domain.Page) (Stats, error) {
	var stats Stats
	var buffer []domain.TextChunk

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if err := s.flush(ctx, buffer); err != nil {
			stats.Errors++
		} else {
			stats.ChunksStored += len(buffer)
		}
		buffer = nil
	}

	for _, block := range page.AllBlocks() {
		if block.Content().Empty() {
			continue
		}
		stats.BlocksProcessed++

		hierarchyPath := hierarchyStrings(page.GetHierarchyPath(block.ID()))
		processed := preprocess.Process(block.Content().String(), page.Title(), hierarchyPath)
		pieces := preprocess.Chunk(processed, s.config.MaxWordsPerChunk, s.config.OverlapWords)

		for i, piece := range pieces {
			stats.ChunksCreated++
			buffer = append(buffer, domain.TextChunk{
				ChunkID:             domain.NewChunkIDFrom(block.ID(), i),
				BlockID:             block.ID(),
				PageID:              page.ID(),
				ChunkIndex:          i,
				TotalChunks:         len(pieces),
				OriginalContent:     block.Content().String(),
				PreprocessedContent: piece,
				PageTitle:           page.Title(),
				HierarchyPath:       hierarchyPath,
			})
			if len(buffer) >= s.config.BatchSize {
				flush()
			}
		}
	}
	flush()

	s.log.Debug("embedded page",
		slog.String("page", string(page.ID())),
		slog.Int("blocks_processed", stats.BlocksProcessed),
		slog.Int("chunks_stored", stats.ChunksStored),
		slog.Int("errors", stats.Errors))

	return stats, nil
}

// flush embeds and upserts one batch, then records the chunks'
// metadata for later search and delete.
func (s *Service) flush(ctx context.Context, batch []domain.TextChunk) error {
	texts := make([]string, len(batch))
	ids := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.PreprocessedContent
		ids[i] = string(c.ChunkID)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.log.Warn("embed batch failed", slog.Int("batch_size", len(batch)), slog.String("error", err.Error()))
		return errs.Wrap(errs.InvalidOperation, "embed batch", err)
	}
	if err := s.store.Add(ctx, ids, vectors); err != nil {
		s.log.Warn("upsert vectors failed", slog.Int("batch_size", len(batch)), slog.String("error", err.Error()))
		return errs.Wrap(errs.InvalidOperation, "upsert vectors", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range batch {
		s.chunks[c.ChunkID] = c
		blocks, ok := s.blocksByPage[c.PageID]
		if !ok {
			blocks = make(map[domain.BlockID]struct{})
			s.blocksByPage[c.PageID] = blocks
		}
		blocks[c.BlockID] = struct{}{}
	}
	return nil
}

// Search embeds query and returns its top-limit nearest chunks.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Warn("embed query failed", slog.String("error", err.Error()))
		return nil, errs.Wrap(errs.InvalidOperation, "embed query", err)
	}

	results, err := s.store.Search(ctx, vec, limit)
	if err != nil {
		s.log.Warn("vector search failed", slog.String("error", err.Error()))
		return nil, errs.Wrap(errs.InvalidOperation, "search vector store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		chunk, ok := s.chunks[domain.ChunkID(r.ID)]
		if !ok {
			continue
		}
		score, err := domain.NewSimilarityScore(float64(r.Score))
		if err != nil {
			score = domain.NewSimilarityScoreFromCosine(float64(r.Score)*2 - 1)
		}
		hits = append(hits, SearchHit{
			ChunkID:             chunk.ChunkID,
			BlockID:             chunk.BlockID,
			PageID:              chunk.PageID,
			PageTitle:           chunk.PageTitle,
			OriginalContent:     chunk.OriginalContent,
			PreprocessedContent: chunk.PreprocessedContent,
			HierarchyPath:       chunk.HierarchyPath,
			Score:               score,
		})
	}
	return hits, nil
}

// DeletePageEmbeddings removes every chunk belonging to pageID.
func (s *Service) DeletePageEmbeddings(ctx context.Context, pageID domain.PageID) error {
	s.mu.Lock()
	blocks := s.blocksByPage[pageID]
	blockIDs := make([]domain.BlockID, 0, len(blocks))
	for bid := range blocks {
		blockIDs = append(blockIDs, bid)
	}
	delete(s.blocksByPage, pageID)
	s.mu.Unlock()

	for _, bid := range blockIDs {
		if err := s.deleteBlockChunks(ctx, bid); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBlockEmbeddings removes every chunk belonging to blockID.
func (s *Service) DeleteBlockEmbeddings(ctx context.Context, blockID domain.BlockID) error {
	return s.deleteBlockChunks(ctx, blockID)
}

func (s *Service) deleteBlockChunks(ctx context.Context, blockID domain.BlockID) error {
	prefix := domain.ChunkIDPrefix(blockID)
	if err := s.store.DeleteByPrefix(ctx, prefix); err != nil {
		s.log.Warn("delete block embeddings failed", slog.String("block", string(blockID)), slog.String("error", err.Error()))
		return errs.Wrap(errs.InvalidOperation, "delete block embeddings", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.chunks {
		if strings.HasPrefix(string(id), prefix) {
			delete(s.chunks, id)
		}
	}
	for pageID, blocks := range s.blocksByPage {
		delete(blocks, blockID)
		if len(blocks) == 0 {
			delete(s.blocksByPage, pageID)
		}
	}
	return nil
}

func hierarchyStrings(path []*domain.Block) []string {
	out := make([]string, len(path))
	for i, b := range path {
		out[i] = b.Content().String()
	}
	return out
}
