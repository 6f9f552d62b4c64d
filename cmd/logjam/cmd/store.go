package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/weswalla/logjam/internal/config"
	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/embedding"
	"github.com/weswalla/logjam/internal/repository"
	"github.com/weswalla/logjam/internal/vectorstore"
)

// openRepository opens the SQLite page store configured by cfg.
func openRepository(cfg *config.Config) (*repository.SQLiteRepository, error) {
	repo, err := repository.NewSQLiteRepository(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open page repository: %w", err)
	}
	return repo, nil
}

// openVectorStore opens the HNSW vector store configured by cfg, loading
// its persisted state if present, and reconciles the repository's
// recorded embedding model against cfg. A model change discards the
// persisted vectors instead of loading them. The store is sized to the
// static embedder's output (see newEmbeddingService), whatever model is
// configured.
func openVectorStore(ctx context.Context, cfg *config.Config, repo *repository.SQLiteRepository) (vectorstore.Store, error) {
	model := domain.EmbeddingModel(cfg.Embeddings.Model)
	if model.DimensionCount() == 0 {
		return nil, fmt.Errorf("unknown embedding model %q", cfg.Embeddings.Model)
	}
	dims := domain.ModelStatic.DimensionCount()

	store := vectorstore.NewHNSWStore(vectorstore.DefaultConfig(dims))

	prior, ok, err := repo.GetState(ctx, repository.StateKeyEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("read embedding model state: %w", err)
	}

	if !ok || prior == string(model) {
		if err := store.Load(cfg.Storage.VectorStorePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load vector store: %w", err)
		}
	}

	if err := repo.SetState(ctx, repository.StateKeyEmbeddingModel, string(model)); err != nil {
		return nil, fmt.Errorf("record embedding model state: %w", err)
	}
	if err := repo.SetState(ctx, repository.StateKeyEmbeddingDimension, fmt.Sprintf("%d", dims)); err != nil {
		return nil, fmt.Errorf("record embedding dimension state: %w", err)
	}

	return store, nil
}

// newEmbeddingService builds an embedding.Service over store, using the
// static fallback embedder wrapped in an LRU cache: no network-backed
// model is wired into the CLI yet, so every configured model falls back
// to the deterministic hash-based embedder for a working
// chunk->embed->upsert->search path, while still exercising the same
// cache re-import and sync would lean on in front of a real model.
func newEmbeddingService(cfg *config.Config, store vectorstore.Store) *embedding.Service {
	embedder := embedding.NewCachedEmbedder(embedding.NewStaticEmbedder(), cfg.Embeddings.CacheSize)
	return embedding.NewService(embedder, store, embedding.Config{
		Model:            domain.EmbeddingModel(cfg.Embeddings.Model),
		MaxWordsPerChunk: cfg.Embeddings.MaxWordsPerChunk,
		OverlapWords:     cfg.Embeddings.OverlapWords,
		BatchSize:        cfg.Embeddings.BatchSize,
	})
}

// persistVectorStore saves store to cfg's configured path.
func persistVectorStore(cfg *config.Config, store vectorstore.Store) error {
	if err := store.Save(cfg.Storage.VectorStorePath); err != nil {
		return fmt.Errorf("persist vector store: %w", err)
	}
	return nil
}
