// Package retrieval implements semantic search over the news index.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/repository/index"
)

// repo is the consumer interface for the vector index.
type repo interface {
	Query(ctx context.Context, collection string, vector []float32, k int) ([]index.Entry, error)
}

// Service embeds a query and runs nearest-neighbor search.
type Service struct {
	embedder   domain.Embedder
	repo       repo
	collection string
	logger     *zap.Logger
}

func New(embedder domain.Embedder, r repo, collection string, logger *zap.Logger) *Service {
	return &Service{
		embedder:   embedder,
		repo:       r,
		collection: collection,
		logger:     logger,
	}
}

// Search returns up to topK hits ordered by descending similarity.
// Similarity is 1 - cosine distance; with unit vectors it falls in [-1, 1]
// and is reported as-is, without clamping.
func (s *Service) Search(ctx context.Context, query string, topK int) (domain.SearchResponse, error) {
	if topK <= 0 {
		return domain.SearchResponse{}, fmt.Errorf("top_k must be positive, got %d", topK)
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("embed query: %w", err)
	}

	entries, err := s.repo.Query(ctx, s.collection, emb.Embedding, topK)
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("query index: %w", err)
	}

	results := make([]domain.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = domain.SearchResult{
			ID:         e.ID,
			Document:   e.Text,
			Metadata:   e.Metadata,
			Similarity: 1 - e.Distance,
		}
	}

	s.logger.Debug("search completed",
		zap.String("collection", s.collection),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)))

	return domain.SearchResponse{Query: query, Results: results}, nil
}
