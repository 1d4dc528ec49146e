// Package ingest builds the vector index from the news corpus.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/corpus"
	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/metrics"
)

// minCorpusSize is the size below which the corpus is suspiciously small.
const minCorpusSize = 100

// repo is the consumer interface for the vector index.
type repo interface {
	Exists(ctx context.Context, collection string) (bool, error)
	Create(ctx context.Context, collection string, replace bool) error
	Upsert(ctx context.Context, collection string, docs []domain.Document) error
	Count(ctx context.Context, collection string) (int, error)
}

// Service loads the CSV corpus, embeds it in batches and writes the index.
type Service struct {
	embedder   domain.Embedder
	repo       repo
	collection string
	csvPath    string
	batchSize  int
	logger     *zap.Logger
}

func New(embedder domain.Embedder, r repo, collection, csvPath string, batchSize int, logger *zap.Logger) *Service {
	return &Service{
		embedder:   embedder,
		repo:       r,
		collection: collection,
		csvPath:    csvPath,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Run ingests the corpus. With rebuild set the collection is dropped and
// recreated from scratch; otherwise an existing non-empty collection is
// left untouched.
func (s *Service) Run(ctx context.Context, rebuild bool) error {
	if !rebuild {
		exists, err := s.repo.Exists(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("check collection: %w", err)
		}
		if exists {
			count, err := s.repo.Count(ctx, s.collection)
			if err != nil {
				return fmt.Errorf("count documents: %w", err)
			}
			if count > 0 {
				s.logger.Info("collection already populated, skipping ingest",
					zap.String("collection", s.collection),
					zap.Int("documents", count))
				return nil
			}
		}
	}

	docs, err := corpus.Load(s.csvPath, s.logger)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("corpus %s has no usable rows", s.csvPath)
	}
	if len(docs) < minCorpusSize {
		s.logger.Warn("corpus is unusually small",
			zap.Int("documents", len(docs)),
			zap.Int("expected_at_least", minCorpusSize))
	}

	if err := s.repo.Create(ctx, s.collection, rebuild); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		if err := s.ingestBatch(ctx, docs[start:end]); err != nil {
			return fmt.Errorf("batch %d..%d: %w", start, end, err)
		}
		s.logger.Info("batch ingested",
			zap.String("collection", s.collection),
			zap.Int("done", end),
			zap.Int("total", len(docs)))
	}

	s.logger.Info("ingest finished",
		zap.String("collection", s.collection),
		zap.Int("documents", len(docs)))
	return nil
}

func (s *Service) ingestBatch(ctx context.Context, batch []corpus.Document) error {
	start := time.Now()

	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Text
	}

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embedder, texts)
	}
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	docs := make([]domain.Document, len(batch))
	for i, d := range batch {
		docs[i] = domain.Document{
			ID:       d.ID,
			Text:     d.Text,
			Metadata: d.Metadata,
			Vector:   res.Embeddings[i],
		}
	}

	if err := s.repo.Upsert(ctx, s.collection, docs); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	metrics.IngestedDocsTotal.WithLabelValues(s.collection).Add(float64(len(docs)))
	metrics.IngestBatchDuration.WithLabelValues(s.collection).Observe(time.Since(start).Seconds())
	return nil
}
