package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
)

type mockEmbedder struct {
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{1, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

type mockRepo struct {
	exists        bool
	count         int
	createReplace *bool
	upserted      []domain.Document
	createErr     error
}

func (m *mockRepo) Exists(_ context.Context, _ string) (bool, error) { return m.exists, nil }
func (m *mockRepo) Count(_ context.Context, _ string) (int, error)   { return m.count, nil }

func (m *mockRepo) Create(_ context.Context, _ string, replace bool) error {
	m.createReplace = &replace
	return m.createErr
}

func (m *mockRepo) Upsert(_ context.Context, _ string, docs []domain.Document) error {
	m.upserted = append(m.upserted, docs...)
	return nil
}

func corpusFile(t *testing.T, rows int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("id,article_text,source\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "d%d,новость номер %d,rbc.ru\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestRunBatches(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(emb, repo, "news", corpusFile(t, 10), 4, zap.NewNop())

	if err := svc.Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.upserted) != 10 {
		t.Fatalf("expected 10 docs upserted, got %d", len(repo.upserted))
	}
	// 10 docs at batch size 4: 4+4+2
	if emb.calls != 3 {
		t.Errorf("expected 3 embed batches, got %d", emb.calls)
	}
	if repo.createReplace == nil || *repo.createReplace {
		t.Errorf("create must be called without replace")
	}
	if repo.upserted[0].ID != "d0" || len(repo.upserted[0].Vector) == 0 {
		t.Errorf("document missing id or vector: %+v", repo.upserted[0])
	}
	if repo.upserted[0].Metadata["source"] != "rbc.ru" {
		t.Errorf("metadata lost: %v", repo.upserted[0].Metadata)
	}
}

func TestRunSkipsPopulatedCollection(t *testing.T) {
	repo := &mockRepo{exists: true, count: 42}
	svc := New(&mockEmbedder{}, repo, "news", corpusFile(t, 5), 4, zap.NewNop())

	if err := svc.Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.createReplace != nil || len(repo.upserted) != 0 {
		t.Errorf("populated collection must be left untouched")
	}
}

func TestRunRebuildReplaces(t *testing.T) {
	repo := &mockRepo{exists: true, count: 42}
	svc := New(&mockEmbedder{}, repo, "news", corpusFile(t, 5), 4, zap.NewNop())

	if err := svc.Run(context.Background(), true); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.createReplace == nil || !*repo.createReplace {
		t.Fatalf("rebuild must recreate the collection")
	}
	if len(repo.upserted) != 5 {
		t.Errorf("expected 5 docs upserted, got %d", len(repo.upserted))
	}
}

func TestRunMissingCorpus(t *testing.T) {
	svc := New(&mockEmbedder{}, &mockRepo{}, "news", filepath.Join(t.TempDir(), "absent.csv"), 4, zap.NewNop())
	if err := svc.Run(context.Background(), false); err == nil {
		t.Fatal("expected error for missing corpus")
	}
}

func TestRunCreateError(t *testing.T) {
	wantErr := errors.New("index broken")
	repo := &mockRepo{createErr: wantErr}
	svc := New(&mockEmbedder{}, repo, "news", corpusFile(t, 3), 4, zap.NewNop())

	if err := svc.Run(context.Background(), false); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
}
