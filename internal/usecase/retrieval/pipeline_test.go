package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/repository/index"
	ingestuc "github.com/fincore-labs/finchat/internal/usecase/ingest"
)

const histDim = 32

// histEmbedder produces unit token-count vectors over a vocabulary built on
// first sight. Identical texts map to identical vectors, so real cosine
// rankings can be asserted without a model.
type histEmbedder struct {
	vocab map[string]int
}

func newHistEmbedder() *histEmbedder {
	return &histEmbedder{vocab: make(map[string]int)}
}

func (e *histEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, histDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		i, ok := e.vocab[tok]
		if !ok {
			i = len(e.vocab)
			if i >= histDim {
				return domain.EmbeddingResult{}, fmt.Errorf("vocabulary exceeds %d tokens", histDim)
			}
			e.vocab[tok] = i
		}
		vec[i]++
	}
	return domain.EmbeddingResult{Embedding: domain.Normalize(vec)}, nil
}

// memIndex is a brute-force cosine-distance index satisfying both the
// ingest and retrieval repo interfaces.
type memIndex struct {
	docs map[string][]domain.Document
}

func newMemIndex() *memIndex {
	return &memIndex{docs: make(map[string][]domain.Document)}
}

func (m *memIndex) Exists(_ context.Context, collection string) (bool, error) {
	_, ok := m.docs[collection]
	return ok, nil
}

func (m *memIndex) Count(_ context.Context, collection string) (int, error) {
	return len(m.docs[collection]), nil
}

func (m *memIndex) Create(_ context.Context, collection string, _ bool) error {
	m.docs[collection] = nil
	return nil
}

func (m *memIndex) Upsert(_ context.Context, collection string, docs []domain.Document) error {
	m.docs[collection] = append(m.docs[collection], docs...)
	return nil
}

func (m *memIndex) Query(_ context.Context, collection string, vector []float32, k int) ([]index.Entry, error) {
	entries := make([]index.Entry, 0, len(m.docs[collection]))
	for _, d := range m.docs[collection] {
		var dot float64
		for i := range vector {
			dot += float64(vector[i]) * float64(d.Vector[i])
		}
		entries = append(entries, index.Entry{
			ID:       d.ID,
			Text:     d.Text,
			Metadata: d.Metadata,
			Distance: 1 - dot,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Distance < entries[j].Distance })
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

var newsRows = []struct {
	id   string
	text string
}{
	{"1", "Сбербанк объявил о рекордной прибыли"},
	{"2", "Газпром увеличил добычу газа"},
	{"3", "ЦБ повысил ключевую ставку"},
	{"4", "Рубль укрепился к доллару"},
}

func ingestNewsCorpus(t *testing.T) *Service {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("id,article_text\n")
	for _, row := range newsRows {
		fmt.Fprintf(&sb, "%s,%s\n", row.id, row.text)
	}
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	emb := newHistEmbedder()
	idx := newMemIndex()

	ingester := ingestuc.New(emb, idx, "news", path, 2, zap.NewNop())
	if err := ingester.Run(context.Background(), false); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	return New(emb, idx, "news", zap.NewNop())
}

func TestPipelineRoundTripAllIDs(t *testing.T) {
	svc := ingestNewsCorpus(t)

	resp, err := svc.Search(context.Background(), "новости", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != len(newsRows) {
		t.Fatalf("expected %d results, got %d", len(newsRows), len(resp.Results))
	}

	seen := make(map[string]int)
	for _, r := range resp.Results {
		seen[r.ID]++
	}
	for _, row := range newsRows {
		if seen[row.id] != 1 {
			t.Errorf("id %q returned %d times, want exactly once", row.id, seen[row.id])
		}
	}
}

func TestPipelineReflexivity(t *testing.T) {
	svc := ingestNewsCorpus(t)

	for _, row := range newsRows {
		resp, err := svc.Search(context.Background(), row.text, 2)
		if err != nil {
			t.Fatalf("Search(%q): %v", row.text, err)
		}
		if len(resp.Results) == 0 || resp.Results[0].ID != row.id {
			t.Errorf("query with stored text of %q did not rank it first: %+v", row.id, resp.Results)
		}
		if sim := resp.Results[0].Similarity; sim < 0.999 || sim > 1.001 {
			t.Errorf("self-similarity for %q = %v, want 1", row.id, sim)
		}
	}
}

func TestPipelineSberbankRanking(t *testing.T) {
	svc := ingestNewsCorpus(t)

	resp, err := svc.Search(context.Background(), "Информация о Сбербанк", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	if resp.Results[0].ID != "1" {
		t.Errorf("expected the Сбербанк document first, got %q", resp.Results[0].ID)
	}

	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Similarity > resp.Results[i-1].Similarity {
			t.Errorf("results not ordered by descending similarity at %d", i)
		}
	}
	for _, r := range resp.Results {
		if r.Similarity < -1 || r.Similarity > 1 {
			t.Errorf("similarity %v for %q outside [-1, 1]", r.Similarity, r.ID)
		}
	}
}
