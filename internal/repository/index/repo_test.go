package index

import (
	"context"
	"errors"
	"testing"

	"github.com/fincore-labs/finchat/internal/db"
	"github.com/fincore-labs/finchat/internal/domain"
)

// --- Mock store ---

type mockStore struct {
	indexExists   bool
	count         int
	knnResult     *db.SearchResult
	knnErr        error
	countErr      error
	created       []*db.IndexDefinition
	dropped       []string
	purged        []string
	upserted      []db.HashSetItem
	createCalled  bool
	dropCalled    bool
	purgeCalled   bool
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.upserted = append(m.upserted, items...)
	return nil
}

func (m *mockStore) DelPattern(_ context.Context, pattern string) (int, error) {
	m.purgeCalled = true
	m.purged = append(m.purged, pattern)
	return 0, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createCalled = true
	m.created = append(m.created, def)
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	m.dropCalled = true
	m.dropped = append(m.dropped, name)
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, nil
}

func (m *mockStore) SearchKNN(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
	return m.knnResult, m.knnErr
}

func (m *mockStore) SearchCount(_ context.Context, _ string) (int, error) {
	return m.count, m.countErr
}

// --- Tests ---

func TestCreate_NewCollection(t *testing.T) {
	s := &mockStore{}
	r := New(s, "finchat:", 4)

	if err := r.Create(context.Background(), "news", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.createCalled {
		t.Fatal("expected FT.CREATE")
	}
	if s.dropCalled {
		t.Error("drop must not be called for a fresh collection")
	}

	def := s.created[0]
	if def.Name != "finchat:news:idx" {
		t.Errorf("index name = %q", def.Name)
	}
	if def.Prefixes[0] != "finchat:news:" {
		t.Errorf("prefix = %q", def.Prefixes[0])
	}
	if def.Fields[0].VectorDistance != db.DistanceCosine {
		t.Errorf("distance = %q, want COSINE", def.Fields[0].VectorDistance)
	}
}

func TestCreate_NonEmptyWithoutReplace(t *testing.T) {
	s := &mockStore{indexExists: true, count: 42}
	r := New(s, "finchat:", 4)

	err := r.Create(context.Background(), "news", false)
	if !errors.Is(err, domain.ErrCollectionExists) {
		t.Fatalf("expected ErrCollectionExists, got %v", err)
	}
	if s.createCalled {
		t.Error("FT.CREATE must not run on a non-empty collection without replace")
	}
}

func TestCreate_Replace(t *testing.T) {
	s := &mockStore{indexExists: true, count: 42}
	r := New(s, "finchat:", 4)

	if err := r.Create(context.Background(), "news", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.dropCalled {
		t.Error("expected FT.DROPINDEX on replace")
	}
	if !s.purgeCalled {
		t.Error("expected document purge on replace")
	}
	if !s.createCalled {
		t.Error("expected FT.CREATE after drop")
	}
}

func TestUpsert_DuplicateID(t *testing.T) {
	s := &mockStore{}
	r := New(s, "finchat:", 2)

	docs := []domain.Document{
		{ID: "1", Text: "a", Vector: []float32{1, 0}},
		{ID: "1", Text: "b", Vector: []float32{0, 1}},
	}

	err := r.Upsert(context.Background(), "news", docs)
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if len(s.upserted) != 0 {
		t.Error("nothing must be written on a duplicate batch")
	}
}

func TestUpsert_DimMismatch(t *testing.T) {
	s := &mockStore{}
	r := New(s, "finchat:", 4)

	docs := []domain.Document{{ID: "1", Text: "a", Vector: []float32{1, 0}}}

	err := r.Upsert(context.Background(), "news", docs)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUpsert_MetadataFields(t *testing.T) {
	s := &mockStore{}
	r := New(s, "finchat:", 2)

	docs := []domain.Document{{
		ID:       "7",
		Text:     "Сбербанк — крупнейший банк России.",
		Vector:   []float32{1, 0},
		Metadata: map[string]string{"source": "rbc", "date": "2024-01-01", "__vector": "evil"},
	}}

	if err := r.Upsert(context.Background(), "news", docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := s.upserted[0]
	if item.Key != "finchat:news:7" {
		t.Errorf("key = %q", item.Key)
	}
	if item.Fields["source"] != "rbc" {
		t.Errorf("source field = %q", item.Fields["source"])
	}
	if item.Fields["__text"] != docs[0].Text {
		t.Error("document text not stored")
	}
	if item.Fields["__vector"] == "evil" {
		t.Error("reserved field must not be overwritten by metadata")
	}
}

func TestQuery_MapsEntries(t *testing.T) {
	s := &mockStore{knnResult: &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{
				Key:      "finchat:news:1",
				Distance: 0.1,
				Fields:   map[string]string{"__text": "doc one", "source": "rbc"},
			},
			{
				Key:      "finchat:news:2",
				Distance: 0.4,
				Fields:   map[string]string{"__text": "doc two", "date": "2024-02-02"},
			},
		},
	}}
	r := New(s, "finchat:", 2)

	entries, err := r.Query(context.Background(), "news", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "1" || entries[1].ID != "2" {
		t.Errorf("ids = %q, %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].Text != "doc one" {
		t.Errorf("text = %q", entries[0].Text)
	}
	if entries[0].Metadata["source"] != "rbc" {
		t.Errorf("metadata = %v", entries[0].Metadata)
	}
	if _, ok := entries[0].Metadata["__text"]; ok {
		t.Error("reserved fields must not leak into metadata")
	}
	if entries[0].Distance >= entries[1].Distance {
		t.Error("entries must keep ascending distance order")
	}
}

func TestQuery_MissingIndex(t *testing.T) {
	s := &mockStore{knnErr: db.ErrIndexNotFound}
	r := New(s, "finchat:", 2)

	_, err := r.Query(context.Background(), "news", []float32{1, 0}, 3)
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}
