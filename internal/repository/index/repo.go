// Package index is the persistent vector index over Redis FT indexes.
// One collection = one FT index over hash keys <prefix><collection>:<id>.
package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fincore-labs/finchat/internal/db"
	"github.com/fincore-labs/finchat/internal/domain"
)

// Reserved hash fields; everything else in a document hash is metadata.
const (
	fieldText   = "__text"
	fieldVector = "__vector"
)

// store is the consumer interface for index operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelPattern(ctx context.Context, pattern string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// Entry is a single nearest-neighbor hit, ascending Distance order.
type Entry struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// HNSWConfig holds HNSW build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo manages vector index collections.
type Repo struct {
	store     store
	keyPrefix string
	dim       int
	algo      db.VectorAlgorithm
	hnsw      HNSWConfig
}

// New creates an index repository for vectors of the given dimension.
// The default algorithm is FLAT (exact search).
func New(s store, keyPrefix string, dim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, dim: dim, algo: db.VectorFlat}
}

// WithHNSW switches the index to the HNSW algorithm with the given parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.algo = db.VectorHNSW
	r.hnsw = cfg
	return r
}

func (r *Repo) docPrefix(collection string) string {
	return r.keyPrefix + collection + ":"
}

func (r *Repo) indexName(collection string) string {
	return r.keyPrefix + collection + ":idx"
}

// Exists reports whether the collection's FT index exists.
func (r *Repo) Exists(ctx context.Context, collection string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.indexName(collection))
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", collection, err)
	}
	return ok, nil
}

// Create creates the collection's FT index.
// A non-empty existing collection fails with domain.ErrCollectionExists unless
// replace is set; replace drops the index together with all stored documents
// and recreates it from scratch (full rebuild, never incremental migration).
func (r *Repo) Create(ctx context.Context, collection string, replace bool) error {
	name := r.indexName(collection)

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", collection, err)
	}

	if exists {
		if !replace {
			n, err := r.store.SearchCount(ctx, name)
			if err != nil {
				return fmt.Errorf("count %s: %w", collection, err)
			}
			if n > 0 {
				return fmt.Errorf("collection %q holds %d documents: %w",
					collection, n, domain.ErrCollectionExists)
			}
		}
		if err := r.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", collection, err)
		}
		if _, err := r.store.DelPattern(ctx, r.docPrefix(collection)+"*"); err != nil {
			return fmt.Errorf("purge documents %s: %w", collection, err)
		}
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{r.docPrefix(collection)},
		Fields: []db.IndexField{
			{
				Name:              fieldVector,
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        r.algo,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", collection, err)
	}
	return nil
}

// Upsert writes a batch of documents. Each Document must carry a vector of
// the configured dimension; ids must be unique within the batch. Re-ingesting
// an existing id overwrites the stored entry.
func (r *Repo) Upsert(ctx context.Context, collection string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(docs))
	items := make([]db.HashSetItem, 0, len(docs))

	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document without id in batch")
		}
		if seen[doc.ID] {
			return fmt.Errorf("id %q: %w", doc.ID, domain.ErrDuplicateID)
		}
		seen[doc.ID] = true

		if len(doc.Vector) != r.dim {
			return fmt.Errorf("id %q: got %d, want %d: %w",
				doc.ID, len(doc.Vector), r.dim, domain.ErrVectorDimMismatch)
		}

		fields := map[string]string{
			fieldText:   doc.Text,
			fieldVector: vectorToBytes(doc.Vector),
		}
		for k, v := range doc.Metadata {
			if strings.HasPrefix(k, "__") {
				continue
			}
			fields[k] = v
		}

		items = append(items, db.HashSetItem{
			Key:    r.docPrefix(collection) + doc.ID,
			Fields: fields,
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d docs into %s: %w", len(items), collection, err)
	}
	return nil
}

// Query returns up to k nearest neighbors by cosine distance, closest first.
// A missing collection index maps to domain.ErrCollectionNotFound.
func (r *Repo) Query(ctx context.Context, collection string, vector []float32, k int) ([]Entry, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: r.indexName(collection),
		Vector:    vector,
		K:         k,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("collection %q: %w", collection, domain.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("knn %s: %w", collection, err)
	}

	prefix := r.docPrefix(collection)
	entries := make([]Entry, 0, len(sr.Entries))

	for _, se := range sr.Entries {
		entry := Entry{
			ID:       strings.TrimPrefix(se.Key, prefix),
			Distance: se.Distance,
			Metadata: make(map[string]string),
		}
		for field, v := range se.Fields {
			switch field {
			case fieldText:
				entry.Text = v
			case fieldVector:
				// not returned to callers
			default:
				entry.Metadata[field] = v
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Count returns the number of documents in the collection.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(collection))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, fmt.Errorf("collection %q: %w", collection, domain.ErrCollectionNotFound)
		}
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
