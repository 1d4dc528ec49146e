// Package corpus loads the financial news dataset from CSV.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Document is one news record prepared for indexing.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// textColumns are concatenated (in order) into the embedded text.
var textColumns = []string{"reasoning", "article_text", "sphere"}

// metaColumns are carried as document metadata when present.
var metaColumns = []string{"source", "date", "answer"}

// Load reads the CSV corpus at path. Rows with no usable text are skipped
// with a warning; a missing or unreadable file is an error. A row without an
// "id" column gets its zero-based row index as ID.
func Load(path string, logger *zap.Logger) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read corpus header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var docs []Document
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed corpus row", zap.Int("row", row), zap.Error(err))
			continue
		}

		text := buildText(record, col)
		if text == "" {
			logger.Warn("skipping corpus row without text", zap.Int("row", row))
			continue
		}

		doc := Document{
			ID:       fmt.Sprintf("%d", row),
			Text:     text,
			Metadata: buildMetadata(record, col),
		}
		if v := field(record, col, "id"); v != "" {
			doc.ID = v
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// field returns a cleaned cell value; pandas-style "nan" cells count as empty.
func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	v := strings.TrimSpace(record[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func buildText(record []string, col map[string]int) string {
	parts := make([]string, 0, len(textColumns))
	for _, name := range textColumns {
		if v := field(record, col, name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func buildMetadata(record []string, col map[string]int) map[string]string {
	meta := make(map[string]string)
	for _, name := range metaColumns {
		if v := field(record, col, name); v != "" {
			meta[name] = v
		}
	}
	return meta
}
