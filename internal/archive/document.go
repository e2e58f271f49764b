// Package archive persists query runs into one cumulative JSON document.
// Each archive call reads the whole document, appends to it and rewrites
// it in full. There is no locking: two processes archiving into the same
// path at once can lose an update.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/normalize"
)

var (
	ErrStoreRead  = errors.New("archive store unreadable")
	ErrStoreWrite = errors.New("archive store write failed")
)

// QueryRun is one execution of one catalog query.
type QueryRun struct {
	QueryName string             `json:"query_name"`
	Timestamp string             `json:"timestamp"`
	RowCount  int                `json:"row_count"`
	Data      []normalize.Record `json:"data"`
}

// Document is the whole content of an archive store.
type Document struct {
	Queries []QueryRun `json:"queries"`
}

func NewDocument() *Document {
	return &Document{Queries: make([]QueryRun, 0)}
}

// Latest returns the most recent run of every query name, ordered by the
// position of that run in the document.
func (d *Document) Latest() []QueryRun {
	last := make(map[string]int, len(d.Queries))
	for i, run := range d.Queries {
		last[run.QueryName] = i
	}

	runs := make([]QueryRun, 0, len(last))
	for i, run := range d.Queries {
		if last[run.QueryName] == i {
			runs = append(runs, run)
		}
	}
	return runs
}

// Load reads the document stored at path. A missing or empty file is an
// empty document. Content that is not a valid document wraps ErrStoreRead.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	return decode(data)
}

func decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	if doc.Queries == nil {
		return nil, fmt.Errorf("%w: missing %q array", ErrStoreRead, "queries")
	}
	for i := range doc.Queries {
		if doc.Queries[i].Data == nil {
			doc.Queries[i].Data = make([]normalize.Record, 0)
		}
	}

	return &doc, nil
}

func encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
