package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/normalize"
)

// Archiver appends query runs to the document stored at one path.
type Archiver struct {
	path string
}

// Result describes a successful commit. Recovered is set when the prior
// store content could not be read and was replaced by an empty document.
type Result struct {
	Runs      []QueryRun
	Total     int
	Recovered error
}

func New(path string) *Archiver {
	return &Archiver{path: path}
}

func (a *Archiver) Path() string {
	return a.path
}

// Build normalizes rows and wraps them in a QueryRun. The capture time is
// stored verbatim.
func (a *Archiver) Build(name string, rows [][]any, columns []string, captureTime string) (QueryRun, error) {
	data, err := normalize.Normalize(rows, columns)
	if err != nil {
		return QueryRun{}, fmt.Errorf("normalizing %s: %w", name, err)
	}

	return QueryRun{
		QueryName: name,
		Timestamp: captureTime,
		RowCount:  len(data),
		Data:      data,
	}, nil
}

// Archive builds one run and commits it to the store.
func (a *Archiver) Archive(
	ctx context.Context, name string, rows [][]any,
	columns []string, captureTime string,
) (Result, error) {
	run, err := a.Build(name, rows, columns, captureTime)
	if err != nil {
		slog.ErrorContext(ctx, "Error normalizing rows", "query", name, "error", err)
		return Result{}, err
	}

	return a.Commit(ctx, run)
}

// Commit appends runs, in order, to the stored document and rewrites it.
// Only a failed write is an error.
func (a *Archiver) Commit(ctx context.Context, runs ...QueryRun) (Result, error) {
	var res Result

	doc, err := Load(a.path)
	if err != nil {
		slog.WarnContext(ctx, "Archive store unreadable, starting a new document",
			"path", a.path, "error", err)
		res.Recovered = err
		doc = NewDocument()
	}

	doc.Queries = append(doc.Queries, runs...)

	data, err := encode(doc)
	if err != nil {
		slog.ErrorContext(ctx, "Error encoding archive", "path", a.path, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	if err := writeAtomic(a.path, data); err != nil {
		slog.ErrorContext(ctx, "Error writing archive", "path", a.path, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	slog.DebugContext(ctx, "Archive written", "path", a.path, "appended", len(runs), "total", len(doc.Queries))

	res.Runs = runs
	res.Total = len(doc.Queries)
	return res, nil
}

// writeAtomic replaces path with data through a temp file in the same
// directory followed by a rename.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
