// Package batch drives the report catalog: every entry is queried, stamped
// with the database time and archived, one after the other. A failing
// entry is reported and skipped; it never stops the entries after it.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/archive"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/catalog"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
)

// Clock supplies the capture time of a run. *db.Connection implements it
// with the database server clock.
type Clock interface {
	Now(ctx context.Context) (string, error)
}

type Runner struct {
	Querier  catalog.Querier
	Clock    Clock
	Archiver *archive.Archiver
	// Mode is config.WriteModePerEntry (default) or config.WriteModeBatch.
	Mode string
	// Report, when set, receives every status as soon as it is final.
	Report func(Status)
}

type Status struct {
	Name      string
	RowCount  int
	Duration  time.Duration
	Err       error
	Recovered error
}

func (s Status) OK() bool {
	return s.Err == nil
}

type Summary struct {
	BatchID    string
	Successful int
	Failed     int
	Statuses   []Status
}

// Run executes the catalog in order and returns one status per entry.
func (r *Runner) Run(ctx context.Context, c *catalog.Catalog) Summary {
	summary := Summary{BatchID: uuid.NewString()}
	log := slog.Default().With("batch", summary.BatchID)
	batchMode := r.Mode == config.WriteModeBatch

	var pending []archive.QueryRun
	var pendingIdx []int

	log.InfoContext(ctx, "Starting catalog run", "queries", c.Len(), "mode", r.mode())

	for _, entry := range c.Entries() {
		start := time.Now()
		status := Status{Name: entry.Name}

		if err := ctx.Err(); err != nil {
			status.Err = err
			summary.Statuses = append(summary.Statuses, r.finish(ctx, log, status))
			continue
		}

		run, err := r.collect(ctx, entry)
		status.Duration = time.Since(start)
		if err != nil {
			status.Err = err
			summary.Statuses = append(summary.Statuses, r.finish(ctx, log, status))
			continue
		}
		status.RowCount = run.RowCount

		if batchMode {
			pending = append(pending, run)
			pendingIdx = append(pendingIdx, len(summary.Statuses))
			summary.Statuses = append(summary.Statuses, status)
			continue
		}

		res, err := r.Archiver.Commit(ctx, run)
		status.Err = err
		status.Recovered = res.Recovered
		status.Duration = time.Since(start)
		summary.Statuses = append(summary.Statuses, r.finish(ctx, log, status))
	}

	if len(pending) > 0 {
		res, err := r.Archiver.Commit(ctx, pending...)
		for n, i := range pendingIdx {
			summary.Statuses[i].Err = err
			if n == 0 {
				summary.Statuses[i].Recovered = res.Recovered
			}
			summary.Statuses[i] = r.finish(ctx, log, summary.Statuses[i])
		}
	}

	for _, s := range summary.Statuses {
		if s.OK() {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	log.InfoContext(ctx, "Catalog run finished", "successful", summary.Successful, "failed", summary.Failed)

	return summary
}

// collect runs one entry and builds its archive run.
func (r *Runner) collect(ctx context.Context, entry catalog.Entry) (run archive.QueryRun, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("query %s panicked: %v", entry.Name, p)
		}
	}()

	rs, err := entry.Fn(ctx, r.Querier)
	if err != nil {
		return run, fmt.Errorf("query %s: %w", entry.Name, err)
	}
	if rs == nil {
		return run, fmt.Errorf("query %s: %w", entry.Name, errors.New("no result set returned"))
	}

	captured, err := r.Clock.Now(ctx)
	if err != nil {
		return run, fmt.Errorf("capture time for %s: %w", entry.Name, err)
	}

	return r.Archiver.Build(entry.Name, rs.Rows, rs.ColumnNames(), captured)
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, s Status) Status {
	if s.Err != nil {
		log.ErrorContext(ctx, "Query failed", "query", s.Name, "error", s.Err)
	} else {
		log.InfoContext(ctx, "Query archived", "query", s.Name, "rows", s.RowCount, "duration", s.Duration)
	}
	if r.Report != nil {
		r.Report(s)
	}
	return s
}

func (r *Runner) mode() string {
	if r.Mode == "" {
		return config.WriteModePerEntry
	}
	return r.Mode
}
