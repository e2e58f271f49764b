package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/archive"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/batch"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/catalog"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/db"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/export"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/locale"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/schedule"
)

const retryDelay = 2 * time.Second

type app struct {
	cfg         *config.Config
	archivePath string
	out         io.Writer
}

type runOptions struct {
	only  []string
	mode  string
	excel string
}

func (a *app) selectCatalog(only []string) (*catalog.Catalog, error) {
	cat, err := hospitalCatalog().Select(only...)
	var unknown *catalog.UnknownQueryError
	if errors.As(err, &unknown) {
		fmt.Fprintf(a.out, locale.L.Errors.UnknownQuery+"\n", unknown.Name)
	}
	return cat, err
}

func (a *app) connect(ctx context.Context) (*db.Connection, error) {
	conn, err := db.Connect(ctx, a.cfg.Database, db.Options{
		MaxAttempts: a.cfg.MaxRetries,
		RetryDelay:  retryDelay,
		Timeout:     a.cfg.QueryTimeout(),
	})
	if err != nil {
		fmt.Fprintf(a.out, locale.L.Errors.ConnectionFailed+"\n", err)
		return nil, err
	}
	return conn, nil
}

// runCatalog executes the (selected) catalog once. Only an unknown query
// name or a connection that cannot be established is an error; failing
// entries are reported and counted in the summary.
func (a *app) runCatalog(ctx context.Context, opts runOptions) (batch.Summary, error) {
	cat, err := a.selectCatalog(opts.only)
	if err != nil {
		return batch.Summary{}, err
	}

	conn, err := a.connect(ctx)
	if err != nil {
		return batch.Summary{}, err
	}
	defer conn.Close()

	runner := &batch.Runner{
		Querier:  conn,
		Clock:    conn,
		Archiver: archive.New(a.archivePath),
		Mode:     opts.mode,
		Report:   a.printStatus,
	}

	summary := runner.Run(ctx, cat)
	fmt.Fprintf(a.out, locale.L.Status.Completed+"\n", summary.Successful, summary.Failed, a.archivePath)

	if opts.excel != "" {
		if err := a.export(ctx, opts.excel, false); err != nil {
			slog.ErrorContext(ctx, "Error exporting workbook", "path", opts.excel, "error", err)
			fmt.Fprintf(a.out, locale.L.Status.Failure+"\n", opts.excel, err)
		}
	}

	return summary, nil
}

func (a *app) printStatus(s batch.Status) {
	if s.Recovered != nil {
		fmt.Fprintf(a.out, locale.L.Status.Recovered+"\n", s.Recovered)
	}
	if s.OK() {
		fmt.Fprintf(a.out, locale.L.Status.Success+"\n", s.Name, s.RowCount)
	} else {
		fmt.Fprintf(a.out, locale.L.Status.Failure+"\n", s.Name, s.Err)
	}
}

func (a *app) list(showSQL bool) error {
	for i, e := range hospitalCatalog().Entries() {
		fmt.Fprintf(a.out, "%2d. %s\n", i+1, e.Name)
		if showSQL && e.SQL != "" {
			fmt.Fprintf(a.out, "%s\n\n", e.SQL)
		}
	}
	return nil
}

func (a *app) check(ctx context.Context) error {
	conn, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(a.out, locale.L.Status.Connected+"\n", conn.Engine(), conn.Database())

	now, err := conn.Now(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, locale.L.Status.DatabaseTime+"\n", now)
	return nil
}

func (a *app) export(ctx context.Context, output string, latest bool) error {
	doc, err := archive.Load(a.archivePath)
	if err != nil {
		return err
	}

	opts := export.ExcelOptions{Latest: latest, NoData: locale.L.Errors.NoDataReturned}
	if err := export.Excel(ctx, doc, output, opts); err != nil {
		return err
	}

	runs := len(doc.Queries)
	if latest {
		runs = len(doc.Latest())
	}
	fmt.Fprintf(a.out, locale.L.Status.Exported+"\n", runs, output)
	return nil
}

// schedule repeats runCatalog on spec until ctx is cancelled. A run whose
// connection fails is logged and retried on the next tick.
func (a *app) schedule(ctx context.Context, spec string, opts runOptions) error {
	if _, err := a.selectCatalog(opts.only); err != nil {
		return err
	}

	s := schedule.New()
	err := s.Add(spec, func(ctx context.Context) {
		if _, err := a.runCatalog(ctx, opts); err != nil {
			slog.ErrorContext(ctx, "Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, locale.L.Status.Scheduled+"\n", spec)
	s.Run(ctx)
	return nil
}
