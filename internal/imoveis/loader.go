package imoveis

import (
	"context"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/converter"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/downloader"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/files"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/types"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Report describes one load attempt, successful or not.
type Report struct {
	ID              uuid.UUID
	Source          string
	Format          string
	Rows            int
	Columns         int
	Missing         []string
	GeometryRows    int
	GeometryInvalid int
	Duration        time.Duration
	LoadedAt        time.Time
	Err             error
}

type Options struct {
	// ExtraColumns are raw columns read on top of the default allow-list.
	ExtraColumns []string
	HTTPTimeout  time.Duration
	UserAgent    string
	Logger       *logger.Logger
	// OnLoad, when set, is called after every load attempt.
	OnLoad func(context.Context, Report)
}

type Loader struct {
	projection []string
	fetcher    *downloader.Client
	logger     *logger.Logger
	onLoad     func(context.Context, Report)
}

// NewLoader validates the column projection and prepares the HTTP client.
func NewLoader(opts Options) (*Loader, error) {
	projection, err := types.Projection(opts.ExtraColumns...)
	if err != nil {
		return nil, err
	}

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Loader{
		projection: projection,
		fetcher:    downloader.NewClient(timeout, opts.UserAgent, opts.Logger),
		logger:     opts.Logger,
		onLoad:     opts.OnLoad,
	}, nil
}

// Columns returns the raw columns read from each snapshot.
func (l *Loader) Columns() []string {
	return append([]string(nil), l.projection...)
}

// CanonicalColumns returns the columns of a fully populated table.
func (l *Loader) CanonicalColumns() []string {
	return types.CanonicalColumns(l.projection)
}

// Load reads a snapshot from a URL or a local path and returns its canonical
// table. The returned table is always usable: on failure it has zero rows,
// every canonical column, and err says why.
func (l *Loader) Load(ctx context.Context, source string) (Table, error) {
	const component = "Loader"

	start := time.Now()
	report := Report{ID: uuid.New(), Source: source}
	l.logger.Info(component, "Loading snapshot id=%s source=%s", report.ID, source)

	table, err := l.load(ctx, source, &report)
	report.Duration = time.Since(start)
	report.LoadedAt = time.Now()
	report.Err = err

	if err != nil {
		l.logger.Error(component, "Snapshot load failed id=%s source=%s error=%v", report.ID, source, err)
		table = Table{
			id:       report.ID,
			source:   source,
			loadedAt: report.LoadedAt,
			df:       converter.Empty(l.CanonicalColumns()),
		}
	} else {
		table.id = report.ID
		table.loadedAt = report.LoadedAt
		l.logger.Info(component, "Snapshot loaded id=%s rows=%d columns=%d duration=%s", report.ID, report.Rows, report.Columns, report.Duration)
	}

	if l.onLoad != nil {
		l.onLoad(ctx, report)
	}
	return table, err
}

func (l *Loader) load(ctx context.Context, source string, report *Report) (Table, error) {
	const component = "Loader"

	if err := ctx.Err(); err != nil {
		return Table{}, eris.Wrapf(ErrSourceUnavailable, "source %s: %v", source, err)
	}

	snap, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return Table{}, eris.Wrapf(ErrSourceUnavailable, "source %s: %v", source, err)
	}

	raw, err := files.Decode(snap, l.projection, l.logger)
	if err != nil {
		return Table{}, eris.Wrapf(ErrSourceUnavailable, "source %s: %v", source, err)
	}
	report.Format = raw.Format.String()
	report.Missing = raw.Missing
	report.GeometryRows = raw.Geometry.Rows
	report.GeometryInvalid = raw.Geometry.Invalid

	for _, col := range types.RequiredColumns {
		if !raw.Has(col) {
			return Table{}, eris.Wrapf(ErrSchemaMismatch, "source %s: missing required column %s", source, col)
		}
	}
	if len(raw.Missing) > 0 {
		l.logger.Warn(component, "Snapshot lacks optional columns %v; dependent features are skipped", raw.Missing)
	}

	df, err := converter.Canonicalize(raw.Frame)
	if err != nil {
		return Table{}, eris.Wrapf(ErrSourceUnavailable, "source %s: %v", source, err)
	}

	report.Rows = df.Nrow()
	report.Columns = df.Ncol()
	return Table{source: source, df: df}, nil
}
