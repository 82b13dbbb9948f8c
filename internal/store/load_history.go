package store

import (
	"context"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
)

var (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// LoadHistory represents the 'load_history' table: one row per snapshot
// load attempt.
type LoadHistory struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Source          string    `db:"source" json:"source"`
	Format          string    `db:"format" json:"format"`
	Status          string    `db:"status" json:"status"`
	RowCount        int       `db:"row_count" json:"row_count"`
	GeometryRows    int       `db:"geometry_rows" json:"geometry_rows"`
	GeometryInvalid int       `db:"geometry_invalid" json:"geometry_invalid"`
	DurationMs      int64     `db:"duration_ms" json:"duration_ms"`
	Error           string    `db:"error" json:"error,omitempty"`
	LoadedAt        time.Time `db:"loaded_at" json:"loaded_at"`
}

// NewLoadHistory converts a loader report into a history row.
func NewLoadHistory(r imoveis.Report) LoadHistory {
	h := LoadHistory{
		ID:              r.ID,
		Source:          r.Source,
		Format:          r.Format,
		Status:          StatusSuccess,
		RowCount:        r.Rows,
		GeometryRows:    r.GeometryRows,
		GeometryInvalid: r.GeometryInvalid,
		DurationMs:      r.Duration.Milliseconds(),
		LoadedAt:        r.LoadedAt.UTC(),
	}
	if r.Err != nil {
		h.Status = StatusFailure
		h.Error = r.Err.Error()
	}
	return h
}

const schema = `CREATE TABLE IF NOT EXISTS load_history (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	format TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	geometry_rows INTEGER NOT NULL DEFAULT 0,
	geometry_invalid INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	loaded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS load_history_loaded_at_idx ON load_history (loaded_at);`

// Migrate creates the history table. The DDL is valid for PostgreSQL and SQLite.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "failed to migrate load_history")
	}
	return nil
}

type LoadHistoryStore struct {
	db *sqlx.DB
}

func (lh *LoadHistoryStore) InsertLoadHistory(ctx context.Context, history *LoadHistory) error {
	if history.ID == uuid.Nil {
		history.ID = uuid.New()
	}
	if history.LoadedAt.IsZero() {
		history.LoadedAt = time.Now().UTC()
	}

	query := `INSERT INTO load_history (
		id,
		source,
		format,
		status,
		row_count,
		geometry_rows,
		geometry_invalid,
		duration_ms,
		error,
		loaded_at
	) VALUES (
		:id,
		:source,
		:format,
		:status,
		:row_count,
		:geometry_rows,
		:geometry_invalid,
		:duration_ms,
		:error,
		:loaded_at
	)`

	if _, err := lh.db.NamedExecContext(ctx, query, history); err != nil {
		return eris.Wrapf(err, "failed to insert load history %s", history.ID)
	}
	return nil
}

const selectHistory = `SELECT id, source, format, status, row_count, geometry_rows,
	geometry_invalid, duration_ms, error, loaded_at
	FROM load_history`

func (lh *LoadHistoryStore) GetLatest(ctx context.Context, limit int) ([]LoadHistory, error) {
	query := lh.db.Rebind(selectHistory + ` ORDER BY loaded_at DESC LIMIT ?`)

	history := []LoadHistory{}
	if err := lh.db.SelectContext(ctx, &history, query, limit); err != nil {
		return nil, eris.Wrap(err, "failed to list load history")
	}
	return history, nil
}

func (lh *LoadHistoryStore) GetLatestBySource(ctx context.Context, source string, limit int) ([]LoadHistory, error) {
	query := lh.db.Rebind(selectHistory + ` WHERE source = ? ORDER BY loaded_at DESC LIMIT ?`)

	history := []LoadHistory{}
	if err := lh.db.SelectContext(ctx, &history, query, source, limit); err != nil {
		return nil, eris.Wrapf(err, "failed to list load history for %s", source)
	}
	return history, nil
}
