package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	LoadHistory interface {
		InsertLoadHistory(ctx context.Context, history *LoadHistory) error
		GetLatest(ctx context.Context, limit int) ([]LoadHistory, error)
		GetLatestBySource(ctx context.Context, source string, limit int) ([]LoadHistory, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		LoadHistory: &LoadHistoryStore{db: db},
	}
}
