package library

import (
	"context"
	"fmt"
)

// Store persists bookmarks and history. The backend is chosen once
// when the session starts: guests get the local store, signed-in users
// a synced one.
type Store interface {
	SaveBookmark(ctx context.Context, b Bookmark) error
	Bookmark(ctx context.Context, contentKey string) (Bookmark, bool, error)
	Bookmarks(ctx context.Context) ([]Bookmark, error)
	DeleteBookmark(ctx context.Context, contentKey string) error

	AppendHistory(ctx context.Context, rec HistoryRecord) error
	History(ctx context.Context) ([]HistoryRecord, error)
	HistoryRecord(ctx context.Context, id string) (HistoryRecord, bool, error)

	Close() error
}

// Config selects and configures the persistence backend.
type Config struct {
	// Backend is "local", "charm", or "s3". Empty means local.
	Backend string

	// DataDir is the local backend's directory.
	DataDir string

	// S3 configures the s3 backend.
	S3 S3Options
}

// Open builds the store named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.DataDir)
	case "charm":
		return NewCharmStore()
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
