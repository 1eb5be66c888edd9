package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
	badger "github.com/dgraph-io/badger/v3"
)

const (
	charmDBName    = "lectern"
	bookmarkPrefix = "bookmark:"
	historyPrefix  = "history:"
)

// CharmStore syncs bookmarks and history through the user's Charm
// Cloud account. It is the signed-in store; identity comes from the
// charm keys, so there is nothing to configure.
type CharmStore struct {
	db *kv.KV
	mu sync.Mutex
}

var _ Store = (*CharmStore)(nil)

// NewCharmStore opens the account-scoped KV and pulls remote state so
// resume sees bookmarks written on other machines.
func NewCharmStore() (*CharmStore, error) {
	db, err := kv.OpenWithDefaults(charmDBName)
	if err != nil {
		return nil, fmt.Errorf("opening charm kv: %w", err)
	}
	// Best effort; a failed pull still leaves local state usable.
	_ = db.Sync()
	return &CharmStore{db: db}, nil
}

func (s *CharmStore) SaveBookmark(ctx context.Context, b Bookmark) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Set([]byte(bookmarkPrefix+b.ContentKey), data); err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

func (s *CharmStore) Bookmark(ctx context.Context, contentKey string) (Bookmark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get([]byte(bookmarkPrefix + contentKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Bookmark{}, false, nil
		}
		return Bookmark{}, false, err
	}
	var b Bookmark
	if err := json.Unmarshal(data, &b); err != nil {
		return Bookmark{}, false, err
	}
	return b, true, nil
}

func (s *CharmStore) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Bookmark
	err := s.eachValue(bookmarkPrefix, func(data []byte) error {
		var b Bookmark
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *CharmStore) DeleteBookmark(ctx context.Context, contentKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete([]byte(bookmarkPrefix + contentKey))
}

func (s *CharmStore) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Set([]byte(historyPrefix+rec.ID), data); err != nil {
		return fmt.Errorf("saving history record: %w", err)
	}
	return nil
}

// History returns records newest first. The signed-in tier keeps it
// all; only the guest store caps history.
func (s *CharmStore) History(ctx context.Context) ([]HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []HistoryRecord
	err := s.eachValue(historyPrefix, func(data []byte) error {
		var rec HistoryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CharmStore) HistoryRecord(ctx context.Context, id string) (HistoryRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get([]byte(historyPrefix + id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return HistoryRecord{}, false, nil
		}
		return HistoryRecord{}, false, err
	}
	var rec HistoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return HistoryRecord{}, false, err
	}
	return rec, true, nil
}

func (s *CharmStore) Close() error {
	return s.db.Close()
}

// eachValue visits every value whose key carries the prefix. Caller
// holds the mutex.
func (s *CharmStore) eachValue(prefix string, fn func([]byte) error) error {
	keys, err := s.db.Keys()
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}
	for _, key := range keys {
		if !strings.HasPrefix(string(key), prefix) {
			continue
		}
		data, err := s.db.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return nil
}
