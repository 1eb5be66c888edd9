package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// maxGuestHistory caps local (guest) history at the newest records.
const maxGuestHistory = 50

// LocalStore keeps bookmarks and history in two JSON files under the
// user's data directory. It is the guest-session store.
type LocalStore struct {
	dir string
	mu  sync.Mutex
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore opens (and creates if needed) a store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("local storage: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) bookmarksPath() string { return filepath.Join(s.dir, "bookmarks.json") }
func (s *LocalStore) historyPath() string   { return filepath.Join(s.dir, "history.json") }

func (s *LocalStore) SaveBookmark(ctx context.Context, b Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadBookmarks()
	if err != nil {
		return err
	}
	marks[b.ContentKey] = b
	return writeJSON(s.bookmarksPath(), marks)
}

func (s *LocalStore) Bookmark(ctx context.Context, contentKey string) (Bookmark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadBookmarks()
	if err != nil {
		return Bookmark{}, false, err
	}
	b, ok := marks[contentKey]
	return b, ok, nil
}

func (s *LocalStore) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadBookmarks()
	if err != nil {
		return nil, err
	}
	out := make([]Bookmark, 0, len(marks))
	for _, b := range marks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *LocalStore) DeleteBookmark(ctx context.Context, contentKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadBookmarks()
	if err != nil {
		return err
	}
	if _, ok := marks[contentKey]; !ok {
		return nil
	}
	delete(marks, contentKey)
	return writeJSON(s.bookmarksPath(), marks)
}

func (s *LocalStore) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.loadHistory()
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	if len(recs) > maxGuestHistory {
		recs = recs[len(recs)-maxGuestHistory:]
	}
	return writeJSON(s.historyPath(), recs)
}

// History returns records newest first.
func (s *LocalStore) History(ctx context.Context) ([]HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.loadHistory()
	if err != nil {
		return nil, err
	}
	out := make([]HistoryRecord, len(recs))
	for i, rec := range recs {
		out[len(recs)-1-i] = rec
	}
	return out, nil
}

func (s *LocalStore) HistoryRecord(ctx context.Context, id string) (HistoryRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.loadHistory()
	if err != nil {
		return HistoryRecord{}, false, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return HistoryRecord{}, false, nil
}

func (s *LocalStore) Close() error { return nil }

// loadBookmarks reads the bookmark file; a missing file is an empty
// store.
func (s *LocalStore) loadBookmarks() (map[string]Bookmark, error) {
	data, err := os.ReadFile(s.bookmarksPath())
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Bookmark{}, nil
	}
	if err != nil {
		return nil, err
	}
	var marks map[string]Bookmark
	if err := json.Unmarshal(data, &marks); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.bookmarksPath(), err)
	}
	if marks == nil {
		marks = map[string]Bookmark{}
	}
	return marks, nil
}

// loadHistory reads the history file, oldest record first.
func (s *LocalStore) loadHistory() ([]HistoryRecord, error) {
	data, err := os.ReadFile(s.historyPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []HistoryRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.historyPath(), err)
	}
	return recs, nil
}

// writeJSON writes through a temp file and a rename so a crash never
// leaves a truncated store behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
