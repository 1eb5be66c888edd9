package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	return s
}

func testBookmark(key string, index int) Bookmark {
	return Bookmark{
		ContentKey: key,
		Title:      "Some Article",
		SourceType: SourceURL,
		SourceURL:  "https://example.com",
		Index:      index,
		Total:      10,
		Ratio:      float64(index) / 10,
		UpdatedAt:  time.Now(),
	}
}

func TestLocalStoreBookmarkRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := testBookmark("key-1", 3)
	if err := s.SaveBookmark(ctx, want); err != nil {
		t.Fatalf("SaveBookmark() error: %v", err)
	}

	got, ok, err := s.Bookmark(ctx, "key-1")
	if err != nil {
		t.Fatalf("Bookmark() error: %v", err)
	}
	if !ok {
		t.Fatal("Bookmark() missing after save")
	}
	if got.Index != 3 || got.ContentKey != "key-1" {
		t.Errorf("got %+v", got)
	}
}

func TestLocalStoreBookmarkMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Bookmark(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Bookmark() error: %v", err)
	}
	if ok {
		t.Error("found a bookmark in an empty store")
	}
}

func TestLocalStoreBookmarkUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveBookmark(ctx, testBookmark("key-1", 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBookmark(ctx, testBookmark("key-1", 7)); err != nil {
		t.Fatal(err)
	}

	all, err := s.Bookmarks(ctx)
	if err != nil {
		t.Fatalf("Bookmarks() error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d bookmarks, want 1", len(all))
	}
	if all[0].Index != 7 {
		t.Errorf("index = %d, want the latest save (7)", all[0].Index)
	}
}

func TestLocalStoreDeleteBookmark(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveBookmark(ctx, testBookmark("key-1", 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBookmark(ctx, "key-1"); err != nil {
		t.Fatalf("DeleteBookmark() error: %v", err)
	}
	if _, ok, _ := s.Bookmark(ctx, "key-1"); ok {
		t.Error("bookmark survived deletion")
	}

	// Deleting a missing key is a no-op.
	if err := s.DeleteBookmark(ctx, "never-existed"); err != nil {
		t.Errorf("DeleteBookmark(missing) error: %v", err)
	}
}

func testRecord(i int) HistoryRecord {
	return HistoryRecord{
		ID:         fmt.Sprintf("id-%03d", i),
		Title:      fmt.Sprintf("Article %d", i),
		SourceType: SourceText,
		Preview:    "preview",
		Units:      100,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
}

func TestLocalStoreHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.AppendHistory(ctx, testRecord(i)); err != nil {
			t.Fatalf("AppendHistory() error: %v", err)
		}
	}

	recs, err := s.History(ctx)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].ID != "id-002" || recs[2].ID != "id-000" {
		t.Errorf("order = [%s %s %s], want newest first", recs[0].ID, recs[1].ID, recs[2].ID)
	}
}

func TestLocalStoreHistoryCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < maxGuestHistory+5; i++ {
		if err := s.AppendHistory(ctx, testRecord(i)); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != maxGuestHistory {
		t.Fatalf("got %d records, want %d", len(recs), maxGuestHistory)
	}
	if recs[0].ID != "id-054" {
		t.Errorf("newest = %s, want id-054", recs[0].ID)
	}

	// The five oldest records were dropped.
	for i := 0; i < 5; i++ {
		if _, ok, _ := s.HistoryRecord(ctx, fmt.Sprintf("id-%03d", i)); ok {
			t.Errorf("id-%03d survived the cap", i)
		}
	}
}

func TestLocalStoreHistoryRecordByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendHistory(ctx, testRecord(7)); err != nil {
		t.Fatal(err)
	}

	rec, ok, err := s.HistoryRecord(ctx, "id-007")
	if err != nil || !ok {
		t.Fatalf("HistoryRecord() = ok=%v err=%v", ok, err)
	}
	if rec.Title != "Article 7" {
		t.Errorf("title = %q", rec.Title)
	}

	if _, ok, _ := s.HistoryRecord(ctx, "id-999"); ok {
		t.Error("found a record that was never appended")
	}
}

func TestLocalStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bookmarks.json"), []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Bookmark(context.Background(), "key"); err == nil {
		t.Error("expected an error reading a corrupt store")
	}
}

func TestLocalStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SaveBookmark(ctx, testBookmark("key-1", 4)); err != nil {
		t.Fatal(err)
	}

	second, err := NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := second.Bookmark(ctx, "key-1")
	if err != nil || !ok {
		t.Fatalf("Bookmark() after reopen = ok=%v err=%v", ok, err)
	}
	if got.Index != 4 {
		t.Errorf("index = %d, want 4", got.Index)
	}
}
