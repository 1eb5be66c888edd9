package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	want := Result{Content: "The quick brown fox", Title: "Foxes"}
	if err := c.Put("key-1", want); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, ok := c.Get("key-1")
	if !ok {
		t.Fatal("Get() miss after Put()")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("never-stored"); ok {
		t.Error("Get() hit on an empty cache")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Put("key", Result{Content: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("key", Result{Content: "new"}); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("key")
	if !ok || got.Content != "new" {
		t.Errorf("got %+v ok=%v, want new content", got, ok)
	}
}

func TestCacheDropsCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Put("key", Result{Content: "fine"}); err != nil {
		t.Fatal(err)
	}

	// Scribble over the only entry on disk.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("found %d files, want 1", len(entries))
	}
	path := filepath.Join(dir, entries[0].Name())
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("key"); ok {
		t.Error("Get() returned a corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestCachePrunesOldest(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c.maxEntries = 2

	if err := c.Put("a", Result{Content: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("b", Result{Content: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("cc", Result{Content: "c"}); err != nil {
		t.Fatal(err)
	}

	hits := 0
	for _, key := range []string{"a", "b", "cc"} {
		if _, ok := c.Get(key); ok {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("found %d entries after prune, want 2", hits)
	}
}
