package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// defaultCacheEntries bounds the cache by entry count. Extracted
// articles are small once compressed; a few hundred is plenty.
const defaultCacheEntries = 200

// Cache keeps extraction results on disk, compressed with zstd, so a
// resumed document never hits the gateway twice. Keys are caller
// chosen (the reader uses the source URL); the oldest entries are
// pruned past the entry limit.
type Cache struct {
	dir        string
	maxEntries int

	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCache opens (and creates if needed) a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, maxEntries: defaultCacheEntries, encoder: encoder, decoder: decoder}, nil
}

// Get returns the cached result for key, if present and readable.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return Result{}, false
	}
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		// Corrupt entry; drop it rather than failing extraction.
		os.Remove(c.path(key))
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		os.Remove(c.path(key))
		return Result{}, false
	}
	return res, true
}

// Put stores a result under key. Writes go through a temp file and a
// rename so readers never observe a partial entry.
func (c *Cache) Put(key string, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed := c.encoder.EncodeAll(raw, nil)
	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	c.prune()
	return nil
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".zst" {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".zst")
}

// prune drops the oldest entries once the count limit is exceeded.
func (c *Cache) prune() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	type aged struct {
		name string
		mod  int64
	}
	var files []aged
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".zst" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{e.Name(), info.ModTime().UnixNano()})
	}
	if len(files) <= c.maxEntries {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod < files[j].mod })
	for _, f := range files[:len(files)-c.maxEntries] {
		os.Remove(filepath.Join(c.dir, f.name))
	}
}
