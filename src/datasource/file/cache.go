package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bluele/gcache"

	"CrowdInfo/src/processor"
)

// TableCache memoizes table loads keyed by the source file's identity
// (absolute path, size, mtime). A rewritten file changes the key, so the
// next Load parses fresh and the stale entry ages out of the LRU.
type TableCache struct {
	cache gcache.Cache
}

func NewTableCache() *TableCache {
	return &TableCache{
		cache: gcache.New(4).LRU().Build(),
	}
}

// Load returns the cached table for the file's current identity, reading
// and parsing it only when the identity is unseen. fresh reports whether a
// parse actually happened.
func (c *TableCache) Load(path, encoding, sheet string) (tbl *processor.Table, fresh bool, err error) {
	key, err := fileIdentity(path)
	if err != nil {
		return nil, false, err
	}

	if v, err := c.cache.Get(key); err == nil {
		return v.(*processor.Table), false, nil
	}

	tbl, err = LoadTable(path, encoding, sheet)
	if err != nil {
		return nil, false, err
	}
	if err := c.cache.Set(key, tbl); err != nil {
		return nil, true, err
	}
	return tbl, true, nil
}

func fileIdentity(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("source file not readable: %w", err)
	}
	return fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano()), nil
}
