package extract

import (
	"fmt"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/impact-report/internal/model"
)

// WorkbookCache memoises parsed workbooks keyed by path, size and mtime so a
// batch run parses each source file once and picks up edits between runs.
type WorkbookCache struct {
	cache *gocache.Cache
}

// NewWorkbookCache creates a cache whose entries expire after ttl.
func NewWorkbookCache(ttl time.Duration) *WorkbookCache {
	return &WorkbookCache{cache: gocache.New(ttl, 2*ttl)}
}

// Open returns the parsed workbook at path.
func (c *WorkbookCache) Open(path string) (*xlsx.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "extract: workbook %s", path)
		}
		return nil, eris.Wrap(err, "extract: stat workbook")
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if c != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(*xlsx.File), nil
		}
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: open workbook %s", path)
	}
	if c != nil {
		c.cache.SetDefault(key, f)
	}
	return f, nil
}

// Len reports the number of cached workbooks. A nil cache holds none.
func (c *WorkbookCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// Flush drops every cached workbook.
func (c *WorkbookCache) Flush() {
	if c == nil {
		return
	}
	c.cache.Flush()
}
