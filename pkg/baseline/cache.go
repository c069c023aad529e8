package baseline

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/filemod"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
)

var cacheLog = logger.New("baseline:cache")

// DefaultCapacity is the default in-memory LRU size (spec §4.8).
const DefaultCapacity = 1000

type cacheEntry struct {
	key    CacheKey
	result issue.HookResult
}

// Cache is the two-tier hook-result memoization store: a bounded in-memory
// LRU in front of one JSON file per entry on disk, at
// <cache_dir>/hooks/<hook_id>/<hash>.entry (spec §4.8).
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[CacheKey]*list.Element
	dir      string
	modifier *filemod.Modifier
}

// NewCache constructs a Cache rooted at cacheDir with the given capacity (0
// uses DefaultCapacity).
func NewCache(cacheDir string, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[CacheKey]*list.Element),
		dir:      cacheDir,
		modifier: filemod.New(cacheDir, filepath.Join(cacheDir, ".backups")),
	}
}

// Lookup returns the memoized HookResult for key, consulting the in-memory
// tier first and falling back to disk (promoting the entry back into memory
// on a disk hit).
func (c *Cache) Lookup(key CacheKey) (issue.HookResult, bool) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		result := el.Value.(*cacheEntry).result
		c.mu.Unlock()
		return result, true
	}
	c.mu.Unlock()

	result, ok, err := c.readDisk(key)
	if err != nil {
		cacheLog.Printf("disk cache read failed for %+v: %v", key, err)
		return issue.HookResult{}, false
	}
	if !ok {
		return issue.HookResult{}, false
	}

	c.mu.Lock()
	c.promote(key, result)
	c.mu.Unlock()
	return result, true
}

// Store records result for key in both tiers.
func (c *Cache) Store(key CacheKey, result issue.HookResult) error {
	c.mu.Lock()
	c.promote(key, result)
	c.mu.Unlock()
	return c.writeDisk(key, result)
}

// promote inserts or refreshes key in the in-memory LRU, evicting the least
// recently used entry if capacity is exceeded. Caller holds c.mu.
func (c *Cache) promote(key CacheKey, result issue.HookResult) {
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).result = result
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, result: result})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *Cache) entryPath(key CacheKey) string {
	sum := sha256.Sum256([]byte(key.HookID + "|" + key.FileHash + "|" + key.ToolVersion))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join("hooks", key.HookID, hash+".entry")
}

func (c *Cache) readDisk(key CacheKey) (issue.HookResult, bool, error) {
	path := filepath.Join(c.dir, c.entryPath(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return issue.HookResult{}, false, nil
		}
		return issue.HookResult{}, false, crkerr.Wrapf(crkerr.ClassFilesystem, "read cache entry: %w", err)
	}
	var result issue.HookResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupted cache entry is recoverable: treat as a miss.
		cacheLog.Printf("corrupted cache entry at %s, treating as miss: %v", path, err)
		return issue.HookResult{}, false, nil
	}
	return result, true, nil
}

func (c *Cache) writeDisk(key CacheKey, result issue.HookResult) error {
	rel := c.entryPath(key)
	abs := filepath.Join(c.dir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "marshal cache entry: %w", err)
	}
	if _, err := c.modifier.Apply(rel, data, filemod.ApplyOptions{}); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write cache entry: %w", err)
	}
	return nil
}

// Len returns the number of entries currently resident in the in-memory tier.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
