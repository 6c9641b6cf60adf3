package cache

import (
	"sync"
	"time"

	"stockboard/internal/model"
)

// RowCache 行数据内存缓存
// 每个表标识只保留最近一次成功拉取的数据；写入整体替换，不做局部更新。
// 缓存本身不判断过期，新旧由调用方决定。
type RowCache struct {
	entries map[model.SheetID]model.CacheEntry
	clock   func() time.Time
	mu      sync.RWMutex
}

// New 创建行数据缓存
func New() *RowCache {
	return &RowCache{
		entries: make(map[model.SheetID]model.CacheEntry),
		clock:   time.Now,
	}
}

// Get 获取某张表的缓存条目
func (c *RowCache) Get(id model.SheetID) (model.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	return entry, ok
}

// Set 写入某张表的行数据并盖上当前时间戳，整体替换旧条目
// 拉取时间保证单表内单调不减。
func (c *RowCache) Set(id model.SheetID, rows []model.Row) model.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if prev, ok := c.entries[id]; ok && now.Before(prev.FetchedAt) {
		now = prev.FetchedAt
	}

	entry := model.CacheEntry{
		SheetID:   id,
		Rows:      rows,
		FetchedAt: now,
	}
	c.entries[id] = entry
	return entry
}

// SetAt 按指定时间戳写入（用于启动时从快照回填）
// 不覆盖已有的更新条目。
func (c *RowCache) SetAt(id model.SheetID, rows []model.Row, fetchedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[id]; ok && fetchedAt.Before(prev.FetchedAt) {
		return false
	}

	c.entries[id] = model.CacheEntry{
		SheetID:   id,
		Rows:      rows,
		FetchedAt: fetchedAt,
	}
	return true
}

// LastFetch 某张表最近一次成功拉取的时间
func (c *RowCache) LastFetch(id model.SheetID) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return entry.FetchedAt, true
}

// Len 当前缓存的表数量
func (c *RowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
