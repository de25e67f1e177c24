package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/lastcall/core"
)

// MemoryCatalog 是内存实现的目录，用于测试与本地调试。
// Likes 中每个用户的收藏按时间倒序存放（最近的在前）。
type MemoryCatalog struct {
	mu           sync.RWMutex
	items        []*core.CatalogItem
	byID         map[int64]*core.CatalogItem
	likes        map[string][]int64
	userKeywords map[string][]string
}

func NewMemoryCatalog(items ...*core.CatalogItem) *MemoryCatalog {
	c := &MemoryCatalog{
		byID:         make(map[int64]*core.CatalogItem),
		likes:        make(map[string][]int64),
		userKeywords: make(map[string][]string),
	}
	for _, it := range items {
		c.Put(it)
	}
	return c
}

// Put 新增或替换物品，新物品追加在末尾。
func (c *MemoryCatalog) Put(it *core.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[it.ID]; ok {
		for i := range c.items {
			if c.items[i].ID == it.ID {
				c.items[i] = it
			}
		}
	} else {
		c.items = append(c.items, it)
	}
	c.byID[it.ID] = it
}

// Like 记录一次收藏，成为该用户最近的收藏。
func (c *MemoryCatalog) Like(userID string, itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.likes[userID]
	next := make([]int64, 0, len(prev)+1)
	next = append(next, itemID)
	for _, id := range prev {
		if id != itemID {
			next = append(next, id)
		}
	}
	c.likes[userID] = next
}

// SetUserKeywords 设置用户偏好关键词（按权重降序）。
func (c *MemoryCatalog) SetUserKeywords(userID string, keywords []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userKeywords[userID] = append([]string(nil), keywords...)
}

func (c *MemoryCatalog) ActiveItems(_ context.Context) ([]*core.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		if it.Available() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) UserLikes(_ context.Context, userID string, topKeywords int) (*core.LikeSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := &core.LikeSnapshot{UserID: userID}
	for _, id := range c.likes[userID] {
		it, ok := c.byID[id]
		if !ok || !it.Available() {
			continue
		}
		snap.Likes = append(snap.Likes, core.Like{ItemID: it.ID, CategoryID: it.CategoryID, StoreID: it.StoreID})
	}
	if kw := c.userKeywords[userID]; topKeywords > 0 && len(kw) > 0 {
		if len(kw) > topKeywords {
			kw = kw[:topKeywords]
		}
		snap.Keywords = append([]string(nil), kw...)
	}
	return snap, nil
}

func (c *MemoryCatalog) RecentItems(ctx context.Context, limit int) ([]int64, error) {
	items, _ := c.ActiveItems(ctx)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit <= 0 {
		limit = core.DefaultLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}
