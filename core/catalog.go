package core

import (
	"context"
	"time"
)

// CatalogItem 是目录中一个可售物品的只读视图（由外部持久层提供）。
// Lat/Lng 为所属门店坐标；Keywords 为物品关键词集合。
type CatalogItem struct {
	ID           int64
	Name         string
	Description  string
	CategoryID   int64
	CategoryName string
	StoreID      int64
	Lat          float64
	Lng          float64
	Keywords     []string

	Active        bool
	Stock         int
	Price         float64
	DiscountPrice float64
	DiscountRate  float64
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Available 判断物品是否上架且有库存。
func (ci *CatalogItem) Available() bool {
	return ci != nil && ci.Active && ci.Stock > 0
}

// HoursToExpiry 返回距离过期的小时数；未设置过期时间时返回 0。
func (ci *CatalogItem) HoursToExpiry(now time.Time) float64 {
	if ci.ExpiresAt.IsZero() {
		return 0
	}
	return ci.ExpiresAt.Sub(now).Hours()
}

// Like 是用户当前收藏的一个物品。
type Like struct {
	ItemID     int64
	CategoryID int64
	StoreID    int64
}

// LikeSnapshot 是一次请求内的用户收藏快照：Likes 按时间倒序（最近的在前），
// Keywords 为用户偏好关键词（按权重降序，可为空）。每次请求重新读取，不做缓存。
type LikeSnapshot struct {
	UserID   string
	Likes    []Like
	Keywords []string
}

// Len 返回收藏数量。
func (s *LikeSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Likes)
}

// ItemIDs 返回按时间倒序的收藏物品 ID。
func (s *LikeSnapshot) ItemIDs() []int64 {
	if s == nil {
		return nil
	}
	ids := make([]int64, 0, len(s.Likes))
	for _, l := range s.Likes {
		ids = append(ids, l.ItemID)
	}
	return ids
}

// Affinity 汇总收藏涉及的门店/类目/物品集合，用于亲和度加分与过滤。
type Affinity struct {
	Stores     map[int64]struct{}
	Categories map[int64]struct{}
	Items      map[int64]struct{}
	Keywords   map[string]struct{}
}

// Affinity 基于全部收藏（不受 recency window 限制）构建亲和度集合。
func (s *LikeSnapshot) Affinity() *Affinity {
	a := &Affinity{
		Stores:     make(map[int64]struct{}),
		Categories: make(map[int64]struct{}),
		Items:      make(map[int64]struct{}),
		Keywords:   make(map[string]struct{}),
	}
	if s == nil {
		return a
	}
	for _, l := range s.Likes {
		a.Stores[l.StoreID] = struct{}{}
		a.Categories[l.CategoryID] = struct{}{}
		a.Items[l.ItemID] = struct{}{}
	}
	for _, k := range s.Keywords {
		a.Keywords[k] = struct{}{}
	}
	return a
}

func (a *Affinity) HasStore(id int64) bool {
	_, ok := a.Stores[id]
	return ok
}

func (a *Affinity) HasCategory(id int64) bool {
	_, ok := a.Categories[id]
	return ok
}

func (a *Affinity) HasItem(id int64) bool {
	_, ok := a.Items[id]
	return ok
}

// KeywordOverlap 返回候选关键词与用户关键词的交集大小（候选关键词去重计数）。
func (a *Affinity) KeywordOverlap(keywords []string) int {
	if len(a.Keywords) == 0 || len(keywords) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(keywords))
	n := 0
	for _, k := range keywords {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := a.Keywords[k]; ok {
			n++
		}
	}
	return n
}

// GeoQuery 是已校验的地理检索条件。
type GeoQuery struct {
	Lat      float64 `json:"lat" validate:"latitude"`
	Lng      float64 `json:"lng" validate:"longitude"`
	RadiusKm float64 `json:"radius_km" validate:"gt=0"`
}

// Catalog 是目录的只读查询接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 批量读取：一次请求内预取全部候选属性，打分循环中不再访问外部存储
//
// 实现：
//   - store.MemoryCatalog（测试、本地调试）
//   - store.SQLiteCatalog（modernc.org/sqlite）
type Catalog interface {
	// ActiveItems 返回全部上架且有库存的物品，顺序稳定（作为候选原始顺序）
	ActiveItems(ctx context.Context) ([]*CatalogItem, error)

	// UserLikes 返回用户当前收藏中上架且有库存的物品（按时间倒序）以及前 topKeywords 个偏好关键词
	UserLikes(ctx context.Context, userID string, topKeywords int) (*LikeSnapshot, error)

	// RecentItems 返回最新上架的物品 ID（显式兜底查询，与个性化结果区分）
	RecentItems(ctx context.Context, limit int) ([]int64, error)
}
