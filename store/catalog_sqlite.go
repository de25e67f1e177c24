package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rushteam/lastcall/core"
)

// SQLiteCatalog 基于 SQLite（modernc.org/sqlite，纯 Go）实现 core.Catalog 的只读查询。
// 时间字段以 unix 秒存储，NULL 表示未设置。
type SQLiteCatalog struct {
	db *sql.DB
}

// catalogSchema 是目录查询依赖的最小表结构。
const catalogSchema = `
CREATE TABLE IF NOT EXISTS categories (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS stores (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	latitude  REAL NOT NULL DEFAULT 0,
	longitude REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS products (
	id             INTEGER PRIMARY KEY,
	store_id       INTEGER NOT NULL REFERENCES stores(id),
	category_id    INTEGER NOT NULL DEFAULT 0,
	name           TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	price          REAL NOT NULL DEFAULT 0,
	discount_price REAL NOT NULL DEFAULT 0,
	discount_rate  REAL NOT NULL DEFAULT 0,
	stock          INTEGER NOT NULL DEFAULT 0,
	is_active      INTEGER NOT NULL DEFAULT 1,
	expires_at     INTEGER,
	created_at     INTEGER
);
CREATE TABLE IF NOT EXISTS product_keywords (
	product_id INTEGER NOT NULL,
	keyword    TEXT NOT NULL,
	PRIMARY KEY (product_id, keyword)
);
CREATE TABLE IF NOT EXISTS wishlists (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	product_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL DEFAULT 0,
	UNIQUE (user_id, product_id)
);
CREATE TABLE IF NOT EXISTS user_keywords (
	user_id TEXT NOT NULL,
	keyword TEXT NOT NULL,
	weight  REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, keyword)
);
`

// OpenSQLiteCatalog 打开 SQLite 数据库。dsn 为 ":memory:" 时限制为单连接（每个连接是独立的内存库）。
func OpenSQLiteCatalog(ctx context.Context, dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

// NewSQLiteCatalog 使用已有的连接。
func NewSQLiteCatalog(db *sql.DB) *SQLiteCatalog {
	return &SQLiteCatalog{db: db}
}

// DB 返回底层连接（用于写入测试数据或迁移）。
func (c *SQLiteCatalog) DB() *sql.DB { return c.db }

// Migrate 创建目录表（幂等）。
func (c *SQLiteCatalog) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, catalogSchema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) ActiveItems(ctx context.Context) ([]*core.CatalogItem, error) {
	const query = `
		SELECT p.id, p.name, p.description, p.category_id, COALESCE(c.name, ''),
		       p.store_id, s.latitude, s.longitude, p.stock,
		       p.price, p.discount_price, p.discount_rate, p.expires_at, p.created_at
		FROM products p
		JOIN stores s ON s.id = p.store_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active = 1 AND p.stock > 0
		ORDER BY p.id
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active items: %w", err)
	}
	defer rows.Close()

	var items []*core.CatalogItem
	byID := make(map[int64]*core.CatalogItem)
	for rows.Next() {
		it := &core.CatalogItem{Active: true}
		var expiresAt, createdAt sql.NullInt64
		if err := rows.Scan(
			&it.ID, &it.Name, &it.Description, &it.CategoryID, &it.CategoryName,
			&it.StoreID, &it.Lat, &it.Lng, &it.Stock,
			&it.Price, &it.DiscountPrice, &it.DiscountRate, &expiresAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan active item: %w", err)
		}
		it.ExpiresAt = unixOrZero(expiresAt)
		it.CreatedAt = unixOrZero(createdAt)
		items = append(items, it)
		byID[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active items: %w", err)
	}

	if err := c.attachKeywords(ctx, byID); err != nil {
		return nil, err
	}
	return items, nil
}

// attachKeywords 一次查询预取全部物品关键词。
func (c *SQLiteCatalog) attachKeywords(ctx context.Context, byID map[int64]*core.CatalogItem) error {
	if len(byID) == 0 {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT product_id, keyword FROM product_keywords ORDER BY product_id, keyword`)
	if err != nil {
		return fmt.Errorf("query product keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var kw string
		if err := rows.Scan(&id, &kw); err != nil {
			return fmt.Errorf("scan product keyword: %w", err)
		}
		if it, ok := byID[id]; ok {
			it.Keywords = append(it.Keywords, kw)
		}
	}
	return rows.Err()
}

func (c *SQLiteCatalog) UserLikes(ctx context.Context, userID string, topKeywords int) (*core.LikeSnapshot, error) {
	const query = `
		SELECT p.id, p.category_id, p.store_id
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = ? AND p.is_active = 1 AND p.stock > 0
		ORDER BY w.created_at DESC, w.id DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	snap := &core.LikeSnapshot{UserID: userID}
	for rows.Next() {
		var l core.Like
		if err := rows.Scan(&l.ItemID, &l.CategoryID, &l.StoreID); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		snap.Likes = append(snap.Likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	if topKeywords > 0 {
		kw, err := c.userKeywords(ctx, userID, topKeywords)
		if err != nil {
			return nil, err
		}
		snap.Keywords = kw
	}
	return snap, nil
}

func (c *SQLiteCatalog) userKeywords(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT keyword FROM user_keywords WHERE user_id = ? ORDER BY weight DESC, keyword LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user keywords: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scan user keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

func (c *SQLiteCatalog) RecentItems(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = core.DefaultLimit
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id FROM products WHERE is_active = 1 AND stock > 0 ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query recent items: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func unixOrZero(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}
