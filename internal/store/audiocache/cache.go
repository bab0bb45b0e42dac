// Package audiocache 以 SQLite 保存合成结果，键为输出格式与 SSML 文档的摘要。
package audiocache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache SQLite 音频缓存
type Cache struct {
	db *sql.DB
}

// Open 打开（必要时创建）缓存文件并完成建表
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audio cache %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate audio cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS audio (
			key TEXT PRIMARY KEY,
			format TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Key 计算缓存键。编译器输出是确定的，相同请求得到相同的键
func Key(format, ssml string) string {
	sum := sha256.Sum256([]byte(format + "\x00" + ssml))
	return hex.EncodeToString(sum[:])
}

// Get 读取缓存，未命中时返回 false
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM audio WHERE key=?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read audio cache: %w", err)
	}
	return data, true, nil
}

// Put 写入缓存，已存在的键会被覆盖
func (c *Cache) Put(ctx context.Context, key, format string, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO audio(key, format, data, created_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET format=excluded.format, data=excluded.data, created_at=excluded.created_at`,
		key, format, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write audio cache: %w", err)
	}
	return nil
}

// Len 返回缓存条目数
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audio`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audio cache: %w", err)
	}
	return n, nil
}

// Close 关闭数据库
func (c *Cache) Close() error {
	return c.db.Close()
}
