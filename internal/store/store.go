package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockboard/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SnapshotStore SQLite 快照存储层
// 持久化每张表最近一次成功拉取的行数据，重启后用于预热内存缓存。
type SnapshotStore struct {
	db *sql.DB
}

// New 创建新的 SnapshotStore 实例
func New(dbPath string) (*SnapshotStore, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// 打开数据库连接
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(1) // SQLite 建议单连接
	db.SetMaxIdleConns(1)

	store := &SnapshotStore{db: db}

	// 初始化数据库结构
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema 初始化数据库结构
func (s *SnapshotStore) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Save 保存一张表的快照，整体替换旧快照
func (s *SnapshotStore) Save(id model.SheetID, rows []model.Row, fetchedAt time.Time) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sheet_snapshots (sheet_id, rows_json, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(sheet_id) DO UPDATE SET
			rows_json  = excluded.rows_json,
			fetched_at = excluded.fetched_at
	`, string(id), string(data), fetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// LoadAll 加载全部表快照
func (s *SnapshotStore) LoadAll() ([]model.CacheEntry, error) {
	rows, err := s.db.Query(`SELECT sheet_id, rows_json, fetched_at FROM sheet_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var entries []model.CacheEntry
	for rows.Next() {
		var sheetID, rowsJSON, fetchedAt string
		if err := rows.Scan(&sheetID, &rowsJSON, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		var dataRows []model.Row
		if err := json.Unmarshal([]byte(rowsJSON), &dataRows); err != nil {
			// 损坏的快照跳过，不影响其余表
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			continue
		}

		entries = append(entries, model.CacheEntry{
			SheetID:   model.SheetID(sheetID),
			Rows:      dataRows,
			FetchedAt: ts,
		})
	}

	return entries, rows.Err()
}

// Close 关闭数据库连接
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
