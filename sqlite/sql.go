package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hoshinonyaruko/snake-web/structs"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound 会话不存在
var ErrNotFound = structs.ErrSessionNotFound

const createSessionsTableSQL = `
CREATE TABLE IF NOT EXISTS Sessions (
    SessionID TEXT PRIMARY KEY,
    GridDimension INTEGER,
    State TEXT,
    CreatedAt TIMESTAMP,
    UpdatedAt TIMESTAMP
);
`

const createSessionsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_session_updated ON Sessions (UpdatedAt);
`

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("executing SQL statement %q: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createSessionsTableSQL, createSessionsIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Store 把会话记录保存在 SQLite 中
type Store struct {
	db *sql.DB
}

// Open 打开 path 处的数据库，不存在时创建
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// sqlite3 只允许一个写连接
	db.SetMaxOpenConns(1)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save 在事务中插入或更新记录
func (s *Store) Save(rec structs.SessionRecord) error {
	stateData, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	// 开启事务
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	// 保留首次创建时间
	_, err = tx.Exec(`INSERT INTO Sessions (SessionID, GridDimension, State, CreatedAt, UpdatedAt) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(SessionID) DO UPDATE SET GridDimension = excluded.GridDimension, State = excluded.State, UpdatedAt = excluded.UpdatedAt`,
		rec.SessionID, rec.State.GridDimension, string(stateData), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	return tx.Commit()
}

// Load 记录不存在时返回 ErrNotFound
func (s *Store) Load(id string) (structs.SessionRecord, error) {
	rec := structs.SessionRecord{SessionID: id}
	var stateData string
	err := s.db.QueryRow("SELECT State, CreatedAt, UpdatedAt FROM Sessions WHERE SessionID = ?", id).Scan(
		&stateData, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(stateData), &rec.State); err != nil {
		return rec, fmt.Errorf("decode state of %s: %w", id, err)
	}
	return rec, nil
}

// Delete 删除会话记录，记录不存在时返回 ErrNotFound
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec("DELETE FROM Sessions WHERE SessionID = ?", id)
	if err != nil {
		return err
	}
	// 确认是否确实删除了某条记录
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// List 返回所有已保存会话的 id，最近更新的在前
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query("SELECT SessionID FROM Sessions ORDER BY UpdatedAt DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
