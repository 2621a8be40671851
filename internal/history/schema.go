package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion 变更 schema 时递增；旧库需要用户删除 history.db。
const schemaVersion = 1

// ErrSchemaMismatch 表示数据库 schema 版本与当前程序不一致。
var ErrSchemaMismatch = errors.New("history 数据库版本不匹配")

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("检查 schema_version 表失败：%w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("读取 schema 版本失败：%w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w：数据库版本 %d，期望 %d（请删除 %s 后重试）",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始 schema 事务失败：%w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("创建 schema 失败：%w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("写入 schema 版本失败：%w", err)
	}
	return tx.Commit()
}
