package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/infra/fsx"
)

// Store 把每次 run 的报告持久化到 SQLite。
type Store struct {
	db   *sql.DB
	path string
}

// Run 是 runs 表的一行（不含 outcomes）。
type Run struct {
	RunID      string               `json:"run_id"`
	Source     string               `json:"source"`
	DryRun     bool                 `json:"dry_run"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Summary    domain.ReportSummary `json:"summary"`
	Warnings   []string             `json:"warnings"`
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open 打开（必要时创建）path 处的数据库并检查 schema 版本。
func Open(ctx context.Context, path string) (*Store, error) {
	if err := fsx.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败：%w", err)
	}
	// 单进程顺序写入，一个连接即可。
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("执行 %q 失败：%w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path 返回数据库文件路径。
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record 在一个事务内写入 run 及其全部 outcomes。同一 run_id 重复写入会报错。
func (s *Store) Record(ctx context.Context, r domain.RunReport) error {
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("run_id 不能为空")
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return err
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO runs (
                run_id, source, dry_run, started_at, finished_at,
                moved, skipped, failed, renamed, bytes_moved, warnings_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Source, boolToInt(r.DryRun),
			r.StartedAt.UTC().Format(time.RFC3339Nano),
			r.FinishedAt.UTC().Format(time.RFC3339Nano),
			r.Summary.Moved, r.Summary.Skipped, r.Summary.Failed, r.Summary.Renamed, r.Summary.BytesMoved,
			string(warnings),
		)
		if err != nil {
			return fmt.Errorf("写入 run 失败：%w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO outcomes (
                run_id, seq, src, category, kind, final_path, renamed, overwrote, reason, error_msg, size
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, o := range r.Outcomes {
			if _, err := stmt.ExecContext(ctx,
				r.RunID, i, o.Src, string(o.Category), o.Kind,
				nullableString(o.FinalPath), boolToInt(o.Renamed), boolToInt(o.Overwrote),
				nullableString(o.Reason), nullableString(o.ErrorMsg), o.Size,
			); err != nil {
				return fmt.Errorf("写入 outcome 失败（%s）：%w", o.Src, err)
			}
		}
		return tx.Commit()
	})
}

// Recent 按开始时间倒序返回最近 limit 次 run；limit<=0 时返回全部。
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT run_id, source, dry_run, started_at, finished_at,
            moved, skipped, failed, renamed, bytes_moved, warnings_json
          FROM runs ORDER BY started_at DESC, run_id`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("查询 runs 失败：%w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var (
			r                 Run
			dryRun            int
			started, finished string
			warnings          sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Source, &dryRun, &started, &finished,
			&r.Summary.Moved, &r.Summary.Skipped, &r.Summary.Failed, &r.Summary.Renamed, &r.Summary.BytesMoved,
			&warnings); err != nil {
			return nil, err
		}
		r.DryRun = dryRun != 0
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("解析 started_at 失败：%w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("解析 finished_at 失败：%w", err)
		}
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &r.Warnings); err != nil {
				return nil, fmt.Errorf("解析 warnings 失败：%w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes 按扫描顺序返回某次 run 的全部 outcome。Err 字段不会被恢复。
func (s *Store) Outcomes(ctx context.Context, runID string) ([]domain.MoveOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src, category, kind, final_path, renamed, overwrote, reason, error_msg, size
         FROM outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("查询 outcomes 失败：%w", err)
	}
	defer rows.Close()

	out := []domain.MoveOutcome{}
	for rows.Next() {
		var (
			o                           domain.MoveOutcome
			category                    string
			finalPath, reason, errorMsg sql.NullString
			renamed, overwrote          int
		)
		if err := rows.Scan(&o.Src, &category, &o.Kind, &finalPath, &renamed, &overwrote,
			&reason, &errorMsg, &o.Size); err != nil {
			return nil, err
		}
		o.Category = domain.Category(category)
		o.FinalPath = finalPath.String
		o.Reason = reason.String
		o.ErrorMsg = errorMsg.String
		o.Renamed = renamed != 0
		o.Overwrote = overwrote != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
