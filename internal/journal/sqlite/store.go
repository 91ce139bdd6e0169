// Package sqlite provides a SQLite-backed journal store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cowpool/samepaged/internal/journal"
	"github.com/cowpool/samepaged/internal/journal/sqlite/migrations"
	"github.com/cowpool/samepaged/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists the pass journal in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendPass stores one completed pass.
func (s *Store) AppendPass(ctx context.Context, rec journal.PassRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("journal is not configured")
	}
	if strings.TrimSpace(rec.Kind) == "" {
		return fmt.Errorf("pass kind is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO pass_runs (kind, tasks, pages_scanned, read_failures, groups_found,
		   merged, unmerged, conflicts, pruned, records_live, duration_us, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Kind,
		rec.Tasks,
		rec.PagesScanned,
		rec.ReadFailures,
		rec.Groups,
		rec.Merged,
		rec.Unmerged,
		rec.Conflicts,
		rec.Pruned,
		rec.RecordsLive,
		rec.Duration.Microseconds(),
		toMillis(rec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("append pass: %w", err)
	}
	return nil
}

// AppendTaskChange stores one registry change.
func (s *Store) AppendTaskChange(ctx context.Context, change journal.TaskChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("journal is not configured")
	}
	if strings.TrimSpace(change.Change) == "" {
		return fmt.Errorf("change kind is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO task_events (pid, change, occurred_at) VALUES (?, ?, ?)`,
		int64(change.PID),
		change.Change,
		toMillis(change.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("append task change: %w", err)
	}
	return nil
}

// RecentPasses returns up to limit passes, newest first.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]journal.PassRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("journal is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT kind, tasks, pages_scanned, read_failures, groups_found,
		   merged, unmerged, conflicts, pruned, records_live, duration_us, completed_at
		 FROM pass_runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var passes []journal.PassRecord
	for rows.Next() {
		var rec journal.PassRecord
		var durationUS int64
		var completedAt int64
		if err := rows.Scan(
			&rec.Kind,
			&rec.Tasks,
			&rec.PagesScanned,
			&rec.ReadFailures,
			&rec.Groups,
			&rec.Merged,
			&rec.Unmerged,
			&rec.Conflicts,
			&rec.Pruned,
			&rec.RecordsLive,
			&durationUS,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("list passes: %w", err)
		}
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		rec.CompletedAt = fromMillis(completedAt)
		passes = append(passes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return passes, nil
}

// TaskChanges returns every recorded change for a pid, oldest first.
func (s *Store) TaskChanges(ctx context.Context, pid uint64) ([]journal.TaskChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("journal is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT pid, change, occurred_at
		 FROM task_events
		 WHERE pid = ?
		 ORDER BY id ASC`,
		int64(pid),
	)
	if err != nil {
		return nil, fmt.Errorf("list task changes: %w", err)
	}
	defer rows.Close()

	var changes []journal.TaskChange
	for rows.Next() {
		var change journal.TaskChange
		var rowPID int64
		var occurredAt int64
		if err := rows.Scan(&rowPID, &change.Change, &occurredAt); err != nil {
			return nil, fmt.Errorf("list task changes: %w", err)
		}
		change.PID = uint64(rowPID)
		change.OccurredAt = fromMillis(occurredAt)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list task changes: %w", err)
	}
	return changes, nil
}

var _ journal.Store = (*Store)(nil)
