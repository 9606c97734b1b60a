package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lysyi3m/workwatch/app/work"
)

const dequeuePollInterval = 100 * time.Millisecond

var snapshotColumns = []string{
	work.KeyID,
	work.KeyTitle,
	work.KeyLink,
	work.KeyAuthor,
	work.KeyPublished,
	work.KeyUpdatedAt,
	work.KeySourceFeed,
	work.KeyChangeReason,
	work.KeyFandom,
	work.KeyRating,
	work.KeyCategory,
	work.KeyWarnings,
	work.KeyCharacters,
	work.KeyRelationships,
	work.KeyAdditionalTags,
	work.KeyWords,
	work.KeyChapters,
	work.KeyLanguage,
	work.KeySummary,
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the same state as RedisStore in a local database file.
// A single pooled connection serializes all access.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db.DB)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Database migrations applied", "path", path, "version", version, "dirty", dirty)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*work.Snapshot, error) {
	query, args, err := sq.Select(snapshotColumns...).
		From("snapshots").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row := make(map[string]interface{})
	err = s.db.QueryRowxContext(ctx, query, args...).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}

	hash := make(map[string]string, len(row))
	for column, value := range row {
		switch v := value.(type) {
		case string:
			hash[column] = v
		case []byte:
			hash[column] = string(v)
		}
	}

	snapshot, err := work.SnapshotFromHash(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return snapshot, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot *work.Snapshot) error {
	hash := snapshot.ToHash()

	values := make(map[string]interface{}, len(snapshotColumns))
	for _, column := range snapshotColumns {
		values[column] = hash[column]
	}

	query, args, err := sq.Replace("snapshots").SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSent(ctx context.Context, id string) (*work.SentRecord, error) {
	var record work.SentRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, sent_at FROM sent_messages WHERE id = ?`, id,
	).Scan(&record.ID, &record.Status, &record.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sent record %s: %w", id, err)
	}
	return &record, nil
}

func (s *SQLiteStore) SaveSent(ctx context.Context, record work.SentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_messages (id, status, sent_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			sent_at = excluded.sent_at
	`, record.ID, record.Status, record.SentAt)
	if err != nil {
		return fmt.Errorf("failed to save sent record %s: %w", record.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Enqueue(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO queue (work_id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	deadline := time.Now().Add(timeout)

	for {
		id, ok, err := s.popHead(ctx)
		if err != nil || ok {
			return id, ok, err
		}

		if timeout <= 0 || !time.Now().Before(deadline) {
			return "", false, nil
		}

		select {
		case <-ctx.Done():
			return "", false, nil
		case <-time.After(dequeuePollInterval):
		}
	}
}

func (s *SQLiteStore) popHead(ctx context.Context) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM queue
		WHERE seq = (SELECT MIN(seq) FROM queue)
		RETURNING work_id
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to dequeue: %w", err)
	}
	return id, true, nil
}

func (s *SQLiteStore) Length(ctx context.Context) (int64, error) {
	return s.count(ctx, "queue")
}

func (s *SQLiteStore) count(ctx context.Context, table string) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error

	if stats.Snapshots, err = s.count(ctx, "snapshots"); err != nil {
		return Stats{}, err
	}
	if stats.Sent, err = s.count(ctx, "sent_messages"); err != nil {
		return Stats{}, err
	}
	if stats.Queued, err = s.count(ctx, "queue"); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.Format(work.DateLayout)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sentQuery, sentArgs, err := sq.Delete("sent_messages").
		Where(sq.Expr("id IN (SELECT id FROM snapshots WHERE updated_at < ?)", cutoff)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sentQuery, sentArgs...); err != nil {
		return 0, fmt.Errorf("failed to delete sent records: %w", err)
	}

	snapshotQuery, snapshotArgs, err := sq.Delete("snapshots").
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	result, err := tx.ExecContext(ctx, snapshotQuery, snapshotArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return removed, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
