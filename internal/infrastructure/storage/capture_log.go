package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
)

const capturesTable = "captures"

const schema = `CREATE TABLE IF NOT EXISTS captures (
	id           TEXT PRIMARY KEY,
	message_id   BIGINT NOT NULL,
	chat_id      BIGINT NOT NULL,
	case_type    TEXT NOT NULL,
	topic        TEXT NOT NULL,
	source_label TEXT NOT NULL,
	url          TEXT NOT NULL,
	document_id  TEXT NOT NULL,
	success      INTEGER NOT NULL,
	error        TEXT NOT NULL,
	created_at   BIGINT NOT NULL
)`

var captureColumns = []string{
	"id", "message_id", "chat_id", "case_type", "topic", "source_label",
	"url", "document_id", "success", "error", "created_at",
}

// CaptureLog persists capture outcomes into sqlite or Postgres.
type CaptureLog struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.CaptureLog = (*CaptureLog)(nil)

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg config.StorageConfig) (*CaptureLog, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.StorageSQLite
	}

	var builder sq.StatementBuilderType
	switch driver {
	case config.StorageSQLite:
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case config.StoragePostgres:
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == config.StorageSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &CaptureLog{db: db, builder: builder}, nil
}

// Close releases the connection pool.
func (l *CaptureLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts one capture outcome, assigning an ID and timestamp when missing.
func (l *CaptureLog) Record(ctx context.Context, rec domain.CaptureRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	success := 0
	if rec.Success {
		success = 1
	}

	query, args, err := l.builder.Insert(capturesTable).
		Columns(captureColumns...).
		Values(rec.ID, rec.MessageID, rec.ChatID, string(rec.CaseType), string(rec.Topic), rec.SourceLabel,
			rec.URL, rec.DocumentID, success, rec.Error, rec.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (l *CaptureLog) Recent(ctx context.Context, limit int) ([]domain.CaptureRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := l.builder.Select(captureColumns...).
		From(capturesTable).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var records []domain.CaptureRecord
	for rows.Next() {
		var (
			rec       domain.CaptureRecord
			caseType  string
			topic     string
			success   int
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.ChatID, &caseType, &topic, &rec.SourceLabel,
			&rec.URL, &rec.DocumentID, &success, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		rec.CaseType = domain.CaseType(caseType)
		rec.Topic = domain.Topic(topic)
		rec.Success = success == 1
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}
