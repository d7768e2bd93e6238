package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UploadStatus is the outcome of an upload attempt.
type UploadStatus string

const (
	UploadOK     UploadStatus = "ok"
	UploadFailed UploadStatus = "failed"
)

// DefaultHistoryLimit is how many events Recent returns when limit <= 0.
const DefaultHistoryLimit = 50

// UploadEvent is one entry of the upload audit trail.
type UploadEvent struct {
	ID        string       `json:"id"`
	DatasetID string       `json:"dataset_id,omitempty"`
	Filename  string       `json:"filename"`
	Rows      int          `json:"rows"`
	Columns   int          `json:"columns"`
	Bytes     int64        `json:"bytes"`
	Status    UploadStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	IPAddress string       `json:"ip_address,omitempty"`
	UserAgent string       `json:"user_agent,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// AuditRecorder stores upload events.
type AuditRecorder interface {
	Record(ctx context.Context, ev UploadEvent) error
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]UploadEvent, error)
	Close()
}

// newUploadEvent fills the id, timestamp and client details of ev.
func newUploadEvent(ctx context.Context, ev UploadEvent) UploadEvent {
	ev.ID = uuid.NewString()
	ev.CreatedAt = time.Now().UTC()
	info := ClientInfoFromContext(ctx)
	ev.IPAddress = info.IPAddress
	ev.UserAgent = info.UserAgent
	ev.RequestID = info.RequestID
	return ev
}

// MemoryAuditRecorder keeps the most recent events in a fixed-size ring.
type MemoryAuditRecorder struct {
	mu     sync.Mutex
	events []UploadEvent
	next   int
	full   bool
}

// NewMemoryAuditRecorder creates a recorder holding at most capacity events.
func NewMemoryAuditRecorder(capacity int) *MemoryAuditRecorder {
	if capacity <= 0 {
		capacity = 200
	}
	return &MemoryAuditRecorder{events: make([]UploadEvent, capacity)}
}

// Record implements AuditRecorder.
func (m *MemoryAuditRecorder) Record(_ context.Context, ev UploadEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events[m.next] = ev
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent implements AuditRecorder.
func (m *MemoryAuditRecorder) Recent(_ context.Context, limit int) ([]UploadEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.events)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > size {
		limit = size
	}

	out := make([]UploadEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		out = append(out, m.events[idx])
	}
	return out, nil
}

// Close implements AuditRecorder.
func (m *MemoryAuditRecorder) Close() {}

// PoolConfig sizes the PostgreSQL connection pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

const createUploadEventsSQL = `
CREATE TABLE IF NOT EXISTS upload_events (
	id          UUID PRIMARY KEY,
	dataset_id  TEXT,
	filename    TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	columns     INTEGER NOT NULL,
	bytes       BIGINT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	request_id  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS upload_events_created_at_idx ON upload_events (created_at DESC);
`

const insertUploadEventSQL = `
INSERT INTO upload_events
	(id, dataset_id, filename, rows, columns, bytes, status, error, ip_address, user_agent, request_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const recentUploadEventsSQL = `
SELECT id, dataset_id, filename, rows, columns, bytes, status, error, ip_address, user_agent, request_id, created_at
FROM upload_events
ORDER BY created_at DESC
LIMIT $1`

// PostgresAuditRecorder stores events in the upload_events table.
type PostgresAuditRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRecorder connects to databaseURL and creates the
// upload_events table if it is missing.
func NewPostgresAuditRecorder(ctx context.Context, databaseURL string, pc PoolConfig) (*PostgresAuditRecorder, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse audit database URL: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = int32(pc.MaxConns)
	}
	poolConfig.MinConns = int32(pc.MinConns)
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	if _, err := pool.Exec(ctx, createUploadEventsSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create upload_events: %w", err)
	}
	return &PostgresAuditRecorder{pool: pool}, nil
}

// Record implements AuditRecorder.
func (p *PostgresAuditRecorder) Record(ctx context.Context, ev UploadEvent) error {
	id, err := uuid.Parse(ev.ID)
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	_, err = p.pool.Exec(ctx, insertUploadEventSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		toPgText(ev.DatasetID),
		ev.Filename,
		ev.Rows,
		ev.Columns,
		ev.Bytes,
		string(ev.Status),
		toPgText(ev.Error),
		toPgText(ev.IPAddress),
		toPgText(ev.UserAgent),
		toPgText(ev.RequestID),
		pgtype.Timestamptz{Time: ev.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert upload event: %w", err)
	}
	return nil
}

// Recent implements AuditRecorder.
func (p *PostgresAuditRecorder) Recent(ctx context.Context, limit int) ([]UploadEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := p.pool.Query(ctx, recentUploadEventsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query upload events: %w", err)
	}
	events, err := pgx.CollectRows(rows, scanUploadEvent)
	if err != nil {
		return nil, fmt.Errorf("scan upload events: %w", err)
	}
	return events, nil
}

// Close implements AuditRecorder.
func (p *PostgresAuditRecorder) Close() {
	p.pool.Close()
}

func scanUploadEvent(row pgx.CollectableRow) (UploadEvent, error) {
	var (
		ev                                UploadEvent
		id                                pgtype.UUID
		datasetID, errText, ip, ua, reqID pgtype.Text
		rowsN, cols                       int32
		status                            string
		createdAt                         pgtype.Timestamptz
	)
	err := row.Scan(&id, &datasetID, &ev.Filename, &rowsN, &cols, &ev.Bytes, &status,
		&errText, &ip, &ua, &reqID, &createdAt)
	if err != nil {
		return ev, err
	}
	ev.ID = uuidToString(id)
	ev.DatasetID = datasetID.String
	ev.Rows = int(rowsN)
	ev.Columns = int(cols)
	ev.Status = UploadStatus(status)
	ev.Error = errText.String
	ev.IPAddress = ip.String
	ev.UserAgent = ua.String
	ev.RequestID = reqID.String
	ev.CreatedAt = createdAt.Time
	return ev, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
