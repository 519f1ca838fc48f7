package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists an append-only audit trail of outreach send attempts.
type Store struct {
	pool   rowQuerier
	tracer trace.Tracer
}

// StoredAttempt is one audited send attempt.
type StoredAttempt struct {
	ID        uuid.UUID `json:"id"`
	ClientID  string    `json:"clientId"`
	Message   string    `json:"message"`
	Override  bool      `json:"override"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewStore creates an audit store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("outreach: pgx pool required")
	}
	return newStoreWithExec(pool)
}

func newStoreWithExec(exec rowQuerier) *Store {
	if exec == nil {
		panic("outreach: exec required")
	}
	return &Store{
		pool:   exec,
		tracer: otel.Tracer("routefill.internal.outreach.store"),
	}
}

var _ AuditLog = (*Store)(nil)

// Record inserts one audit row per send attempt.
func (s *Store) Record(ctx context.Context, rec AuditRecord) error {
	ctx, span := s.tracer.Start(ctx, "outreach.store.record")
	defer span.End()

	query := `
		INSERT INTO outreach_attempts (id, client_id, message, override_non_prod, status, error)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`
	if _, err := s.pool.Exec(ctx, query,
		uuid.New(),
		rec.ClientID,
		rec.Message,
		rec.Override,
		rec.Status,
		rec.Error,
	); err != nil {
		return fmt.Errorf("outreach: insert audit row: %w", err)
	}
	return nil
}

// ListByClient returns the audit trail for one client, newest first.
func (s *Store) ListByClient(ctx context.Context, clientID string, limit int32) ([]StoredAttempt, error) {
	ctx, span := s.tracer.Start(ctx, "outreach.store.list_by_client")
	defer span.End()

	query := `
		SELECT id, client_id, message, override_non_prod, status, COALESCE(error, ''), created_at
		FROM outreach_attempts
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("outreach: list audit rows: %w", err)
	}
	defer rows.Close()

	var attempts []StoredAttempt
	for rows.Next() {
		var a StoredAttempt
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Message, &a.Override, &a.Status, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("outreach: scan audit row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outreach: iterate audit rows: %w", err)
	}
	return attempts, nil
}
