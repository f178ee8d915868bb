package approvallog

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate-admin/internal/model"
)

// PostgresStore persists the audit trail in a single table. The schema is
// created on open; the table is append-only and never updated.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const createLogTable = `
CREATE TABLE IF NOT EXISTS approval_logs (
	id TEXT PRIMARY KEY,
	property_id TEXT NOT NULL,
	action TEXT NOT NULL,
	previous_status TEXT NOT NULL,
	new_status TEXT NOT NULL,
	admin_id TEXT NOT NULL,
	admin_email TEXT NOT NULL,
	admin_name TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createLogTable); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if entry.CreatedAt.IsZero() {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO approval_logs (id, property_id, action, previous_status, new_status, admin_id, admin_email, admin_name, reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			entry.ID, entry.PropertyID, entry.Action, string(entry.PreviousStatus), string(entry.NewStatus),
			entry.AdminID, entry.AdminEmail, entry.AdminName, entry.Reason)
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO approval_logs (id, property_id, action, previous_status, new_status, admin_id, admin_email, admin_name, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.PropertyID, entry.Action, string(entry.PreviousStatus), string(entry.NewStatus),
		entry.AdminID, entry.AdminEmail, entry.AdminName, entry.Reason, entry.CreatedAt)
	return err
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, property_id, action, previous_status, new_status, admin_id, admin_email, admin_name, reason, created_at
		 FROM approval_logs
		 WHERE ($1 = '' OR property_id = $1)
		   AND ($2 = '' OR admin_email = $2)
		   AND ($3 = '' OR action = $3)
		 ORDER BY created_at DESC, id DESC`,
		filter.PropertyID, filter.AdminEmail, filter.Action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var prev, next string
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.Action, &prev, &next,
			&e.AdminID, &e.AdminEmail, &e.AdminName, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PreviousStatus = model.ParsePropertyStatus(prev)
		e.NewStatus = model.ParsePropertyStatus(next)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE action = 'approve'),
		        count(*) FILTER (WHERE action = 'reject'),
		        count(*) FILTER (WHERE action = 'approve' AND created_at::date = now()::date),
		        count(*) FILTER (WHERE action = 'reject' AND created_at::date = now()::date)
		 FROM approval_logs`).Scan(
		&st.TotalEntries, &st.TotalApprovals, &st.TotalRejections, &st.ApprovalsToday, &st.RejectionsToday)
	return st, err
}

func (s *PostgresStore) Export(ctx context.Context) ([]byte, error) {
	entries, err := s.Query(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(entries, "", "  ")
}
