package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresArchive keeps a copy of every lead for the admin listing.
type PostgresArchive struct {
	db rowQuerier
}

func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresArchive{db: pool}
}

func newPostgresArchiveWithExec(db rowQuerier) *PostgresArchive {
	if db == nil {
		panic("leads: exec required")
	}
	return &PostgresArchive{db: db}
}

func (a *PostgresArchive) Name() string { return "postgres" }

// Record inserts the lead.
func (a *PostgresArchive) Record(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO leads (id, recorded_at, origin, name, phone, email, message, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := a.db.Exec(ctx, query,
		uuid.New(),
		rec.Timestamp,
		rec.Origin,
		rec.Name,
		rec.Phone,
		rec.Email,
		rec.Message,
		rec.Extra,
	); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// List returns archived leads newest first.
func (a *PostgresArchive) List(ctx context.Context, filter ListFilter) ([]StoredLead, error) {
	var (
		where []string
		args  []any
	)
	if origin := strings.TrimSpace(filter.Origin); origin != "" {
		args = append(args, origin)
		where = append(where, fmt.Sprintf("origin = $%d", len(args)))
	}
	query := `SELECT id, created_at, recorded_at, origin, name, phone, email, message, extra FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []StoredLead
	for rows.Next() {
		var lead StoredLead
		if err := rows.Scan(
			&lead.ID,
			&lead.CreatedAt,
			&lead.Timestamp,
			&lead.Origin,
			&lead.Name,
			&lead.Phone,
			&lead.Email,
			&lead.Message,
			&lead.Extra,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}
