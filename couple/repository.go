package couple

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCoupleNotFound signals the referenced couple record does not exist.
	ErrCoupleNotFound = errors.New("couple: not found")
	// ErrSessionNotFound signals the referenced session record does not exist.
	ErrSessionNotFound = errors.New("couple: session not found")
)

// Repository provides read access to couple and session records. The
// scheduler never owns these rows; it only reads them and stamps sessions it
// has materialized.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a couple record by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Couple, error) {
	const query = `
		SELECT id, email, name, partner_name, COALESCE(partner_email, ''), created_at
		FROM couples
		WHERE id = $1
	`

	var c Couple
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Email,
		&c.Name,
		&c.PartnerName,
		&c.PartnerEmail,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Couple{}, ErrCoupleNotFound
		}
		return Couple{}, fmt.Errorf("couple: query by id: %w", err)
	}

	return c, nil
}

// GetSession fetches a session record by its primary key.
func (r *Repository) GetSession(ctx context.Context, id string) (Session, error) {
	const query = `
		SELECT id, couple_id, session_type, session_date, materialized_at, created_at
		FROM sessions
		WHERE id = $1
	`

	var s Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.CoupleID,
		&s.SessionType,
		&s.SessionDate,
		&s.MaterializedAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("couple: query session: %w", err)
	}

	return s, nil
}

// ListPendingSessions returns sessions the scheduler has not materialized
// yet, oldest first, bounded by limit.
func (r *Repository) ListPendingSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	const query = `
		SELECT id, couple_id, session_type, session_date, materialized_at, created_at
		FROM sessions
		WHERE materialized_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("couple: list pending sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]Session, 0, limit)
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.CoupleID, &s.SessionType, &s.SessionDate, &s.MaterializedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("couple: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couple: iterate sessions: %w", err)
	}

	return sessions, nil
}

// MarkMaterialized stamps the session inside the caller's transaction so the
// stamp commits or rolls back together with the created email rows.
func (r *Repository) MarkMaterialized(ctx context.Context, tx pgx.Tx, sessionID string) error {
	// The materialized_at guard makes a second stamp a no-op.
	if _, err := tx.Exec(ctx, `
		UPDATE sessions
		SET materialized_at = now()
		WHERE id = $1 AND materialized_at IS NULL
	`, sessionID); err != nil {
		return fmt.Errorf("couple: mark materialized: %w", err)
	}
	return nil
}
