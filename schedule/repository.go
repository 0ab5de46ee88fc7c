package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrEmailNotFound is returned when no scheduled row exists for the id.
	ErrEmailNotFound = errors.New("schedule: email not found")
	// ErrNotRequeueable signals a Requeue on a row that is not in error state.
	ErrNotRequeueable = errors.New("schedule: only error rows can be requeued")
)

// Repository is the persistence surface the materializer and sweeper need.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, params CreateParams) (bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]ScheduledEmail, error)
	Claim(ctx context.Context, id string, at time.Time) (ScheduledEmail, bool, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkError(ctx context.Context, id string, message string, at time.Time) error
}

const emailColumns = `id, couple_id, email_type, recipient_email, scheduled_for, status::text, dynamic_data, sent_at, error, last_attempt, created_at`

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a pending row inside the caller's transaction. It reports
// false without error when an equivalent non-error row already exists, which
// makes materialization idempotent: the partial unique index on
// (couple_id, email_type) covers pending, sending and sent rows.
func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (bool, error) {
	if params.CoupleID == "" {
		return false, fmt.Errorf("schedule: create missing couple id")
	}
	if params.EmailType == "" {
		return false, fmt.Errorf("schedule: create missing email type")
	}
	if params.RecipientEmail == "" {
		return false, fmt.Errorf("schedule: create missing recipient")
	}

	data, err := json.Marshal(params.DynamicData)
	if err != nil {
		return false, fmt.Errorf("schedule: marshal dynamic data: %w", err)
	}

	const query = `
		INSERT INTO scheduled_emails (id, couple_id, email_type, recipient_email, scheduled_for, status, dynamic_data)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6::jsonb)
		ON CONFLICT (couple_id, email_type) WHERE status <> 'error' DO NOTHING
	`

	tag, err := tx.Exec(ctx, query,
		params.ID,
		params.CoupleID,
		params.EmailType,
		params.RecipientEmail,
		params.ScheduledFor,
		string(data),
	)
	if err != nil {
		return false, fmt.Errorf("schedule: insert scheduled email: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListDue returns pending rows whose fire time has passed, oldest first,
// bounded to keep a single sweep bounded in time.
func (r *PGRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]ScheduledEmail, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT ` + emailColumns + `
		FROM scheduled_emails
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("schedule: list due: %w", err)
	}
	defer rows.Close()

	out := make([]ScheduledEmail, 0, limit)
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate due: %w", err)
	}
	return out, nil
}

// Claim moves a row from pending to sending. Only one caller can win the
// claim; everyone else observes ok=false and must not send.
func (r *PGRepository) Claim(ctx context.Context, id string, at time.Time) (ScheduledEmail, bool, error) {
	const query = `
		UPDATE scheduled_emails
		SET status = 'sending', last_attempt = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + emailColumns + `
	`

	row := r.pool.QueryRow(ctx, query, id, at)
	e, err := scanEmail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScheduledEmail{}, false, nil
		}
		return ScheduledEmail{}, false, fmt.Errorf("schedule: claim: %w", err)
	}
	return e, true, nil
}

// MarkSent records the terminal success transition.
func (r *PGRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_emails
		SET status = 'sent', sent_at = $2, error = NULL
		WHERE id = $1 AND status = 'sending'
	`, id, at)
	if err != nil {
		return fmt.Errorf("schedule: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailNotFound
	}
	return nil
}

// MarkError records the terminal failure transition. The row is kept with
// the message and attempt time; nothing re-queues it automatically.
func (r *PGRepository) MarkError(ctx context.Context, id string, message string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_emails
		SET status = 'error', error = $2, last_attempt = $3
		WHERE id = $1 AND status = 'sending'
	`, id, message, at)
	if err != nil {
		return fmt.Errorf("schedule: mark error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailNotFound
	}
	return nil
}

// Requeue is the operator path back from error to pending.
func (r *PGRepository) Requeue(ctx context.Context, id string) (ScheduledEmail, error) {
	const query = `
		UPDATE scheduled_emails
		SET status = 'pending', error = NULL
		WHERE id = $1 AND status = 'error'
		RETURNING ` + emailColumns + `
	`

	row := r.pool.QueryRow(ctx, query, id)
	e, err := scanEmail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScheduledEmail{}, ErrNotRequeueable
		}
		return ScheduledEmail{}, fmt.Errorf("schedule: requeue: %w", err)
	}
	return e, nil
}

// ListForCouple returns every scheduled row for one couple, newest first.
func (r *PGRepository) ListForCouple(ctx context.Context, coupleID string) ([]ScheduledEmail, error) {
	const query = `
		SELECT ` + emailColumns + `
		FROM scheduled_emails
		WHERE couple_id = $1
		ORDER BY scheduled_for DESC
	`

	rows, err := r.pool.Query(ctx, query, coupleID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list for couple: %w", err)
	}
	defer rows.Close()

	out := make([]ScheduledEmail, 0, 8)
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate couple rows: %w", err)
	}
	return out, nil
}

func scanEmail(row pgx.Row) (ScheduledEmail, error) {
	var (
		e    ScheduledEmail
		data []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.CoupleID,
		&e.EmailType,
		&e.RecipientEmail,
		&e.ScheduledFor,
		&e.Status,
		&data,
		&e.SentAt,
		&e.Error,
		&e.LastAttempt,
		&e.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScheduledEmail{}, pgx.ErrNoRows
		}
		return ScheduledEmail{}, fmt.Errorf("schedule: scan email: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &e.DynamicData); err != nil {
			return ScheduledEmail{}, fmt.Errorf("schedule: decode dynamic data: %w", err)
		}
	}
	return e, nil
}
