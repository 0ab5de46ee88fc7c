package schedule

import "time"

// Status is the lifecycle state of a scheduled email row.
//
// pending -> sending -> sent      (success)
// pending -> sending -> error     (delivery failure, terminal)
//
// sending is the claim state: a sweep wins a row by moving it from pending
// to sending before touching the transport, so overlapping sweeps cannot
// both dispatch the same row. error rows are only revisited through an
// explicit operator Requeue.
type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// ScheduledEmail is one concrete, time-stamped instance of firing an
// email-type journey event for one couple.
type ScheduledEmail struct {
	ID             string
	CoupleID       string
	EmailType      string
	RecipientEmail string
	ScheduledFor   time.Time
	Status         Status
	DynamicData    map[string]string
	SentAt         *time.Time
	Error          *string
	LastAttempt    *time.Time
	CreatedAt      time.Time
}

// CreateParams enumerates the fields required to insert a new scheduled row.
type CreateParams struct {
	ID             string
	CoupleID       string
	EmailType      string
	RecipientEmail string
	ScheduledFor   time.Time
	DynamicData    map[string]string
}
