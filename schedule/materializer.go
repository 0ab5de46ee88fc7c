package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"coupleflow/couple"
	"coupleflow/journey"
)

var (
	// ErrUnknownSessionType signals a session whose type has no catalog entry.
	ErrUnknownSessionType = errors.New("schedule: unknown session type")
	// ErrMissingRecipient signals a couple record without the address an
	// event is scoped to. The materialization aborts: a partially-scheduled
	// email program is worse than none.
	ErrMissingRecipient = errors.New("schedule: missing recipient email")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CoupleStore is the read access the materializer needs on couple records.
type CoupleStore interface {
	GetByID(ctx context.Context, id string) (couple.Couple, error)
	GetSession(ctx context.Context, id string) (couple.Session, error)
	MarkMaterialized(ctx context.Context, tx pgx.Tx, sessionID string) error
}

// MaterializeResult counts the rows one materialization pass produced.
type MaterializeResult struct {
	Created int
	Skipped int
}

// Materializer turns session-creation facts into concrete scheduled-email
// rows with absolute fire times derived from the journey graph.
type Materializer struct {
	pool      TxBeginner
	graph     *journey.Graph
	couples   CoupleStore
	repo      Repository
	links     *LinkSigner
	now       func() time.Time
	idGen     func() string
	promoCode string
}

func NewMaterializer(pool TxBeginner, graph *journey.Graph, couples CoupleStore, repo Repository, links *LinkSigner) *Materializer {
	return &Materializer{
		pool:      pool,
		graph:     graph,
		couples:   couples,
		repo:      repo,
		links:     links,
		now:       time.Now,
		idGen:     func() string { return uuid.NewString() },
		promoCode: "THANKYOU15",
	}
}

func (m *Materializer) WithClock(now func() time.Time) *Materializer {
	m.now = now
	return m
}

func (m *Materializer) WithIDGenerator(gen func() string) *Materializer {
	m.idGen = gen
	return m
}

func (m *Materializer) WithPromoCode(code string) *Materializer {
	m.promoCode = code
	return m
}

// SessionCreated materializes every email event bracketing the new session.
// All rows are written in one transaction together with the session stamp;
// any lookup failure aborts with no partial writes. Re-running for the same
// session creates no duplicates.
func (m *Materializer) SessionCreated(ctx context.Context, sessionID string) (MaterializeResult, error) {
	sess, err := m.couples.GetSession(ctx, sessionID)
	if err != nil {
		return MaterializeResult{}, err
	}
	cpl, err := m.couples.GetByID(ctx, sess.CoupleID)
	if err != nil {
		return MaterializeResult{}, err
	}

	event, ok := m.graph.EventByID(sess.SessionType)
	if !ok || event.Type != journey.EventSession {
		return MaterializeResult{}, fmt.Errorf("%w: %q", ErrUnknownSessionType, sess.SessionType)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("schedule: begin materialize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var res MaterializeResult
	for _, e := range m.graph.EmailsDependingOn(event.ID) {
		params, err := m.buildRow(e, cpl, sess.SessionDate.AddDate(0, 0, e.OffsetDays), &sess)
		if err != nil {
			return MaterializeResult{}, err
		}
		created, err := m.repo.Create(ctx, tx, params)
		if err != nil {
			return MaterializeResult{}, err
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}

	if err := m.couples.MarkMaterialized(ctx, tx, sess.ID); err != nil {
		return MaterializeResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return MaterializeResult{}, fmt.Errorf("schedule: commit materialize tx: %w", err)
	}
	return res, nil
}

// CoupleCreated materializes the immediate root emails (welcome, partner
// invite) when a couple record first appears, scheduled at now.
func (m *Materializer) CoupleCreated(ctx context.Context, coupleID string) (MaterializeResult, error) {
	cpl, err := m.couples.GetByID(ctx, coupleID)
	if err != nil {
		return MaterializeResult{}, err
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("schedule: begin couple tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := m.now()
	var res MaterializeResult
	for _, e := range m.graph.ImmediateEmails() {
		params, err := m.buildRow(e, cpl, now, nil)
		if err != nil {
			return MaterializeResult{}, err
		}
		created, err := m.repo.Create(ctx, tx, params)
		if err != nil {
			return MaterializeResult{}, err
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return MaterializeResult{}, fmt.Errorf("schedule: commit couple tx: %w", err)
	}
	return res, nil
}

func (m *Materializer) buildRow(e journey.Event, cpl couple.Couple, scheduledFor time.Time, sess *couple.Session) (CreateParams, error) {
	recipient := cpl.Email
	if e.PartnerScope == journey.ScopePartner2 {
		recipient = cpl.PartnerEmail
	}
	if recipient == "" {
		return CreateParams{}, fmt.Errorf("%w: event %q scoped to %s", ErrMissingRecipient, e.ID, e.PartnerScope)
	}

	data := map[string]string{
		"name":         cpl.Name,
		"partner_name": cpl.PartnerName,
	}
	if sess != nil {
		data["session_date"] = sess.SessionDate.Format("2 January 2006")
	}

	switch e.EmailType {
	case journey.EmailQuestionnaireA, journey.EmailQuestionnaireB:
		link, err := m.links.QuestionnaireURL(cpl.ID, string(e.PartnerScope))
		if err != nil {
			return CreateParams{}, err
		}
		data["questionnaire_url"] = link
	case journey.EmailPartnerInvite:
		link, err := m.links.PartnerInviteURL(cpl.ID)
		if err != nil {
			return CreateParams{}, err
		}
		data["invite_url"] = link
	case journey.EmailFeedback:
		data["promo_code"] = m.promoCode
	}

	return CreateParams{
		ID:             m.idGen(),
		CoupleID:       cpl.ID,
		EmailType:      e.EmailType,
		RecipientEmail: recipient,
		ScheduledFor:   scheduledFor,
		DynamicData:    data,
	}, nil
}
