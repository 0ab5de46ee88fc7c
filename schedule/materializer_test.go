package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"coupleflow/couple"
	"coupleflow/journey"
)

func testSigner() *LinkSigner {
	return NewLinkSigner("test-secret", "https://portal.example.com")
}

func testCouple() couple.Couple {
	return couple.Couple{
		ID:           "couple-1",
		Email:        "ana@example.com",
		Name:         "Ana",
		PartnerName:  "Ben",
		PartnerEmail: "ben@example.com",
	}
}

func newTestMaterializer(pool TxBeginner, store *fakeCoupleStore, repo *fakeCreateRepo) *Materializer {
	m := NewMaterializer(pool, journey.Default(), store, repo, testSigner())
	seq := 0
	return m.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("row-%d", seq)
	})
}

func TestSessionCreatedSchedulesBracketingEmails(t *testing.T) {
	sessionDate := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	pool := &fakePool{}
	store := &fakeCoupleStore{
		couples: map[string]couple.Couple{"couple-1": testCouple()},
		sessions: map[string]couple.Session{
			"session-1": {ID: "session-1", CoupleID: "couple-1", SessionType: journey.SessionInitial, SessionDate: sessionDate},
		},
	}
	repo := &fakeCreateRepo{}

	res, err := newTestMaterializer(pool, store, repo).SessionCreated(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Fatalf("expected 2 created, got %+v", res)
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Fatal("expected transaction to be committed")
	}
	if len(store.marked) != 1 || store.marked[0] != "session-1" {
		t.Fatalf("expected session stamped, got %v", store.marked)
	}

	want := map[string]time.Time{
		journey.EmailInitialPrep:  time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC),
		journey.EmailInitialRecap: time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC),
	}
	if len(repo.created) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(repo.created))
	}
	for _, p := range repo.created {
		at, ok := want[p.EmailType]
		if !ok {
			t.Errorf("unexpected email type %s", p.EmailType)
			continue
		}
		if !p.ScheduledFor.Equal(at) {
			t.Errorf("%s: expected fire time %s, got %s", p.EmailType, at, p.ScheduledFor)
		}
		if p.RecipientEmail != "ana@example.com" {
			t.Errorf("%s: unexpected recipient %s", p.EmailType, p.RecipientEmail)
		}
		if p.DynamicData["name"] != "Ana" || p.DynamicData["session_date"] != "10 March 2025" {
			t.Errorf("%s: unexpected dynamic data %v", p.EmailType, p.DynamicData)
		}
	}
}

func TestSessionCreatedIsIdempotent(t *testing.T) {
	sessionDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	pool := &fakePool{}
	store := &fakeCoupleStore{
		couples: map[string]couple.Couple{"couple-1": testCouple()},
		sessions: map[string]couple.Session{
			"session-1": {ID: "session-1", CoupleID: "couple-1", SessionType: journey.SessionInitial, SessionDate: sessionDate},
		},
	}
	repo := &fakeCreateRepo{duplicateAll: true}

	res, err := newTestMaterializer(pool, store, repo).SessionCreated(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("materialize replay: %v", err)
	}
	if res.Created != 0 || res.Skipped != 2 {
		t.Fatalf("expected every row skipped on replay, got %+v", res)
	}
	if !pool.tx.committed {
		t.Fatal("replay should still commit the session stamp")
	}
}

func TestSessionCreatedRejectsUnknownSessionType(t *testing.T) {
	pool := &fakePool{}
	store := &fakeCoupleStore{
		couples: map[string]couple.Couple{"couple-1": testCouple()},
		sessions: map[string]couple.Session{
			"session-1": {ID: "session-1", CoupleID: "couple-1", SessionType: "yoga_retreat"},
		},
	}

	_, err := newTestMaterializer(pool, store, &fakeCreateRepo{}).SessionCreated(context.Background(), "session-1")
	if !errors.Is(err, ErrUnknownSessionType) {
		t.Fatalf("expected ErrUnknownSessionType, got %v", err)
	}
	if pool.tx != nil {
		t.Fatal("no transaction should be opened for an unknown session type")
	}
}

func TestSessionCreatedAbortsWhenCoupleMissing(t *testing.T) {
	pool := &fakePool{}
	store := &fakeCoupleStore{
		sessions: map[string]couple.Session{
			"session-1": {ID: "session-1", CoupleID: "ghost", SessionType: journey.SessionInitial},
		},
	}

	_, err := newTestMaterializer(pool, store, &fakeCreateRepo{}).SessionCreated(context.Background(), "session-1")
	if !errors.Is(err, couple.ErrCoupleNotFound) {
		t.Fatalf("expected ErrCoupleNotFound, got %v", err)
	}
}

func TestCoupleCreatedSchedulesImmediateEmails(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	pool := &fakePool{}
	store := &fakeCoupleStore{couples: map[string]couple.Couple{"couple-1": testCouple()}}
	repo := &fakeCreateRepo{}

	m := newTestMaterializer(pool, store, repo).WithClock(func() time.Time { return now })
	res, err := m.CoupleCreated(context.Background(), "couple-1")
	if err != nil {
		t.Fatalf("couple created: %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("expected welcome and invite rows, got %+v", res)
	}

	byType := make(map[string]CreateParams, len(repo.created))
	for _, p := range repo.created {
		byType[p.EmailType] = p
		if !p.ScheduledFor.Equal(now) {
			t.Errorf("%s: immediate email should fire at now, got %s", p.EmailType, p.ScheduledFor)
		}
	}

	invite, ok := byType[journey.EmailPartnerInvite]
	if !ok {
		t.Fatal("partner invite row missing")
	}
	if invite.RecipientEmail != "ben@example.com" {
		t.Errorf("invite should go to the partner, got %s", invite.RecipientEmail)
	}
	if invite.DynamicData["invite_url"] == "" {
		t.Error("invite row missing signed invite url")
	}

	welcome := byType[journey.EmailWelcome]
	if welcome.RecipientEmail != "ana@example.com" {
		t.Errorf("welcome should go to the account email, got %s", welcome.RecipientEmail)
	}
}

func TestCoupleCreatedAbortsOnMissingPartnerEmail(t *testing.T) {
	cpl := testCouple()
	cpl.PartnerEmail = ""
	pool := &fakePool{}
	store := &fakeCoupleStore{couples: map[string]couple.Couple{"couple-1": cpl}}
	repo := &fakeCreateRepo{}

	_, err := newTestMaterializer(pool, store, repo).CoupleCreated(context.Background(), "couple-1")
	if !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
	if pool.tx != nil && pool.tx.committed {
		t.Fatal("nothing may commit when a recipient cannot be resolved")
	}
}

func TestQuestionnaireRowsCarryVerifiableLinks(t *testing.T) {
	sessionDate := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	pool := &fakePool{}
	store := &fakeCoupleStore{
		couples: map[string]couple.Couple{"couple-1": testCouple()},
		sessions: map[string]couple.Session{
			"session-2": {ID: "session-2", CoupleID: "couple-1", SessionType: journey.SessionIndividual1B, SessionDate: sessionDate},
		},
	}
	repo := &fakeCreateRepo{}

	if _, err := newTestMaterializer(pool, store, repo).SessionCreated(context.Background(), "session-2"); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	var questionnaire *CreateParams
	for i := range repo.created {
		if repo.created[i].EmailType == journey.EmailQuestionnaireB {
			questionnaire = &repo.created[i]
		}
	}
	if questionnaire == nil {
		t.Fatal("questionnaire row missing")
	}
	if questionnaire.RecipientEmail != "ben@example.com" {
		t.Errorf("partner2 questionnaire should go to the partner, got %s", questionnaire.RecipientEmail)
	}

	link := questionnaire.DynamicData["questionnaire_url"]
	token, err := tokenFromURL(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	claims, err := testSigner().Verify(token)
	if err != nil {
		t.Fatalf("verify link token: %v", err)
	}
	if claims.CoupleID != "couple-1" || claims.Purpose != PurposeQuestionnaire {
		t.Errorf("unexpected claims %+v", claims)
	}
}

type fakeCoupleStore struct {
	couples  map[string]couple.Couple
	sessions map[string]couple.Session
	marked   []string
}

func (f *fakeCoupleStore) GetByID(ctx context.Context, id string) (couple.Couple, error) {
	c, ok := f.couples[id]
	if !ok {
		return couple.Couple{}, couple.ErrCoupleNotFound
	}
	return c, nil
}

func (f *fakeCoupleStore) GetSession(ctx context.Context, id string) (couple.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return couple.Session{}, couple.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeCoupleStore) MarkMaterialized(ctx context.Context, tx pgx.Tx, sessionID string) error {
	f.marked = append(f.marked, sessionID)
	return nil
}

// fakeCreateRepo records created rows; the sweep-facing methods are never
// reached from the materializer.
type fakeCreateRepo struct {
	created      []CreateParams
	duplicateAll bool
	createErr    error
}

func (f *fakeCreateRepo) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.duplicateAll {
		return false, nil
	}
	f.created = append(f.created, params)
	return true, nil
}

func (f *fakeCreateRepo) ListDue(context.Context, time.Time, int) ([]ScheduledEmail, error) {
	panic("not implemented")
}

func (f *fakeCreateRepo) Claim(context.Context, string, time.Time) (ScheduledEmail, bool, error) {
	panic("not implemented")
}

func (f *fakeCreateRepo) MarkSent(context.Context, string, time.Time) error {
	panic("not implemented")
}

func (f *fakeCreateRepo) MarkError(context.Context, string, string, time.Time) error {
	panic("not implemented")
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
