package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SweepResult aggregates the outcome of one dispatch sweep.
type SweepResult struct {
	Sent    int
	Errored int
	Skipped int
}

// Sweeper dispatches due scheduled-email rows. Each sweep claims rows one by
// one (pending -> sending) before touching the transport, sends concurrently
// under a bounded limit, and records each row's outcome independently. One
// row's failure never aborts the others; only systemic datastore errors
// propagate, to be retried on the next scheduled invocation.
type Sweeper struct {
	repo        Repository
	registry    *Registry
	transport   Transport
	log         *zap.Logger
	batchSize   int
	maxInFlight int
	sendTimeout time.Duration
	now         func() time.Time
}

func NewSweeper(repo Repository, registry *Registry, transport Transport) *Sweeper {
	return &Sweeper{
		repo:        repo,
		registry:    registry,
		transport:   transport,
		log:         zap.NewNop(),
		batchSize:   50,
		maxInFlight: 8,
		sendTimeout: 15 * time.Second,
		now:         time.Now,
	}
}

func (s *Sweeper) WithLogger(log *zap.Logger) *Sweeper {
	s.log = log
	return s
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

func (s *Sweeper) WithBatchSize(n int) *Sweeper {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

func (s *Sweeper) WithSendTimeout(d time.Duration) *Sweeper {
	if d > 0 {
		s.sendTimeout = d
	}
	return s
}

// Run executes one sweep: select due pending rows, claim and dispatch each.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	due, err := s.repo.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return SweepResult{}, err
	}

	var (
		mu  sync.Mutex
		res SweepResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxInFlight)
	for _, row := range due {
		row := row
		g.Go(func() error {
			outcome := s.dispatch(gctx, row)
			mu.Lock()
			switch outcome {
			case dispatchSent:
				res.Sent++
			case dispatchErrored:
				res.Errored++
			case dispatchSkipped:
				res.Skipped++
			}
			mu.Unlock()
			// Row outcomes are recorded, never returned: a per-row failure
			// must not cancel the rest of the batch.
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("dispatch sweep finished",
		zap.Int("due", len(due)),
		zap.Int("sent", res.Sent),
		zap.Int("errored", res.Errored),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

type dispatchOutcome int

const (
	dispatchSent dispatchOutcome = iota
	dispatchErrored
	dispatchSkipped
)

func (s *Sweeper) dispatch(ctx context.Context, row ScheduledEmail) dispatchOutcome {
	claimed, ok, err := s.repo.Claim(ctx, row.ID, s.now())
	if err != nil {
		s.log.Error("claim failed", zap.String("email_id", row.ID), zap.Error(err))
		return dispatchErrored
	}
	if !ok {
		// Another sweep instance won this row.
		return dispatchSkipped
	}

	subject, body, err := s.registry.Render(claimed.EmailType, claimed.DynamicData)
	if err != nil {
		s.recordError(ctx, claimed, err)
		return dispatchErrored
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.transport.Send(sendCtx, Message{
		To:       claimed.RecipientEmail,
		Subject:  subject,
		HTMLBody: body,
	}); err != nil {
		s.recordError(ctx, claimed, err)
		return dispatchErrored
	}

	if err := s.repo.MarkSent(ctx, claimed.ID, s.now()); err != nil {
		s.log.Error("mark sent failed", zap.String("email_id", claimed.ID), zap.Error(err))
		return dispatchErrored
	}

	s.log.Info("email sent",
		zap.String("email_id", claimed.ID),
		zap.String("email_type", claimed.EmailType),
		zap.String("recipient", claimed.RecipientEmail),
	)
	return dispatchSent
}

func (s *Sweeper) recordError(ctx context.Context, row ScheduledEmail, cause error) {
	s.log.Warn("email dispatch failed",
		zap.String("email_id", row.ID),
		zap.String("email_type", row.EmailType),
		zap.Error(cause),
	)
	if err := s.repo.MarkError(ctx, row.ID, cause.Error(), s.now()); err != nil {
		s.log.Error("mark error failed", zap.String("email_id", row.ID), zap.Error(err))
	}
}
