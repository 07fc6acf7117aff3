package form

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/internal/rates"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// Phase is the lifecycle state of a form session.
type Phase string

const (
	PhaseEmpty      Phase = "EMPTY"
	PhaseHydrating  Phase = "HYDRATING"
	PhaseReady      Phase = "READY"
	PhaseSubmitting Phase = "SUBMITTING"
)

// Session owns one form instance: its state, the cached rate snapshot, and
// the hydration/submission lifecycle. Mutation is sequential; the only
// asynchronous operation is the live-rate fetch, guarded by a monotonically
// increasing sequence number so that out-of-order completions can never
// clobber a newer request's result (last-request-wins).
type Session struct {
	engine  *Engine
	fetcher rates.Fetcher
	logger  *zap.Logger

	mu       sync.Mutex
	phase    Phase
	state    State
	snapshot *rates.Snapshot
	warning  string
	seq      uint64
	cancel   context.CancelFunc
}

// NewSession creates a session in the EMPTY phase with default form state.
func NewSession(engine *Engine, fetcher rates.Fetcher, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		engine:  engine,
		fetcher: fetcher,
		logger:  logger,
		phase:   PhaseEmpty,
		state:   NewState(),
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// State returns a copy of the current form state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the session's cached rate snapshot, nil before the first
// successful hydration.
func (s *Session) Snapshot() *rates.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Warning returns the non-blocking user-visible warning from the last
// hydration, empty when the live feed was reachable.
func (s *Session) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Restore seeds the form from a persisted record instead of defaults.
func (s *Session) Restore(rec PersistedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = FromPersisted(rec)
}

// Hydrate begins fetching live rates for the form's currency and returns the
// request's sequence number. The fetch runs asynchronously; CompleteHydrate
// applies its outcome. Re-hydrating (e.g. on a currency switch) supersedes
// any in-flight request: its context is canceled and its late completion is
// discarded.
func (s *Session) Hydrate(ctx context.Context, currency string) uint64 {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.phase = PhaseHydrating
	s.state.Currency = currency
	s.mu.Unlock()

	go func() {
		snap, err := s.fetcher.Fetch(fetchCtx, feedCurrency(currency), nil)
		s.CompleteHydrate(seq, snap, err)
	}()

	return seq
}

// HydrateNow fetches live rates synchronously, for callers already running on
// their own goroutine such as HTTP handlers. The same sequence discipline
// applies, so an interleaved asynchronous Hydrate still wins if it is newer.
func (s *Session) HydrateNow(ctx context.Context, currency string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	seq := s.seq
	s.phase = PhaseHydrating
	s.state.Currency = currency
	s.mu.Unlock()

	snap, err := s.fetcher.Fetch(ctx, feedCurrency(currency), nil)
	s.CompleteHydrate(seq, snap, err)
}

// CompleteHydrate applies the outcome of the fetch issued under seq. A stale
// sequence number means a newer request superseded this one; the result is
// discarded without touching state. A fetch error degrades to static rates:
// the previous snapshot (if any) is kept for its currency, a warning is
// recorded, and the session still becomes READY.
func (s *Session) CompleteHydrate(seq uint64, snap *rates.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.Debug("discarding stale rate fetch result",
			zap.String("op", "form.CompleteHydrate"),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.seq),
		)
		return
	}

	if err != nil {
		// The previous snapshot stays intact on failure, unless the form
		// switched currency and the old rates no longer apply.
		if s.snapshot != nil && snapshotCurrency(s.state.Currency) != s.snapshot.Currency {
			s.snapshot = nil
		}
		s.warning = "live rates unavailable, using reference rates"
		s.logger.Warn("hydration degraded to static rates",
			zap.String("op", "form.CompleteHydrate"),
			zap.Error(err),
		)
	} else {
		s.snapshot = snap
		s.warning = ""
	}
	s.phase = PhaseReady

	// A selected bank keeps its derived fields consistent with whatever
	// snapshot is now current.
	if s.state.BankID != "" {
		if updated, applyErr := s.engine.ApplyEdit(s.state, FieldBank, s.snapshot); applyErr == nil {
			s.state = updated
		}
	}
}

// Edit mutates the form through the supplied function and recomputes the
// dependents of the changed field. Only READY sessions accept edits.
func (s *Session) Edit(changed Field, mutate func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseReady {
		return fmt.Errorf("form is %s, not editable", s.phase)
	}

	next := s.state
	if mutate != nil {
		mutate(&next)
	}
	updated, err := s.engine.ApplyEdit(next, changed, s.snapshot)
	if err != nil {
		return err
	}
	s.state = updated
	return nil
}

// Submit validates the form and, when clean, runs send under the SUBMITTING
// phase. Validation errors block submission and leave the form READY and
// editable; send errors likewise return the session to READY for correction.
func (s *Session) Submit(ctx context.Context, send func(context.Context, State) error) error {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return fmt.Errorf("form is %s, cannot submit", s.phase)
	}

	var bankLimits *catalog.BankStaticConfig
	state := s.state
	if state.BankID != "" {
		if effective, err := s.engine.resolver.Resolve(state.BankID, s.snapshot); err == nil {
			limits := effective.BankStaticConfig
			bankLimits = &limits
		}
	}
	if errs := Validate(state, bankLimits); len(errs) > 0 {
		s.mu.Unlock()
		return SubmissionBlockedError{Errors: errs}
	}

	s.phase = PhaseSubmitting
	s.mu.Unlock()

	err := send(ctx, state)

	s.mu.Lock()
	s.phase = PhaseReady
	s.mu.Unlock()
	return err
}

// Close abandons the session, canceling any in-flight fetch. Late completions
// become no-ops because the sequence number is bumped past them.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}

// SubmissionBlockedError carries the per-field validation errors that kept a
// form from being submitted.
type SubmissionBlockedError struct {
	Errors []ValidationError
}

func (e SubmissionBlockedError) Error() string {
	return fmt.Sprintf("submission blocked by %d validation error(s)", len(e.Errors))
}

func feedCurrency(currency string) string {
	if currency == constants.CurrencyUSD {
		return constants.FeedCurrencyUSD
	}
	return constants.FeedCurrencyMN
}

// snapshotCurrency is the uppercased feed section code a form currency maps to.
func snapshotCurrency(currency string) string {
	if currency == constants.CurrencyUSD {
		return "USD"
	}
	return "MN"
}
