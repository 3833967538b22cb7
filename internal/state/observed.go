package state

import (
	"context"
	"time"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
)

// Operation outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeParsing     = "parsing"
	OutcomeError       = "error"
)

// Observer receives the name, outcome and latency of every store operation.
type Observer func(op, outcome string, elapsed time.Duration)

// ObservedStore reports each call on the wrapped Store to an Observer.
// Results and errors pass through untouched.
type ObservedStore struct {
	next     Store
	observer Observer
}

var _ Store = (*ObservedStore)(nil)

// Observe wraps next so that observer sees every operation.
func Observe(next Store, observer Observer) *ObservedStore {
	if observer == nil {
		observer = func(string, string, time.Duration) {}
	}

	return &ObservedStore{next: next, observer: observer}
}

// GetState reports the wrapped GetState call.
func (o *ObservedStore) GetState(ctx context.Context, chatID int64) (State, bool, error) {
	start := time.Now()
	state, ok, err := o.next.GetState(ctx, chatID)
	o.observer("get_state", Outcome(err), time.Since(start))
	return state, ok, err
}

// SetState reports the wrapped SetState call.
func (o *ObservedStore) SetState(ctx context.Context, chatID int64, state State) error {
	start := time.Now()
	err := o.next.SetState(ctx, chatID, state)
	o.observer("set_state", Outcome(err), time.Since(start))
	return err
}

// Reset reports the wrapped Reset call.
func (o *ObservedStore) Reset(ctx context.Context, chatID int64) error {
	start := time.Now()
	err := o.next.Reset(ctx, chatID)
	o.observer("reset", Outcome(err), time.Since(start))
	return err
}

// GetRecord reports the wrapped GetRecord call.
func (o *ObservedStore) GetRecord(ctx context.Context, chatID int64) (*Record, error) {
	start := time.Now()
	record, err := o.next.GetRecord(ctx, chatID)
	o.observer("get_record", Outcome(err), time.Since(start))
	return record, err
}

// Outcome classifies err into one of the Outcome* labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case apperrors.IsStoreUnavailable(err):
		return OutcomeUnavailable
	case apperrors.IsParsing(err):
		return OutcomeParsing
	default:
		return OutcomeError
	}
}
