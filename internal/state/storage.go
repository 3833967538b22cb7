// Package state persists the per-chat FSM state of the bot.
package state

import "context"

// Store defines the persistence contract for chat FSM state.
//
// Every call is a single round trip to the backing store: nothing is cached,
// retried or locked, so concurrent calls for one chat race at the store and the
// store's own consistency model decides the outcome.
type Store interface {
	// GetState returns the current state for the chat and whether a state is recorded.
	GetState(ctx context.Context, chatID int64) (State, bool, error)
	// SetState replaces the chat's record with the given state and empty scores.
	SetState(ctx context.Context, chatID int64, state State) error
	// Reset removes the chat's record. Removing an absent record succeeds.
	Reset(ctx context.Context, chatID int64) error
	// GetRecord returns the full record for the chat, or nil when none exists.
	GetRecord(ctx context.Context, chatID int64) (*Record, error)
}
