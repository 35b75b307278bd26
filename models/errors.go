package models

import "errors"

// Domain failure kinds. All are expected, caller-correctable conditions;
// the API layers map them to HTTP statuses and per-observer error events.
// None are fatal to the process.
var (
	// ErrInvalidTransition is returned by start when the game is not idle.
	ErrInvalidTransition = errors.New("game already started or finished")

	// ErrNotVotingPhase covers votes cast both before start and after the
	// window closed. Callers get one kind for both; the remedy is the same.
	ErrNotVotingPhase = errors.New("voting is not active")

	// ErrDuplicateVoter is returned on a second ballot from the same domain.
	ErrDuplicateVoter = errors.New("you have already voted")

	// ErrInvalidInput is returned when a required field is empty after trimming.
	ErrInvalidInput = errors.New("missing required fields")

	// ErrResultsNotReady is returned when results are requested before the
	// game is finished.
	ErrResultsNotReady = errors.New("results not available yet")
)
