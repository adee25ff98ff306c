package orchestrator

import "errors"

var (
	// ErrInvalidInput is returned for an empty message. No state is touched.
	ErrInvalidInput = errors.New("message must not be empty")
	// ErrTurnTimeout is returned when a turn exceeds its time budget.
	ErrTurnTimeout = errors.New("turn timed out")
	// ErrUnexpected wraps a panic recovered inside a turn.
	ErrUnexpected = errors.New("unexpected turn failure")

	errEmptyGeneration = errors.New("generator returned empty text")
)

// User-visible texts substituted on failure.
const (
	FallbackText        = "I'm having trouble putting my thoughts into words right now. Let me come back to this in a moment."
	ApologyText         = "Sorry, we couldn't come up with a response this time. Please try again."
	TimeoutApologyText  = "Sorry, that took longer than expected. Please try again in a moment."
	InvalidInputApology = "Please send a non-empty message."
)
