package itinerary

import (
	"context"
	"errors"
)

// Errors returned by remote itinerary providers.
var (
	// ErrRemoteUnavailable indicates the remote service could not be reached or failed.
	ErrRemoteUnavailable = errors.New("remote itinerary service unavailable")
	// ErrRemoteTimeout indicates the remote call exceeded its deadline.
	ErrRemoteTimeout = errors.New("remote itinerary service timed out")
	// ErrRemoteInvalidResponse indicates the remote response could not be used.
	ErrRemoteInvalidResponse = errors.New("invalid response from remote itinerary service")
)

// Remote computes itineraries on an external service.
type Remote interface {
	// Name identifies the provider in logs, metrics and health reports.
	Name() string

	// Optimize sends a normalized request. Implementations must honor ctx cancellation
	// and must not retry.
	Optimize(ctx context.Context, req Request) (*Result, error)
}

// Error carries details about a remote provider failure.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
