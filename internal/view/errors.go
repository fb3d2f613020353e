package view

import "errors"

var (
	// ErrInvalidState is returned for an action the current view state does not offer.
	ErrInvalidState = errors.New("action not available in current view state")
	// ErrInvalidArgument is returned for a malformed index, kind or module.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed is returned by a holder after Close.
	ErrClosed = errors.New("view closed")
)
