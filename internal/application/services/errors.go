package services

import "errors"

var (
	// ErrTooManyUsers is returned before any upstream call when a request
	// names more user identifiers than the configured batch maximum.
	ErrTooManyUsers = errors.New("too many users requested")

	// ErrNoUsers is returned when a request names no user identifiers.
	ErrNoUsers = errors.New("no users requested")

	// ErrNoWallets is returned for a self request whose account has no
	// linked wallet addresses.
	ErrNoWallets = errors.New("no wallet addresses linked to account")

	// ErrEmptyPortfolio is the guarded zero-total outcome: every included
	// user's combined USD value is exactly zero. Not an internal failure.
	ErrEmptyPortfolio = errors.New("no holdings found")
)
