package store

import "errors"

var (
	// ErrAuthFailure covers both unknown phone and wrong password so callers
	// cannot distinguish the two and enumerate accounts.
	ErrAuthFailure = errors.New("invalid credentials")

	// ErrDuplicateUser is returned when a commit races a concurrent
	// registration for the same email, phone or username.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUnavailable wraps persistence-layer failures. A send that hits it
	// fails without any delivery; the caller may retry manually.
	ErrUnavailable = errors.New("store unavailable")
)
