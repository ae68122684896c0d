package model

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record changed during update")

	// ErrInputFormat means the user did not send "City,Country".
	ErrInputFormat = errors.New("invalid location format")
	// ErrFetchFailed covers every way the prayer-time API can fail.
	ErrFetchFailed = errors.New("failed to fetch prayer times")
	ErrStorage     = errors.New("storage failure")
)
