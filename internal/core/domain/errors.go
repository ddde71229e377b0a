package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document format no token source can read.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCanceled indicates an extraction run was cancelled before completion.
	ErrCanceled = errors.New("extraction canceled")

	// ErrWorkerFailed indicates the scanner worker reported a failure for a page.
	ErrWorkerFailed = errors.New("scanner worker failed")

	// ErrWorkerClosed indicates the scanner worker is no longer accepting requests.
	ErrWorkerClosed = errors.New("scanner worker closed")

	// ErrLocked indicates the data directory is held by another process.
	ErrLocked = errors.New("data directory locked by another process")

	// ErrServiceUnavailable indicates an enrichment service is not configured.
	ErrServiceUnavailable = errors.New("service unavailable")
)
