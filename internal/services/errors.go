package services

import "errors"

// Sentinel errors surfaced to the transport layer
var (
	ErrGradebookNotFound = errors.New("gradebook not found")
	ErrNotModerated      = errors.New("gradebook has not been moderated yet")
	ErrInvalidFormat     = errors.New("invalid export format")
)
