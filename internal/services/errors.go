// Package services defines the business logic for message ingestion,
// listing and statistics. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

var (
	// ErrValidation is returned when an inbound message is incomplete. It
	// wraps the field-level detail and is raised before any store write.
	ErrValidation = errors.New("invalid message")

	// ErrStoreUnavailable is repo.ErrStoreUnavailable, re-exported so
	// handlers do not need to import the repo package.
	ErrStoreUnavailable = repo.ErrStoreUnavailable

	// ErrMessageNotFound indicates that the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")
)
