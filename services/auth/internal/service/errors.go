package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation")                 // 400
	ErrConflict         = errors.New("conflict")                   // 400
	ErrUnauthorized     = errors.New("unauthorized")               // 401
	ErrNotFound         = errors.New("not found")                  // 404
	ErrInvalidOrExpired = errors.New("invalid or expired token")   // 400
	ErrDeliveryFailed   = errors.New("reset mail delivery failed") // 500
	ErrTimeout          = errors.New("dependency call timed out")  // 504
	ErrInternal         = errors.New("internal error")             // 500
)

// infra classifies an unexpected error from a dependency.
func infra(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
