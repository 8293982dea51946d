package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation")                // 400
	ErrConflict   = errors.New("conflict")                  // 400
	ErrForbidden  = errors.New("forbidden")                 // 403
	ErrNotFound   = errors.New("not found")                 // 404
	ErrTimeout    = errors.New("dependency call timed out") // 504
	ErrInternal   = errors.New("internal error")            // 500
)

func infra(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
