package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation")                // 400
	ErrUnauthorized    = errors.New("unauthorized")              // 401
	ErrProductNotFound = errors.New("product not found")         // 404
	ErrItemNotFound    = errors.New("item not found in cart")    // 404
	ErrUpstream        = errors.New("product service failed")    // 502
	ErrTimeout         = errors.New("dependency call timed out") // 504
	ErrInternal        = errors.New("internal error")            // 500
)

func infra(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

func upstream(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
