package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation")                // 400
	ErrNotFound   = errors.New("product not found")         // 404
	ErrTimeout    = errors.New("dependency call timed out") // 504
	ErrInternal   = errors.New("internal error")            // 500
)

func infra(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
