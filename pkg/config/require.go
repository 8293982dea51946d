package config

import (
	"errors"
	"fmt"
	"time"
)

var ErrMissing = errors.New("missing required env")

func NonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("%w %s", ErrMissing, envName)
	}
	return nil
}

func NonEmptyBytes(value []byte, envName string) error {
	if len(value) == 0 {
		return fmt.Errorf("%w %s", ErrMissing, envName)
	}
	return nil
}

func Positive(d time.Duration, envName string) error {
	if d <= 0 {
		return fmt.Errorf("env %s must be a positive duration, got %s", envName, d)
	}
	return nil
}

func OneOf(value, envName string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("env %s must be one of %v, got %q", envName, allowed, value)
}
