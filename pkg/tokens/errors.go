package tokens

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned for every token that must not be accepted.
// The more specific errors below wrap it.
var ErrInvalidToken = errors.New("invalid token")

var (
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	ErrTokenRevoked   = fmt.Errorf("%w: revoked", ErrInvalidToken)

	ErrEmptySecret = errors.New("token secret is empty")

	// ErrSessionLookup means the session epoch could not be read, so the
	// token could neither be accepted nor rejected.
	ErrSessionLookup = errors.New("session lookup failed")
)
