package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/sessions"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Claims struct {
	Type  string `json:"typ"`
	Epoch int64  `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   sessions.Store
	now        func() time.Time
}

type Option func(*Service)

func WithTTL(access, refresh time.Duration) Option {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSessions(store sessions.Store) Option {
	return func(s *Service) { s.sessions = store }
}

func NewService(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	s := &Service{
		secret:     append([]byte(nil), secret...),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		sessions:   sessions.Nop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) IssueAccessToken(ctx context.Context, identityID string) (string, time.Time, error) {
	return s.issue(ctx, identityID, TypeAccess, s.accessTTL)
}

func (s *Service) IssueRefreshToken(ctx context.Context, identityID string) (string, time.Time, error) {
	return s.issue(ctx, identityID, TypeRefresh, s.refreshTTL)
}

func (s *Service) issue(ctx context.Context, identityID, typ string, ttl time.Duration) (string, time.Time, error) {
	if identityID == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}

	epoch, err := s.sessions.Current(ctx, identityID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrSessionLookup, err)
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := Claims{
		Type:  typ,
		Epoch: epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        NewJTI(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify accepts only unexpired access tokens signed with HS256 under the
// current session epoch of their subject.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TypeAccess)
}

func (s *Service) VerifyRefresh(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TypeRefresh)
}

// Refresh issues a new access token for the subject of a valid refresh
// token. The refresh token itself stays usable until it expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueAccessToken(ctx, claims.Subject)
}

func (s *Service) verify(ctx context.Context, token, wantType string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenMalformed
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrTokenMalformed)
	}
	if claims.Type != wantType {
		return nil, ErrWrongTokenType
	}

	current, err := s.sessions.Current(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionLookup, err)
	}
	if claims.Epoch < current {
		return nil, ErrTokenRevoked
	}

	return &claims, nil
}

func NewJTI() string { return uuid.NewString() }
