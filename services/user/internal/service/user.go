package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/sessions"
	"github.com/Skotchmaster/shopfront/pkg/validate"
	"github.com/Skotchmaster/shopfront/services/user/internal/transport"
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Validator interface {
	Validate(i any) error
}

type UserService struct {
	Store       identity.Store
	Hasher      PasswordHasher
	Sessions    sessions.Store
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Validator   Validator
	CallTimeout time.Duration
}

var defaultValidator = validate.New()

func (s *UserService) validator() Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *UserService) epochs() sessions.Store {
	if s.Sessions == nil {
		return sessions.Nop{}
	}
	return s.Sessions
}

func (s *UserService) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return server.WithTimeout(ctx, s.CallTimeout)
}

// owned checks that caller acts on its own record and parses the id.
func owned(caller, id string) (uuid.UUID, error) {
	if caller == "" {
		return uuid.Nil, ErrForbidden
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		if caller != id {
			return uuid.Nil, ErrForbidden
		}
		return uuid.Nil, fmt.Errorf("%w: malformed id", ErrNotFound)
	}
	if cid, err := uuid.Parse(caller); err != nil || cid != uid {
		return uuid.Nil, ErrForbidden
	}
	return uid, nil
}

func (s *UserService) Get(ctx context.Context, caller, id string) (*identity.Identity, error) {
	uid, err := owned(caller, id)
	if err != nil {
		return nil, err
	}

	cctx, cancel := s.call(ctx)
	defer cancel()
	user, err := s.Store.FindByID(cctx, uid)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infra("find identity", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]identity.Identity, error) {
	cctx, cancel := s.call(ctx)
	defer cancel()
	users, err := s.Store.List(cctx)
	if err != nil {
		return nil, infra("list identities", err)
	}
	return users, nil
}

// Update applies a partial profile change. Changed email, NIC and contact
// number must stay unique; a new password is re-hashed and ends every
// existing session.
func (s *UserService) Update(ctx context.Context, caller, id string, req transport.UpdateUserRequest) (*identity.Identity, error) {
	l := logging.FromContext(ctx).With("svc", "user.update")

	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	changes, profile := diff(current, req)
	if err := s.validator().Validate(profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if req.Password != nil {
		if err := s.validator().Validate(transport.NewPassword{Password: *req.Password}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		pwHash, err := s.Hasher.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: hash password: %w", ErrInternal, err)
		}
		changes.PasswordHash = &pwHash
	}

	cctx, cancel := s.call(ctx)
	field, found, err := s.Store.FindConflict(cctx, deref(changes.Email), deref(changes.NIC), deref(changes.ContactNumber), current.ID)
	cancel()
	if err != nil {
		return nil, infra("find conflict", err)
	}
	if found {
		l.Warn("update_user_error", "status", 400, "reason", "already in use", "field", field)
		return nil, fmt.Errorf("%w: %s already in use by another user", ErrConflict, field)
	}

	cctx, cancel = s.call(ctx)
	updated, err := s.Store.Update(cctx, current.ID, changes)
	cancel()
	switch {
	case errors.Is(err, identity.ErrDuplicate):
		var dup *identity.DuplicateError
		errors.As(err, &dup)
		return nil, fmt.Errorf("%w: %s already in use by another user", ErrConflict, dupField(dup))
	case errors.Is(err, identity.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, infra("update identity", err)
	}

	if changes.PasswordHash != nil {
		s.revoke(ctx, id)
	}

	s.Metrics.Observe("user_update", "success")
	events.Emit(ctx, s.Events, s.CallTimeout, events.TopicUser, events.New("user_updated", id, updated.Summary()))
	l.Info("update_user_successful", "user_id", id, "password_changed", changes.PasswordHash != nil)
	return updated, nil
}

// Delete removes the record for good. Carts and other per-user data held by
// other services are left alone.
func (s *UserService) Delete(ctx context.Context, caller, id string) error {
	l := logging.FromContext(ctx).With("svc", "user.delete")

	uid, err := owned(caller, id)
	if err != nil {
		return err
	}

	cctx, cancel := s.call(ctx)
	err = s.Store.Delete(cctx, uid)
	cancel()
	if errors.Is(err, identity.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return infra("delete identity", err)
	}

	s.revoke(ctx, id)
	s.Metrics.Observe("user_delete", "success")
	events.Emit(ctx, s.Events, s.CallTimeout, events.TopicUser, events.New("user_deleted", id, nil))
	l.Info("delete_user_successful", "user_id", id)
	return nil
}

func (s *UserService) Ready(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

func (s *UserService) revoke(ctx context.Context, id string) {
	cctx, cancel := s.call(ctx)
	defer cancel()
	if _, err := s.epochs().Bump(cctx, id); err != nil {
		logging.FromContext(ctx).Error("session_revoke_failed", "user_id", id, "error", err)
	}
}

// diff normalises the request, keeps only fields that really change and
// returns the resulting full profile for validation.
func diff(current *identity.Identity, req transport.UpdateUserRequest) (identity.Changes, transport.Profile) {
	var c identity.Changes
	p := transport.Profile{
		Name:          current.Name,
		NIC:           current.NIC,
		Email:         current.Email,
		ContactNumber: current.ContactNumber,
	}

	if req.Name != nil {
		if v := identity.NormalizeName(*req.Name); v != current.Name {
			c.Name, p.Name = &v, v
		}
	}
	if req.NIC != nil {
		if v := identity.NormalizeNIC(*req.NIC); v != current.NIC {
			c.NIC, p.NIC = &v, v
		}
	}
	if req.Email != nil {
		if v := identity.NormalizeEmail(*req.Email); v != current.Email {
			c.Email, p.Email = &v, v
		}
	}
	if req.ContactNumber != nil {
		if v := identity.NormalizePhone(*req.ContactNumber); v != current.ContactNumber {
			c.ContactNumber, p.ContactNumber = &v, v
		}
	}
	return c, p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dupField(d *identity.DuplicateError) string {
	if d == nil || d.Field == "" {
		return "value"
	}
	return d.Field
}
