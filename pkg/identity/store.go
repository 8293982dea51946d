package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/shopfront/pkg/db"
)

var (
	ErrNotFound          = errors.New("identity not found")
	ErrDuplicate         = errors.New("identity already exists")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)

// DuplicateError names the unique field that collided: "email", "nic",
// "contactNumber", or "" when the store could not tell.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return ErrDuplicate.Error() + ": " + e.Field
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

type Store interface {
	Create(ctx context.Context, i *Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindConflict(ctx context.Context, email, nic, phone string, exclude uuid.UUID) (string, bool, error)
	List(ctx context.Context) ([]Identity, error)
	Update(ctx context.Context, id uuid.UUID, c Changes) (*Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID, digest string) error
	ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (*Identity, error)

	Ping(ctx context.Context) error
}

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&Identity{})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	return pkgdb.Ping(ctx, r.DB)
}

func (r *GormRepo) Create(ctx context.Context, i *Identity) error {
	if err := r.DB.WithContext(ctx).Create(i).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	var i Identity
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&i).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	var i Identity
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&i).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

// FindConflict reports the first unique field already taken by another
// identity. Empty arguments are not checked.
func (r *GormRepo) FindConflict(ctx context.Context, email, nic, phone string, exclude uuid.UUID) (string, bool, error) {
	var conds []string
	var args []any
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if nic != "" {
		conds = append(conds, "nic = ?")
		args = append(args, nic)
	}
	if phone != "" {
		conds = append(conds, "contact_number = ?")
		args = append(args, phone)
	}
	if len(conds) == 0 {
		return "", false, nil
	}

	q := r.DB.WithContext(ctx).Where("("+strings.Join(conds, " OR ")+")", args...)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var found []Identity
	if err := q.Limit(3).Find(&found).Error; err != nil {
		return "", false, err
	}
	if len(found) == 0 {
		return "", false, nil
	}

	for _, f := range found {
		if email != "" && f.Email == email {
			return "email", true, nil
		}
	}
	for _, f := range found {
		if nic != "" && f.NIC == nic {
			return "nic", true, nil
		}
	}
	return "contactNumber", true, nil
}

func (r *GormRepo) List(ctx context.Context) ([]Identity, error) {
	var out []Identity
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) Update(ctx context.Context, id uuid.UUID, c Changes) (*Identity, error) {
	if c.Empty() {
		return r.FindByID(ctx, id)
	}

	fields := map[string]any{}
	if c.Name != nil {
		fields["name"] = *c.Name
	}
	if c.Email != nil {
		fields["email"] = *c.Email
	}
	if c.NIC != nil {
		fields["nic"] = *c.NIC
	}
	if c.ContactNumber != nil {
		fields["contact_number"] = *c.ContactNumber
	}
	if c.PasswordHash != nil {
		fields["password_hash"] = *c.PasswordHash
	}

	res := r.DB.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&Identity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	res := r.DB.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Updates(map[string]any{
		"reset_token_hash":       digest,
		"reset_token_expires_at": expiresAt.UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearResetToken removes the reset token only while the stored digest is
// still the given one, so a newer token issued meanwhile survives.
func (r *GormRepo) ClearResetToken(ctx context.Context, id uuid.UUID, digest string) error {
	return r.DB.WithContext(ctx).Model(&Identity{}).
		Where("id = ? AND reset_token_hash = ?", id, digest).
		Updates(map[string]any{
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		}).Error
}

// ConsumeResetToken swaps the password hash and clears the token in one
// compare-and-set on the digest. A token that is unknown, expired at now,
// or already used yields ErrResetTokenInvalid.
func (r *GormRepo) ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (*Identity, error) {
	var consumed Identity
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reset_token_hash = ? AND reset_token_expires_at > ?", digest, now.UTC()).
			First(&consumed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}

		res := tx.Model(&Identity{}).
			Where("id = ? AND reset_token_hash = ?", consumed.ID, digest).
			Updates(map[string]any{
				"password_hash":          passwordHash,
				"reset_token_hash":       nil,
				"reset_token_expires_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrResetTokenInvalid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &consumed, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if name, ok := pkgdb.DuplicateKey(err); ok {
		return &DuplicateError{Field: fieldFromConstraint(name)}
	}
	return err
}

func fieldFromConstraint(name string) string {
	switch {
	case strings.Contains(name, "email"):
		return "email"
	case strings.Contains(name, "contact_number"):
		return "contactNumber"
	case strings.Contains(name, "nic"):
		return "nic"
	}
	return ""
}
