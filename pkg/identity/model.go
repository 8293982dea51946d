package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Identity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"size:100;not null"`
	NIC           string    `gorm:"uniqueIndex:idx_identities_nic;not null"`
	Email         string    `gorm:"uniqueIndex:idx_identities_email;not null"`
	ContactNumber string    `gorm:"uniqueIndex:idx_identities_contact_number;not null"`
	PasswordHash  string    `gorm:"not null"`

	// Only the SHA-256 digest of a reset token is stored. Digest and
	// expiry are set and cleared together.
	ResetTokenHash      *string `gorm:"uniqueIndex:idx_identities_reset_token_hash"`
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Identity) TableName() string {
	return "identities"
}

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// View is the serialisable form of an Identity. It never carries the
// password hash or reset token state.
type View struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	NIC           string    `json:"nic,omitempty"`
	ContactNumber string    `json:"contactNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

func (i *Identity) View() View {
	return View{
		ID:            i.ID,
		Name:          i.Name,
		Email:         i.Email,
		NIC:           i.NIC,
		ContactNumber: i.ContactNumber,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// Summary is the short {id, name, email} view returned by register and login.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (i *Identity) Summary() Summary {
	return Summary{ID: i.ID, Name: i.Name, Email: i.Email}
}

// Changes lists the fields of a profile update. Nil fields are left alone.
type Changes struct {
	Name          *string
	Email         *string
	NIC           *string
	ContactNumber *string
	PasswordHash  *string
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.NIC == nil && c.ContactNumber == nil && c.PasswordHash == nil
}
