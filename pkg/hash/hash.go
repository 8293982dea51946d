package hash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	Bcrypt   = "bcrypt"
	Argon2id = "argon2id"

	argonPrefix = "$argon2id$"
)

var ErrUnknownAlgorithm = errors.New("unknown password hasher")

// Hasher creates new password hashes with the configured algorithm and
// verifies hashes produced by any supported algorithm.
type Hasher struct {
	algorithm  string
	bcryptCost int
	dummy      string
}

func New(algorithm string, bcryptCost int) (*Hasher, error) {
	if algorithm == "" {
		algorithm = Bcrypt
	}
	if algorithm != Bcrypt && algorithm != Argon2id {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	h := &Hasher{algorithm: algorithm, bcryptCost: bcryptCost}
	dummy, err := h.HashPassword("dummy-password-for-timing")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

func (h *Hasher) HashPassword(password string) (string, error) {
	if h.algorithm == Argon2id {
		return argon2id.CreateHash(password, argon2id.DefaultParams)
	}

	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (h *Hasher) CheckPassword(hash, password string) bool {
	if strings.HasPrefix(hash, argonPrefix) {
		ok, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckDummy spends the same time as a real comparison and always fails.
func (h *Hasher) CheckDummy(password string) bool {
	_ = h.CheckPassword(h.dummy, password)
	return false
}
