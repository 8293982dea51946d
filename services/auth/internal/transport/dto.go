package transport

import (
	"time"

	"github.com/Skotchmaster/shopfront/pkg/identity"
)

type RegisterRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	NIC           string `json:"nic" validate:"required,nic"`
	Email         string `json:"email" validate:"required,email"`
	ContactNumber string `json:"contactNumber" validate:"required,lkphone"`
	Password      string `json:"password" validate:"required,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" validate:"required,maxbytes=72"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         identity.View
}
