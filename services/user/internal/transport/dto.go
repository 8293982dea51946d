package transport

// UpdateUserRequest carries a profile update. Absent fields keep their
// stored value.
type UpdateUserRequest struct {
	Name          *string `json:"name"`
	NIC           *string `json:"nic"`
	Email         *string `json:"email"`
	ContactNumber *string `json:"contactNumber"`
	Password      *string `json:"password"`
}

// Profile is the complete set of profile fields after an update has been
// applied, validated as a whole.
type Profile struct {
	Name          string `json:"name" validate:"required,max=100"`
	NIC           string `json:"nic" validate:"required,nic"`
	Email         string `json:"email" validate:"required,email"`
	ContactNumber string `json:"contactNumber" validate:"required,lkphone"`
}

type NewPassword struct {
	Password string `json:"password" validate:"min=8,maxbytes=72"`
}
