package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the extended profile of a marketplace user.
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      Role      `json:"role" db:"role"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Location  *string   `json:"location,omitempty" db:"location"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}
