package model

import "github.com/google/uuid"

// Role is the marketplace role of a user.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsFarmer() bool { return a.Role == RoleFarmer }

func (a Actor) IsBuyer() bool { return a.Role == RoleBuyer }
