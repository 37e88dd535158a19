package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethodType names a kind of saved payment method.
type PaymentMethodType string

const (
	PaymentCard PaymentMethodType = "card"
	PaymentUPI  PaymentMethodType = "upi"
	PaymentBank PaymentMethodType = "bank"
)

// Valid reports whether t is a known payment method type.
func (t PaymentMethodType) Valid() bool {
	switch t {
	case PaymentCard, PaymentUPI, PaymentBank:
		return true
	}
	return false
}

// PaymentDetails holds the displayable parts of a payment method. Card and
// account numbers are stored as their last four digits only.
type PaymentDetails struct {
	CardNumber    string `json:"card_number,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
	UPIID         string `json:"upi_id,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// PaymentMethod is a payment method saved to a user's profile.
type PaymentMethod struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	UserID    uuid.UUID         `json:"user_id" db:"user_id"`
	Type      PaymentMethodType `json:"type" db:"type"`
	Details   PaymentDetails    `json:"details" db:"details"`
	IsDefault bool              `json:"is_default" db:"is_default"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// PaymentMethodInput is the payload for saving a payment method.
type PaymentMethodInput struct {
	Type      PaymentMethodType `json:"type"`
	Details   PaymentDetails    `json:"details"`
	IsDefault bool              `json:"is_default"`
}
