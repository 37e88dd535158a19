package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing represents a farmer's offer of a crop on the marketplace.
type Listing struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	FarmerID     uuid.UUID       `json:"farmer_id" db:"farmer_id"`
	FarmerName   string          `json:"farmer_name,omitempty" db:"farmer_name"`
	CropName     string          `json:"crop_name" db:"crop_name"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"`
	Unit         string          `json:"unit" db:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Category     *string         `json:"category,omitempty" db:"category"`
	Location     *string         `json:"location,omitempty" db:"location"`
	ImageURL     *string         `json:"image_url,omitempty" db:"image_url"`
	Available    bool            `json:"available" db:"available"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ListingInput is the raw payload submitted for creating or editing a listing.
// A nil field was not supplied.
type ListingInput struct {
	CropName     *string `json:"crop_name,omitempty"`
	Quantity     *Amount `json:"quantity,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	PricePerUnit *Amount `json:"price_per_unit,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Location     *string `json:"location,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
	Available    *bool   `json:"available,omitempty"`
}

// ListingFields is a validated, normalised listing payload.
// For optional text fields a non-nil pointer to "" means "clear the value".
type ListingFields struct {
	CropName     *string
	Quantity     *decimal.Decimal
	Unit         *string
	PricePerUnit *decimal.Decimal
	Description  *string
	Category     *string
	Location     *string
	ImageURL     *string
	Available    *bool
}

// Apply copies every present field onto l.
func (f ListingFields) Apply(l *Listing) {
	if f.CropName != nil {
		l.CropName = *f.CropName
	}
	if f.Quantity != nil {
		l.Quantity = *f.Quantity
	}
	if f.Unit != nil {
		l.Unit = *f.Unit
	}
	if f.PricePerUnit != nil {
		l.PricePerUnit = *f.PricePerUnit
	}
	if f.Description != nil {
		l.Description = nonEmpty(*f.Description)
	}
	if f.Category != nil {
		l.Category = nonEmpty(*f.Category)
	}
	if f.Location != nil {
		l.Location = nonEmpty(*f.Location)
	}
	if f.ImageURL != nil {
		l.ImageURL = nonEmpty(*f.ImageURL)
	}
	if f.Available != nil {
		l.Available = *f.Available
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListingFilter narrows a listing query.
type ListingFilter struct {
	FarmerID      *uuid.UUID
	AvailableOnly bool
	CropName      string
	Limit         int
}

// DeleteListingResult reports the outcome of a delete request.
// Deleted is false when the listing was referenced by orders and was
// withdrawn from sale instead.
type DeleteListingResult struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
	Message string    `json:"message"`
}
