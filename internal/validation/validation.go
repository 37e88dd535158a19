// Package validation checks listing and checkout payloads before they reach
// persistence. One rule set serves both the create and the edit flow.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"agrigenie/internal/model"

	"github.com/shopspring/decimal"
)

// Mode selects which fields are mandatory.
type Mode int

const (
	// ModeCreate requires crop name, quantity, unit and price.
	ModeCreate Mode = iota
	// ModeUpdate treats every field as optional.
	ModeUpdate
)

const (
	maxNameLength        = 100
	minDescriptionLength = 10
	maxDescriptionLength = 500
)

// Units is the accepted set of units of measure.
var Units = []string{"kg", "g", "ton", "lb", "oz", "l", "ml", "piece", "dozen", "bundle", "quintal"}

var unitSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Units))
	for _, u := range Units {
		m[u] = struct{}{}
	}
	return m
}()

// FieldViolation describes a single invalid field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a payload breaks one or more rules.
type Error struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *Error) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", e.Violations[0].Field, e.Violations[0].Message)
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has a violation.
func (e *Error) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

type collector struct {
	violations []FieldViolation
}

func (c *collector) add(field, format string, args ...any) {
	c.violations = append(c.violations, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &Error{Violations: c.violations}
}

// ValidateListing checks a listing payload and returns its normalised form.
// In ModeCreate the result always has Available set to true.
func ValidateListing(input model.ListingInput, mode Mode) (model.ListingFields, error) {
	var (
		c   collector
		out model.ListingFields
	)
	creating := mode == ModeCreate

	if input.CropName == nil {
		if creating {
			c.add("crop_name", "Crop name is required")
		}
	} else {
		name := strings.TrimSpace(*input.CropName)
		switch {
		case name == "":
			c.add("crop_name", "Crop name cannot be empty")
		case utf8.RuneCountInString(name) > maxNameLength:
			c.add("crop_name", "Crop name must be at most %d characters", maxNameLength)
		default:
			out.CropName = &name
		}
	}

	out.Quantity = positiveAmount(&c, "quantity", "Quantity", input.Quantity, creating)
	out.PricePerUnit = positiveAmount(&c, "price_per_unit", "Price", input.PricePerUnit, creating)

	if input.Unit == nil {
		if creating {
			c.add("unit", "Unit is required")
		}
	} else {
		unit := strings.ToLower(strings.TrimSpace(*input.Unit))
		if _, ok := unitSet[unit]; !ok {
			c.add("unit", "Unit must be one of %s", strings.Join(Units, ", "))
		} else {
			out.Unit = &unit
		}
	}

	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		n := utf8.RuneCountInString(desc)
		if desc != "" && (n < minDescriptionLength || n > maxDescriptionLength) {
			c.add("description", "Description must be between %d and %d characters", minDescriptionLength, maxDescriptionLength)
		} else {
			out.Description = &desc
		}
	}

	out.Category = optionalText(&c, "category", "Category", input.Category)
	out.Location = optionalText(&c, "location", "Location", input.Location)

	if input.ImageURL != nil {
		raw := strings.TrimSpace(*input.ImageURL)
		if raw != "" && !isHTTPURL(raw) {
			c.add("image_url", "Image URL must be an absolute http or https URL")
		} else {
			out.ImageURL = &raw
		}
	}

	if creating {
		available := true
		out.Available = &available
	} else if input.Available != nil {
		available := *input.Available
		out.Available = &available
	}

	if err := c.err(); err != nil {
		return model.ListingFields{}, err
	}
	return out, nil
}

// ValidateShippingAddress requires every address field except the second line.
func ValidateShippingAddress(addr model.ShippingAddress) error {
	var c collector
	required := []struct {
		field, label, value string
	}{
		{"full_name", "Full name", addr.FullName},
		{"address_line1", "Address line 1", addr.AddressLine1},
		{"city", "City", addr.City},
		{"state", "State", addr.State},
		{"postal_code", "Postal code", addr.PostalCode},
		{"country", "Country", addr.Country},
		{"phone_number", "Phone number", addr.PhoneNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			c.add("shipping_address."+r.field, "%s is required", r.label)
		}
	}
	return c.err()
}

// ValidateProfile checks a profile update and returns it trimmed. Blank
// optional fields clear the stored value.
func ValidateProfile(update model.ProfileUpdate) (model.ProfileUpdate, error) {
	var (
		c   collector
		out model.ProfileUpdate
	)

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		switch {
		case name == "":
			c.add("full_name", "Full name cannot be empty")
		case utf8.RuneCountInString(name) > maxNameLength:
			c.add("full_name", "Full name must be at most %d characters", maxNameLength)
		default:
			out.FullName = &name
		}
	}

	out.Phone = optionalText(&c, "phone", "Phone", update.Phone)
	out.Location = optionalText(&c, "location", "Location", update.Location)

	if update.AvatarURL != nil {
		raw := strings.TrimSpace(*update.AvatarURL)
		if raw != "" && !isHTTPURL(raw) {
			c.add("avatar_url", "Avatar URL must be an absolute http or https URL")
		} else {
			out.AvatarURL = &raw
		}
	}

	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if utf8.RuneCountInString(bio) > maxDescriptionLength {
			c.add("bio", "Bio must be at most %d characters", maxDescriptionLength)
		} else {
			out.Bio = &bio
		}
	}

	if err := c.err(); err != nil {
		return model.ProfileUpdate{}, err
	}
	return out, nil
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	upiPattern    = regexp.MustCompile(`^[A-Za-z0-9._-]{2,}@[A-Za-z]{2,}$`)
)

// CheckoutPaymentMethods are the payment method names accepted at checkout
// when no saved method is selected.
var CheckoutPaymentMethods = []string{"cash_on_delivery", "card", "credit_card", "upi", "bank"}

// ValidatePaymentMethod checks a payment method and returns it ready to
// store. Card and account numbers are reduced to their last four digits.
func ValidatePaymentMethod(input model.PaymentMethodInput) (model.PaymentMethodInput, error) {
	var c collector
	out := model.PaymentMethodInput{
		Type:      model.PaymentMethodType(strings.ToLower(strings.TrimSpace(string(input.Type)))),
		IsDefault: input.IsDefault,
	}
	d := input.Details

	switch out.Type {
	case model.PaymentCard:
		digits := digitsOnly(d.CardNumber)
		if len(digits) < 12 || len(digits) > 19 {
			c.add("details.card_number", "Card number must have between 12 and 19 digits")
		} else {
			out.Details.CardNumber = digits[len(digits)-4:]
		}
		expiry := strings.TrimSpace(d.Expiry)
		if !expiryPattern.MatchString(expiry) {
			c.add("details.expiry", "Expiry must use the MM/YY format")
		} else {
			out.Details.Expiry = expiry
		}
	case model.PaymentUPI:
		id := strings.TrimSpace(d.UPIID)
		if !upiPattern.MatchString(id) {
			c.add("details.upi_id", "UPI ID must look like username@bank")
		} else {
			out.Details.UPIID = id
		}
	case model.PaymentBank:
		name := strings.TrimSpace(d.BankName)
		switch {
		case name == "":
			c.add("details.bank_name", "Bank name is required")
		case utf8.RuneCountInString(name) > maxNameLength:
			c.add("details.bank_name", "Bank name must be at most %d characters", maxNameLength)
		default:
			out.Details.BankName = name
		}
		digits := digitsOnly(d.AccountNumber)
		if len(digits) < 6 || len(digits) > 18 {
			c.add("details.account_number", "Account number must have between 6 and 18 digits")
		} else {
			out.Details.AccountNumber = digits[len(digits)-4:]
		}
	default:
		c.add("type", "Type must be one of card, upi, bank")
	}

	if err := c.err(); err != nil {
		return model.PaymentMethodInput{}, err
	}
	return out, nil
}

// ValidateCheckoutPaymentMethod normalises a payment method name. Blank
// names are returned as "".
func ValidateCheckoutPaymentMethod(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil
	}
	for _, m := range CheckoutPaymentMethods {
		if m == name {
			return name, nil
		}
	}
	var c collector
	c.add("payment_method", "Payment method must be one of %s", strings.Join(CheckoutPaymentMethods, ", "))
	return "", c.err()
}

// digitsOnly strips spaces and dashes. Any other character makes the
// result empty.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return ""
		}
	}
	return b.String()
}

func positiveAmount(c *collector, field, label string, a *model.Amount, required bool) *decimal.Decimal {
	if a == nil {
		if required {
			c.add(field, "%s is required", label)
		}
		return nil
	}
	d, err := a.Decimal()
	if err != nil {
		c.add(field, "%s must be a number", label)
		return nil
	}
	if !d.IsPositive() {
		c.add(field, "%s must be a positive number", label)
		return nil
	}
	return &d
}

func optionalText(c *collector, field, label string, s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if utf8.RuneCountInString(v) > maxNameLength {
		c.add(field, "%s must be at most %d characters", label, maxNameLength)
		return nil
	}
	return &v
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
