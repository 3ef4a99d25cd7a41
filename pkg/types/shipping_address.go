package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is stored as a JSON blob on the order row.
type ShippingAddress struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// Validate reports the first missing required field.
func (a ShippingAddress) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"line1", a.Line1},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("shipping address: missing %s", r.field)
		}
	}
	return nil
}

// Value encodes the address as JSON text so it fits both jsonb and TEXT columns.
func (a ShippingAddress) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON.
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("shipping address: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*a = ShippingAddress{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
