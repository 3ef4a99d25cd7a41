package enums

import (
	"fmt"
	"strings"
)

// StockPolicy decides whether order creation touches the stock ledger.
type StockPolicy string

const (
	// StockPolicyManual leaves all stock adjustments to the back office.
	StockPolicyManual StockPolicy = "manual"
	// StockPolicyDecrementOnCreate decrements each ordered size when the order is created.
	StockPolicyDecrementOnCreate StockPolicy = "decrement_on_create"
)

var validStockPolicies = []StockPolicy{
	StockPolicyManual,
	StockPolicyDecrementOnCreate,
}

// String implements fmt.Stringer.
func (p StockPolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known StockPolicy.
func (p StockPolicy) IsValid() bool {
	for _, candidate := range validStockPolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseStockPolicy converts raw input into a StockPolicy. Empty input means manual.
func ParseStockPolicy(value string) (StockPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return StockPolicyManual, nil
	}
	for _, candidate := range validStockPolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock policy %q", value)
}
