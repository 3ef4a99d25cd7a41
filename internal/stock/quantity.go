package stock

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// MaxQuantity bounds a single stock row.
const MaxQuantity = math.MaxInt32

// ParseQuantity converts a transport value into a stock quantity. JSON
// numbers, numeric strings and Go integers are accepted; fractions, NaN,
// infinities, negatives and anything non-numeric are validation errors.
func ParseQuantity(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return checkQuantity(int64(v))
	case int32:
		return checkQuantity(int64(v))
	case int64:
		return checkQuantity(v)
	case float64:
		return quantityFromFloat(v)
	case json.Number:
		return ParseQuantity(v.String())
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return checkQuantity(n)
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, quantityError(fmt.Sprintf("quantity %q is not a number", v))
		}
		return quantityFromFloat(f)
	case nil:
		return 0, quantityError("quantity is required")
	default:
		return 0, quantityError(fmt.Sprintf("quantity of type %T is not a number", raw))
	}
}

func quantityFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, quantityError("quantity must be a finite number")
	}
	if f != math.Trunc(f) {
		return 0, quantityError("quantity must be a whole number")
	}
	if f > MaxQuantity || f < math.MinInt32 {
		return 0, quantityError("quantity is out of range")
	}
	return checkQuantity(int64(f))
}

func checkQuantity(n int64) (int, error) {
	if n < 0 {
		return 0, quantityError("quantity must be >= 0")
	}
	if n > MaxQuantity {
		return 0, quantityError("quantity is out of range")
	}
	return int(n), nil
}

func quantityError(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": "quantity"})
}
