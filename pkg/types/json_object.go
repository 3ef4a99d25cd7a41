package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONObject is a free-form JSON object column. A nil map is stored as NULL.
type JSONObject map[string]any

func (o JSONObject) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]any(o))
	if err != nil {
		return nil, fmt.Errorf("json object: %w", err)
	}
	return string(raw), nil
}

func (o *JSONObject) Scan(value any) error {
	if value == nil {
		*o = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("json object: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*o = nil
		return nil
	}
	decoded := map[string]any{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("json object: %w", err)
	}
	*o = decoded
	return nil
}
