package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ToString converts any cell value to a string.
func ToString(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%f", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt converts a cell value to an integer.
func ToInt(value interface{}) (int64, error) {
	if value == nil {
		return 0, fmt.Errorf("cannot convert nil to int")
	}

	switch v := value.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to int: %w", v.String(), err)
		}
		return i, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to int: %w", v, err)
		}
		return i, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// ToFloat converts a cell value to a float.
func ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("cannot convert nil to float")
	}

	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to float: %w", v.String(), err)
		}
		return f, nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to float: %w", v, err)
		}
		return f, nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// ToBool converts a cell value to a boolean.
func ToBool(value interface{}) (bool, error) {
	if value == nil {
		return false, nil
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, fmt.Errorf("cannot convert '%s' to boolean", v.String())
		}
		return f != 0, nil
	case int:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float32:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch v {
		case "true", "1", "yes", "y", "on":
			return true, nil
		case "false", "0", "no", "n", "off", "":
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert '%s' to boolean", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

// ToDateTime converts a cell value to a time.Time. Strings are tried
// against the formats Neo4j emits for temporal values; numbers are treated
// as Unix timestamps.
func ToDateTime(value interface{}) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("cannot convert nil to datetime")
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		formats := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}

		for _, format := range formats {
			if t, err := time.Parse(format, v); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("cannot parse '%s' as datetime", v)
	case json.Number:
		timestamp, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot convert '%s' to datetime", v.String())
		}
		return time.Unix(timestamp, 0), nil
	case int:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", value)
	}
}

// String returns the named column coerced to a string. Missing columns
// coerce to the empty string.
func (r Row) String(column string) string {
	return ToString(r[column])
}

// Int returns the named column coerced to an integer.
func (r Row) Int(column string) (int64, error) {
	value, ok := r[column]
	if !ok {
		return 0, fmt.Errorf("row has no column '%s'", column)
	}
	return ToInt(value)
}

// Float returns the named column coerced to a float.
func (r Row) Float(column string) (float64, error) {
	value, ok := r[column]
	if !ok {
		return 0, fmt.Errorf("row has no column '%s'", column)
	}
	return ToFloat(value)
}

// Bool returns the named column coerced to a boolean.
func (r Row) Bool(column string) (bool, error) {
	value, ok := r[column]
	if !ok {
		return false, fmt.Errorf("row has no column '%s'", column)
	}
	return ToBool(value)
}

// DateTime returns the named column coerced to a time.Time.
func (r Row) DateTime(column string) (time.Time, error) {
	value, ok := r[column]
	if !ok {
		return time.Time{}, fmt.Errorf("row has no column '%s'", column)
	}
	return ToDateTime(value)
}
