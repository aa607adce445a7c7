package common

import (
	"fmt"
	"strings"
	"time"
)

// OwnerFromArgs returns the calendar owner named by "user_email", falling
// back to "owner". The result is trimmed and may be empty.
func OwnerFromArgs(args map[string]interface{}) string {
	for _, key := range []string{"user_email", "owner"} {
		if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// StringArg returns a trimmed string argument or "".
func StringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// BoolArg returns a boolean argument or false.
func BoolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// IntArg returns a numeric argument. JSON numbers arrive as float64; strings
// are not accepted. ok is false when the argument is absent.
func IntArg(args map[string]interface{}, key string) (n int, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, true, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
}

// ListArg accepts either a comma-separated string or an array of strings and
// returns the non-empty trimmed entries.
func ListArg(args map[string]interface{}, key string) ([]string, error) {
	var parts []string
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			parts = append(parts, s)
		}
	case []string:
		parts = v
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", key)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// TimeArg parses an RFC3339 argument. A timestamp without an offset is read
// in loc. ok is false when the argument is absent or empty.
func TimeArg(args map[string]interface{}, key string, loc *time.Location) (t time.Time, ok bool, err error) {
	s := StringArg(args, key)
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err = time.ParseInLocation("2006-01-02T15:04:05", s, loc)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("invalid %s %q: use RFC3339, e.g. 2025-01-15T14:00:00+05:30", key, s)
	}
	return t, true, nil
}
