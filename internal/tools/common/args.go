package common

import (
	"fmt"
	"strings"
)

// RecipientFromArgs returns the recipient of a send tool call: the
// "receiver" argument for SMS and "email" for the relay.
func RecipientFromArgs(args map[string]interface{}) string {
	if receiver, err := ListArg(args, "receiver"); err == nil && receiver != "" {
		return receiver
	}
	return StringArg(args, "email")
}

// StringArg returns args[key] as a trimmed string. Numbers are formatted
// without a fractional part, since clients sometimes send phone numbers and
// dates as JSON numbers.
func StringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

// RequiredStringArg is StringArg, failing when the value is empty.
func RequiredStringArg(args map[string]interface{}, key string) (string, error) {
	v := StringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// ListArg returns args[key] as a comma-separated list. It accepts either a
// single string, which is returned trimmed, or an array of strings.
func ListArg(args map[string]interface{}, key string) (string, error) {
	switch v := args[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case []interface{}:
		items := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("%s[%d] must be a string", key, i)
			}
			if str = strings.TrimSpace(str); str != "" {
				items = append(items, str)
			}
		}
		return strings.Join(items, ","), nil
	default:
		return StringArg(args, key), nil
	}
}
