package instrumentation

import "strings"

// Cardinality helpers. Phone numbers and email addresses must never become
// metric label values; these reduce them to a handful of buckets.

// ReceiverCountBucket reduces a comma-separated receiver list to a bucket:
// "none", "1", "2-10", "11-100" or "100+".
func ReceiverCountBucket(receivers string) string {
	n := 0
	for _, r := range strings.Split(receivers, ",") {
		if strings.TrimSpace(r) != "" {
			n++
		}
	}

	switch {
	case n == 0:
		return "none"
	case n == 1:
		return "1"
	case n <= 10:
		return "2-10"
	case n <= 100:
		return "11-100"
	default:
		return "100+"
	}
}

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Provider names used as metric labels and span attributes.
const (
	ProviderAligo = "aligo"
	ProviderRelay = "garak_relay"
)

// Operation types for provider metrics.
const (
	OperationSend = "send"
)
