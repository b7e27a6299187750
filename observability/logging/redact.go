package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// Redacted replaces values that must not reach the log stream.
const Redacted = "[REDACTED]"

// safeKeys are attribute keys whose values are emitted verbatim.
var safeKeys = map[string]struct{}{
	"service":    {},
	"env":        {},
	"error":      {},
	"code":       {},
	"contract":   {},
	"entrypoint": {},
	"invoker":    {},
	"method":     {},
	"seq":        {},
	"events":     {},
	"address":    {},
	"owner":      {},
	"reason":     {},
}

// SafeKeys lists the attribute keys MaskField never hides.
func SafeKeys() []string {
	keys := make([]string, 0, len(safeKeys))
	for key := range safeKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskField hides value unless key is a known safe attribute. Empty values
// pass through untouched.
func MaskField(key, value string) slog.Attr {
	_, safe := safeKeys[strings.ToLower(strings.TrimSpace(key))]
	if safe || strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	return slog.String(key, Redacted)
}

// MaskCredential keeps the scheme of an Authorization header and hides the
// credential, so "Bearer abc" logs as "Bearer [REDACTED]".
func MaskCredential(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	scheme, _, ok := strings.Cut(trimmed, " ")
	if !ok {
		return Redacted
	}
	return scheme + " " + Redacted
}
