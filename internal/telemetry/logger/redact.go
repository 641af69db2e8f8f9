package logger

import (
	"log/slog"
	"strings"
)

// Substrings of attribute keys whose values are always redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"seed",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive redacts string values of sensitive attributes,
// descending into groups.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// IsSensitiveKey reports whether a key names secret material: wallet keys
// (key, rekey, export_key), seeds, passwords and credentials. Public keys
// such as verkey are not sensitive.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if k == "key" || k == "rekey" || strings.HasSuffix(k, "_key") {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// RedactParams returns a copy of params with sensitive values replaced.
func RedactParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" && IsSensitiveKey(k) {
			v = redactedValue
		}
		out[k] = v
	}
	return out
}
