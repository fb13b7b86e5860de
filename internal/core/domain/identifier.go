package domain

import "strings"

const objectIDLength = 24

// ExtractID unwraps an identifier envelope ({"$oid": "..."}) to its plain
// scalar. Any other value passes through unchanged.
func ExtractID(value any) any {
	if m, ok := value.(map[string]any); ok {
		if oid, ok := m["$oid"]; ok {
			return oid
		}
	}
	return value
}

// ExtractIDString unwraps an identifier envelope and returns the identifier
// as a non-empty string, or ok=false.
func ExtractIDString(value any) (string, bool) {
	s, ok := ExtractID(value).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// IsObjectID reports whether s is a resolvable identifier: exactly 24
// characters, all in the hexadecimal alphabet (case-insensitive).
func IsObjectID(s string) bool {
	v := strings.TrimSpace(s)
	if len(v) != objectIDLength {
		return false
	}
	for _, c := range strings.ToLower(v) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
