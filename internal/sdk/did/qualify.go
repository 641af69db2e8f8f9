package did

import "strings"

const prefix = "did:"

// Qualify prefixes did with did:<method>:, replacing any existing method.
func Qualify(did, method string) string {
	return prefix + method + ":" + Unqualify(did)
}

// Unqualify strips a did:<method>: prefix.
func Unqualify(did string) string {
	if !strings.HasPrefix(did, prefix) {
		return did
	}
	rest := did[len(prefix):]
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[i+1:]
	}
	return did
}

// Method returns the method of a qualified DID, or "" if unqualified.
func Method(did string) string {
	if !strings.HasPrefix(did, prefix) {
		return ""
	}
	rest := did[len(prefix):]
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return ""
}

// IsQualified reports whether did carries a method prefix.
func IsQualified(did string) bool {
	return Method(did) != ""
}
