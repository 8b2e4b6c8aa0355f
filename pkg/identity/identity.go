// Package identity maps user-supplied email addresses to canonical,
// storage-safe user keys. Every other component addresses users
// exclusively by the key this package produces.
package identity

import "strings"

var replacer = strings.NewReplacer(".", "-", "@", "-")

// SafeKey derives the storage key for an email address by replacing "."
// and "@" with "-". It is deterministic and total: malformed input passes
// through with the same substitution applied, and applying SafeKey to its
// own output is a no-op.
func SafeKey(email string) string {
	return replacer.Replace(email)
}
