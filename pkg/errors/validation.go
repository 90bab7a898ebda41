package errors

import (
	"strings"
	"unicode"
)

// maxHandleLen bounds handles, wallet addresses and ENS names accepted as input.
const maxHandleLen = 256

// ValidateHandle validates a user-supplied handle before it is used in a lookup.
// The identity endpoint accepts handles, wallet addresses and ENS names, so the
// rules only reject input that is empty or could escape the URL path segment:
//   - No empty (or whitespace-only) handles
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateHandle(handle string) error {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return New(ErrCodeInvalidHandle, "handle cannot be empty")
	}
	if len(handle) > maxHandleLen {
		return New(ErrCodeInvalidHandle, "handle too long (max %d characters)", maxHandleLen)
	}
	for _, r := range handle {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidHandle, "handle contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "?", "#"} {
		if strings.Contains(handle, pattern) {
			return New(ErrCodeInvalidHandle, "handle contains invalid characters: %q", pattern)
		}
	}
	return nil
}
