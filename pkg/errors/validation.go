package errors

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Session duration bounds offered by the setup screen.
const (
	MinDuration = time.Minute
	MaxDuration = 60 * time.Minute
)

const (
	maxIDLength    = 128
	maxTitleLength = 256
)

// ValidateSessionID validates an identifier that is also used as a file name
// by the local store. It rejects anything that could escape the data
// directory.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateSessionID(id string) error {
	return validateID(id, "session")
}

// ValidateTemplateID applies the session id rules to template ids.
func ValidateTemplateID(id string) error {
	return validateID(id, "template")
}

func validateID(id, kind string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "%s id contains invalid characters: %q", kind, pattern)
		}
	}
	return nil
}

// ValidateTitle requires a non-blank title without control characters.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return New(ErrCodeInvalidInput, "title cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", maxTitleLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}
	return nil
}

// ValidateDuration checks a session length in seconds against
// [MinDuration] and [MaxDuration].
func ValidateDuration(durationSec int) error {
	d := time.Duration(durationSec) * time.Second
	if d < MinDuration || d > MaxDuration {
		return New(ErrCodeInvalidInput, "duration must be between %d and %d minutes, got %ds",
			int(MinDuration.Minutes()), int(MaxDuration.Minutes()), durationSec)
	}
	return nil
}
