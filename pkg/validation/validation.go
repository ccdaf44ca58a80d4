package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// UsernameRegex limits usernames to letters, digits, dot, dash and underscore.
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

const (
	maxUsernameLen = 50
	maxPasswordLen = 72 // bcrypt ignores bytes past 72
	maxNameLen     = 100
	maxURLLen      = 2048
)

// ValidateUsername validates username
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if len(username) > maxUsernameLen {
		return fmt.Errorf("username is too long (max %d characters)", maxUsernameLen)
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, ., _, - allowed)")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password is too long (max %d bytes)", maxPasswordLen)
	}
	return nil
}

// ValidateCameraName validates a camera display name
func ValidateCameraName(name string) error {
	if err := ValidateNonEmptyString(name, "name"); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid characters")
	}
	return ValidateStringLength(name, 1, maxNameLen, "name")
}

// ValidateStreamURL only checks presence and length: cameras are reached over
// rtsp, rtsps, http or local files and the worker decides what it can open.
func ValidateStreamURL(rawURL string) error {
	if err := ValidateNonEmptyString(rawURL, "rtspUrl"); err != nil {
		return err
	}
	return ValidateStringLength(rawURL, 1, maxURLLen, "rtspUrl")
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
