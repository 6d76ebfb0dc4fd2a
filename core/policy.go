package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// specialChars is forbidden in usernames (they must stay safe as lookup keys
// and URL path segments) and required, at least once, in passwords.
const specialChars = "!#$%&'()*+,-./:;<=>?@[\\]^_`{|}~\""

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	passwordMinLen = 8
	passwordMaxLen = 30
)

// reservedUsernames may never be registered, compared case-insensitively.
var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"superuser": {},
	"api":       {},
	"mongo":     {},
	"system":    {},
	"config":    {},
	"local":     {},
	"support":   {},
	"help":      {},
	"moderator": {},
	"mod":       {},
	"staff":     {},
	"test":      {},
	"helper":    {},
	"me":        {},
	"login":     {},
	"register":  {},
}

// PolicyViolation describes why a username or password was rejected. The code
// is stable and machine-readable; the detail is safe to show to the user who
// submitted the value.
type PolicyViolation struct {
	Code   string
	Detail string
}

func (v *PolicyViolation) Error() string { return v.Detail }

func newViolation(code, format string, args ...any) *PolicyViolation {
	return &PolicyViolation{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// ValidateUsername checks the syntactic username rules. Uniqueness against
// existing users is a separate concern handled by AuthService so no lookup is
// ever issued for input that fails these checks.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < usernameMinLen {
		return newViolation("USERNAME_TOO_SHORT", "username must be at least %d characters", usernameMinLen)
	}
	if utf8.RuneCountInString(username) > usernameMaxLen {
		return newViolation("USERNAME_TOO_LONG", "username must be at most %d characters", usernameMaxLen)
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return newViolation("USERNAME_CONTAINS_SPACE", "username must not contain spaces")
	}
	if strings.ContainsAny(username, specialChars) {
		return newViolation("USERNAME_CONTAINS_SPECIAL_CHAR", "username must not contain special characters")
	}
	if _, ok := reservedUsernames[strings.ToLower(username)]; ok {
		return newViolation("USERNAME_RESERVED", "username %q is reserved", username)
	}
	return nil
}

// ValidatePassword checks the password complexity rules.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return newViolation("PASSWORD_EMPTY", "password must not be empty")
	}
	if utf8.RuneCountInString(password) < passwordMinLen {
		return newViolation("PASSWORD_TOO_SHORT", "password must be at least %d characters", passwordMinLen)
	}
	if utf8.RuneCountInString(password) > passwordMaxLen {
		return newViolation("PASSWORD_TOO_LONG", "password must be at most %d characters", passwordMaxLen)
	}
	if strings.IndexFunc(password, unicode.IsSpace) >= 0 {
		return newViolation("PASSWORD_CONTAINS_SPACE", "password must not contain spaces")
	}

	// Single pass over the password; all three class flags are evaluated after.
	var hasDigit, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasDigit {
		missing = append(missing, "a digit")
	}
	if !hasUpper {
		missing = append(missing, "an uppercase letter")
	}
	if !hasSpecial {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return newViolation("PASSWORD_MISSING_COMPLEXITY", "password must contain at least %s", strings.Join(missing, ", "))
	}
	return nil
}
