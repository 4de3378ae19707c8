// Package validation holds the field rules for forms: group slugs, post
// text and account credentials.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxGroupTitleLen = 200
	MaxGroupSlugLen  = 255
	MaxUsernameLen   = 150
	MinPasswordLen   = 8
	MaxPasswordLen   = 128
)

var (
	groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRegex  = regexp.MustCompile(`^[\w.@+-]+$`)
	digitsRegex    = regexp.MustCompile(`^[0-9]+$`)
)

var reservedUsernames = map[string]struct{}{
	"admin":  {},
	"auth":   {},
	"create": {},
	"follow": {},
	"media":  {},
}

// ValidateGroupSlug checks a group slug: letters, digits, hyphens and underscores.
func ValidateGroupSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) > MaxGroupSlugLen {
		return fmt.Errorf("slug must be at most %d characters", MaxGroupSlugLen)
	}
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug may contain only letters, numbers, underscores or hyphens")
	}
	return nil
}

// ValidateGroupTitle checks a group title.
func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxGroupTitleLen {
		return fmt.Errorf("title must be at most %d characters", MaxGroupTitleLen)
	}
	return nil
}

// ValidatePostText requires non-blank text.
func ValidatePostText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLen)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail accepts an empty address or a single RFC 5322 address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidatePassword enforces a length range and rejects all-digit passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if n > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	if digitsRegex.MatchString(password) {
		return fmt.Errorf("password cannot be entirely numeric")
	}
	return nil
}
