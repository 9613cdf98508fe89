package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRe     = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailRe        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordUpper  = regexp.MustCompile(`[A-Z]`)
	passwordLower  = regexp.MustCompile(`[a-z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	passwordSymbol = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?]`)
)

const (
	minPasswordLength = 12
	maxEmailLength    = 254
)

// ValidateUsername returns every rule the username breaks, in a fixed order.
func ValidateUsername(username string) []string {
	if username == "" {
		return []string{"Username is required"}
	}

	var errs []string
	n := utf8.RuneCountInString(username)
	if n < 3 {
		errs = append(errs, "Username must be at least 3 characters")
	}
	if n > 30 {
		errs = append(errs, "Username must be at most 30 characters")
	}
	if !usernameRe.MatchString(username) {
		errs = append(errs, "Username can only contain letters, numbers, and underscores")
	}
	return errs
}

func ValidateEmail(email string) []string {
	if email == "" {
		return []string{"Email is required"}
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return []string{"Email must be at most 254 characters"}
	}
	if !emailRe.MatchString(email) {
		return []string{"Invalid email format"}
	}
	return nil
}

func ValidatePassword(password string) []string {
	if password == "" {
		return []string{"Password is required"}
	}

	var errs []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs = append(errs, "Password must be at least 12 characters")
	}
	if !passwordUpper.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !passwordLower.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !passwordDigit.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !passwordSymbol.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}
	return errs
}

// validateRegistration reports the first failing field with its own code.
func validateRegistration(in RegisterInput) *Error {
	if errs := ValidateUsername(in.Username); len(errs) > 0 {
		return validationError(CodeInvalidUsername, strings.Join(errs, "; "))
	}
	if errs := ValidateEmail(in.Email); len(errs) > 0 {
		return validationError(CodeInvalidEmail, strings.Join(errs, "; "))
	}
	if errs := ValidatePassword(in.Password); len(errs) > 0 {
		return validationError(CodeWeakPassword, strings.Join(errs, "; "))
	}
	return nil
}
