package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxColumnNameLength  = 50
	maxStatusLength      = 50
	maxColorLength       = 20
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	kebabCaseRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

func stripTags(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

func SanitizeTitle(title string) (string, *Error) {
	if strings.TrimSpace(title) == "" {
		return "", validationError(CodeValidation, "Title is required")
	}
	cleaned := strings.TrimSpace(stripTags(strings.TrimSpace(title)))
	if cleaned == "" {
		return "", validationError(CodeValidation, "Title is required")
	}
	if utf8.RuneCountInString(cleaned) > maxTitleLength {
		return "", validationError(CodeValidation, "Title must be 200 characters or less")
	}
	return cleaned, nil
}

// SanitizeDescription returns nil for an absent or empty description.
func SanitizeDescription(desc *string) (*string, *Error) {
	if desc == nil {
		return nil, nil
	}
	cleaned := stripTags(strings.TrimSpace(*desc))
	if utf8.RuneCountInString(cleaned) > maxDescriptionLength {
		return nil, validationError(CodeValidation, "Description must be 2000 characters or less")
	}
	if cleaned == "" {
		return nil, nil
	}
	return &cleaned, nil
}

func SanitizeColumnName(name string) (string, *Error) {
	if strings.TrimSpace(name) == "" {
		return "", validationError(CodeValidation, "Column name is required")
	}
	cleaned := strings.TrimSpace(stripTags(strings.TrimSpace(name)))
	if cleaned == "" {
		return "", validationError(CodeValidation, "Column name is required")
	}
	if utf8.RuneCountInString(cleaned) > maxColumnNameLength {
		return "", validationError(CodeValidation, "Column name must be 50 characters or less")
	}
	return cleaned, nil
}

func SanitizeStatusValue(value string) (string, *Error) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return "", validationError(CodeValidation, "Status value is required")
	}
	if utf8.RuneCountInString(cleaned) > maxStatusLength {
		return "", validationError(CodeValidation, "Status value must be 50 characters or less")
	}
	if !kebabCaseRe.MatchString(cleaned) {
		return "", validationError(CodeValidation, "Status value must be kebab-case (lowercase letters, numbers, hyphens)")
	}
	return cleaned, nil
}

// SanitizeColor returns nil for an absent or empty color.
func SanitizeColor(color *string) (*string, *Error) {
	if color == nil {
		return nil, nil
	}
	cleaned := stripTags(strings.TrimSpace(*color))
	if cleaned == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(cleaned) > maxColorLength {
		return nil, validationError(CodeValidation, "Color must be 20 characters or less")
	}
	return &cleaned, nil
}
