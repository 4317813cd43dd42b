package validation

import (
	"strconv"
	"unicode"

	validation "github.com/jellydator/validation"
)

type charClass uint8

const (
	classUpper charClass = 1 << iota
	classLower
	classNumber
	classSpecial
)

func classesOf(s string) charClass {
	var found charClass
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			found |= classUpper
		case unicode.IsLower(r):
			found |= classLower
		case unicode.IsNumber(r):
			found |= classNumber
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			found |= classSpecial
		}
	}
	return found
}

// PasswordStrength is the policy applied before a password is hashed with Argon2id.
// MaxLength caps the input handed to the KDF; zero means no cap.
type PasswordStrength struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

// Validate implements validation.Rule.
func (p PasswordStrength) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_type", "password must be a string")
	}

	length := len([]rune(s))
	if length < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return validation.NewError(
			"validation_password_max_length",
			"password must be at most "+strconv.Itoa(p.MaxLength)+" characters",
		)
	}

	found := classesOf(s)
	checks := []struct {
		required bool
		class    charClass
		code     string
		message  string
	}{
		{p.RequireUpper, classUpper, "validation_password_uppercase", "an uppercase letter"},
		{p.RequireLower, classLower, "validation_password_lowercase", "a lowercase letter"},
		{p.RequireNumber, classNumber, "validation_password_number", "a number"},
		{p.RequireSpecial, classSpecial, "validation_password_special", "a special character"},
	}
	for _, check := range checks {
		if check.required && found&check.class == 0 {
			return validation.NewError(check.code, "password must contain at least "+check.message)
		}
	}

	return nil
}
