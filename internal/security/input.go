// Package security scrubs what leaves the process and screens free text
// coming in.
package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInputTooLarge    = errors.New("input exceeds maximum size")
	ErrNullByteDetected = errors.New("null byte detected in input")
	ErrControlCharacter = errors.New("control character in input")
	ErrInvalidUTF8      = errors.New("input is not valid UTF-8")
)

// InputValidator screens short free-text fields such as medicine names.
type InputValidator struct {
	MaxRunes int
}

func NewInputValidator(maxRunes int) *InputValidator {
	return &InputValidator{MaxRunes: maxRunes}
}

func (v *InputValidator) Validate(input string) error {
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	if v.MaxRunes > 0 && utf8.RuneCountInString(input) > v.MaxRunes {
		return ErrInputTooLarge
	}

	for _, r := range input {
		if r == 0 {
			return ErrNullByteDetected
		}
		if unicode.IsControl(r) {
			return ErrControlCharacter
		}
	}
	return nil
}

// ValidateText checks input against a validator allowing maxRunes characters.
func ValidateText(input string, maxRunes int) error {
	return NewInputValidator(maxRunes).Validate(input)
}
