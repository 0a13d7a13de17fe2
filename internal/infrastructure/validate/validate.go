package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Validator checks a single string value and reports the first violation.
type Validator func(value string) error

// Field runs the validator and prefixes failures with the field name.
func Field(name, value string, v Validator) error {
	if err := v(value); err != nil {
		return fmt.Errorf("%s %w", name, err)
	}
	return nil
}

// Compose chains validators, stopping at the first failure.
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

func Required() Validator {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return errors.New("is required")
		}
		return nil
	}
}

func MinLength(min int) Validator {
	return func(value string) error {
		if len(value) < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		return nil
	}
}

func MaxLength(max int) Validator {
	return func(value string) error {
		if len(value) > max {
			return fmt.Errorf("must be at most %d characters", max)
		}
		return nil
	}
}

func Length(exact int) Validator {
	return func(value string) error {
		if len(value) != exact {
			return fmt.Errorf("must be exactly %d characters", exact)
		}
		return nil
	}
}

func LengthBetween(min, max int) Validator {
	return Compose(MinLength(min), MaxLength(max))
}

func Alphanumeric() Validator {
	return func(value string) error {
		for _, r := range value {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return errors.New("must contain only letters and digits")
			}
		}
		return nil
	}
}

// IntBetween validates an integer range. It is not a Validator since the
// value is already numeric.
func IntBetween(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return nil
}

// Join collects field errors into one message, nil when all pass.
func Join(errs ...error) error {
	var parts []string
	for _, err := range errs {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}
