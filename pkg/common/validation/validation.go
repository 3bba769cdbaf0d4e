package validation

import (
	"strings"
	"time"

	gferrors "github.com/vnykmshr/ratepool/pkg/common/errors"
)

// ValidatePositive returns a ValidationError unless value > 0.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative returns a ValidationError if value < 0. Zero usually
// means "use the default" for the field.
func ValidateNonNegative[T int | int64](module, field string, value T) error {
	if value < 0 {
		return gferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 for the default or a positive value")
	}
	return nil
}

// ValidateNotEmpty returns a ValidationError for an empty or blank string.
func ValidateNotEmpty(module, field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return gferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidatePositiveDuration returns a ValidationError unless value > 0.
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a duration such as 250ms or 1s")
	}
	return nil
}

// ValidateOneOf returns a ValidationError unless value equals one of
// allowed. The hint lists the accepted values.
func ValidateOneOf(module, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return gferrors.NewValidationError(module, field, value, "unknown value").
		WithHint("use " + joinChoices(allowed))
}

func joinChoices(choices []string) string {
	switch len(choices) {
	case 0:
		return "a supported value"
	case 1:
		return choices[0]
	}
	return strings.Join(choices[:len(choices)-1], ", ") + " or " + choices[len(choices)-1]
}
