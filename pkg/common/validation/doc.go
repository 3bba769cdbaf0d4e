// Package validation holds the constructor and config checks shared by
// ratepool packages. Every failure is a *errors.ValidationError naming the
// module and field, so callers can match errors.ErrInvalidConfiguration.
package validation
