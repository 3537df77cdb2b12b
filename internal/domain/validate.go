package domain

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateID checks that an id is UUID-shaped before any query is issued.
// A malformed id short-circuits to ErrValidation without touching the
// database; callers treat it the same as not-found for navigation.
func ValidateID(id string) error {
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		return fmt.Errorf("id %q: %v: %w", id, err, ErrValidation)
	}
	return nil
}
