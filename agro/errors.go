/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps them to status codes with the helpers at the bottom.

ERROR CATEGORIES:
  1. Validation errors - malformed or out-of-range input (HTTP 400)
  2. Not found        - missing record or record owned by someone else (HTTP 404)
  3. Permission       - authenticated but not allowed (HTTP 403)

USAGE:
  if err := validator.Validate(ctx, farm, area, season, 0); err != nil {
      var verr *agro.ValidationError
      if errors.As(err, &verr) && verr.Code == agro.CodeSeasonOverBudget {
          ...
      }
  }

SEE ALSO:
  - area.go: Budget rejections
  - stock/ledger.go: Movement rejections
  - api/handlers.go: Status mapping
*/
package agro

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record does not exist or is not
	// visible to the caller. Cross-tenant lookups use it too so they do not
	// leak existence.
	ErrNotFound = errors.New("not found")

	// ErrPermission is returned when the caller is authenticated but not
	// authorized for the operation.
	ErrPermission = errors.New("permission denied")

	// ErrMalformedSeason is returned by ParseSeason for labels that are not
	// of the form "YY/YY".
	ErrMalformedSeason = errors.New("malformed season label")

	// ErrDuplicateCultivar is returned when a (crop, variety) pair already
	// exists in the catalog.
	ErrDuplicateCultivar = errors.New("cultivar already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Validation codes.
const (
	CodeRequired          = "required"
	CodeOutOfRange        = "out_of_range"
	CodeCycleOverBudget   = "cycle_exceeds_budget"
	CodeSeasonOverBudget  = "season_exceeds_budget"
	CodeNotHarvested      = "not_harvested"
	CodeInvalidKind       = "invalid_kind"
	CodeNonPositiveAmount = "non_positive_quantity"
)

// ValidationError describes rejected input. Message is human readable and
// safe to return to API clients.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMalformedSeason) ||
		errors.Is(err, ErrDuplicateCultivar)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermission returns true if the caller lacks rights for the operation.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// Message returns the client-facing text of err.
func Message(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
