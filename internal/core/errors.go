package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/courrier/pkg/models"
)

var (
	// ErrLetterNotFound is returned when no stored letter has the requested ID.
	ErrLetterNotFound = errors.New("letter not found")

	// ErrUnknownLetterType is returned for a type absent from the catalog.
	ErrUnknownLetterType = errors.New("unknown letter type")

	// ErrUnknownFieldKind is returned when a field declares a kind outside
	// text, textarea, select and date.
	ErrUnknownFieldKind = errors.New("unknown field kind")
)

func unknownKindError(kind models.FieldKind) error {
	return fmt.Errorf("%w %q", ErrUnknownFieldKind, kind)
}

// ValidationError reports input that must be fixed before a letter can be
// generated. It is raised before any I/O happens.
type ValidationError struct {
	// Scope names the part of the request that failed (profile, recipient, fields, type).
	Scope string
	// Missing lists the required keys left empty, in declaration order.
	Missing []string
	// Reason is set for failures that are not about missing values.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Scope, e.Reason)
	}
	return fmt.Sprintf("missing required %s: %s", e.Scope, strings.Join(e.Missing, ", "))
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
