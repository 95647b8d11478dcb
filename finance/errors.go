/*
errors.go - Centralized error types for the finance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match categories with errors.Is and extract record context
  with errors.As.

ERROR CATEGORIES:
  1. Invalid input - unknown kinds, negative amounts; rejects the batch
  2. Division guards are NOT errors - zero denominators resolve to a
     defined zero result (a fee of 0 is a legitimate state)

BATCH SEMANTICS:
  Aggregation is all-or-nothing. The first invalid record aborts the
  whole run and is identified in the returned error; partial totals are
  never produced because a half-aggregated financial figure is worse
  than no figure.

USAGE:
  if errors.Is(err, finance.ErrInvalidInput) {
      var rec *finance.InvalidRecordError
      if errors.As(err, &rec) {
          log.Printf("bad %s at index %d: %s", rec.RecordSet, rec.Index, rec.Reason)
      }
  }
*/
package finance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is the category for any record that cannot be
	// aggregated: unknown enum values, negative amounts. The whole
	// batch is rejected, never partially applied.
	ErrInvalidInput = errors.New("invalid input record")

	// ErrUnknownKind is returned when a raw string does not map to a
	// closed enum value.
	ErrUnknownKind = errors.New("unknown kind")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownKindError reports a value outside a closed enum.
type UnknownKindError struct {
	Enum  string // e.g. "transaction_kind"
	Value string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Enum, e.Value)
}

func (e *UnknownKindError) Unwrap() error {
	return ErrUnknownKind
}

// InvalidRecordError identifies the FIRST record that caused a batch
// rejection. RecordSet names the input collection ("transactions",
// "fees", "general", "salaries"), Index is the position within it.
type InvalidRecordError struct {
	RecordSet string
	Index     int
	Reason    string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record in %s at index %d: %s", e.RecordSet, e.Index, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidInput
}
