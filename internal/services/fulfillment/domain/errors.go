package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderIDRequired indicates an order id is required before any side effect.
	ErrOrderIDRequired = errors.New("order id is required")
	// ErrCardIDRequired indicates a card id is required before any side effect.
	ErrCardIDRequired = errors.New("card id is required")
	// ErrCatalogNotConfigured indicates the component is missing catalog wiring.
	ErrCatalogNotConfigured = errors.New("card catalog is not configured")
	// ErrSheetOverCapacity indicates a print sheet would exceed its slot capacity.
	ErrSheetOverCapacity = errors.New("print sheet over capacity")
	// ErrSheetTargetInDecoys indicates the decoy set contains the target card.
	ErrSheetTargetInDecoys = errors.New("print sheet decoys contain the target card")
)

// CopyError reports that one physical copy failed to process. Copy failures
// are isolated: they are recorded in the processing report and never abort
// sibling copies or other line items.
type CopyError struct {
	CardID string
	Err    error
}

// Error implements the error interface.
func (e *CopyError) Error() string {
	return fmt.Sprintf("process copy for card %s: %v", e.CardID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CopyError) Unwrap() error {
	return e.Err
}

// ExternalServiceError reports that an archive, upload, ledger, or
// notification collaborator failed. Artifacts already generated for the order
// are never discarded because of it.
type ExternalServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
