package domain

import (
	"errors"
	"fmt"
)

// Stable machine-readable reason codes reported alongside errors.
const (
	ReasonNoOrders        = "no_data_orders"
	ReasonNoColorMatch    = "no_data_horse"
	ReasonNoBodyLayer     = "no_data_layers"
	ReasonNoColorInfo     = "colors_no_info_available"
	ReasonNoSheet         = "sheet_not_found"
	ReasonSheetEmpty      = "sheet_empty"
	ReasonSheetNoHeader   = "sheet_missing_genotype_header"
	ReasonSheetInvalid    = "sheet_invalid_csv"
	ReasonSheetDuplicate  = "sheet_duplicate_breed"
	ReasonBreedMissing    = "breed_missing"
	ReasonLayersInvalid   = "layers_invalid"
	ReasonLayersType      = "layers_invalid_type"
	ReasonLayersUnmatched = "layers_unmatching"
	ReasonLayersNotFoal   = "layers_not_foal"
	ReasonSexInvalid      = "sex_invalid"
)

// NotFoundError reports missing prediction data.
type NotFoundError struct {
	Reason  string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "not found: " + e.Reason
	}
	return e.Message
}

// ValidationError reports malformed input such as a sheet without its genotype header.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "invalid: " + e.Reason
	}
	return e.Message
}

// StoreError wraps a failure raised by the layer store. It is never recovered.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("layer store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore wraps err as a StoreError unless it is nil or already one.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// ReasonOf returns the reason code carried by err, or "" for untyped errors.
func ReasonOf(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Reason
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
