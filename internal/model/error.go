package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes
const (
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeNoPriceData     = "NO_PRICE_DATA"
	ErrCodeNameConflict    = "NAME_CONFLICT"
	ErrCodeMalformedRecord = "MALFORMED_RECORD"
	ErrCodeTransport       = "VENDOR_TRANSPORT"
	ErrCodeDuplicatePrice  = "DUPLICATE_PRICE"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrNoPriceData     = NewDomainError(ErrCodeNoPriceData, "Vendor returned no price records for the period")
	ErrDuplicatePrice  = NewDomainError(ErrCodeDuplicatePrice, "A price already exists for this product and vendor date")
)

// NameConflictError reports a vendor record whose name disagrees with the stored product.
type NameConflictError struct {
	VendorID   string
	StoredName string
	VendorName string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("product [%s] name conflict: [%s] / [%s]", e.VendorID, e.StoredName, e.VendorName)
}

// Code returns the error code for the conflict.
func (e *NameConflictError) Code() string { return ErrCodeNameConflict }

// MalformedRecordError reports a vendor record missing a required field.
type MalformedRecordError struct {
	Index int
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("vendor record %d: missing required field %q", e.Index, e.Field)
}

// Code returns the error code for the malformed record.
func (e *MalformedRecordError) Code() string { return ErrCodeMalformedRecord }

// TransportError reports a vendor that could not be reached or returned an unusable response.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vendor %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("vendor %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code returns the error code for transport failures.
func (e *TransportError) Code() string { return ErrCodeTransport }

// ReconciliationError is returned by a reconciliation run that did not complete.
type ReconciliationError struct {
	RunID   uuid.UUID
	EndDate time.Time
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation %s for %s failed: %v", e.RunID, e.EndDate.Format(time.DateOnly), e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// ErrorCode extracts the domain code carried by err, or ErrCodeInternalError.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ErrCodeInternalError
}
