package errors

import (
	stderrors "errors"
	"fmt"
)

// Validation codes, one per violated field rule.
const (
	CodeMissingSku          = "MISSING_SKU"
	CodeMissingPrice        = "MISSING_PRICE"
	CodeMissingTax          = "MISSING_TAX"
	CodeMissingStock        = "MISSING_STOCK"
	CodeMissingField        = "MISSING_FIELD"
	CodeMissingURL          = "MISSING_URL"
	CodeInvalidURL          = "INVALID_URL"
	CodeMissingAxis         = "MISSING_AXIS"
	CodeInvalidImage        = "INVALID_IMAGE"
	CodeDuplicateImageURL   = "DUPLICATE_IMAGE_URL"
	CodeMultipleCoverImages = "MULTIPLE_COVER_IMAGES"
	CodeInvalidKey          = "INVALID_KEY"
	CodeInvalidLocale       = "INVALID_LOCALE"
	CodeInvalidCustomField  = "INVALID_CUSTOM_FIELD"
	CodeInvalidActive       = "INVALID_ACTIVE"
	CodeInvalidCmsPageID    = "INVALID_CMS_PAGE_ID"
	CodeInvalidPrice        = "INVALID_PRICE"
	CodeInvalidStock        = "INVALID_STOCK"
	CodeInvalidTax          = "INVALID_TAX"
	CodeInvalidCategories   = "INVALID_CATEGORIES"
	CodeInvalidProperties   = "INVALID_PROPERTIES"
	CodeInvalidVisibility   = "INVALID_SALES_CHANNEL_VISIBILITY"
	CodeInvalidVariant      = "INVALID_VARIANT"
	CodeInvalidReleaseDate  = "INVALID_RELEASE_DATE"
	CodeInvalidDiscountType = "INVALID_DISCOUNT_TYPE"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
)

// Lookup codes, raised mid-processing once a host lookup fails.
const (
	CodeInvalidTaxValue           = "INVALID_TAX_VALUE"
	CodeInvalidCurrency           = "INVALID_CURRENCY"
	CodeInvalidSalesChannel       = "INVALID_SALES_CHANNEL"
	CodeMissingReverseAssociation = "MISSING_REVERSE_ASSOCIATION"
)

// Sentinels for errors.Is checks. Matching is by code.
var (
	ErrMissingSku          = &ErrValidation{Code: CodeMissingSku}
	ErrMissingPrice        = &ErrValidation{Code: CodeMissingPrice}
	ErrMissingTax          = &ErrValidation{Code: CodeMissingTax}
	ErrMissingStock        = &ErrValidation{Code: CodeMissingStock}
	ErrMultipleCoverImages = &ErrValidation{Code: CodeMultipleCoverImages}
	ErrDuplicateImageURL   = &ErrValidation{Code: CodeDuplicateImageURL}
	ErrInvalidTaxValue     = &ErrLookup{Code: CodeInvalidTaxValue}
	ErrInvalidCurrency     = &ErrLookup{Code: CodeInvalidCurrency}
	ErrInvalidSalesChannel = &ErrLookup{Code: CodeInvalidSalesChannel}
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when a request violates a field rule.
// Validation always runs before any write.
type ErrValidation struct {
	Code    string
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Code)
	}
	return "validation failed"
}

func (e *ErrValidation) Is(target error) bool {
	t, ok := target.(*ErrValidation)
	return ok && t.Code == e.Code
}

// NewValidation builds a validation error for field.
func NewValidation(code, field, format string, args ...interface{}) *ErrValidation {
	return &ErrValidation{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrLookup is returned when a value cannot be resolved against the platform.
type ErrLookup struct {
	Code  string
	Value string
}

func (e *ErrLookup) Error() string {
	switch e.Code {
	case CodeInvalidTaxValue:
		return fmt.Sprintf("invalid tax value: %s", e.Value)
	case CodeInvalidCurrency:
		return fmt.Sprintf("invalid currency code: %s", e.Value)
	case CodeInvalidSalesChannel:
		return fmt.Sprintf("invalid sales channel: %s", e.Value)
	case CodeMissingReverseAssociation:
		return fmt.Sprintf("missing reverse association: %s", e.Value)
	}
	return fmt.Sprintf("lookup failed (%s): %s", e.Code, e.Value)
}

func (e *ErrLookup) Is(target error) bool {
	t, ok := target.(*ErrLookup)
	return ok && t.Code == e.Code
}

// ErrProcessing wraps any failure raised while processing a stored payload.
type ErrProcessing struct {
	PayloadID string
	Err       error
}

func (e *ErrProcessing) Error() string {
	return fmt.Sprintf("processing payload %s failed: %v", e.PayloadID, e.Err)
}

func (e *ErrProcessing) Unwrap() error {
	return e.Err
}

// Code returns the machine readable code carried by err, if any.
func Code(err error) string {
	var v *ErrValidation
	if stderrors.As(err, &v) {
		return v.Code
	}
	var l *ErrLookup
	if stderrors.As(err, &l) {
		return l.Code
	}
	return ""
}
