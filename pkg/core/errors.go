package core

import (
	"errors"
	"fmt"
)

// Store errors, reported by Store implementations.
var (
	// ErrCatalogNotFound indicates the catalog document does not exist.
	ErrCatalogNotFound = errors.New("catalog document not found")

	// ErrCatalogMalformed indicates the document is not JSON or has no products array.
	ErrCatalogMalformed = errors.New("catalog document is malformed")

	// ErrStoreAuth indicates the store rejected the deployment's own credential.
	ErrStoreAuth = errors.New("store credential rejected")

	// ErrVersionConflict indicates the document changed since it was fetched.
	ErrVersionConflict = errors.New("catalog version conflict")

	// ErrTransientIO covers every other store failure.
	ErrTransientIO = errors.New("store i/o failure")

	// ErrReadOnly is returned by stores opened without write access.
	ErrReadOnly = errors.New("store is in read-only mode")
)

// Protocol errors, reported by Service.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrDuplicateID         = errors.New("product id already exists")
	ErrProductNotFound     = errors.New("product not found")
	ErrConflict            = errors.New("catalog was modified concurrently, reload and retry")
	ErrServerMisconfigured = errors.New("server misconfigured")
	ErrStoreUnavailable    = errors.New("catalog store unavailable")
)

// ErrInvalidPayload indicates a request body that is not a JSON object.
var ErrInvalidPayload = errors.New("invalid JSON payload")

// Validation kinds. Every ValidationError wraps ErrValidation and one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidID          = errors.New("product id is required and must be a non-empty string")
	ErrInvalidName        = errors.New("product name is required and must be at least 3 characters")
	ErrInvalidPrice       = errors.New("price must be in format: 18.00")
	ErrInvalidDescription = errors.New("description is required and must be at least 10 characters")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidImages      = errors.New("at least one image is required and all image URLs must be non-empty strings")
	ErrInvalidFeatured    = errors.New("featured must be a boolean")
	ErrInvalidSpecs       = errors.New("specs must be an object of strings")
	ErrInvalidRelated     = errors.New("relatedProducts must be a list of product ids")
)

// ValidationError reports the first payload field that failed validation.
type ValidationError struct {
	Field  string
	Kind   error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
	}
	return e.Kind.Error()
}

// Unwrap exposes both ErrValidation and the specific kind to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Kind}
}

func invalid(field string, kind error, detail string) error {
	return &ValidationError{Field: field, Kind: kind, Detail: detail}
}

// mapStoreError translates a store failure into the caller-facing outcome.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrVersionConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, ErrStoreAuth):
		return fmt.Errorf("%w: %w", ErrServerMisconfigured, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
