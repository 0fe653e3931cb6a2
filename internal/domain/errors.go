package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
	ErrInvalidViewMode   = errors.New("view mode must be monthly_average or actual_billing")
	ErrInvalidTaxRate    = errors.New("tax rate must be between 0 and 100")

	// ErrUnparseableDate is returned when a textual date matches neither YYYY-MM-DD nor DD/MM/YYYY
	ErrUnparseableDate = errors.New("unparseable date")
	// ErrUnparseableCurrency is returned when a textual amount cannot be normalized to a decimal
	ErrUnparseableCurrency = errors.New("unparseable currency value")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)
