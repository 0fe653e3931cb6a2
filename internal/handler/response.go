package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/repository/storage"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	ErrorTypeValidation   = "https://margem.app/errors/validation"
	ErrorTypeNotFound     = "https://margem.app/errors/not-found"
	ErrorTypeUnauthorized = "https://margem.app/errors/unauthorized"
	ErrorTypeConflict     = "https://margem.app/errors/conflict"
	ErrorTypeLocked       = "https://margem.app/errors/period-locked"
	ErrorTypeUnavailable  = "https://margem.app/errors/service-unavailable"
	ErrorTypeInternal     = "https://margem.app/errors/internal"
)

func problem(c echo.Context, status int, typ, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errs []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errs)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewLockedError reports a write into a locked (contract, renewal year)
func NewLockedError(c echo.Context, detail string) error {
	return problem(c, http.StatusLocked, ErrorTypeLocked, "Period Locked", detail, nil)
}

// NewServiceUnavailableError reports a feature whose backing service is not configured
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

var notFoundErrors = []error{
	domain.ErrContractNotFound,
	domain.ErrAdjustmentNotFound,
	domain.ErrAddonNotFound,
	domain.ErrCostPlanNotFound,
	domain.ErrCompanyCostNotFound,
	domain.ErrBankSlipCostNotFound,
	domain.ErrWorkspaceNotFound,
	domain.ErrNotFound,
	storage.ErrObjectNotFound,
}

// fieldErrors maps validation failures to the request field they concern
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrNameRequired, "name"},
	{domain.ErrNameTooLong, "name"},
	{domain.ErrContractorNameRequired, "contractorName"},
	{domain.ErrContractorNameTooLong, "contractorName"},
	{domain.ErrInvalidPlanType, "planType"},
	{domain.ErrInvalidContractStatus, "status"},
	{domain.ErrContractValueInvalid, "baseValue"},
	{domain.ErrTrialDaysInvalid, "trialDays"},
	{domain.ErrStartDateRequired, "startDate"},
	{domain.ErrContractCountsInvalid, "employeeCount"},
	{domain.ErrRenewalBeforeStart, "renewalDate"},
	{domain.ErrInvalidAdjustmentKind, "kind"},
	{domain.ErrInvalidMagnitude, "magnitude"},
	{domain.ErrNegativeAdjustedValue, "magnitude"},
	{domain.ErrEffectiveDateRequired, "effectiveDate"},
	{domain.ErrAdjustmentNotesTooLong, "notes"},
	{domain.ErrUnlockReasonRequired, "reason"},
	{domain.ErrInvalidRenewalYear, "year"},
	{domain.ErrInvalidAddonType, "type"},
	{domain.ErrAddonNewValueRequired, "newValue"},
	{domain.ErrAddonRequesterRequired, "requestedBy"},
	{domain.ErrAddonDescriptionTooLong, "description"},
	{domain.ErrRequestDateRequired, "requestDate"},
	{domain.ErrCostPlanLimitsInvalid, "maxEmployees"},
	{domain.ErrCostPlanCostInvalid, "baseLicenseCost"},
	{domain.ErrCostPlanExemptionInvalid, "exemptionPeriodMonths"},
	{domain.ErrCostPlanDiscountInvalid, "earlyPaymentDiscountPercentage"},
	{domain.ErrCompanyCostAmountInvalid, "monthlyAmount"},
	{domain.ErrCategoryTooLong, "category"},
	{domain.ErrBankSlipCostInvalid, "monthlyCost"},
	{domain.ErrBankSlipStartMonthInvalid, "billingStartMonth"},
	{domain.ErrInvalidTaxRate, "taxRatePercent"},
	{domain.ErrInvalidViewMode, "viewMode"},
	{domain.ErrInvalidTrendRange, "to"},
	{domain.ErrTrendRangeTooLong, "to"},
	{service.ErrLogoTooLarge, "file"},
	{service.ErrLogoInvalidFormat, "file"},
	{service.ErrLogoTooSmall, "file"},
	{service.ErrLogoInvalidData, "file"},
}

// respondError maps a service error to its problem response. Unknown errors are logged with action
// and returned as 500.
func respondError(c echo.Context, err error, action string) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return NewNotFoundError(c, capitalize(target.Error()))
		}
	}
	if errors.Is(err, domain.ErrPeriodLocked) {
		return NewLockedError(c, capitalize(domain.ErrPeriodLocked.Error()))
	}
	if errors.Is(err, storage.ErrStorageNotConfigured) || errors.Is(err, service.ErrLogoStoreNotEnabled) {
		return NewServiceUnavailableError(c, "Object storage is not configured")
	}
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: capitalize(fe.err.Error())},
			})
		}
	}
	if errors.Is(err, domain.ErrUnparseableDate) ||
		errors.Is(err, domain.ErrUnparseableCurrency) ||
		errors.Is(err, domain.ErrInvalidInput) {
		return NewValidationError(c, capitalize(err.Error()), nil)
	}

	log.Error().Err(err).Int32("workspace_id", middleware.GetWorkspaceID(c)).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

func parseIDParam(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}
