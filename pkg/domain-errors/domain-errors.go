package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"

	// Time-range construction and arithmetic.
	CodeInvalidTimeRange Code = "invalid_time_range"
	CodeNoIntersection   Code = "no_intersection"

	// Work lifecycle.
	CodeActiveWorkPeriodExists Code = "active_work_period_exists"
	CodeNoActiveWorkPeriod     Code = "no_active_work_period"
	CodeWorkPeriodNotFound     Code = "work_period_not_found"
	CodeWorkPeriodUnauthorized Code = "work_period_unauthorized"
	CodeWorkPeriodClosed       Code = "work_period_already_closed"
	CodeWorkNotClosed          Code = "work_not_closed"
	CodeWorkPeriodNotClosed    Code = "work_period_not_closed"

	// Temporal invariants.
	CodeShiftTooLong             Code = "shift_too_long"
	CodeWorkOverlapsLeave        Code = "work_overlaps_leave"
	CodeLeaveOverlapsWork        Code = "leave_overlaps_work"
	CodeWorkOverlapsWork         Code = "work_overlaps_work"
	CodeWorkOverlapsExistingWork Code = "work_overlaps_existing_work"

	// Corrections.
	CodeInvalidCorrectionsProvided Code = "invalid_corrections_provided"

	// Leave lifecycle.
	CodeLeaveNotFound Code = "leave_not_found"

	// Shift transfers.
	CodeInvalidShiftTransfer Code = "invalid_shift_transfer"

	// Analytics queries.
	CodeInvalidDateRange  Code = "invalid_date_range"
	CodeDateRangeTooLarge Code = "date_range_too_large"

	// Authentication.
	CodeInvalidGoogleToken Code = "invalid_google_token"
	CodeEmailNotVerified   Code = "email_not_verified"
	CodeDriverNotFound     Code = "driver_not_found"
)

// Error wraps domain or infrastructure failures with a stable code and
// structured context. It is transport-agnostic and shared across service,
// store, and policy layers. Details carry the offending ranges and ids so
// callers can render a precise message without parsing strings.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewWithDetails creates a new domain error carrying structured context.
func NewWithDetails(code Code, msg string, details map[string]any) error {
	return &Error{Code: code, Message: msg, Details: details}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code and
// details are preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Details: existing.Details, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// DetailsOf returns the structured details of a domain error, or nil.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
