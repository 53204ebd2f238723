package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/wekeepgrowing/semo-enrollment/pkg/errors"
)

// CheckoutError represents a rejected checkout request
type CheckoutError struct {
	Type      string
	Message   string
	CourseID  string
	StudentID string
	Cause     error
}

func (e *CheckoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (student: %s, course: %s) - %v",
			e.Type, e.Message, e.StudentID, e.CourseID, e.Cause)
	}
	return fmt.Sprintf("%s: %s (student: %s, course: %s)",
		e.Type, e.Message, e.StudentID, e.CourseID)
}

func (e *CheckoutError) Unwrap() error {
	return e.Cause
}

// PublicMessage is the client-facing text without ids or cause.
func (e *CheckoutError) PublicMessage() string {
	return e.Message
}

var _ apperrors.Coded = (*CheckoutError)(nil)

// AppCode maps the checkout error type onto the shared error code table.
func (e *CheckoutError) AppCode() string {
	switch e.Type {
	case ErrTypeCourseNotFound:
		return apperrors.ErrNotFound
	case ErrTypeAlreadyEnrolled:
		return apperrors.ErrConflict
	case ErrTypePaymentTypeMismatch:
		return apperrors.ErrInvalidArgument
	case ErrTypePaymentTypeMissing, ErrTypePayoutNotOnboarded:
		return apperrors.ErrFailedPrecondition
	default:
		return apperrors.ErrInternal
	}
}

// Checkout error types
const (
	ErrTypeCourseNotFound      = "COURSE_NOT_FOUND"
	ErrTypePaymentTypeMissing  = "PAYMENT_TYPE_MISSING"
	ErrTypePaymentTypeMismatch = "PAYMENT_TYPE_MISMATCH"
	ErrTypeAlreadyEnrolled     = "ALREADY_ENROLLED"
	ErrTypePayoutNotOnboarded  = "PAYOUT_NOT_ONBOARDED"
)

func NewCourseNotFoundError(studentID, courseID string) *CheckoutError {
	return &CheckoutError{
		Type:      ErrTypeCourseNotFound,
		Message:   "course not found",
		StudentID: studentID,
		CourseID:  courseID,
	}
}

func NewPaymentTypeMissingError(studentID, courseID string) *CheckoutError {
	return &CheckoutError{
		Type:      ErrTypePaymentTypeMissing,
		Message:   "course does not declare a payment type",
		StudentID: studentID,
		CourseID:  courseID,
	}
}

func NewPaymentTypeMismatchError(studentID, courseID, want, got string) *CheckoutError {
	return &CheckoutError{
		Type:      ErrTypePaymentTypeMismatch,
		Message:   fmt.Sprintf("course is sold as %s, not %s", want, got),
		StudentID: studentID,
		CourseID:  courseID,
	}
}

func NewAlreadyEnrolledError(studentID, courseID, status string) *CheckoutError {
	return &CheckoutError{
		Type:      ErrTypeAlreadyEnrolled,
		Message:   fmt.Sprintf("student already enrolled (status %s)", status),
		StudentID: studentID,
		CourseID:  courseID,
	}
}

func NewPayoutNotOnboardedError(studentID, courseID string) *CheckoutError {
	return &CheckoutError{
		Type:      ErrTypePayoutNotOnboarded,
		Message:   "teacher has not completed payout onboarding",
		StudentID: studentID,
		CourseID:  courseID,
	}
}

// AsCheckoutError extracts a CheckoutError from the chain.
func AsCheckoutError(err error) (*CheckoutError, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

var (
	// ErrMissingCorrelation marks a provider object without platform metadata.
	// The webhook is acknowledged so the provider does not redeliver it.
	ErrMissingCorrelation = errors.New("provider object carries no correlation metadata")

	// ErrConcurrentUpdate is returned when a compare-and-swap loop exhausts its retries.
	ErrConcurrentUpdate = errors.New("enrollment changed concurrently, retries exhausted")
)
