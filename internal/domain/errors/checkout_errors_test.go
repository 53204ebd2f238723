package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wekeepgrowing/semo-enrollment/pkg/errors"
)

func TestCheckoutError_AppCode(t *testing.T) {
	tests := []struct {
		err        *CheckoutError
		wantCode   string
		wantStatus int
	}{
		{NewCourseNotFoundError("s", "c"), apperrors.ErrNotFound, 404},
		{NewPaymentTypeMissingError("s", "c"), apperrors.ErrFailedPrecondition, 422},
		{NewPaymentTypeMismatchError("s", "c", "ONETIME", "SUBSCRIPTION"), apperrors.ErrInvalidArgument, 400},
		{NewAlreadyEnrolledError("s", "c", "ACTIVE"), apperrors.ErrConflict, 409},
		{NewPayoutNotOnboardedError("s", "c"), apperrors.ErrFailedPrecondition, 422},
	}

	for _, tt := range tests {
		t.Run(tt.err.Type, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.AppCode())
			assert.Equal(t, tt.wantStatus, apperrors.ToHTTPStatus(tt.err.AppCode()))
		})
	}
}

func TestAsCheckoutError(t *testing.T) {
	wrapped := fmt.Errorf("create session: %w", NewAlreadyEnrolledError("s", "c", "TRIAL"))

	ce, ok := AsCheckoutError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrTypeAlreadyEnrolled, ce.Type)
	assert.Contains(t, ce.Error(), "status TRIAL")

	_, ok = AsCheckoutError(ErrConcurrentUpdate)
	assert.False(t, ok)
}
