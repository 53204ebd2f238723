package http

import (
	"github.com/labstack/echo/v4"

	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	apperrors "github.com/wekeepgrowing/semo-enrollment/pkg/errors"
)

// toHTTPError keeps the domain error type as the response code. Other errors
// fall through to the server's error handler.
func toHTTPError(err error) error {
	if ce, ok := domainErrors.AsCheckoutError(err); ok {
		return echo.NewHTTPError(apperrors.ToHTTPStatus(ce.AppCode()), echo.Map{
			"error": ce.Message,
			"code":  ce.Type,
		})
	}
	return err
}

func badRequest(message string) error {
	return apperrors.NewAppError(apperrors.ErrInvalidArgument, message, nil)
}
