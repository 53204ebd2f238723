package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-enrollment/internal/usecase"
)

type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CheckoutRequest struct {
	CourseID    string `json:"courseId" validate:"required,max=64"`
	PaymentType string `json:"paymentType,omitempty" validate:"omitempty,oneof=FREE ONETIME SUBSCRIPTION"`
}

// CreateCheckoutSession handles POST /api/v1/checkout
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err // RequireAuth already wrote the 401 response
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	result, err := h.checkout.CreateSession(c.Request().Context(), usecase.CheckoutInput{
		CourseID:    req.CourseID,
		StudentID:   user.StudentID,
		PaymentType: model.PaymentType(req.PaymentType),
	})
	if err != nil {
		h.logger.Info("Checkout rejected",
			zap.String("student_id", user.StudentID),
			zap.String("course_id", req.CourseID),
			zap.Error(err))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}
