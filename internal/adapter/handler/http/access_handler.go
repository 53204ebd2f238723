package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/enrollment"
	"github.com/wekeepgrowing/semo-enrollment/internal/middleware/auth"
	apperrors "github.com/wekeepgrowing/semo-enrollment/pkg/errors"
)

// AccessChecker decides course access for a student
type AccessChecker interface {
	Check(ctx context.Context, studentID, courseID string) (enrollment.Access, error)
}

type AccessHandler struct {
	gate   AccessChecker
	logger *zap.Logger
}

func NewAccessHandler(gate AccessChecker, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{gate: gate, logger: logger}
}

// CheckAccess handles GET /api/v1/courses/:courseId/access
func (h *AccessHandler) CheckAccess(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	courseID := c.Param("courseId")
	if courseID == "" {
		return badRequest("courseId is required")
	}

	access, err := h.gate.Check(c.Request().Context(), user.StudentID, courseID)
	if err != nil {
		apperrors.LogError(h.logger, err, "Access check failed",
			zap.String("student_id", user.StudentID),
			zap.String("course_id", courseID))
		return err
	}

	return c.JSON(http.StatusOK, access)
}
