package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-enrollment/internal/usecase"
)

type PurchaseHandler struct {
	purchases *usecase.PurchaseService
	logger    *zap.Logger
}

func NewPurchaseHandler(purchases *usecase.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, logger: logger}
}

// ListPurchases handles GET /api/v1/purchases?page=&limit=
func (h *PurchaseHandler) ListPurchases(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	var params entity.PaginationParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &params); err != nil {
		return badRequest("page and limit must be integers")
	}

	res, err := h.purchases.ListStudentPurchases(c.Request().Context(), user.StudentID, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, res)
}
