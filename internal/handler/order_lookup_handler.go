package handler

import (
	"context"
	"net/http"
	"strconv"

	"payrecon/internal/middleware"
	"payrecon/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderLookup interface {
	OrderByTransactionID(ctx context.Context, externalID string) (usecase.OrderOutput, error)
	ListNeedingReview(ctx context.Context, limit int) ([]usecase.ReviewOutput, error)
}

// オペレーター向けの参照API
type OrderLookupHandler struct {
	uc OrderLookup
}

func NewOrderLookupHandler(uc OrderLookup) *OrderLookupHandler {
	return &OrderLookupHandler{uc: uc}
}

type ReviewListResponse struct {
	Items []usecase.ReviewOutput `json:"items"`
}

func (h *OrderLookupHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator))

	admin.GET("/payments/:transactionId/order", h.byTransaction)
	admin.GET("/orders/review", h.review)
}

func (h *OrderLookupHandler) byTransaction(c echo.Context) error {
	out, err := h.uc.OrderByTransactionID(c.Request().Context(), c.Param("transactionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderLookupHandler) review(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	items, err := h.uc.ListNeedingReview(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ReviewListResponse{Items: items})
}
