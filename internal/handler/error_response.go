package handler

import (
	"errors"
	"net/http"

	"payrecon/internal/gateway"
	"payrecon/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	switch {
	//署名/形式不正は再送しても同じなので400
	case errors.Is(err, gateway.ErrAuthentication):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	case errors.Is(err, gateway.ErrMalformedEvent), errors.Is(err, usecase.ErrInvalidEvent):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid event"})
	}

	//500（ゲートウェイが再送する）
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
