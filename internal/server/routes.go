package server

import (
	"net/http"

	"payrecon/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Webhook *handler.WebhookHandler
	Lookup  *handler.OrderLookupHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h.Webhook.RegisterRoutes(e)
	h.Lookup.RegisterRoutes(e, jwtSecret)
}
