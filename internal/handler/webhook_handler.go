package handler

import (
	"context"
	"io"
	"net/http"

	"payrecon/internal/gateway"
	"payrecon/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ゲートウェイ通知の最大サイズ
const maxWebhookBody = 1 << 20

type Dispatcher interface {
	Handle(ctx context.Context, payload []byte, signature string) (usecase.DispatchResult, error)
}

type WebhookHandler struct {
	uc Dispatcher
}

func NewWebhookHandler(uc Dispatcher) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

type WebhookAckResponse struct {
	Received    bool   `json:"received"`
	Outcome     string `json:"outcome"`
	OrderNumber string `json:"order_number,omitempty"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payment", h.receive)
}

func (h *WebhookHandler) receive(c echo.Context) error {
	//署名は生のバイト列に対して検証するので、Bindせずにそのまま読む
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if len(body) > maxWebhookBody {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "body too large"})
	}

	res, err := h.uc.Handle(c.Request().Context(), body, c.Request().Header.Get(gateway.SignatureHeader))
	if err != nil {
		return writeError(c, err)
	}

	ack := WebhookAckResponse{Received: true, Outcome: string(res.Outcome)}
	if res.Order != nil {
		ack.OrderNumber = res.Order.OrderNumber
	}
	return c.JSON(http.StatusOK, ack)
}
