package usecase

import (
	"time"

	"payrecon/internal/domain/model"
	"payrecon/internal/domain/money"
)

type OrderItemOutput struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type OrderOutput struct {
	ID                    string                `json:"id"`
	OrderNumber           string                `json:"order_number"`
	PaymentID             string                `json:"payment_id"`
	ExternalTransactionID string                `json:"external_transaction_id,omitempty"`
	UserID                string                `json:"user_id"`
	Status                string                `json:"status"`
	TotalAmount           string                `json:"total_amount"`
	TotalMinor            int64                 `json:"total_minor"`
	Currency              string                `json:"currency"`
	ShippingAddress       model.ShippingAddress `json:"shipping_address"`
	NeedsReview           bool                  `json:"needs_review"`
	CreatedAt             time.Time             `json:"created_at"`
	Items                 []OrderItemOutput     `json:"items"`
}

func toOrderOutput(o model.Order, externalID string, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.ProductName,
			Image:      it.ProductImage,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			TotalPrice: it.TotalPrice.StringFixed(2),
		})
	}

	return OrderOutput{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		PaymentID:             o.PaymentID,
		ExternalTransactionID: externalID,
		UserID:                o.UserID,
		Status:                string(o.Status),
		TotalAmount:           o.TotalAmount.StringFixed(2),
		TotalMinor:            money.ToMinor(o.TotalAmount, o.Currency),
		Currency:              o.Currency,
		ShippingAddress:       o.ShippingAddress,
		NeedsReview:           o.NeedsReview,
		CreatedAt:             o.CreatedAt,
		Items:                 outItems,
	}
}
