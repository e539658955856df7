package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const SignatureHeader = "Stripe-Signature"

type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: strings.TrimSpace(secret), tolerance: webhook.DefaultTolerance}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (Event, error) {
	if v.secret == "" {
		return Event{}, fmt.Errorf("%w: webhook secret is not configured", ErrAuthentication)
	}
	if strings.TrimSpace(signature) == "" {
		return Event{}, fmt.Errorf("%w: missing signature header", ErrAuthentication)
	}

	//署名検証はSDKに任せる（payloadは再エンコードしない）
	se, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	return toEvent(se)
}

func toEvent(se stripe.Event) (Event, error) {
	ev := Event{
		ID:   se.ID,
		Type: string(se.Type),
	}
	if !strings.HasPrefix(ev.Type, "payment_intent.") || se.Data == nil {
		return ev, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(se.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("%w: decode payment intent of event %s: %v", ErrMalformedEvent, se.ID, err)
	}

	ev.TransactionID = pi.ID
	ev.Amount = pi.Amount
	ev.Currency = string(pi.Currency)
	ev.Metadata = pi.Metadata
	ev.Description = pi.Description
	ev.CustomerEmail = pi.ReceiptEmail
	return ev, nil
}
