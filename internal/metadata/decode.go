// Package metadata は決済イベントのmetadataをカート明細と配送先に正規化する。
//
// ゲートウェイ側ではすでに入金済みなので、どんな入力でも失敗させない。
// 復元できなかった部分はプレースホルダで埋め、Degraded と Notes に記録する。
package metadata

import (
	"fmt"
	"strings"

	"payrecon/internal/domain/model"

	"github.com/shopspring/decimal"
)

const (
	KeyCartItems       = "cartItems"
	KeyShippingAddress = "shippingAddress"
	KeyUserID          = "userId"
)

type Result struct {
	UserID string

	Cart  CartPayload
	Lines []CartLine

	Shipping    model.ShippingAddress
	AddressForm AddressForm

	CartDegraded    bool
	AddressDegraded bool
	Notes           []string
}

func (r Result) Degraded() bool {
	return r.CartDegraded || r.AddressDegraded
}

// Decode はmetadata全体を正規化する。total は決済金額（主通貨単位）。
func Decode(md map[string]string, total decimal.Decimal) Result {
	res := Result{UserID: UserID(md)}

	res.Cart = ParseCart(md[KeyCartItems])
	lines, clamped := Lines(res.Cart, total)
	res.Lines = lines

	switch c := res.Cart.(type) {
	case IDOnlyCartItems:
		res.CartDegraded = true
		res.Notes = append(res.Notes, fmt.Sprintf("cart items arrived as %d bare ids, prices unknown", len(c.IDs)))
	case CountOnlySummary:
		res.CartDegraded = true
		res.Notes = append(res.Notes, fmt.Sprintf("cart arrived as a summary of %d items, single placeholder line created", c.Count))
	case Unparseable:
		res.CartDegraded = true
		res.Notes = append(res.Notes, "cart metadata could not be parsed: "+c.Reason)
	}
	if clamped {
		res.CartDegraded = true
		res.Notes = append(res.Notes, "cart lines were clamped to storable values")
	}

	res.Shipping, res.AddressForm = ParseShipping(md[KeyShippingAddress])
	var clipped bool
	if res.Shipping, clipped = clipAddress(res.Shipping); clipped {
		res.AddressDegraded = true
		res.Notes = append(res.Notes, "shipping address fields were truncated to column length")
	}
	switch res.AddressForm {
	case AddressNameOnly:
		res.AddressDegraded = true
		res.Notes = append(res.Notes, "shipping address arrived with a name only")
	case AddressMarker:
		res.AddressDegraded = true
		res.Notes = append(res.Notes, "shipping address was only marked as present")
	case AddressUnparseable:
		res.AddressDegraded = true
		res.Notes = append(res.Notes, "shipping address could not be parsed")
	}

	return res
}

// FallbackEmail は住所にメールが無いときだけ入れる（ゲートウェイの領収書メールなど）。
func (r *Result) FallbackEmail(email string) {
	email = strings.TrimSpace(email)
	if r.Shipping.Email != "" || email == "" {
		return
	}
	r.Shipping.Email, _ = clip(email, maxNameLen)
}

// UserID は注文の持ち主。ゲスト購入なら空。
func UserID(md map[string]string) string {
	for _, k := range []string{KeyUserID, "user_id"} {
		if v := strings.TrimSpace(md[k]); v != "" {
			v, _ = clip(v, maxIDLen)
			return v
		}
	}
	return ""
}
