package metadata

import (
	"bytes"
	"encoding/json"
	"strings"

	"payrecon/internal/domain/model"
)

type AddressForm string

const (
	AddressFull        AddressForm = "full"
	AddressNameOnly    AddressForm = "name_only"
	AddressMarker      AddressForm = "marker"
	AddressUnparseable AddressForm = "unparseable"
)

// 住所プレースホルダに入れる文言
const addressPlaceholder = "Adres bilgisi eksik - düzeltilmeli"

// 数値の郵便番号などJSの型ゆれを受け付けるため、各項目は緩く読む
type wireAddress struct {
	FirstName  looseText `json:"firstName"`
	LastName   looseText `json:"lastName"`
	Email      looseText `json:"email"`
	Phone      looseText `json:"phone"`
	Address    looseText `json:"address"`
	City       looseText `json:"city"`
	Postcode   looseText `json:"postcode"`
	PostalCode looseText `json:"postalCode"`
	ZipCode    looseText `json:"zipCode"`
	Country    looseText `json:"country"`

	Name looseText `json:"name"`

	Exists     looseBool `json:"exists"`
	HasAddress looseBool `json:"hasAddress"`
}

func (w wireAddress) postcode() string {
	for _, v := range []looseText{w.Postcode, w.PostalCode, w.ZipCode} {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

func (w wireAddress) isFull() bool {
	for _, v := range []string{string(w.FirstName), string(w.LastName), string(w.Address), string(w.City), w.postcode()} {
		if v != "" {
			return true
		}
	}
	return false
}

// ParseShipping は住所metadataを読む。エラーは返さず、読めなければ修正フラグ付きのプレースホルダ。
func ParseShipping(raw string) (model.ShippingAddress, AddressForm) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return placeholderAddress(), AddressUnparseable
	}

	var w wireAddress
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return placeholderAddress(), AddressUnparseable
	}

	switch {
	case w.isFull():
		return model.ShippingAddress{
			FirstName: string(w.FirstName),
			LastName:  string(w.LastName),
			Email:     string(w.Email),
			Phone:     string(w.Phone),
			Address:   string(w.Address),
			City:      string(w.City),
			Postcode:  w.postcode(),
			Country:   string(w.Country),
		}, AddressFull
	case w.Name != "":
		first, last := splitName(string(w.Name))
		return model.ShippingAddress{
			FirstName: first,
			LastName:  last,
			Email:     string(w.Email),
			Phone:     string(w.Phone),
		}, AddressNameOnly
	case bool(w.Exists || w.HasAddress):
		return placeholderAddress(), AddressMarker
	default:
		return placeholderAddress(), AddressUnparseable
	}
}

// clipAddress は各項目をカラム長に収める。切り詰めたら true。
func clipAddress(a model.ShippingAddress) (model.ShippingAddress, bool) {
	clipped := false
	for _, f := range []struct {
		v *string
		n int
	}{
		{&a.FirstName, maxNameLen},
		{&a.LastName, maxNameLen},
		{&a.Email, maxNameLen},
		{&a.Phone, maxPhoneLen},
		{&a.City, maxNameLen},
		{&a.Postcode, maxPostcodeLen},
		{&a.Country, maxCountryLen},
	} {
		var c bool
		*f.v, c = clip(*f.v, f.n)
		clipped = clipped || c
	}
	return a, clipped
}

// 最初の空白で姓名を分ける（"Ayşe Nur Yılmaz" -> "Ayşe", "Nur Yılmaz"）
func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}

func placeholderAddress() model.ShippingAddress {
	return model.ShippingAddress{
		Address:         addressPlaceholder,
		NeedsCorrection: true,
	}
}

// 文字列/数値はそのまま文字列に、それ以外（null, object, array, bool）は空にする
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		*t = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = looseText(strings.TrimSpace(v))
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*t = looseText(b)
	default:
		*t = ""
	}
	return nil
}

// true / "true" / 1 を真とみなす
type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	*v = looseBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}
