package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"math"
	"strings"

	"payrecon/internal/domain/model"

	"github.com/shopspring/decimal"
)

// プレースホルダ明細の商品ID。オペレーターはこれで検索して修正する。
const (
	SummaryProductID      = "__summary_placeholder__"
	ParseFailureProductID = "__parse_failure__"
)

// CartPayload はカートmetadataの形ごとのタグ付きユニオン。
// FullCartItems | AbbreviatedCartItems | IDOnlyCartItems | CountOnlySummary | Unparseable
type CartPayload interface {
	Kind() string
	isCartPayload()
}

type FullCartItem struct {
	ID       string
	Name     string
	Quantity int64
	Price    decimal.Decimal
	ImageURL string
}

type FullCartItems struct {
	Items []FullCartItem
}

// qty / p の短縮キー版
type AbbreviatedCartItem struct {
	ID    string
	Qty   int64
	P     decimal.Decimal
	Name  string
	Image string
}

type AbbreviatedCartItems struct {
	Items []AbbreviatedCartItem
}

type IDOnlyCartItems struct {
	IDs []string
}

type CountOnlySummary struct {
	Count int64
}

type Unparseable struct {
	Reason string
}

func (FullCartItems) Kind() string        { return "full" }
func (AbbreviatedCartItems) Kind() string { return "abbreviated" }
func (IDOnlyCartItems) Kind() string      { return "id_only" }
func (CountOnlySummary) Kind() string     { return "count_only" }
func (Unparseable) Kind() string          { return "unparseable" }

func (FullCartItems) isCartPayload()        {}
func (AbbreviatedCartItems) isCartPayload() {}
func (IDOnlyCartItems) isCartPayload()      {}
func (CountOnlySummary) isCartPayload()     {}
func (Unparseable) isCartPayload()          {}

// CartLine は注文明細にする直前の正規化済み1行。
type CartLine struct {
	ProductID   string
	Name        string
	ImageURL    string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Placeholder bool
}

// ParseCart は順番に形を試す。エラーは返さず、読めなければ Unparseable。
func ParseCart(raw string) CartPayload {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unparseable{Reason: "cart metadata is empty"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err == nil {
		if len(elems) == 0 {
			return Unparseable{Reason: "cart metadata is an empty array"}
		}
		if full, ok := parseFull(elems); ok {
			return full
		}
		if abbr, ok := parseAbbreviated(elems); ok {
			return abbr
		}
		if ids, ok := parseIDs(elems); ok {
			return ids
		}
		return Unparseable{Reason: "cart items have an unknown shape"}
	}

	var summary struct {
		Count     *flexInt `json:"count"`
		ItemCount *flexInt `json:"itemCount"`
	}
	if err := json.Unmarshal([]byte(raw), &summary); err == nil {
		switch {
		case summary.Count != nil:
			return CountOnlySummary{Count: int64(*summary.Count)}
		case summary.ItemCount != nil:
			return CountOnlySummary{Count: int64(*summary.ItemCount)}
		}
	}

	return Unparseable{Reason: "cart metadata has an unknown shape"}
}

// Lines はバリアントを明細行に展開する。total はプレースホルダ行に載せる決済金額。
// clamped は数量/単価の補正や長すぎる文字列の切り詰めがあったかどうか。
func Lines(p CartPayload, total decimal.Decimal) (lines []CartLine, clamped bool) {
	switch v := p.(type) {
	case FullCartItems:
		lines = make([]CartLine, 0, len(v.Items))
		for _, it := range v.Items {
			line, c := normalizeLine(it.ID, it.Name, it.ImageURL, it.Quantity, it.Price)
			lines = append(lines, line)
			clamped = clamped || c
		}
		return lines, clamped
	case AbbreviatedCartItems:
		lines = make([]CartLine, 0, len(v.Items))
		for _, it := range v.Items {
			line, c := normalizeLine(it.ID, it.Name, it.Image, it.Qty, it.P)
			lines = append(lines, line)
			clamped = clamped || c
		}
		return lines, clamped
	case IDOnlyCartItems:
		lines = make([]CartLine, 0, len(v.IDs))
		for _, id := range v.IDs {
			id, c := clip(id, maxIDLen)
			lines = append(lines, CartLine{
				ProductID: id,
				Name:      idOnlyName(id),
				Quantity:  1,
				UnitPrice: decimal.Zero,
			})
			clamped = clamped || c
		}
		return lines, clamped
	case CountOnlySummary:
		return []CartLine{{
			ProductID:   SummaryProductID,
			Name:        fmt.Sprintf("Sepet özeti (%d ürün)", v.Count),
			Quantity:    1,
			UnitPrice:   total,
			Placeholder: true,
		}}, false
	default:
		return []CartLine{parseFailureLine(total)}, false
	}
}

func parseFailureLine(total decimal.Decimal) CartLine {
	return CartLine{
		ProductID:   ParseFailureProductID,
		Name:        "Ürün bilgisi okunamadı",
		Quantity:    1,
		UnitPrice:   total,
		Placeholder: true,
	}
}

func idOnlyName(id string) string {
	name, _ := clip("Ürün ID: "+id, maxNameLen)
	return name
}

// normalizeLine は保存できる値に補正する。補正したら clamped=true。
func normalizeLine(id, name, image string, qty int64, price decimal.Decimal) (CartLine, bool) {
	clamped := false
	if qty <= 0 {
		qty = 1
		clamped = true
	}
	if rounded := price.Round(2); !rounded.Equal(price) {
		price = rounded
		clamped = true
	}
	if price.IsNegative() || price.GreaterThan(model.MaxAmount) {
		price = decimal.Zero
		clamped = true
	}
	//行合計が numeric(14,2) を超えるなら数量を1に
	if price.Mul(decimal.NewFromInt(qty)).GreaterThan(model.MaxAmount) {
		qty = 1
		clamped = true
	}

	id, idClipped := clip(id, maxIDLen)
	if strings.TrimSpace(name) == "" {
		name = idOnlyName(id)
	}
	name, nameClipped := clip(name, maxNameLen)

	return CartLine{
		ProductID: id,
		Name:      name,
		ImageURL:  image,
		Quantity:  qty,
		UnitPrice: price,
	}, clamped || idClipped || nameClipped
}

// 1要素の全キー。どの形かはキーの有無で判定する。
type wireCartItem struct {
	ID       flexString       `json:"id"`
	Name     string           `json:"name"`
	Quantity *flexInt         `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"imageUrl"`

	Qty   *flexInt         `json:"qty"`
	P     *decimal.Decimal `json:"p"`
	N     string           `json:"n"`
	Image string           `json:"img"`
}

func decodeObjects(elems []json.RawMessage) ([]wireCartItem, bool) {
	out := make([]wireCartItem, 0, len(elems))
	for _, e := range elems {
		if !isObject(e) {
			return nil, false
		}
		var w wireCartItem
		if err := json.Unmarshal(e, &w); err != nil {
			return nil, false
		}
		if w.ID == "" {
			return nil, false
		}
		out = append(out, w)
	}
	return out, true
}

func parseFull(elems []json.RawMessage) (FullCartItems, bool) {
	ws, ok := decodeObjects(elems)
	if !ok {
		return FullCartItems{}, false
	}
	items := make([]FullCartItem, 0, len(ws))
	for _, w := range ws {
		if w.Quantity == nil || w.Price == nil {
			return FullCartItems{}, false
		}
		items = append(items, FullCartItem{
			ID:       string(w.ID),
			Name:     w.Name,
			Quantity: int64(*w.Quantity),
			Price:    *w.Price,
			ImageURL: w.ImageURL,
		})
	}
	return FullCartItems{Items: items}, true
}

func parseAbbreviated(elems []json.RawMessage) (AbbreviatedCartItems, bool) {
	ws, ok := decodeObjects(elems)
	if !ok {
		return AbbreviatedCartItems{}, false
	}
	items := make([]AbbreviatedCartItem, 0, len(ws))
	for _, w := range ws {
		if w.Qty == nil || w.P == nil {
			return AbbreviatedCartItems{}, false
		}
		name := w.N
		if name == "" {
			name = w.Name
		}
		items = append(items, AbbreviatedCartItem{
			ID:    string(w.ID),
			Qty:   int64(*w.Qty),
			P:     *w.P,
			Name:  name,
			Image: w.Image,
		})
	}
	return AbbreviatedCartItems{Items: items}, true
}

func parseIDs(elems []json.RawMessage) (IDOnlyCartItems, bool) {
	ids := make([]string, 0, len(elems))
	for _, e := range elems {
		if isObject(e) {
			return IDOnlyCartItems{}, false
		}
		var id flexString
		if err := json.Unmarshal(e, &id); err != nil || id == "" {
			return IDOnlyCartItems{}, false
		}
		ids = append(ids, string(id))
	}
	return IDOnlyCartItems{IDs: ids}, true
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// 文字列でも数値でも受け付けるID
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// 数値でも "2" のような文字列でも受け付ける数量。
// 小数や int64 に入らない値は 0 にして、後段の補正（1 に直して要確認）に回す。
type flexInt int64

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func (i *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(v))
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", strconv.Quote(string(b)), err)
	}
	if !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		*i = 0
		return nil
	}
	*i = flexInt(d.IntPart())
	return nil
}
