// Package money は決済ゲートウェイの最小通貨単位と主通貨単位の変換を扱う。
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 小数を持たない通貨（ゲートウェイは主通貨単位で金額を送ってくる）
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToLower(strings.TrimSpace(currency))]
	return ok
}

// FromMinor は最小通貨単位（29900）を主通貨単位（299.00）に変換する。
func FromMinor(amount int64, currency string) decimal.Decimal {
	if IsZeroDecimal(currency) {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// ToMinor は FromMinor の逆変換。端数は四捨五入する。
func ToMinor(amount decimal.Decimal, currency string) int64 {
	if IsZeroDecimal(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
