package metadata

import "unicode/utf8"

// 保存先カラムの長さ（varchar は文字数で数える）
const (
	maxIDLen       = 255
	maxNameLen     = 255
	maxPhoneLen    = 30
	maxPostcodeLen = 20
	maxCountryLen  = 100
)

// clip は n 文字を超える部分を切る。切ったかどうかも返す。
func clip(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	return string([]rune(s)[:n]), true
}
