package stripe

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies the provider treats as having no minor unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

func isZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]
	return ok
}

// toMinorUnits converts a decimal amount into the provider's integer
// representation for the given currency.
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	if isZeroDecimal(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// fromMinorUnits converts the provider's integer amount back into a decimal.
func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	d := decimal.NewFromInt(amount)
	if isZeroDecimal(currency) {
		return d
	}
	return d.Div(decimal.NewFromInt(100))
}
