package utils

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "A$",
	"CAD": "CA$",
	"SGD": "S$",
	"AED": "AED ",
}

// Indian grouping (1,00,000) for rupees; everything else uses English grouping.
var currencyLocales = map[string]language.Tag{
	"INR": language.MustParse("en-IN"),
}

// FormatMinorUnits renders an amount given in the currency's smallest unit,
// e.g. FormatMinorUnits(299900, "inr") == "₹2,999.00".
func FormatMinorUnits(amount int64, currencyCode string) string {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))

	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}

	tag, ok := currencyLocales[code]
	if !ok {
		tag = language.English
	}

	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}

	major := decimal.New(amount, -int32(scale))
	sign := ""
	if major.IsNegative() {
		sign = "-"
		major = major.Abs()
	}

	// Group the integer part through the locale and keep the fraction exact;
	// amounts past 2^53 do not survive a float64 round trip.
	p := message.NewPrinter(tag)
	out := sign + symbol + p.Sprint(number.Decimal(major.IntPart()))
	if scale > 0 {
		fixed := major.StringFixed(int32(scale))
		out += fixed[strings.IndexByte(fixed, '.'):]
	}
	return out
}
