package figures

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders whole dollars with thousands separators, e.g. -$1,234.
func FormatUSD(amount int64) string {
	if amount < 0 {
		// -amount overflows for MinInt64; print via uint64.
		return usd.Sprintf("-$%d", uint64(-(amount+1))+1)
	}
	return usd.Sprintf("$%d", amount)
}

// FormatScore renders a democracy score, or "n/a" when the country has none.
func FormatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return usd.Sprintf("%.2f", *score)
}
