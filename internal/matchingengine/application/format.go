package application

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a client-supplied price or quantity string at the
// wire boundary. decimal.NewFromString round-trips the input exactly
// before we drop to the float64 the domain's epsilon-safe arithmetic
// operates on.
func ParseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders f in the compact decimal form the outbound event
// schema requires: fixed notation, at most 8 fractional digits, trailing
// zeros stripped, and the decimal point itself stripped when the value is
// integral.
func FormatAmount(f float64) string {
	s := decimal.NewFromFloat(f).Truncate(8).String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
