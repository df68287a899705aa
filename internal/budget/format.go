package budget

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders the whole part of an amount with dot-grouped
// thousands, e.g. 1000000 -> "1.000.000". Fractional parts are truncated;
// display output deals in whole currency units.
func FormatAmount(d decimal.Decimal) string {
	num := d.Truncate(0).String()
	negative := strings.HasPrefix(num, "-")
	digits := strings.TrimPrefix(num, "-")
	if digits == "" || digits == "0" {
		return "0"
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
