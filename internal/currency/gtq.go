// Package currency formats amounts in Guatemalan Quetzal the way the
// storefront displays them: symbol prefix, thousands grouping, two decimals.
package currency

import (
	"math"
	"strconv"
	"strings"
)

const symbol = "Q"

// FormatGTQ renders an amount as e.g. "Q1,234.50".
func FormatGTQ(amount float64) string {
	negative := math.Signbit(amount)

	cents := int64(math.Round(math.Abs(amount) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)

	var grouped strings.Builder
	grouped.Grow(len(digits) + len(digits)/3)

	lead := len(digits) % 3
	if lead > 0 {
		grouped.WriteString(digits[:lead])
	}

	for i := lead; i < len(digits); i += 3 {
		if grouped.Len() > 0 {
			grouped.WriteByte(',')
		}

		grouped.WriteString(digits[i : i+3])
	}

	out := symbol + grouped.String() + "." + pad2(frac)
	if negative && cents != 0 {
		out = "-" + out
	}

	return out
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}

	return strconv.FormatInt(n, 10)
}
