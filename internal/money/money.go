// Package money handles monetary values as integer cents. Totals stay exact
// under addition and multiplication by quantity, which float reais do not.
package money

import (
	"strconv"
	"strings"
)

// FormatBRL renders cents as a pt-BR currency string: 2550 -> "R$ 25,50".
// Thousands are grouped with dots: 123456789 -> "R$ 1.234.567,89".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	reais := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")

	lead := len(reais) % 3
	if lead > 0 {
		b.WriteString(reais[:lead])
		if len(reais) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(reais); i += 3 {
		b.WriteString(reais[i : i+3])
		if i+3 < len(reais) {
			b.WriteByte('.')
		}
	}

	b.WriteByte(',')
	frac := cents % 100
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}
