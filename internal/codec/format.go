package codec

import (
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals written per scalar.
const DefaultPrecision = 3

// FormatFloat renders v with a fixed number of decimals, or in its shortest
// round-trip form when precision is negative. Values that round to zero are
// always written without a sign, so -0 and 0 share one canonical text.
func FormatFloat(v float32, precision int) string {
	var s string
	if precision < 0 {
		s = strconv.FormatFloat(float64(v), 'g', -1, 32)
	} else {
		s = strconv.FormatFloat(float64(v), 'f', precision, 32)
	}
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}

// FormatArray renders values as a space-separated bracketed list.
func FormatArray(values []float32, precision int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(FormatFloat(v, precision))
	}
	b.WriteByte(']')
	return b.String()
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

// Quote renders s as a string literal.
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
