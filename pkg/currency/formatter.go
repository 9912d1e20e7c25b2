package currency

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`^\d*\.?\d+$`)

func FormatUSD(amount float64) string {
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	intStr := fmt.Sprintf("%.0f", rounded)
	formatted := addThousandsSeparator(intStr, ",")

	result := "$" + formatted
	if negative {
		result = "-" + result
	}

	return result
}

// ParseUSD reads amounts like "$1,234", "US$980" or "1234.50". The second
// return value is false when anything other than a plain non-negative
// decimal remains after the symbols and separators are stripped.
func ParseUSD(s string) (float64, bool) {
	cleaned := strings.NewReplacer("US", "", "$", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if !amountPattern.MatchString(cleaned) {
		return 0, false
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, false
	}
	return amount, true
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
