package currency

import (
	"fmt"
	"math"
	"strings"
)

const RupeeSymbol = "₹"

func FormatINR(amount float64) string {
	return Format(RupeeSymbol, amount)
}

// Format renders amount with two decimals and Indian digit grouping
// (12,34,567.00). An empty symbol defaults to the rupee sign.
func Format(symbol string, amount float64) string {
	if symbol == "" {
		symbol = RupeeSymbol
	}

	rounded := math.Round(amount*100) / 100
	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	fixed := fmt.Sprintf("%.2f", rounded)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	result := symbol + addIndianSeparators(intPart, ",") + "." + fracPart
	if negative {
		result = "-" + result
	}

	return result
}

// addIndianSeparators groups the last three digits, then every two.
func addIndianSeparators(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	head := s[:n-3]
	tail := s[n-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return strings.Join(append(groups, tail), sep)
}
