package models

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Hours is a flight duration. The form sends it as a number or a numeric
// string; anything unparseable decodes to 0 instead of failing the request.
type Hours float64

func (h *Hours) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*h = finiteHours(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = ParseHours(s)
		return nil
	}

	*h = 0
	return nil
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseHours reads the leading decimal number of s, so "2.5h" is 2.5.
// NaN, infinities and text without a leading number give 0.
func ParseHours(s string) Hours {
	num := leadingNumber.FindString(strings.TrimSpace(s))
	if num == "" {
		return 0
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return finiteHours(f)
}

func finiteHours(f float64) Hours {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Hours(f)
}
