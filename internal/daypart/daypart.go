package daypart

import (
	"errors"
	"math"
	"strings"
	"time"
)

type DayPart string

const (
	EarlyMorning DayPart = "Early_Morning"
	Morning      DayPart = "Morning"
	Afternoon    DayPart = "Afternoon"
	Evening      DayPart = "Evening"
	Night        DayPart = "Night"
	LateNight    DayPart = "Late_Night"
)

var (
	ErrHourOutOfRange = errors.New("hour must be within 0-23")
	ErrInvalidClock   = errors.New("unable to parse clock time")
)

// IST is the zone every schedule time and bare departure date is read in.
var IST = time.FixedZone("IST", 5*60*60+30*60)

var ordered = []DayPart{EarlyMorning, Morning, Afternoon, Evening, Night, LateNight}

// Lower bound (inclusive) of each bucket, in ordered's order.
var bucketStarts = []int{0, 6, 12, 16, 19, 22}

// Codes the prediction model was trained on. Evening's code falls inside
// Afternoon's clock range; keep it that way.
var representativeHours = map[DayPart]int{
	EarlyMorning: 0,
	Morning:      8,
	Afternoon:    12,
	Evening:      14,
	Night:        18,
	LateNight:    22,
}

func All() []DayPart {
	out := make([]DayPart, len(ordered))
	copy(out, ordered)
	return out
}

func (d DayPart) String() string {
	return string(d)
}

// Display returns the label with underscores replaced, e.g. "Early Morning".
func (d DayPart) Display() string {
	return strings.ReplaceAll(string(d), "_", " ")
}

func BucketForClockTime(hour24 int) (DayPart, error) {
	if hour24 < 0 || hour24 > 23 {
		return "", ErrHourOutOfRange
	}
	for i := len(bucketStarts) - 1; i >= 0; i-- {
		if hour24 >= bucketStarts[i] {
			return ordered[i], nil
		}
	}
	return EarlyMorning, nil
}

func RepresentativeHour(d DayPart) (int, bool) {
	h, ok := representativeHours[d]
	return h, ok
}

// ParseDayPart accepts the canonical label or its display form.
func ParseDayPart(label string) (DayPart, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	normalized := strings.ReplaceAll(label, " ", "_")
	for _, d := range ordered {
		if string(d) == normalized {
			return d, true
		}
	}
	return "", false
}

func To24Hour(hour12 int, pm bool) (int, error) {
	if hour12 < 1 || hour12 > 12 {
		return 0, ErrHourOutOfRange
	}
	if hour12 == 12 {
		if pm {
			return 12, nil
		}
		return 0, nil
	}
	if pm {
		return hour12 + 12, nil
	}
	return hour12, nil
}

// ParseClock reads "15:04", "3:04 PM" or "3:04PM".
func ParseClock(s string) (int, int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	formats := []string{
		"15:04",
		"3:04 PM",
		"3:04PM",
		"03:04 PM",
		"03:04PM",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}

	return 0, 0, ErrInvalidClock
}

// ArrivalFromDeparture adds durationHours to a departure clock time and wraps
// past midnight. Day rollover is not reported.
func ArrivalFromDeparture(depHour24, depMinute int, durationHours float64) (int, int) {
	start := depHour24*60 + depMinute
	// 4.1h is 245.99999999999997 minutes in float64.
	total := start + int(math.Floor(durationHours*60+1e-9))

	total %= 24 * 60
	if total < 0 {
		total += 24 * 60
	}
	return total / 60, total % 60
}
