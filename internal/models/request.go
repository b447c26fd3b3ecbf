package models

import (
	"strings"
	"time"
)

// TripQuery mirrors the fields posted by the fare form. Enumerated fields are
// kept as raw strings; resolving them is the encoder's job.
type TripQuery struct {
	SourceCity      string `json:"source_city"`
	DestinationCity string `json:"destination_city"`
	DepartureDate   string `json:"departureDate"`
	Airline         string `json:"airline"`
	TravelClass     string `json:"travelClass"`
	Stops           string `json:"stops"`
	DepartureTime   string `json:"departureTime"`
	ArrivalTime     string `json:"arrivalTime"`
	DepartureClock  string `json:"departureClock,omitempty"`
	Duration        Hours  `json:"duration"`

	// Display only, never encoded.
	Passengers int     `json:"passengers,omitempty"`
	TripType   string  `json:"tripType,omitempty"`
	ReturnDate *string `json:"returnDate,omitempty"`
}

func (q *TripQuery) Validate() error {
	q.SourceCity = strings.TrimSpace(q.SourceCity)
	q.DestinationCity = strings.TrimSpace(q.DestinationCity)

	if q.SourceCity == "" {
		return ErrMissingSourceCity
	}
	if q.DestinationCity == "" {
		return ErrMissingDestinationCity
	}
	if q.Duration < 0 {
		return ErrNegativeDuration
	}
	if q.Passengers <= 0 {
		q.Passengers = 1
	}
	if q.TripType == "" {
		q.TripType = "oneWay"
	}
	return nil
}

var departureDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseDepartureDate accepts a full timestamp or a bare YYYY-MM-DD, which is
// read as midnight in loc.
func ParseDepartureDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDepartureDate
	}

	for _, format := range departureDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}

	return time.Time{}, ErrInvalidDepartureDate
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingSourceCity      ValidationError = "source_city is required"
	ErrMissingDestinationCity ValidationError = "destination_city is required"
	ErrNegativeDuration       ValidationError = "duration must not be negative"
	ErrInvalidDepartureDate   ValidationError = "invalid departure date"
	ErrMissingDepartureTime   ValidationError = "missing departure time"
	ErrUnknownDepartureTime   ValidationError = "unrecognized departure time"
	ErrMissingArrivalTime     ValidationError = "missing arrival time"
	ErrUnknownArrivalTime     ValidationError = "unrecognized arrival time"
	ErrInvalidDepartureClock  ValidationError = "invalid departure clock time"
	ErrUnknownValue           ValidationError = "value outside the known set"
	ErrMissingKeyword         ValidationError = "keyword is required"
)
