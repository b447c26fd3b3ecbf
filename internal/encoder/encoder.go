package encoder

import (
	"fmt"
	"math"
	"time"

	"github.com/dharmasatrya/farepredict/internal/daypart"
	"github.com/dharmasatrya/farepredict/internal/models"
)

// MinDaysLeft is the smallest days_left sent to the model. Same-day and past
// departures are clamped to it.
const MinDaysLeft = 1

type Encoder struct {
	strict bool
}

type Option func(*Encoder)

// WithStrict makes unresolved airline, city, class or stop values an error
// instead of an all-zero one-hot group.
func WithStrict(strict bool) Option {
	return func(e *Encoder) {
		e.strict = strict
	}
}

func New(opts ...Option) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Encoder) Strict() bool {
	return e.strict
}

// Encode builds the model feature payload for q as of now.
func Encode(q models.TripQuery, now time.Time) (FeaturePayload, error) {
	return New().Encode(q, now)
}

func (e *Encoder) Encode(q models.TripQuery, now time.Time) (FeaturePayload, error) {
	departure, err := models.ParseDepartureDate(q.DepartureDate, now.Location())
	if err != nil {
		return nil, err
	}

	depHour, arrHour, err := e.timeCodes(q)
	if err != nil {
		return nil, err
	}

	payload := make(FeaturePayload, len(FeatureOrder))
	payload[FeatureDaysLeft] = float64(DaysLeft(departure, now))
	payload[FeatureDuration] = float64(q.Duration)
	payload[FeatureDepartureTime] = float64(depHour)
	payload[FeatureArrivalTime] = float64(arrHour)

	values := map[string]string{
		GroupAirline:         q.Airline,
		GroupSourceCity:      ResolveCity(q.SourceCity),
		GroupDestinationCity: ResolveCity(q.DestinationCity),
		GroupClass:           q.TravelClass,
		GroupStops:           resolveStops(q.Stops),
	}

	for _, g := range oneHotGroups {
		value := values[g.name]
		matched := false
		for _, m := range g.members {
			col := columnName(g.name, m)
			if value == m {
				payload[col] = 1
				matched = true
			} else {
				payload[col] = 0
			}
		}
		if !matched && e.strict {
			return nil, fmt.Errorf("%w: %s %q", models.ErrUnknownValue, g.name, value)
		}
	}

	return payload, nil
}

// DaysLeft is ceil((departure - now) / 24h), floored at MinDaysLeft.
func DaysLeft(departure, now time.Time) int {
	days := int(math.Ceil(departure.Sub(now).Hours() / 24))
	if days < MinDaysLeft {
		return MinDaysLeft
	}
	return days
}

func (e *Encoder) timeCodes(q models.TripQuery) (int, int, error) {
	var clockHour, clockMinute int
	hasClock := q.DepartureClock != ""
	if hasClock {
		h, m, err := daypart.ParseClock(q.DepartureClock)
		if err != nil {
			return 0, 0, models.ErrInvalidDepartureClock
		}
		clockHour, clockMinute = h, m
	}

	var dep daypart.DayPart
	switch {
	case q.DepartureTime != "":
		d, ok := daypart.ParseDayPart(q.DepartureTime)
		if !ok {
			return 0, 0, models.ErrUnknownDepartureTime
		}
		dep = d
	case hasClock:
		d, err := daypart.BucketForClockTime(clockHour)
		if err != nil {
			return 0, 0, models.ErrInvalidDepartureClock
		}
		dep = d
	default:
		return 0, 0, models.ErrMissingDepartureTime
	}

	var arr daypart.DayPart
	switch {
	case q.ArrivalTime != "":
		d, ok := daypart.ParseDayPart(q.ArrivalTime)
		if !ok {
			return 0, 0, models.ErrUnknownArrivalTime
		}
		arr = d
	case hasClock:
		h, _ := daypart.ArrivalFromDeparture(clockHour, clockMinute, float64(q.Duration))
		d, err := daypart.BucketForClockTime(h)
		if err != nil {
			return 0, 0, models.ErrInvalidDepartureClock
		}
		arr = d
	default:
		return 0, 0, models.ErrMissingArrivalTime
	}

	depHour, _ := daypart.RepresentativeHour(dep)
	arrHour, _ := daypart.RepresentativeHour(arr)
	return depHour, arrHour, nil
}
