package encoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/farepredict/internal/models"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func sampleQuery() models.TripQuery {
	return models.TripQuery{
		SourceCity:      "Mumbai",
		DestinationCity: "Delhi",
		DepartureDate:   testNow.AddDate(0, 0, 14).Format(time.RFC3339),
		Airline:         "SpiceJet",
		TravelClass:     "Economy",
		Stops:           "0",
		DepartureTime:   "Morning",
		ArrivalTime:     "Evening",
		Duration:        2.0,
	}
}

func TestEncode_SpiceJetMumbaiDelhi(t *testing.T) {
	payload, err := Encode(sampleQuery(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 1.0, payload["airline_SpiceJet"])
	for _, a := range Airlines {
		if a != "SpiceJet" {
			assert.Equal(t, 0.0, payload["airline_"+a], a)
		}
	}
	assert.Equal(t, 1.0, payload["source_city_Mumbai"])
	assert.Equal(t, 1.0, payload["destination_city_Delhi"])
	assert.Equal(t, 1.0, payload["class_Economy"])
	assert.Equal(t, 1.0, payload["stops_zero"])
	assert.Equal(t, 8.0, payload["departure_time"])
	assert.Equal(t, 14.0, payload["arrival_time"])
	assert.Equal(t, 14.0, payload["days_left"])
	assert.Equal(t, 2.0, payload["duration"])
}

func TestEncode_HasExactlyModelFeatures(t *testing.T) {
	payload, err := Encode(sampleQuery(), testNow)
	require.NoError(t, err)

	assert.Len(t, FeatureOrder, 27)
	assert.Len(t, payload, len(FeatureOrder))
	for _, name := range FeatureOrder {
		_, ok := payload[name]
		assert.True(t, ok, name)
	}
	assert.NoError(t, payload.Validate())
}

func TestEncode_OneHotGroupsSumToOne(t *testing.T) {
	stopCodesUnderTest := []string{"0", "1", "2+"}

	for _, airline := range Airlines {
		for _, src := range Cities {
			for _, cls := range Classes {
				for _, stop := range stopCodesUnderTest {
					q := sampleQuery()
					q.Airline = airline
					q.SourceCity = src
					q.DestinationCity = Cities[(len(src))%len(Cities)]
					q.TravelClass = cls
					q.Stops = stop

					payload, err := Encode(q, testNow)
					require.NoError(t, err)
					for _, g := range oneHotGroups {
						assert.Equal(t, 1.0, payload.GroupSum(g.name), "%s for %+v", g.name, q)
					}
				}
			}
		}
	}
}

func TestEncode_StopCodes(t *testing.T) {
	cases := map[string]string{
		"0":           "stops_zero",
		"1":           "stops_one",
		"2+":          "stops_two_or_more",
		"two_or_more": "stops_two_or_more",
	}
	for code, col := range cases {
		q := sampleQuery()
		q.Stops = code
		payload, err := Encode(q, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1.0, payload[col], code)
	}
}

func TestEncode_CityAlias(t *testing.T) {
	q := sampleQuery()
	q.SourceCity = "Kempegowda International"
	q.DestinationCity = "INDIRA GANDHI INTL"

	payload, err := Encode(q, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1.0, payload["source_city_Bangalore"])
	assert.Equal(t, 1.0, payload["destination_city_Delhi"])
}

func TestResolveCity(t *testing.T) {
	assert.Equal(t, "Bangalore", ResolveCity("Kempegowda International"))
	assert.Equal(t, "Chennai", ResolveCity("CHENNAI INTERNATIONAL"))
	assert.Equal(t, "Chennai", ResolveCity("Chennai International"))
	assert.Equal(t, "Delhi", ResolveCity("Indira Gandhi International"))
	assert.Equal(t, "Goa", ResolveCity("Goa"))
}

func TestEncode_UnknownValuesZeroTheGroup(t *testing.T) {
	q := sampleQuery()
	q.Airline = "Akasa"
	q.SourceCity = "Goa"
	q.TravelClass = "Premium Economy"
	q.Stops = "3"

	payload, err := Encode(q, testNow)
	require.NoError(t, err)

	assert.Equal(t, 0.0, payload.GroupSum(GroupAirline))
	assert.Equal(t, 0.0, payload.GroupSum(GroupSourceCity))
	assert.Equal(t, 0.0, payload.GroupSum(GroupClass))
	assert.Equal(t, 0.0, payload.GroupSum(GroupStops))
	assert.Equal(t, 1.0, payload.GroupSum(GroupDestinationCity))
	assert.Error(t, payload.Validate())
}

func TestEncode_StrictRejectsUnknownValues(t *testing.T) {
	q := sampleQuery()
	q.Airline = "Akasa"

	_, err := New(WithStrict(true)).Encode(q, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownValue)
	assert.Contains(t, err.Error(), "airline")

	_, err = New(WithStrict(true)).Encode(sampleQuery(), testNow)
	assert.NoError(t, err)
}

func TestEncode_DaysLeft(t *testing.T) {
	cases := []struct {
		name string
		date string
		want float64
	}{
		{"today date only", "2026-10-19", 1},
		{"past date", "2026-10-01", 1},
		{"later today", testNow.Add(3 * time.Hour).Format(time.RFC3339), 1},
		{"tomorrow date only", "2026-10-20", 1},
		{"day after tomorrow", "2026-10-21", 2},
		{"partial day rounds up", testNow.Add(49 * time.Hour).Format(time.RFC3339), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := sampleQuery()
			q.DepartureDate = tc.date
			payload, err := Encode(q, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, payload["days_left"])
		})
	}
}

func TestEncode_InvalidDate(t *testing.T) {
	q := sampleQuery()
	q.DepartureDate = "not-a-date"
	_, err := Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrInvalidDepartureDate)
}

func TestEncode_TimeLabels(t *testing.T) {
	q := sampleQuery()
	q.DepartureTime = ""
	_, err := Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrMissingDepartureTime)

	q = sampleQuery()
	q.DepartureTime = "Brunch"
	_, err = Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrUnknownDepartureTime)

	q = sampleQuery()
	q.ArrivalTime = ""
	_, err = Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrMissingArrivalTime)

	q = sampleQuery()
	q.ArrivalTime = "Teatime"
	_, err = Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrUnknownArrivalTime)
}

func TestEncode_DerivesTimesFromClock(t *testing.T) {
	q := sampleQuery()
	q.DepartureTime = ""
	q.ArrivalTime = ""
	q.DepartureClock = "11:30 PM"
	q.Duration = 2

	payload, err := Encode(q, testNow)
	require.NoError(t, err)
	// 23:30 is Late_Night, arrival 01:30 is Early_Morning.
	assert.Equal(t, 22.0, payload["departure_time"])
	assert.Equal(t, 0.0, payload["arrival_time"])

	q.DepartureClock = "noonish"
	_, err = Encode(q, testNow)
	assert.ErrorIs(t, err, models.ErrInvalidDepartureClock)
}

func TestEncode_DerivedArrivalOnBucketBoundary(t *testing.T) {
	q := sampleQuery()
	q.ArrivalTime = ""
	q.DepartureClock = "11:54"
	q.Duration = 4.1

	payload, err := Encode(q, testNow)
	require.NoError(t, err)
	// 11:54 + 4h06m lands on 16:00, the first minute of Evening.
	assert.Equal(t, 14.0, payload["arrival_time"])
}

func TestEncode_NonFiniteDurationIsZero(t *testing.T) {
	for _, raw := range []string{"NaN", "Infinity", "-Inf"} {
		q := sampleQuery()
		q.Duration = models.ParseHours(raw)
		payload, err := Encode(q, testNow)
		require.NoError(t, err, raw)
		assert.Equal(t, 0.0, payload["duration"], raw)
	}
}

func TestEncode_DurationDefaultsToZero(t *testing.T) {
	q := sampleQuery()
	q.Duration = models.ParseHours("abc")
	payload, err := Encode(q, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0.0, payload["duration"])
}

func TestFeaturePayload_Vector(t *testing.T) {
	payload, err := Encode(sampleQuery(), testNow)
	require.NoError(t, err)

	vec := payload.Vector()
	require.Len(t, vec, len(FeatureOrder))
	assert.Equal(t, 2.0, vec[0])
	assert.Equal(t, 14.0, vec[1])
	assert.Equal(t, 8.0, vec[2])
	assert.Equal(t, 14.0, vec[3])
}

func TestEncode_IsDeterministic(t *testing.T) {
	a, err := Encode(sampleQuery(), testNow)
	require.NoError(t, err)
	b, err := Encode(sampleQuery(), testNow)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
