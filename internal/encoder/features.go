package encoder

import (
	"fmt"
	"strings"
)

var (
	Airlines = []string{"AirAsia", "Air_India", "GO_FIRST", "Indigo", "SpiceJet", "Vistara"}
	Cities   = []string{"Bangalore", "Chennai", "Delhi", "Hyderabad", "Kolkata", "Mumbai"}
	Classes  = []string{"Business", "Economy"}
	Stops    = []string{"one", "two_or_more", "zero"}
)

const (
	FeatureDuration      = "duration"
	FeatureDaysLeft      = "days_left"
	FeatureDepartureTime = "departure_time"
	FeatureArrivalTime   = "arrival_time"
)

const (
	GroupAirline         = "airline"
	GroupSourceCity      = "source_city"
	GroupDestinationCity = "destination_city"
	GroupClass           = "class"
	GroupStops           = "stops"
)

// UI stop codes from the form's select box.
var stopCodes = map[string]string{
	"0":  "zero",
	"1":  "one",
	"2+": "two_or_more",
}

// Long-form airport names returned by the autocomplete, keyed lowercase.
var cityAliases = map[string]string{
	"chhatrapati s maharaj":       "Mumbai",
	"subhas chandra bose":         "Kolkata",
	"indira gandhi international": "Delhi",
	"indira gandhi intl":          "Delhi",
	"kempegowda international":    "Bangalore",
	"rajiv gandhi international":  "Hyderabad",
	"chennai international":       "Chennai",
}

// FeatureOrder is the column order of the model's training frame.
var FeatureOrder = buildFeatureOrder()

type oneHotGroup struct {
	name    string
	members []string
}

var oneHotGroups = []oneHotGroup{
	{GroupAirline, Airlines},
	{GroupSourceCity, Cities},
	{GroupDestinationCity, Cities},
	{GroupClass, Classes},
	{GroupStops, Stops},
}

func buildFeatureOrder() []string {
	order := []string{FeatureDuration, FeatureDaysLeft, FeatureDepartureTime, FeatureArrivalTime}
	for _, g := range oneHotGroups {
		for _, m := range g.members {
			order = append(order, columnName(g.name, m))
		}
	}
	return order
}

func columnName(group, member string) string {
	return group + "_" + strings.ReplaceAll(member, " ", "_")
}

// ResolveCity maps a known airport name to its canonical city. Unknown names
// are returned unchanged.
func ResolveCity(name string) string {
	name = strings.TrimSpace(name)
	if city, ok := cityAliases[strings.ToLower(name)]; ok {
		return city
	}
	return name
}

func resolveStops(raw string) string {
	raw = strings.TrimSpace(raw)
	if s, ok := stopCodes[raw]; ok {
		return s
	}
	return raw
}

// FeaturePayload is the flat request body of the prediction endpoints.
type FeaturePayload map[string]float64

// Vector returns the payload's values in FeatureOrder; missing keys are 0.
func (p FeaturePayload) Vector() []float64 {
	out := make([]float64, len(FeatureOrder))
	for i, name := range FeatureOrder {
		out[i] = p[name]
	}
	return out
}

// GroupSum returns how many columns of a one-hot group are set.
func (p FeaturePayload) GroupSum(group string) float64 {
	for _, g := range oneHotGroups {
		if g.name != group {
			continue
		}
		var sum float64
		for _, m := range g.members {
			sum += p[columnName(g.name, m)]
		}
		return sum
	}
	return 0
}

// Validate applies the model server's input check: all scalar features
// present and at least one column set in every one-hot group.
func (p FeaturePayload) Validate() error {
	for _, name := range []string{FeatureDaysLeft, FeatureDuration, FeatureDepartureTime, FeatureArrivalTime} {
		if _, ok := p[name]; !ok {
			return fmt.Errorf("missing required field: %s", name)
		}
	}
	for _, g := range oneHotGroups {
		if p.GroupSum(g.name) < 1 {
			return fmt.Errorf("exactly one %s must be selected", g.name)
		}
	}
	return nil
}
