package trend

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/dharmasatrya/farepredict/internal/models"
)

const (
	SeriesHistorical = "historical"
	SeriesForecast   = "forecast"
)

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Sort orders points by date. Unparseable dates sort by their raw string,
// after every parseable one.
func Sort(points []models.TrendPoint, sortOrder string) []models.TrendPoint {
	if len(points) == 0 {
		return points
	}

	ascending := strings.ToLower(sortOrder) != "desc"
	sorted := make([]models.TrendPoint, len(points))
	copy(sorted, points)

	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return dateLess(sorted[i].Date, sorted[j].Date)
		}
		return dateLess(sorted[j].Date, sorted[i].Date)
	})

	return sorted
}

func dateLess(a, b string) bool {
	ta, errA := parseDate(a)
	tb, errB := parseDate(b)

	switch {
	case errA == nil && errB == nil:
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Summarize picks the cheapest and dearest forecast points and compares the
// cheapest forecast to the most recent historical price.
func Summarize(historical, forecast []models.TrendPoint) *models.TrendSummary {
	summary := &models.TrendSummary{}
	if len(forecast) == 0 {
		return summary
	}

	lowest := forecast[0]
	highest := forecast[0]
	total := 0.0
	for _, p := range forecast {
		if p.Price < lowest.Price {
			lowest = p
		}
		if p.Price > highest.Price {
			highest = p
		}
		total += p.Price
	}

	summary.Lowest = &lowest
	summary.Highest = &highest
	summary.AverageForecast = round2(total / float64(len(forecast)))

	if len(historical) > 0 {
		last := Sort(historical, "asc")[len(historical)-1]
		summary.ChangeFromLast = round2(lowest.Price - last.Price)
	}

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type row struct {
	Series string  `csv:"series"`
	Date   string  `csv:"date"`
	Price  float64 `csv:"price"`
}

// WriteCSV writes both series as series,date,price rows, historical first.
func WriteCSV(w io.Writer, historical, forecast []models.TrendPoint) error {
	rows := make([]row, 0, len(historical)+len(forecast))
	for _, p := range Sort(historical, "asc") {
		rows = append(rows, row{Series: SeriesHistorical, Date: p.Date, Price: p.Price})
	}
	for _, p := range Sort(forecast, "asc") {
		rows = append(rows, row{Series: SeriesForecast, Date: p.Date, Price: p.Price})
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(row{}); err != nil {
			return err
		}
	} else if err := enc.Encode(rows); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
