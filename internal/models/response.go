package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type FareResult struct {
	Status    string  `json:"status"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type TrendPoint struct {
	Date  string  `json:"date" csv:"date"`
	Price float64 `json:"price" csv:"price"`
}

type TrendSummary struct {
	Lowest          *TrendPoint `json:"lowest,omitempty"`
	Highest         *TrendPoint `json:"highest,omitempty"`
	AverageForecast float64     `json:"average_forecast"`
	ChangeFromLast  float64     `json:"change_from_last"`
}

type TrendResult struct {
	Status     string        `json:"status"`
	Historical []TrendPoint  `json:"historical"`
	Forecast   []TrendPoint  `json:"forecast"`
	Summary    *TrendSummary `json:"summary,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type ForecastResponse struct {
	Fare            *FareResult       `json:"fare,omitempty"`
	Trend           *TrendResult      `json:"trend,omitempty"`
	FailedEndpoints []string          `json:"failed_endpoints,omitempty"`
	Errors          map[string]string `json:"errors,omitempty"`
	ResponseTimeMs  int64             `json:"response_time_ms"`
}

type Airport struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   int    `json:"code"`
}
