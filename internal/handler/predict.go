package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/farepredict/internal/aggregator"
	"github.com/dharmasatrya/farepredict/internal/airports"
	"github.com/dharmasatrya/farepredict/internal/daypart"
	"github.com/dharmasatrya/farepredict/internal/encoder"
	"github.com/dharmasatrya/farepredict/internal/models"
	"github.com/dharmasatrya/farepredict/internal/predictor"
	"github.com/dharmasatrya/farepredict/internal/trend"
)

// Forecaster is satisfied by *aggregator.Aggregator.
type Forecaster interface {
	Fare(ctx context.Context, payload encoder.FeaturePayload) (*models.FareResult, error)
	Trend(ctx context.Context, payload encoder.FeaturePayload) (*models.TrendResult, error)
	Forecast(ctx context.Context, payload encoder.FeaturePayload) (*aggregator.Result, error)
}

type AirportSearcher interface {
	Search(ctx context.Context, keyword string) ([]models.Airport, error)
}

type PredictHandler struct {
	encoder    *encoder.Encoder
	forecaster Forecaster
	airports   AirportSearcher
	now        func() time.Time
}

func NewPredictHandler(enc *encoder.Encoder, f Forecaster, a AirportSearcher) *PredictHandler {
	if enc == nil {
		enc = encoder.New()
	}
	return &PredictHandler{
		encoder:    enc,
		forecaster: f,
		airports:   a,
		now:        func() time.Time { return time.Now().In(daypart.IST) },
	}
}

func (h *PredictHandler) Register(api *echo.Group) {
	api.POST("/predict", h.Predict)
	api.POST("/predict/trend", h.Trend)
	api.POST("/forecast", h.Forecast)
	api.POST("/encode", h.Encode)
	api.GET("/airports", h.Airports)
}

func (h *PredictHandler) Predict(c echo.Context) error {
	payload, err := h.bindAndEncode(c)
	if err != nil {
		return errorJSON(c, err)
	}

	result, err := h.forecaster.Fare(c.Request().Context(), payload)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Trend returns the price trend with its summary, or the two series as CSV
// when format=csv.
func (h *PredictHandler) Trend(c echo.Context) error {
	payload, err := h.bindAndEncode(c)
	if err != nil {
		return errorJSON(c, err)
	}

	result, err := h.forecaster.Trend(c.Request().Context(), payload)
	if err != nil {
		return errorJSON(c, err)
	}

	if strings.EqualFold(c.QueryParam("format"), "csv") {
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="fare-trend.csv"`)
		res.WriteHeader(http.StatusOK)
		return trend.WriteCSV(res, result.Historical, result.Forecast)
	}

	result.Historical = trend.Sort(result.Historical, "asc")
	result.Forecast = trend.Sort(result.Forecast, "asc")
	result.Summary = trend.Summarize(result.Historical, result.Forecast)
	return c.JSON(http.StatusOK, result)
}

func (h *PredictHandler) Forecast(c echo.Context) error {
	startTime := time.Now()

	payload, err := h.bindAndEncode(c)
	if err != nil {
		return errorJSON(c, err)
	}

	result, err := h.forecaster.Forecast(c.Request().Context(), payload)
	if err != nil && !errors.Is(err, aggregator.ErrAllEndpointsFailed) {
		return errorJSON(c, err)
	}

	resp := models.ForecastResponse{
		Fare:            result.Fare,
		Trend:           result.Trend,
		FailedEndpoints: result.FailedEndpoints,
	}
	if resp.Trend != nil {
		resp.Trend.Summary = trend.Summarize(resp.Trend.Historical, resp.Trend.Forecast)
	}
	if len(result.Errors) > 0 {
		resp.Errors = make(map[string]string, len(result.Errors))
		for name, e := range result.Errors {
			resp.Errors[name] = e.Error()
		}
	}
	resp.ResponseTimeMs = time.Since(startTime).Milliseconds()

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	return c.JSON(status, resp)
}

// Encode returns the feature payload that would be posted upstream.
func (h *PredictHandler) Encode(c echo.Context) error {
	payload, err := h.bindAndEncode(c)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

func (h *PredictHandler) Airports(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		return errorJSON(c, models.ErrMissingKeyword)
	}

	list, err := h.airports.Search(c.Request().Context(), keyword)
	if err != nil {
		if !errors.Is(err, airports.ErrNotConfigured) && !errors.Is(err, context.DeadlineExceeded) {
			err = echo.NewHTTPError(http.StatusBadGateway, "Airport lookup failed: "+err.Error()).SetInternal(err)
		}
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PredictHandler) bindAndEncode(c echo.Context) (encoder.FeaturePayload, error) {
	var q models.TripQuery
	if err := c.Bind(&q); err != nil {
		return nil, &requestError{err: err}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	payload, err := h.encoder.Encode(q, h.now())
	if err != nil {
		return nil, err
	}
	if h.encoder.Strict() {
		if err := payload.Validate(); err != nil {
			return nil, &requestError{err: err}
		}
	}

	log.Printf("Encoded %s -> %s (%s, %s)", q.SourceCity, q.DestinationCity, q.Airline, q.TravelClass)
	return payload, nil
}

type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func errorJSON(c echo.Context, err error) error {
	status := statusFor(err)
	message := err.Error()

	var (
		epErr   *predictor.EndpointError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &epErr) && epErr.Message != "":
		message = epErr.Message
	case errors.As(err, &httpErr):
		message = fmt.Sprint(httpErr.Message)
	}
	if status >= http.StatusInternalServerError {
		log.Printf("Request %s failed: %v", c.Path(), err)
	}

	return c.JSON(status, models.ErrorResponse{
		Status: models.StatusError,
		Error:  message,
		Code:   status,
	})
}

func statusFor(err error) int {
	var (
		reqErr  *requestError
		valErr  models.ValidationError
		epErr   *predictor.EndpointError
		httpErr *echo.HTTPError
	)

	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.Is(err, airports.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &epErr), errors.Is(err, aggregator.ErrAllEndpointsFailed):
		return http.StatusBadGateway
	case errors.As(err, &httpErr):
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
