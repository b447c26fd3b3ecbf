package predictor

import (
	"context"
	"fmt"
)

const (
	EndpointFare  = "predict"
	EndpointTrend = "predict_trend"
)

// Endpoint is one prediction route on the model server.
type Endpoint interface {
	Name() string
	Call(ctx context.Context, payload any, out any) error
}

type EndpointError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *EndpointError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.StatusCode)
	}
	return e.Endpoint + ": " + e.Message
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

func NewEndpointError(endpoint string, status int, message string, err error) *EndpointError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &EndpointError{
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

// fallbackMessage is shown when the upstream gives no error text.
func fallbackMessage(endpoint string) string {
	if endpoint == EndpointTrend {
		return "Trend prediction failed"
	}
	return "Prediction failed"
}
