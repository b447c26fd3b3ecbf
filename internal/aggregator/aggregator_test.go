package aggregator

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/farepredict/internal/encoder"
	"github.com/dharmasatrya/farepredict/internal/models"
	"github.com/dharmasatrya/farepredict/internal/predictor"
)

type MockEndpoint struct {
	mock.Mock
	name string
}

func (m *MockEndpoint) Name() string {
	return m.name
}

func (m *MockEndpoint) Call(ctx context.Context, payload any, out any) error {
	args := m.Called(ctx, payload, out)
	return args.Error(0)
}

type mockEndpoints struct {
	fare  *MockEndpoint
	trend *MockEndpoint
}

func (m mockEndpoints) Fare() predictor.Endpoint  { return m.fare }
func (m mockEndpoints) Trend() predictor.Endpoint { return m.trend }

func newEndpoints() mockEndpoints {
	return mockEndpoints{
		fare:  &MockEndpoint{name: predictor.EndpointFare},
		trend: &MockEndpoint{name: predictor.EndpointTrend},
	}
}

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string]any
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]any)}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	switch d := dst.(type) {
	case *models.FareResult:
		*d = *(v.(*models.FareResult))
	case *models.TrendResult:
		*d = *(v.(*models.TrendResult))
	default:
		return false
	}
	return true
}

func (c *memCache) Set(ctx context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case *models.FareResult:
		cp := *v
		c.data[key] = &cp
	case *models.TrendResult:
		cp := *v
		c.data[key] = &cp
	}
	return nil
}

func (c *memCache) Close() error { return nil }

var payload = encoder.FeaturePayload{"days_left": 14, "duration": 2}

func fillFare(price float64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		out := args.Get(2).(*models.FareResult)
		*out = models.FareResult{Status: "success", Price: price, Currency: "₹"}
	}
}

func fillTrend(args mock.Arguments) {
	out := args.Get(2).(*models.TrendResult)
	*out = models.TrendResult{
		Status:   "success",
		Forecast: []models.TrendPoint{{Date: "2026-10-20", Price: 5800}},
	}
}

func TestForecast_BothSucceed(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Run(fillFare(6123.4)).Return(nil).Once()
	eps.trend.On("Call", mock.Anything, payload, mock.Anything).Run(fillTrend).Return(nil).Once()

	agg := NewAggregator(eps, Config{Timeout: time.Second})
	result, err := agg.Forecast(context.Background(), payload)
	require.NoError(t, err)

	require.NotNil(t, result.Fare)
	require.NotNil(t, result.Trend)
	assert.Equal(t, "₹6,123.40", result.Fare.Formatted)
	assert.Equal(t, 2, result.EndpointsSucceeded)
	assert.Empty(t, result.FailedEndpoints)

	eps.fare.AssertExpectations(t)
	eps.trend.AssertExpectations(t)
}

func TestForecast_PartialFailureKeepsOtherResult(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Run(fillFare(5000)).Return(nil).Once()
	eps.trend.On("Call", mock.Anything, payload, mock.Anything).
		Return(predictor.NewEndpointError(predictor.EndpointTrend, http.StatusInternalServerError, "Trend prediction failed", nil)).Once()

	agg := NewAggregator(eps, Config{})
	result, err := agg.Forecast(context.Background(), payload)
	require.NoError(t, err)

	require.NotNil(t, result.Fare)
	assert.Nil(t, result.Trend)
	assert.Equal(t, []string{predictor.EndpointTrend}, result.FailedEndpoints)
	assert.Equal(t, 1, result.EndpointsFailed)
	assert.Contains(t, result.Errors, predictor.EndpointTrend)
}

func TestForecast_BothFail(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Return(errors.New("connection refused")).Once()
	eps.trend.On("Call", mock.Anything, payload, mock.Anything).Return(errors.New("connection refused")).Once()

	agg := NewAggregator(eps, Config{})
	result, err := agg.Forecast(context.Background(), payload)
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	assert.Equal(t, 2, result.EndpointsFailed)
}

func TestFare_RetriesServerErrors(t *testing.T) {
	eps := newEndpoints()
	serverErr := predictor.NewEndpointError(predictor.EndpointFare, http.StatusBadGateway, "Prediction failed", nil)
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Return(serverErr).Twice()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Run(fillFare(4000)).Return(nil).Once()

	agg := NewAggregator(eps, Config{
		MaxRetries:  3,
		RetryDelays: []time.Duration{time.Millisecond},
	})
	result, err := agg.Fare(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, result.Price)
	eps.fare.AssertNumberOfCalls(t, "Call", 3)
}

func TestFare_DoesNotRetryClientErrors(t *testing.T) {
	eps := newEndpoints()
	badReq := predictor.NewEndpointError(predictor.EndpointFare, http.StatusBadRequest, "Exactly one airline must be selected", nil)
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Return(badReq)

	agg := NewAggregator(eps, Config{MaxRetries: 3, RetryDelays: []time.Duration{time.Millisecond}})
	_, err := agg.Fare(context.Background(), payload)

	var epErr *predictor.EndpointError
	require.True(t, errors.As(err, &epErr))
	assert.Equal(t, http.StatusBadRequest, epErr.StatusCode)
	eps.fare.AssertNumberOfCalls(t, "Call", 1)
}

func TestFare_NoRetryByDefault(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Return(errors.New("timeout"))

	agg := NewAggregator(eps, Config{})
	_, err := agg.Fare(context.Background(), payload)
	assert.Error(t, err)
	eps.fare.AssertNumberOfCalls(t, "Call", 1)
}

func TestFare_ServedFromCache(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).Run(fillFare(7000)).Return(nil).Once()

	agg := NewAggregator(eps, Config{Cache: newMemCache()})

	first, err := agg.Fare(context.Background(), payload)
	require.NoError(t, err)
	second, err := agg.Fare(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, "₹7,000.00", second.Formatted)
	eps.fare.AssertNumberOfCalls(t, "Call", 1)
}

func TestFare_TimeoutCancelsCall(t *testing.T) {
	eps := newEndpoints()
	eps.fare.On("Call", mock.Anything, payload, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)

	agg := NewAggregator(eps, Config{Timeout: 20 * time.Millisecond})
	_, err := agg.Fare(context.Background(), payload)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
