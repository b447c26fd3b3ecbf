package aggregator

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dharmasatrya/farepredict/internal/cache"
	"github.com/dharmasatrya/farepredict/internal/encoder"
	"github.com/dharmasatrya/farepredict/internal/models"
	"github.com/dharmasatrya/farepredict/internal/predictor"
	"github.com/dharmasatrya/farepredict/internal/ratelimit"
	"github.com/dharmasatrya/farepredict/pkg/currency"
)

var ErrAllEndpointsFailed = errors.New("all prediction endpoints failed")

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	RateLimiter *ratelimit.UpstreamLimiter
	Cache       cache.Cache
}

// Endpoints is satisfied by *predictor.Client.
type Endpoints interface {
	Fare() predictor.Endpoint
	Trend() predictor.Endpoint
}

type Aggregator struct {
	fare   predictor.Endpoint
	trend  predictor.Endpoint
	config Config
}

type Result struct {
	Fare               *models.FareResult
	Trend              *models.TrendResult
	EndpointsQueried   int
	EndpointsSucceeded int
	EndpointsFailed    int
	FailedEndpoints    []string
	Errors             map[string]error
}

func NewAggregator(endpoints Endpoints, config Config) *Aggregator {
	if config.Cache == nil {
		config.Cache = cache.NewNoOpCache()
	}
	return &Aggregator{
		fare:   endpoints.Fare(),
		trend:  endpoints.Trend(),
		config: config,
	}
}

func (a *Aggregator) Fare(ctx context.Context, payload encoder.FeaturePayload) (*models.FareResult, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var result models.FareResult
	if err := a.call(ctx, a.fare, payload, &result); err != nil {
		return nil, err
	}
	result.Formatted = currency.Format(result.Currency, result.Price)
	return &result, nil
}

func (a *Aggregator) Trend(ctx context.Context, payload encoder.FeaturePayload) (*models.TrendResult, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var result models.TrendResult
	if err := a.call(ctx, a.trend, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Forecast queries fare and trend concurrently. One failing does not discard
// the other; an error is returned only when both fail.
func (a *Aggregator) Forecast(ctx context.Context, payload encoder.FeaturePayload) (*Result, error) {
	type endpointResult struct {
		name  string
		fare  *models.FareResult
		trend *models.TrendResult
		err   error
	}

	resultCh := make(chan endpointResult, 2)

	go func() {
		fare, err := a.Fare(ctx, payload)
		resultCh <- endpointResult{name: a.fare.Name(), fare: fare, err: err}
	}()

	go func() {
		trend, err := a.Trend(ctx, payload)
		resultCh <- endpointResult{name: a.trend.Name(), trend: trend, err: err}
	}()

	result := &Result{
		EndpointsQueried: 2,
		Errors:           make(map[string]error),
	}

	for i := 0; i < 2; i++ {
		er := <-resultCh
		if er.err != nil {
			log.Printf("Endpoint %s failed: %v", er.name, er.err)
			result.EndpointsFailed++
			result.FailedEndpoints = append(result.FailedEndpoints, er.name)
			result.Errors[er.name] = er.err
			continue
		}
		result.EndpointsSucceeded++
		if er.fare != nil {
			result.Fare = er.fare
		}
		if er.trend != nil {
			result.Trend = er.trend
		}
	}

	if result.EndpointsSucceeded == 0 {
		return result, ErrAllEndpointsFailed
	}
	return result, nil
}

func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.Timeout)
}

func (a *Aggregator) call(ctx context.Context, ep predictor.Endpoint, payload encoder.FeaturePayload, out any) error {
	key := cache.PredictionKey(ep.Name(), payload)
	if a.config.Cache.Get(ctx, key, out) {
		return nil
	}

	if err := a.config.RateLimiter.Wait(ctx, ep.Name()); err != nil {
		return err
	}

	if err := a.callWithRetry(ctx, ep, payload, out); err != nil {
		return err
	}

	if err := a.config.Cache.Set(ctx, key, out); err != nil {
		log.Printf("Cache set for %s failed: %v", ep.Name(), err)
	}
	return nil
}

func (a *Aggregator) callWithRetry(ctx context.Context, ep predictor.Endpoint, payload encoder.FeaturePayload, out any) error {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if attempt > 0 && len(a.config.RetryDelays) > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(a.config.RetryDelays) {
				delayIdx = len(a.config.RetryDelays) - 1
			}

			select {
			case <-time.After(a.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := ep.Call(ctx, payload, out)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("Endpoint %s attempt %d failed: %v", ep.Name(), attempt+1, err)
		if !retryable(err) {
			break
		}
	}

	return lastErr
}

// 4xx and {status:"error"} responses are final.
func retryable(err error) bool {
	var epErr *predictor.EndpointError
	if errors.As(err, &epErr) {
		return epErr.StatusCode == 0 || epErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
