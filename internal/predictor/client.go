package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dharmasatrya/farepredict/internal/models"
)

const DefaultBaseURL = "http://127.0.0.1:5000"

var ErrEmptyResponse = errors.New("empty response body")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fare and Trend expose the two routes as Endpoints for the aggregator.
func (c *Client) Fare() Endpoint {
	return &httpEndpoint{client: c, name: EndpointFare}
}

func (c *Client) Trend() Endpoint {
	return &httpEndpoint{client: c, name: EndpointTrend}
}

type httpEndpoint struct {
	client *Client
	name   string
}

func (e *httpEndpoint) Name() string {
	return e.name
}

type statusEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (e *httpEndpoint) Call(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return NewEndpointError(e.name, 0, "", fmt.Errorf("encode payload: %w", err))
	}
	log.Printf("Sending payload to %s: %s", e.name, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.client.baseURL+"/"+e.name, bytes.NewReader(body))
	if err != nil {
		return NewEndpointError(e.name, 0, "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.httpClient.Do(req)
	if err != nil {
		return NewEndpointError(e.name, 0, fallbackMessage(e.name), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewEndpointError(e.name, resp.StatusCode, fallbackMessage(e.name), err)
	}

	var envelope statusEnvelope
	_ = json.Unmarshal(respBody, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := envelope.Error
		if msg == "" {
			msg = fallbackMessage(e.name)
		}
		return NewEndpointError(e.name, resp.StatusCode, msg, nil)
	}

	if envelope.Status == models.StatusError {
		msg := envelope.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return NewEndpointError(e.name, resp.StatusCode, msg, nil)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return NewEndpointError(e.name, resp.StatusCode, "", ErrEmptyResponse)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return NewEndpointError(e.name, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
