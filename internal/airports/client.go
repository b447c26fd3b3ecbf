package airports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharmasatrya/farepredict/internal/cache"
	"github.com/dharmasatrya/farepredict/internal/models"
	"github.com/dharmasatrya/farepredict/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://test.api.amadeus.com"
	Upstream       = "amadeus"

	MinKeywordLength = 3
	PageLimit        = 5

	// Used when the token response has no usable expires_in.
	DefaultTokenLifetime = 30 * time.Minute
)

var (
	ErrNotConfigured = errors.New("airport lookup credentials not configured")
	ErrUnauthorized  = errors.New("airport lookup unauthorized")
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	RateLimiter  *ratelimit.UpstreamLimiter
	Cache        cache.Cache
	Now          func() time.Time
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *ratelimit.UpstreamLimiter
	cache        cache.Cache
	tokens       *TokenCache
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNoOpCache()
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   cfg.HTTPClient,
		limiter:      cfg.RateLimiter,
		cache:        cfg.Cache,
	}
	c.tokens = NewTokenCache(c.fetchToken, cfg.Now)
	return c
}

func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// Search returns up to PageLimit airports whose name or code matches keyword.
// Keywords shorter than MinKeywordLength yield no results without a request.
func (c *Client) Search(ctx context.Context, keyword string) ([]models.Airport, error) {
	keyword = strings.TrimSpace(keyword)
	if len(keyword) < MinKeywordLength {
		return []models.Airport{}, nil
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	key := cache.AirportKey(keyword)
	var cached []models.Airport
	if c.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx, Upstream); err != nil {
		return nil, err
	}

	airports, err := c.searchLocations(ctx, keyword)
	if errors.Is(err, ErrUnauthorized) {
		c.tokens.Invalidate()
		airports, err = c.searchLocations(ctx, keyword)
	}
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, airports); err != nil {
		log.Printf("Cache set for airports %q failed: %v", keyword, err)
	}
	return airports, nil
}

type locationsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IATACode string `json:"iataCode"`
		SubType  string `json:"subType"`
	} `json:"data"`
}

func (c *Client) searchLocations(ctx context.Context, keyword string) ([]models.Airport, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	params := url.Values{}
	params.Set("subType", "AIRPORT")
	params.Set("keyword", keyword)
	params.Set("page[limit]", fmt.Sprint(PageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/reference-data/locations?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed locationsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse locations response: %w", err)
	}

	airports := make([]models.Airport, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		airports = append(airports, models.Airport{
			ID:   item.ID,
			Name: item.Name,
			Code: item.IATACode,
			Type: item.SubType,
		})
	}
	return airports, nil
}

func (c *Client) fetchToken(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Token{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if result.AccessToken == "" {
		return Token{}, errors.New("token response missing access_token")
	}

	lifetime := time.Duration(result.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}

	return Token{
		AccessToken: result.AccessToken,
		ExpiresAt:   c.tokens.now().Add(lifetime),
	}, nil
}
