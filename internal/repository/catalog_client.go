package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/yourorg/catalogdash/internal/apperrors"
	"github.com/yourorg/catalogdash/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://dummyjson.com"
	DefaultTimeout = 10 * time.Second
)

type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failed fetches that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	Transport          http.RoundTripper
}

type catalogResponse struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

// CatalogClient reads product pages from the remote catalog service. Every call
// makes at most one network attempt; nothing is cached.
type CatalogClient struct {
	baseURL *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*catalogResponse]
}

func NewCatalogClient(cfg CatalogConfig) (*CatalogClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog base url must be absolute: %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &CatalogClient{
		baseURL: base,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
	if cfg.BreakerFailures > 0 {
		c.breaker = newBreaker(cfg.BreakerFailures, cfg.BreakerOpenTimeout)
	}
	return c, nil
}

func newBreaker(failures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker[*catalogResponse] {
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[*catalogResponse](gobreaker.Settings{
		Name:        "catalog-client",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The caller giving up says nothing about the health of the catalog.
			if errors.Is(err, context.Canceled) {
				return true
			}
			var fetchErr *apperrors.FetchError
			if errors.As(err, &fetchErr) && fetchErr.Status >= 400 && fetchErr.Status < 500 {
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// FetchPage loads one page of products, searching when search is non-empty.
func (c *CatalogClient) FetchPage(ctx context.Context, page, pageSize int, search string) (*models.PageResult, error) {
	if page < 1 {
		return nil, apperrors.NewValidationError("page", "page must be at least 1")
	}
	if pageSize < 1 {
		return nil, apperrors.NewValidationError("limit", "limit must be greater than 0")
	}

	target := pageURL(c.baseURL, page, pageSize, search)

	var (
		resp *catalogResponse
		err  error
	)
	if c.breaker != nil {
		resp, err = c.breaker.Execute(func() (*catalogResponse, error) {
			return c.get(ctx, target)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperrors.NewFetchError(0, err)
		}
	} else {
		resp, err = c.get(ctx, target)
	}
	if err != nil {
		return nil, err
	}

	products := resp.Products
	if products == nil {
		products = []models.Product{}
	}
	return &models.PageResult{
		Products:    products,
		Total:       resp.Total,
		TotalPages:  totalPages(resp.Total, pageSize),
		CurrentPage: page,
	}, nil
}

func (c *CatalogClient) get(ctx context.Context, target string) (*catalogResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.NewFetchError(0, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError(0, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, apperrors.NewFetchError(res.StatusCode, fmt.Errorf("unexpected status %s", res.Status))
	}

	var body catalogResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, apperrors.NewFetchError(res.StatusCode, fmt.Errorf("decode catalog response: %w", err))
	}
	return &body, nil
}
