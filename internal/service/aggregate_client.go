package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/jjenkins/billtracker/internal/model"
)

// AggregateClient reads the optional aggregate counts feed
type AggregateClient struct {
	client *resty.Client
	url    string
}

// NewAggregateClient creates a client for url. An empty url disables the feed.
func NewAggregateClient(url string) *AggregateClient {
	return &AggregateClient{
		client: resty.New().SetTimeout(defaultTimeout).SetHeader("Accept", "application/json"),
		url:    url,
	}
}

// Enabled reports whether a feed URL is configured
func (c *AggregateClient) Enabled() bool {
	return c != nil && c.url != ""
}

// FetchCounts returns the feed's stat/value pairs. Without a configured
// URL it returns nil and makes no request.
func (c *AggregateClient) FetchCounts(ctx context.Context) ([]model.Stat, error) {
	if !c.Enabled() {
		return nil, nil
	}

	resp, err := c.client.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, &model.FetchError{Resource: "aggregate counts", ID: c.url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &model.FetchError{Resource: "aggregate counts", ID: c.url, Status: resp.StatusCode()}
	}

	var stats []model.Stat
	if err := json.Unmarshal(resp.Body(), &stats); err != nil {
		return nil, fmt.Errorf("failed to parse aggregate counts: %w", err)
	}
	return stats, nil
}
