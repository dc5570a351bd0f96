package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client fetches the published schedule document over HTTP, caching it
// between cron ticks so back-to-back evaluations don't refetch.
type Client struct {
	url  string
	http *http.Client
	ttl  time.Duration

	mu        sync.Mutex
	cached    *Document
	fetchedAt time.Time
}

// NewClient builds a schedule client. ttl controls how long a fetched
// document is reused.
func NewClient(url string, ttl time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 15 * time.Second},
		ttl:  ttl,
	}
}

// Fetch returns the current schedule, from cache when fresh.
func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		doc := c.cached
		c.mu.Unlock()
		return doc, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build schedule request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schedule: status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	c.mu.Lock()
	c.cached = &doc
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return &doc, nil
}
