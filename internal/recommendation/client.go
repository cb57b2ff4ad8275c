package recommendation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/pkg/entity"
)

const DefaultTimeout = 5 * time.Second

type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts a user's profile to the recommendation model.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     cfg.URL,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Recommend returns ErrUpstreamUnavailable for transport failures, timeouts,
// non-2xx answers and unreadable bodies.
func (c *Client) Recommend(ctx context.Context, req *entity.RecommendationRequest) (*entity.Recommendations, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: no url configured", errorvalues.ErrUpstreamUnavailable)
	}
	body, err := sonic.ConfigDefault.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling recommendation request error: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building recommendation request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Warn("recommendation service answered with error", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", errorvalues.ErrUpstreamUnavailable, resp.StatusCode)
	}
	var recs entity.Recommendations
	if err = sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("%w: invalid body: %s", errorvalues.ErrUpstreamUnavailable, err.Error())
	}
	if recs.RecommendedHabits == nil {
		recs.RecommendedHabits = []entity.RecommendedHabit{}
	}
	return &recs, nil
}
