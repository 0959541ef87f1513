package photo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/config"
	"github.com/tripforge/tripforge/internal/types"
)

// searchPhotosResponse mirrors the subset of the Unsplash search-photos
// payload the picker needs.
type searchPhotosResponse struct {
	Total   int `json:"total"`
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Client queries the Unsplash search API for cover photos. Shared by
// injection; inFlight bounds concurrent searches.
type Client struct {
	rest     *resty.Client
	inFlight *semaphore.Weighted
	logger   *slog.Logger
}

func NewClient(cfg config.UnsplashConfig, logger *slog.Logger) (*Client, error) {
	apiKey := os.Getenv("UNSPLASH_API_KEY")
	if apiKey == "" {
		return nil, errors.New("UNSPLASH_API_KEY environment variable is not set")
	}
	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Client-ID "+apiKey).
		SetHeader("Accept-Version", "v1").
		SetTimeout(15 * time.Second)

	return &Client{
		rest:     rest,
		inFlight: semaphore.NewWeighted(cfg.MaxInFlight),
		logger:   logger,
	}, nil
}

// newClientForTest builds a Client against an arbitrary base URL with no key
// requirement. Used by tests.
func newClientForTest(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		rest:     resty.New().SetBaseURL(baseURL),
		inFlight: semaphore.NewWeighted(1),
		logger:   logger,
	}
}

// PickCover searches photos for the topic and returns one URL chosen
// uniformly at random from the result set, or nil when nothing matched.
// An empty result set is not an error; trip creation tolerates a missing
// cover.
func (c *Client) PickCover(ctx context.Context, topic string) (*string, error) {
	if err := c.inFlight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for photo-search slot: %w", err)
	}
	defer c.inFlight.Release(1)

	metrics.Get().CoverLookupsTotal.Add(ctx, 1)

	var body searchPhotosResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("query", topic).
		SetQueryParam("per_page", "10").
		SetResult(&body).
		Get("/search/photos")
	if err != nil {
		return nil, fmt.Errorf("%w: photo search: %w", types.ErrUpstream, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.ErrorContext(ctx, "Unexpected photo-search response",
			slog.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%w: photo search returned status %d", types.ErrUpstream, resp.StatusCode())
	}

	urls := make([]string, 0, len(body.Results))
	for _, photo := range body.Results {
		if photo.URLs.Regular != "" {
			urls = append(urls, photo.URLs.Regular)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}

	pick := urls[rand.IntN(len(urls))]
	return &pick, nil
}
