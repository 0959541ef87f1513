package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/config"
	"github.com/tripforge/tripforge/internal/types"
)

const defaultTemperature float32 = 0.5

// AIClient wraps the Gemini SDK client. One configured instance is shared by
// injection across the process; inFlight bounds concurrent generation
// requests. Weight 1 serializes them completely, which matches upstream
// quota expectations. Widen via config once the quota allows.
type AIClient struct {
	client   *genai.Client
	model    string
	inFlight *semaphore.Weighted
	logger   *slog.Logger
}

func NewAIClient(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &AIClient{
		client:   client,
		model:    cfg.Model,
		inFlight: semaphore.NewWeighted(cfg.MaxInFlight),
		logger:   logger,
	}, nil
}

// GenerateText issues one generation request and returns the completion text.
// Blocks while the in-flight limit is saturated; honors ctx cancellation both
// while waiting and during the request.
func (ai *AIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ai.inFlight.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for generation slot: %w", err)
	}
	defer ai.inFlight.Release(1)

	m := metrics.Get()
	m.GenerationCallsTotal.Add(ctx, 1)
	start := time.Now()

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](defaultTemperature)}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	m.GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.GenerationErrorsTotal.Add(ctx, 1)
		ai.logger.ErrorContext(ctx, "Generation request failed", slog.Any("error", err))
		return "", classifyError(err)
	}
	return result.Text(), nil
}

// classifyError maps SDK failures onto the shared error kinds so callers and
// presentation layers never inspect message strings.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", types.ErrModelTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %w", types.ErrModelTimeout, err)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %w", types.ErrModelNotReady, err)
		}
	}
	return fmt.Errorf("%w: %w", types.ErrUpstream, err)
}
