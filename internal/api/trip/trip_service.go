package trip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/internal/types"
)

// TextGenerator is the slice of the generation client the trip pipeline
// needs. The concrete client bounds in-flight calls itself; callers here
// never coordinate around it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// CoverPicker returns zero-or-one image URL for a free-text topic. A nil URL
// with a nil error means "no cover found", which trip creation tolerates.
type CoverPicker interface {
	PickCover(ctx context.Context, topic string) (*string, error)
}

var _ TripService = (*TripServiceImpl)(nil)

// TripService orchestrates outline generation, parsing, enrichment and
// persistence for one user's trips.
type TripService interface {
	GenerateTripOutline(ctx context.Context, userID uuid.UUID, req GenerateTripRequest) (*GenerateTripOutlineResponse, error)
	StoreTrip(ctx context.Context, userID uuid.UUID, req StoreTripRequest) (*types.Trip, error)
	GetTripsForUser(ctx context.Context, userID uuid.UUID) ([]types.Trip, error)
	GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	UpdateTripContent(ctx context.Context, userID, tripID uuid.UUID, newContent string) error
	CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) error
	GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error)
	GenerateDetailContent(ctx context.Context, userID, detailID uuid.UUID) (*types.Detail, error)
	FetchAnalytics(ctx context.Context, userID uuid.UUID) (*types.AnalyticsData, error)
}

type TripServiceImpl struct {
	repo      TripRepo
	generator TextGenerator
	covers    CoverPicker
	cache     *gocache.Cache
	logger    *slog.Logger
}

func NewTripService(repo TripRepo, generator TextGenerator, covers CoverPicker, cache *gocache.Cache, logger *slog.Logger) *TripServiceImpl {
	return &TripServiceImpl{
		repo:      repo,
		generator: generator,
		covers:    covers,
		cache:     cache,
		logger:    logger,
	}
}

const defaultLanguage = "English"

// GenerateTripOutline runs the full pipeline: one generation call for the
// outline, parsing into details, one cover lookup, then a single
// transactional insert of the trip and all details. Zero parsed details is
// valid output (the model produced prose without the expected headings) and
// still creates the trip so the user can see what happened.
//
// With EagerEnrich set, details are enriched sequentially in outline order
// afterwards; the first enrichment failure aborts the remainder but the trip
// and every already-enriched detail stay persisted.
func (s *TripServiceImpl) GenerateTripOutline(ctx context.Context, userID uuid.UUID, req GenerateTripRequest) (*GenerateTripOutlineResponse, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GenerateTripOutline", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GenerateTripOutline"), slog.String("user_id", userID.String()))

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Subtitle) == "" {
		return nil, fmt.Errorf("%w: title and subtitle are required", types.ErrValidation)
	}
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	outline, err := s.generator.GenerateText(ctx, generateOutlinePrompt(req.Title, req.Subtitle, req.Budget, language))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Outline generation failed")
		return nil, fmt.Errorf("failed to generate outline: %w", err)
	}

	tripID := uuid.New()
	details := parseOutline(outline, tripID, language)
	metrics.Get().OutlineDetailsParsed.Add(ctx, int64(len(details)))
	if len(details) == 0 {
		l.WarnContext(ctx, "Outline produced no parseable details", slog.Int("outline_len", len(outline)))
	}

	cover, err := s.covers.PickCover(ctx, req.Title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cover lookup failed")
		return nil, fmt.Errorf("failed to pick cover: %w", err)
	}

	now := time.Now()
	subtitle := req.Subtitle
	tripType := req.Title
	trip := &types.Trip{
		ID:        tripID,
		UserID:    userID,
		Title:     req.Title,
		Subtitle:  &subtitle,
		TripType:  &tripType,
		Cover:     cover,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.repo.CreateTripWithDetails(ctx, trip, details); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist trip")
		return nil, err
	}
	s.cache.Delete(tripsKey(userID))

	if req.EagerEnrich {
		for _, d := range details {
			if err = s.enrichDetail(ctx, trip.Title, d); err != nil {
				l.ErrorContext(ctx, "Eager enrichment stopped",
					slog.String("detail_id", d.ID.String()), slog.Any("error", err))
				span.RecordError(err)
				span.SetStatus(codes.Error, "Eager enrichment stopped")
				return nil, fmt.Errorf("enrichment stopped at detail %s: %w", d.ID, err)
			}
		}
		s.cache.Delete(detailsKey(userID, tripID))
	}

	l.InfoContext(ctx, "Trip generated", slog.String("trip_id", tripID.String()), slog.Int("details", len(details)))
	span.SetStatus(codes.Ok, "Trip generated")
	return &GenerateTripOutlineResponse{Trip: trip, Details: details}, nil
}

// StoreTrip creates a trip directly, with no generation involved. The cover
// is still looked up so manually created trips render like generated ones.
func (s *TripServiceImpl) StoreTrip(ctx context.Context, userID uuid.UUID, req StoreTripRequest) (*types.Trip, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", types.ErrValidation)
	}
	cover, err := s.covers.PickCover(ctx, req.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to pick cover: %w", err)
	}
	now := time.Now()
	trip := &types.Trip{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     req.Title,
		TripType:  req.TripType,
		Cover:     cover,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Subtitle != "" {
		trip.Subtitle = &req.Subtitle
	}
	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}
	s.cache.Delete(tripsKey(userID))
	return trip, nil
}

func (s *TripServiceImpl) GetTripsForUser(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	if cached, ok := s.cache.Get(tripsKey(userID)); ok {
		return cached.([]types.Trip), nil
	}
	trips, err := s.repo.GetTripsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(tripsKey(userID), trips)
	return trips, nil
}

func (s *TripServiceImpl) GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	if cached, ok := s.cache.Get(tripKey(userID, tripID)); ok {
		return cached.(*types.Trip), nil
	}
	trip, err := s.repo.GetTripForUser(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(tripKey(userID, tripID), trip)
	return trip, nil
}

func (s *TripServiceImpl) UpdateTripContent(ctx context.Context, userID, tripID uuid.UUID, newContent string) error {
	if err := s.repo.UpdateTripContent(ctx, userID, tripID, newContent); err != nil {
		return err
	}
	s.cache.Delete(tripKey(userID, tripID))
	s.cache.Delete(tripsKey(userID))
	return nil
}

func (s *TripServiceImpl) CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	if err := s.repo.CompleteTrip(ctx, userID, tripID); err != nil {
		return err
	}
	s.cache.Delete(tripKey(userID, tripID))
	s.cache.Delete(tripsKey(userID))
	return nil
}

// GetDetailsForTrip returns the trip's details in outline order, enriching
// any that still carry an empty HTML body before returning (self-healing
// read). The first enrichment failure aborts the read; details enriched
// before the failure stay persisted.
func (s *TripServiceImpl) GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetDetailsForTrip", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if cached, ok := s.cache.Get(detailsKey(userID, tripID)); ok {
		span.SetStatus(codes.Ok, "Details served from cache")
		return cached.([]*types.Detail), nil
	}
	trip, err := s.GetTripForUser(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch trip")
		return nil, err
	}
	details, err := s.repo.GetDetailsForTrip(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch details")
		return nil, err
	}
	for _, d := range details {
		if !d.PendingEnrichment() {
			continue
		}
		if err = s.enrichDetail(ctx, trip.Title, d); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Enrichment stopped")
			return nil, fmt.Errorf("enrichment stopped at detail %s: %w", d.ID, err)
		}
	}
	s.cache.SetDefault(detailsKey(userID, tripID), details)
	span.SetStatus(codes.Ok, "Details fetched")
	return details, nil
}

// GenerateDetailContent enriches one detail on demand. Already-enriched
// details are returned unchanged; enrichment never runs twice for the same
// body.
func (s *TripServiceImpl) GenerateDetailContent(ctx context.Context, userID, detailID uuid.UUID) (*types.Detail, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GenerateDetailContent", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("detail.id", detailID.String()),
	))
	defer span.End()

	detail, err := s.repo.GetDetailForUser(ctx, userID, detailID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch detail")
		return nil, err
	}
	if !detail.PendingEnrichment() {
		span.SetStatus(codes.Ok, "Detail already enriched")
		return detail, nil
	}
	trip, err := s.GetTripForUser(ctx, userID, detail.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch trip")
		return nil, err
	}
	if err = s.enrichDetail(ctx, trip.Title, detail); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Enrichment failed")
		return nil, err
	}
	s.cache.Delete(detailsKey(userID, detail.TripID))
	span.SetStatus(codes.Ok, "Detail enriched")
	return detail, nil
}

func (s *TripServiceImpl) FetchAnalytics(ctx context.Context, userID uuid.UUID) (*types.AnalyticsData, error) {
	return s.repo.Analytics(ctx, userID)
}

// enrichDetail issues the two-step generation (prose draft, then HTML
// rendering of that draft), strips any code fences the model wrapped the
// HTML in, and persists the result. An empty body after stripping is an
// upstream defect and is rejected so the pending sentinel stays intact.
func (s *TripServiceImpl) enrichDetail(ctx context.Context, tripTitle string, detail *types.Detail) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "enrichDetail", trace.WithAttributes(
		attribute.String("detail.id", detail.ID.String()),
	))
	defer span.End()

	draft, err := s.generator.GenerateText(ctx, generateDetailDraftPrompt(detail.Title, tripTitle, detail.Language))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Draft generation failed")
		return fmt.Errorf("draft generation failed: %w", err)
	}
	html, err := s.generator.GenerateText(ctx, generateDetailHTMLPrompt(draft, detail.Language))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "HTML generation failed")
		return fmt.Errorf("html generation failed: %w", err)
	}
	html = stripCodeFences(html)
	if html == "" {
		err = fmt.Errorf("%w: enrichment returned empty html", types.ErrEmptyCompletion)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Enrichment returned empty html")
		return err
	}
	if err = s.repo.UpdateDetailHTML(ctx, detail.ID, html); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist enriched html")
		return err
	}
	detail.HTML = html
	detail.UpdatedAt = time.Now()
	span.SetStatus(codes.Ok, "Detail enriched")
	return nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, from a generation response. Text without fences passes
// through untouched apart from whitespace trimming.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
			s = strings.TrimPrefix(s, "html")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func tripsKey(userID uuid.UUID) string {
	return "trips:" + userID.String()
}

func tripKey(userID, tripID uuid.UUID) string {
	return "trip:" + userID.String() + ":" + tripID.String()
}

func detailsKey(userID, tripID uuid.UUID) string {
	return "details:" + userID.String() + ":" + tripID.String()
}
