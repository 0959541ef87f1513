package trip

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tripforge/tripforge/internal/types"
)

type MockTripRepo struct {
	mock.Mock
}

func (m *MockTripRepo) CreateTrip(ctx context.Context, trip *types.Trip) error {
	return m.Called(ctx, trip).Error(0)
}

func (m *MockTripRepo) CreateTripWithDetails(ctx context.Context, trip *types.Trip, details []*types.Detail) error {
	return m.Called(ctx, trip, details).Error(0)
}

func (m *MockTripRepo) GetTripsForUser(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Trip), args.Error(1)
}

func (m *MockTripRepo) GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, userID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripRepo) UpdateTripContent(ctx context.Context, userID, tripID uuid.UUID, newContent string) error {
	return m.Called(ctx, userID, tripID, newContent).Error(0)
}

func (m *MockTripRepo) CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.Called(ctx, userID, tripID).Error(0)
}

func (m *MockTripRepo) GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error) {
	args := m.Called(ctx, userID, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Detail), args.Error(1)
}

func (m *MockTripRepo) GetDetailForUser(ctx context.Context, userID, detailID uuid.UUID) (*types.Detail, error) {
	args := m.Called(ctx, userID, detailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Detail), args.Error(1)
}

func (m *MockTripRepo) UpdateDetailHTML(ctx context.Context, detailID uuid.UUID, html string) error {
	return m.Called(ctx, detailID, html).Error(0)
}

func (m *MockTripRepo) Analytics(ctx context.Context, userID uuid.UUID) (*types.AnalyticsData, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AnalyticsData), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockCovers struct {
	mock.Mock
}

func (m *MockCovers) PickCover(ctx context.Context, topic string) (*string, error) {
	args := m.Called(ctx, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func newTestService(repo *MockTripRepo, gen *MockGenerator, covers *MockCovers) *TripServiceImpl {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := gocache.New(time.Minute, time.Minute)
	return NewTripService(repo, gen, covers, cache, logger)
}

func TestGenerateDetailContent_AlreadyEnrichedSkipsGeneration(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, detailID := uuid.New(), uuid.New()
	detail := &types.Detail{ID: detailID, TripID: uuid.New(), Title: "Day 1 - Arrival", HTML: "<h1>Arrival</h1>"}
	repo.On("GetDetailForUser", mock.Anything, userID, detailID).Return(detail, nil)

	got, err := svc.GenerateDetailContent(context.Background(), userID, detailID)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Arrival</h1>", got.HTML)
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateDetailHTML", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateDetailContent_PendingDetailGetsTwoCalls(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, tripID, detailID := uuid.New(), uuid.New(), uuid.New()
	detail := &types.Detail{ID: detailID, TripID: tripID, Title: "Day 1 - Arrival", Language: "en"}
	trip := &types.Trip{ID: tripID, UserID: userID, Title: "Portugal"}

	repo.On("GetDetailForUser", mock.Anything, userID, detailID).Return(detail, nil)
	repo.On("GetTripForUser", mock.Anything, userID, tripID).Return(trip, nil)
	gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(p string) bool {
		return p == generateDetailDraftPrompt("Day 1 - Arrival", "Portugal", "en")
	})).Return("a markdown draft", nil).Once()
	gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(p string) bool {
		return p == generateDetailHTMLPrompt("a markdown draft", "en")
	})).Return("```html\n<h1>Arrival</h1>\n```", nil).Once()
	repo.On("UpdateDetailHTML", mock.Anything, detailID, "<h1>Arrival</h1>").Return(nil)

	got, err := svc.GenerateDetailContent(context.Background(), userID, detailID)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Arrival</h1>", got.HTML, "code fence must be stripped before persisting")
	gen.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestGetDetailsForTrip_SelfHealingRead(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, tripID := uuid.New(), uuid.New()
	trip := &types.Trip{ID: tripID, UserID: userID, Title: "Portugal"}
	enriched := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 1 - Lisbon", HTML: "<p>done</p>", Language: "en"}
	pending := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 2 - Porto", Language: "en"}

	repo.On("GetTripForUser", mock.Anything, userID, tripID).Return(trip, nil)
	repo.On("GetDetailsForTrip", mock.Anything, userID, tripID).Return([]*types.Detail{enriched, pending}, nil)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("generated", nil).Once()
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("<p>Porto</p>", nil).Once()
	repo.On("UpdateDetailHTML", mock.Anything, pending.ID, "<p>Porto</p>").Return(nil)

	details, err := svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "<p>done</p>", details[0].HTML, "already-enriched details never regenerate")
	assert.Equal(t, "<p>Porto</p>", details[1].HTML)
	gen.AssertNumberOfCalls(t, "GenerateText", 2)
	repo.AssertNumberOfCalls(t, "UpdateDetailHTML", 1)
}

func TestGetDetailsForTrip_PartialFailureIsDurable(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, tripID := uuid.New(), uuid.New()
	trip := &types.Trip{ID: tripID, UserID: userID, Title: "Portugal"}
	first := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 1 - Lisbon", Language: "en"}
	second := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 2 - Porto", Language: "en"}

	repo.On("GetTripForUser", mock.Anything, userID, tripID).Return(trip, nil)
	repo.On("GetDetailsForTrip", mock.Anything, userID, tripID).Return([]*types.Detail{first, second}, nil)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("draft one", nil).Once()
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("<p>Lisbon</p>", nil).Once()
	repo.On("UpdateDetailHTML", mock.Anything, first.ID, "<p>Lisbon</p>").Return(nil)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("", types.ErrModelNotReady).Once()

	_, err := svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrModelNotReady)
	// The first detail's write happened before the failure and is not undone.
	repo.AssertCalled(t, "UpdateDetailHTML", mock.Anything, first.ID, "<p>Lisbon</p>")
	repo.AssertNumberOfCalls(t, "UpdateDetailHTML", 1)
}

func TestGenerateTripOutline_ZeroDetailsIsValid(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID := uuid.New()
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("The model chatted instead of planning.", nil).Once()
	covers.On("PickCover", mock.Anything, "Japan").Return(nil, nil)
	repo.On("CreateTripWithDetails", mock.Anything, mock.Anything, mock.MatchedBy(func(d []*types.Detail) bool {
		return len(d) == 0
	})).Return(nil)

	resp, err := svc.GenerateTripOutline(context.Background(), userID, GenerateTripRequest{
		Title: "Japan", Subtitle: "Tokyo and Kyoto", Budget: 3000, Language: "en",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Details)
	assert.Nil(t, resp.Trip.Cover, "missing cover is tolerated")
	assert.Equal(t, userID, resp.Trip.UserID)
	repo.AssertExpectations(t)
}

func TestGenerateTripOutline_ValidationRejectsEmptyTitle(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	_, err := svc.GenerateTripOutline(context.Background(), uuid.New(), GenerateTripRequest{Subtitle: "somewhere"})
	assert.ErrorIs(t, err, types.ErrValidation)
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestGenerateTripOutline_CoverComesFromPicker(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	outline := "### Day 1: Arrival\n#### Place 1: Airport\n**Estimated Duration:** 30 minutes\n* Land\n"
	cover := "https://images.example/photo.jpg"
	gen.On("GenerateText", mock.Anything, mock.Anything).Return(outline, nil).Once()
	covers.On("PickCover", mock.Anything, "Japan").Return(&cover, nil)
	repo.On("CreateTripWithDetails", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.GenerateTripOutline(context.Background(), uuid.New(), GenerateTripRequest{
		Title: "Japan", Subtitle: "Tokyo", Language: "en",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Trip.Cover)
	assert.Equal(t, cover, *resp.Trip.Cover)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Day 1 - Arrival", resp.Details[0].Title)
}

func TestGenerateTripOutline_TripTypeMirrorsTitle(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	gen.On("GenerateText", mock.Anything, mock.Anything).Return("no headings here", nil).Once()
	covers.On("PickCover", mock.Anything, "Japan").Return(nil, nil)
	repo.On("CreateTripWithDetails", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.GenerateTripOutline(context.Background(), uuid.New(), GenerateTripRequest{
		Title: "Japan", Subtitle: "Tokyo", Language: "en",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Trip.TripType)
	assert.Equal(t, "Japan", *resp.Trip.TripType)
}

func TestGetDetailsForTrip_CachedUntilDetailChanges(t *testing.T) {
	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, tripID := uuid.New(), uuid.New()
	trip := &types.Trip{ID: tripID, UserID: userID, Title: "Portugal"}
	enriched := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 1 - Lisbon", HTML: "<p>done</p>", Language: "en"}

	repo.On("GetTripForUser", mock.Anything, userID, tripID).Return(trip, nil)
	repo.On("GetDetailsForTrip", mock.Anything, userID, tripID).Return([]*types.Detail{enriched}, nil)

	_, err := svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)
	_, err = svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetDetailsForTrip", 1)

	// Enriching a detail on demand invalidates the cached list.
	pending := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 2 - Porto", Language: "en"}
	repo.On("GetDetailForUser", mock.Anything, userID, pending.ID).Return(pending, nil)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("draft", nil).Once()
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("<p>Porto</p>", nil).Once()
	repo.On("UpdateDetailHTML", mock.Anything, pending.ID, "<p>Porto</p>").Return(nil)

	_, err = svc.GenerateDetailContent(context.Background(), userID, pending.ID)
	require.NoError(t, err)

	_, err = svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetDetailsForTrip", 2)
}

func TestGetDetailsForTrip_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	repo := new(MockTripRepo)
	gen := new(MockGenerator)
	covers := new(MockCovers)
	svc := newTestService(repo, gen, covers)

	userID, tripID := uuid.New(), uuid.New()
	trip := &types.Trip{ID: tripID, UserID: userID, Title: "Portugal"}
	pending := &types.Detail{ID: uuid.New(), TripID: tripID, Title: "Day 1 - Lisbon", Language: "en"}

	repo.On("GetTripForUser", mock.Anything, userID, tripID).Return(trip, nil)
	repo.On("GetDetailsForTrip", mock.Anything, userID, tripID).Return([]*types.Detail{pending}, nil)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("draft", nil).Once()
	gen.On("GenerateText", mock.Anything, mock.Anything).Return("<p>Lisbon</p>", nil).Once()
	repo.On("UpdateDetailHTML", mock.Anything, pending.ID, "<p>Lisbon</p>").Return(nil)

	_, err := svc.GetDetailsForTrip(context.Background(), userID, tripID)
	require.NoError(t, err)

	status := map[string]codes.Code{}
	for _, s := range sr.Ended() {
		status[s.Name()] = s.Status().Code
	}
	assert.Equal(t, codes.Ok, status["GetDetailsForTrip"])
	assert.Equal(t, codes.Ok, status["enrichDetail"])
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"html fence", "```html\n<h1>Hi</h1>\n```", "<h1>Hi</h1>"},
		{"bare fence", "```\n<p>x</p>\n```", "<p>x</p>"},
		{"no fence", "  <p>x</p>\n", "<p>x</p>"},
		{"fence only", "```html", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}
