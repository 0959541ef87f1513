package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tripforge/tripforge/config"
	"github.com/tripforge/tripforge/internal/api/auth"
	"github.com/tripforge/tripforge/internal/api/conversation"
	generativeAI "github.com/tripforge/tripforge/internal/api/generative_ai"
	"github.com/tripforge/tripforge/internal/api/photo"
	"github.com/tripforge/tripforge/internal/api/trip"
)

// Container wires repositories, services and handlers around the shared
// pool, generation client and photo client. One instance lives for the
// process.
type Container struct {
	AuthHandler         auth.Handler
	TripHandler         trip.Handler
	ConversationHandler conversation.Handler

	AuthService         auth.AuthService
	TripService         trip.TripService
	ConversationService conversation.ConversationService
}

func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Gemini, logger)
	if err != nil {
		return nil, err
	}
	photoClient, err := photo.NewClient(cfg.Unsplash, logger)
	if err != nil {
		return nil, err
	}
	cache := gocache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg, logger)

	tripRepo := trip.NewPostgresTripRepo(pool, logger)
	tripService := trip.NewTripService(tripRepo, aiClient, photoClient, cache, logger)

	convRepo := conversation.NewPostgresConversationRepo(pool, logger)
	convService := conversation.NewConversationService(convRepo, tripService, aiClient, logger)

	return &Container{
		AuthHandler:         auth.NewAuthHandlerImpl(authService, logger),
		TripHandler:         trip.NewTripHandlerImpl(tripService, logger),
		ConversationHandler: conversation.NewConversationHandlerImpl(convService, logger),
		AuthService:         authService,
		TripService:         tripService,
		ConversationService: convService,
	}, nil
}
