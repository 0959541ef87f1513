package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tripforge/tripforge/internal/api/auth"
	"github.com/tripforge/tripforge/internal/api/conversation"
	"github.com/tripforge/tripforge/internal/api/trip"
)

// Config contains the handlers and middleware the router wires together.
type Config struct {
	AuthHandler            auth.Handler
	TripHandler            trip.Handler
	ConversationHandler    conversation.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter builds the API route tree. Server-wide middleware (request id,
// logging, recoverer) is applied by the caller before mounting this router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)
		})

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/me", cfg.AuthHandler.AboutMe)
			r.Get("/dashboard/overview", cfg.AuthHandler.DashboardOverview)

			r.Post("/trips", cfg.TripHandler.StoreTrip)
			r.Post("/trips/generate", cfg.TripHandler.GenerateTrip)
			r.Get("/trips", cfg.TripHandler.GetTrips)
			r.Get("/trips/{tripID}", cfg.TripHandler.GetTrip)
			r.Put("/trips/{tripID}/content", cfg.TripHandler.UpdateTripContent)
			r.Post("/trips/{tripID}/complete", cfg.TripHandler.CompleteTrip)
			r.Get("/trips/{tripID}/details", cfg.TripHandler.GetTripDetails)
			r.Post("/details/{detailID}/generate", cfg.TripHandler.GenerateDetailContent)
			r.Get("/analytics", cfg.TripHandler.GetAnalytics)

			r.Post("/conversations", cfg.ConversationHandler.CreateConversation)
			r.Get("/trips/{tripID}/conversations", cfg.ConversationHandler.GetConversations)
			r.Get("/conversations/{conversationID}/messages", cfg.ConversationHandler.GetMessages)
			r.Post("/conversations/{conversationID}/query", cfg.ConversationHandler.SendQuery)
		})
	})

	return r
}
