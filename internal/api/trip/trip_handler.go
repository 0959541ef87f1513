package trip

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripforge/tripforge/internal/api"
	"github.com/tripforge/tripforge/internal/api/auth"
	"github.com/tripforge/tripforge/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GenerateTrip(w http.ResponseWriter, r *http.Request)
	StoreTrip(w http.ResponseWriter, r *http.Request)
	GetTrips(w http.ResponseWriter, r *http.Request)
	GetTrip(w http.ResponseWriter, r *http.Request)
	UpdateTripContent(w http.ResponseWriter, r *http.Request)
	CompleteTrip(w http.ResponseWriter, r *http.Request)
	GetTripDetails(w http.ResponseWriter, r *http.Request)
	GenerateDetailContent(w http.ResponseWriter, r *http.Request)
	GetAnalytics(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	tripService TripService
	logger      *slog.Logger
}

func NewTripHandlerImpl(tripService TripService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		tripService: tripService,
		logger:      logger,
	}
}

// writeServiceError maps the shared error kinds to HTTP statuses so no
// handler ever inspects error strings.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, types.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, types.ErrModelTimeout):
		api.ErrorResponse(w, r, http.StatusGatewayTimeout, "Generation service timed out")
	case errors.Is(err, types.ErrModelNotReady), errors.Is(err, types.ErrUpstream), errors.Is(err, types.ErrEmptyCompletion):
		api.ErrorResponse(w, r, http.StatusBadGateway, "Generation service is unavailable")
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func parsePathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, types.ErrValidation
	}
	return id, nil
}

// GenerateTrip godoc
// @Summary      Generate Trip
// @Description  Generates a full itinerary from a title and destination.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Router       /trips/generate [post]
func (h *HandlerImpl) GenerateTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GenerateTrip"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req GenerateTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.tripService.GenerateTripOutline(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Trip generation failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to generate trip")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Data:    resp,
	})
}

// StoreTrip godoc
// @Summary      Store Trip
// @Description  Creates a trip without generation.
// @Tags         Trips
// @Router       /trips [post]
func (h *HandlerImpl) StoreTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "StoreTrip"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req StoreTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := h.tripService.StoreTrip(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Trip store failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to store trip")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Data:    trip,
	})
}

// GetTrips godoc
// @Summary      List Trips
// @Description  Lists the authenticated user's trips, newest first.
// @Tags         Trips
// @Router       /trips [get]
func (h *HandlerImpl) GetTrips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetTrips"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	trips, err := h.tripService.GetTripsForUser(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Trip listing failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to list trips")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    trips,
	})
}

// GetTrip godoc
// @Summary      Get Trip
// @Description  Fetches one trip owned by the authenticated user.
// @Tags         Trips
// @Router       /trips/{tripID} [get]
func (h *HandlerImpl) GetTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetTrip"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := parsePathID(r, "tripID")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip id")
		return
	}

	trip, err := h.tripService.GetTripForUser(ctx, userID, tripID)
	if err != nil {
		l.WarnContext(ctx, "Trip fetch failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to fetch trip")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    trip,
	})
}

// UpdateTripContent godoc
// @Summary      Update Trip Content
// @Description  Replaces the trip's free-text content.
// @Tags         Trips
// @Router       /trips/{tripID}/content [put]
func (h *HandlerImpl) UpdateTripContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateTripContent"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := parsePathID(r, "tripID")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip id")
		return
	}

	var req UpdateTripContentRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err = h.tripService.UpdateTripContent(ctx, userID, tripID, req.NewContent); err != nil {
		l.WarnContext(ctx, "Trip content update failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to update trip")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Trip updated",
	})
}

// CompleteTrip godoc
// @Summary      Complete Trip
// @Description  Marks a trip as completed.
// @Tags         Trips
// @Router       /trips/{tripID}/complete [post]
func (h *HandlerImpl) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CompleteTrip"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := parsePathID(r, "tripID")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip id")
		return
	}

	if err = h.tripService.CompleteTrip(ctx, userID, tripID); err != nil {
		l.WarnContext(ctx, "Trip completion failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to complete trip")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Trip completed",
	})
}

// GetTripDetails godoc
// @Summary      Get Trip Details
// @Description  Lists a trip's details in outline order, enriching pending ones inline.
// @Tags         Trips
// @Router       /trips/{tripID}/details [get]
func (h *HandlerImpl) GetTripDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetTripDetails"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := parsePathID(r, "tripID")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip id")
		return
	}

	details, err := h.tripService.GetDetailsForTrip(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Detail listing failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to fetch trip details")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    details,
	})
}

// GenerateDetailContent godoc
// @Summary      Generate Detail Content
// @Description  Enriches one pending detail on demand.
// @Tags         Trips
// @Router       /details/{detailID}/generate [post]
func (h *HandlerImpl) GenerateDetailContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GenerateDetailContent"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	detailID, err := parsePathID(r, "detailID")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid detail id")
		return
	}

	detail, err := h.tripService.GenerateDetailContent(ctx, userID, detailID)
	if err != nil {
		l.ErrorContext(ctx, "Detail enrichment failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to generate detail content")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    detail,
	})
}

// GetAnalytics godoc
// @Summary      Get Analytics
// @Description  Returns the authenticated user's dashboard aggregates.
// @Tags         Analytics
// @Router       /analytics [get]
func (h *HandlerImpl) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetAnalytics"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	data, err := h.tripService.FetchAnalytics(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Analytics fetch failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to fetch analytics")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    data,
	})
}
