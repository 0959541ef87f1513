package conversation

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
	CreateConversation(w http.ResponseWriter, r *http.Request)
	GetConversations(w http.ResponseWriter, r *http.Request)
	GetMessages(w http.ResponseWriter, r *http.Request)
	SendQuery(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	conversationService ConversationService
	logger              *slog.Logger
}

func NewConversationHandlerImpl(conversationService ConversationService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		conversationService: conversationService,
		logger:              logger,
	}
}

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

// CreateConversation godoc
// @Summary      Create Conversation
// @Description  Opens a chat thread attached to one of the user's trips.
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Router       /conversations [post]
func (h *HandlerImpl) CreateConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CreateConversation"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateConversationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.conversationService.CreateConversation(ctx, userID, req)
	if err != nil {
		l.WarnContext(ctx, "Conversation creation failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to create conversation")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Data:    conv,
	})
}

// GetConversations godoc
// @Summary      List Conversations
// @Description  Lists the user's chat threads for one trip.
// @Tags         Conversations
// @Router       /trips/{tripID}/conversations [get]
func (h *HandlerImpl) GetConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetConversations"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip id")
		return
	}

	convs, err := h.conversationService.GetConversationsForTrip(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Conversation listing failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to list conversations")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    convs,
	})
}

// GetMessages godoc
// @Summary      List Messages
// @Description  Lists one conversation's messages in chronological order.
// @Tags         Conversations
// @Router       /conversations/{conversationID}/messages [get]
func (h *HandlerImpl) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetMessages"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid conversation id")
		return
	}

	msgs, err := h.conversationService.GetMessages(ctx, userID, conversationID)
	if err != nil {
		l.WarnContext(ctx, "Message listing failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to list messages")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    msgs,
	})
}

// SendQuery godoc
// @Summary      Send Query
// @Description  Sends a question to the assistant and returns its reply.
// @Tags         Conversations
// @Router       /conversations/{conversationID}/query [post]
func (h *HandlerImpl) SendQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "SendQuery"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid conversation id")
		return
	}

	var req SendQueryRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.conversationService.SendQuery(ctx, userID, conversationID, req.Query)
	if err != nil {
		l.ErrorContext(ctx, "Query failed", slog.Any("error", err))
		writeServiceError(w, r, err, "Failed to answer query")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    msg,
	})
}
