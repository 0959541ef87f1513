package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripforge/tripforge/internal/types"
)

// TextGenerator is the slice of the generation client the chat path needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TripContext provides the owner-checked trip data the assistant grounds its
// answers in. Satisfied by the trip service, so a chat read shares the same
// self-healing detail semantics as the trip pages.
type TripContext interface {
	GetTripForUser(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	GetDetailsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]*types.Detail, error)
}

var _ ConversationService = (*ConversationServiceImpl)(nil)

// ConversationService manages chat threads attached to trips and runs the
// assistant round-trip for follow-up questions.
type ConversationService interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, req CreateConversationRequest) (*types.Conversation, error)
	GetConversationsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]types.Conversation, error)
	GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]types.Message, error)
	// SendQuery persists the user's question, asks the generation service for
	// an HTML answer grounded in the conversation's trip, persists that answer
	// as the assistant message and returns it.
	SendQuery(ctx context.Context, userID, conversationID uuid.UUID, query string) (*types.Message, error)
}

type ConversationServiceImpl struct {
	repo      ConversationRepo
	trips     TripContext
	generator TextGenerator
	logger    *slog.Logger
}

func NewConversationService(repo ConversationRepo, trips TripContext, generator TextGenerator, logger *slog.Logger) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		repo:      repo,
		trips:     trips,
		generator: generator,
		logger:    logger,
	}
}

func (s *ConversationServiceImpl) CreateConversation(ctx context.Context, userID uuid.UUID, req CreateConversationRequest) (*types.Conversation, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trip id", types.ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", types.ErrValidation)
	}
	// Owner check before attaching a thread to the trip.
	if _, err = s.trips.GetTripForUser(ctx, userID, tripID); err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &types.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		TripID:    tripID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationServiceImpl) GetConversationsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]types.Conversation, error) {
	return s.repo.GetConversationsForTrip(ctx, userID, tripID)
}

func (s *ConversationServiceImpl) GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]types.Message, error) {
	if _, err := s.repo.GetConversationForUser(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, conversationID)
}

func (s *ConversationServiceImpl) SendQuery(ctx context.Context, userID, conversationID uuid.UUID, query string) (*types.Message, error) {
	ctx, span := otel.Tracer("ConversationService").Start(ctx, "SendQuery", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("conversation.id", conversationID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SendQuery"), slog.String("conversation_id", conversationID.String()))

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", types.ErrValidation)
	}
	conv, err := s.repo.GetConversationForUser(ctx, userID, conversationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch conversation")
		return nil, err
	}
	trip, err := s.trips.GetTripForUser(ctx, userID, conv.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch trip")
		return nil, err
	}
	details, err := s.trips.GetDetailsForTrip(ctx, userID, conv.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch trip details")
		return nil, err
	}

	userMsg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         types.SenderUser,
		Content:        query,
		Timestamp:      time.Now(),
	}
	if err = s.repo.SaveMessage(ctx, userMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save user message")
		return nil, err
	}

	answer, err := s.generator.GenerateText(ctx, buildAssistantPrompt(trip, details, query))
	if err != nil {
		// The question is already persisted; the user can resubmit and the
		// thread shows what was asked.
		l.ErrorContext(ctx, "Assistant generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Assistant generation failed")
		return nil, fmt.Errorf("failed to generate assistant reply: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: assistant returned empty reply", types.ErrEmptyCompletion)
	}

	assistantMsg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         types.SenderAssistant,
		Content:        answer,
		Timestamp:      time.Now(),
	}
	if err = s.repo.SaveMessage(ctx, assistantMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save assistant message")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Assistant reply generated")
	return assistantMsg, nil
}

// buildAssistantPrompt grounds the assistant in the trip the conversation is
// attached to so answers stay specific to the user's itinerary.
func buildAssistantPrompt(trip *types.Trip, details []*types.Detail, query string) string {
	var b strings.Builder
	b.WriteString("**System Prompt (SP):** You are a travel assistant answering follow-up questions about one specific trip.\n\n")
	fmt.Fprintf(&b, "The trip is titled '%s'", trip.Title)
	if trip.Subtitle != nil {
		fmt.Fprintf(&b, " with destination '%s'", *trip.Subtitle)
	}
	b.WriteString(". Its itinerary:\n")
	for _, d := range details {
		fmt.Fprintf(&b, "- %s (%d minutes)\n", d.Title, d.EstimatedDuration)
	}
	b.WriteString("\n**Prompt (P):** Answer the following question using the itinerary above as context. ")
	b.WriteString("Respond with HTML using <h2>, <h3> and <p> tags only, never markdown.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", query)
	return b.String()
}
