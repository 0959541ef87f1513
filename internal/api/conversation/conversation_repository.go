package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/internal/types"
)

// PgxPool is the pool surface the repository needs. Satisfied by
// *pgxpool.Pool in production and by pgxmock in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var _ ConversationRepo = (*PostgresConversationRepo)(nil)

// ConversationRepo persists chat threads and their messages. Conversation
// reads filter on the owning user; message access goes through the
// owner-filtered conversation fetch first.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *types.Conversation) error
	GetConversationsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]types.Conversation, error)
	GetConversationForUser(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error)
	SaveMessage(ctx context.Context, msg *types.Message) error
}

type PostgresConversationRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresConversationRepo(pgpool PgxPool, logger *slog.Logger) *PostgresConversationRepo {
	return &PostgresConversationRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresConversationRepo) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, trip_id, title, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		conv.ID, conv.UserID, conv.TripID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert conversation", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *PostgresConversationRepo) GetConversationsForTrip(ctx context.Context, userID, tripID uuid.UUID) ([]types.Conversation, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, user_id, trip_id, title, created_at, updated_at
         FROM conversations WHERE user_id = $1 AND trip_id = $2 ORDER BY created_at ASC`,
		userID, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch conversations", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]types.Conversation, 0)
	for rows.Next() {
		var c types.Conversation
		if err = rows.Scan(&c.ID, &c.UserID, &c.TripID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return convs, nil
}

func (r *PostgresConversationRepo) GetConversationForUser(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	var c types.Conversation
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, user_id, trip_id, title, created_at, updated_at
         FROM conversations WHERE id = $1 AND user_id = $2`,
		conversationID, userID).Scan(&c.ID, &c.UserID, &c.TripID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch conversation", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return &c, nil
}

func (r *PostgresConversationRepo) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, conversation_id, sender, content, timestamp
         FROM messages WHERE conversation_id = $1 ORDER BY timestamp ASC`,
		conversationID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch messages", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]types.Message, 0)
	for rows.Next() {
		var m types.Message
		if err = rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}

func (r *PostgresConversationRepo) SaveMessage(ctx context.Context, msg *types.Message) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender, content, timestamp)
         VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ConversationID, msg.Sender, msg.Content, msg.Timestamp)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert message", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}
