package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripforge/tripforge/app/observability/metrics"
	"github.com/tripforge/tripforge/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the persistence contract for users and refresh tokens.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error)
	CreateUser(ctx context.Context, user *types.UserAuth) error
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
	DashboardCounts(ctx context.Context) (*types.DashboardOverview, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, verified, created_at, updated_at
         FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.Verified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user by email", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error) {
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, verified, created_at, updated_at
         FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.Verified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user by id", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch user by id: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *types.UserAuth) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, verified, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Verified,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)",
		userID, token, expiresAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to store refresh token", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time
	err := r.pgpool.QueryRow(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1",
		refreshToken).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return uuid.Nil, types.ErrUnauthenticated
	}
	if time.Now().After(expiresAt) || revokedAt != nil {
		return uuid.Nil, types.ErrUnauthenticated
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.pgpool.Exec(ctx,
		"UPDATE refresh_tokens SET revoked_at = $1 WHERE token = $2",
		time.Now(), refreshToken)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to invalidate refresh token", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to invalidate refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		"UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL",
		time.Now(), userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to invalidate user refresh tokens", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to invalidate user refresh tokens: %w", err)
	}
	return nil
}

// DashboardCounts returns the admin landing-page counters.
func (r *PostgresAuthRepo) DashboardCounts(ctx context.Context) (*types.DashboardOverview, error) {
	var overview types.DashboardOverview
	err := r.pgpool.QueryRow(ctx,
		`SELECT
            (SELECT count(*) FROM users),
            (SELECT count(*) FROM trips),
            (SELECT count(*) FROM users WHERE role <> 'free')`,
	).Scan(&overview.Users, &overview.Trips, &overview.PaidUsers)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch dashboard counts", slog.Any("error", err))
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to fetch dashboard counts: %w", err)
	}
	return &overview, nil
}
