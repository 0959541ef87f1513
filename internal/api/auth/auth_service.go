package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripforge/tripforge/config"
	"github.com/tripforge/tripforge/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for authentication.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*types.UserAuth, error)
	Login(ctx context.Context, email, password string) (string, string, error) // accessToken, refreshToken
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	AboutMe(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error)
	DashboardOverview(ctx context.Context) (*types.DashboardOverview, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// Register creates a new user account. Emails are stored lower-cased and must
// be unique.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*types.UserAuth, error) {
	l := s.logger.With(slog.String("method", "Register"))
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", types.ErrValidation)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user with that email already exists", types.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &types.UserAuth{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         "user",
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	return user, nil
}

// Login verifies credentials and returns an access token plus a stored
// refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", "", types.ErrUnauthenticated
		}
		return "", "", fmt.Errorf("error fetching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", types.ErrUnauthenticated
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return accessToken, refreshToken, nil
}

// RefreshSession rotates a refresh token and issues a fresh access token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("error fetching user: %w", err)
	}

	newAccessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, newRefreshToken, expiresAt); err != nil {
		return "", "", fmt.Errorf("failed to store new refresh token: %w", err)
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate old refresh token", slog.Any("error", err))
	}

	return newAccessToken, newRefreshToken, nil
}

// Logout revokes one refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.InvalidateRefreshToken(ctx, refreshToken)
}

// AboutMe returns the authenticated user's record.
func (s *AuthServiceImpl) AboutMe(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// DashboardOverview returns the admin landing-page counters.
func (s *AuthServiceImpl) DashboardOverview(ctx context.Context) (*types.DashboardOverview, error) {
	return s.repo.DashboardCounts(ctx)
}

func (s *AuthServiceImpl) generateAccessToken(user *types.UserAuth) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.JWT.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.SecretKey))
}
