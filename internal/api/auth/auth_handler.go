package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tripforge/tripforge/internal/api"
	"github.com/tripforge/tripforge/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	RefreshSession(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	AboutMe(w http.ResponseWriter, r *http.Request)
	DashboardOverview(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register User
// @Description  Creates a new user account with a lower-cased unique email.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		switch {
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "User with that email already exists")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Name, email and password are required")
		default:
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Data:    user,
	})
}

// Login godoc
// @Summary      Login
// @Description  Verifies credentials, returns access and refresh tokens.
// @Tags         Auth
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		l.WarnContext(ctx, "Login failed", slog.Any("error", err))
		if errors.Is(err, types.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password")
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Message:      "Logged in successfully",
	})
}

// RefreshSession godoc
// @Summary      Refresh Session
// @Description  Rotates a refresh token and issues a fresh access token.
// @Tags         Auth
// @Router       /auth/refresh [post]
func (h *HandlerImpl) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "RefreshSession"))

	var req RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		l.WarnContext(ctx, "Session refresh failed", slog.Any("error", err))
		if errors.Is(err, types.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to refresh session")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the presented refresh token.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Logout"))

	var req LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		l.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Logged out successfully",
	})
}

// AboutMe godoc
// @Summary      Current User
// @Description  Returns the authenticated user's profile.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *HandlerImpl) AboutMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "AboutMe"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.AboutMe(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: user})
}

// DashboardOverview godoc
// @Summary      Dashboard Overview
// @Description  Returns global user/trip counters.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *HandlerImpl) DashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DashboardOverview"))

	overview, err := h.authService.DashboardOverview(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch dashboard overview", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch dashboard overview")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: overview})
}
