package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arunakai/care-home-saas/internal/logutil"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/arunakai/care-home-saas/internal/store"
	"github.com/arunakai/care-home-saas/internal/utils"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves the user directory. Routes are expected to sit behind
// RequireRoles(ADMIN, SUPER_ADMIN).
type UserHandler struct {
	Users store.UserRepository
}

func NewUserHandler(users store.UserRepository) *UserHandler {
	return &UserHandler{Users: users}
}

// ---------------------- LIST ----------------------

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("listing users failed")
		utils.JSONError(w, http.StatusInternalServerError, "An error occurred while fetching users")
		return
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	utils.JSON(w, http.StatusOK, map[string]any{"users": out})
}

// ---------------------- GET ONE ----------------------

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.Users.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrUserNotFound) {
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Int64("user_id", id).Msg("fetching user failed")
		utils.JSONError(w, http.StatusInternalServerError, "An error occurred while fetching user data")
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{"user": u.Public()})
}
