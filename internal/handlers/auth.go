package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/logutil"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/arunakai/care-home-saas/internal/store"
	"github.com/arunakai/care-home-saas/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Users   store.UserRepository
	Hasher  auth.Hasher
	Tokens  *auth.TokenIssuer
	Cookies *auth.CookieManager

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthHandler(users store.UserRepository, hasher auth.Hasher, tokens *auth.TokenIssuer, cookies *auth.CookieManager) *AuthHandler {
	h := &AuthHandler{Users: users, Hasher: hasher, Tokens: tokens, Cookies: cookies}
	h.decoy()
	return h
}

// ----------- Request/Response DTOs -------------

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	FacilityID *int64 `json:"facilityId"`
}

type sessionResp struct {
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

type currentUserResp struct {
	User *models.User `json:"user"`
}

type messageResp struct {
	Message string `json:"message"`
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	if req.Email == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	logger := logutil.GetOrDefault(r.Context())

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		// pay the same hashing cost as a wrong password
		h.Hasher.Verify(req.Password, h.decoy())
		logger.Info().Str("email", req.Email).Msg("login rejected: unknown email")
		utils.JSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("login: user lookup failed")
		utils.JSONError(w, http.StatusInternalServerError, "An error occurred during login")
		return
	}

	if !h.Hasher.Verify(req.Password, u.PasswordHash) {
		logger.Info().Int64("user_id", u.ID).Msg("login rejected: wrong password")
		utils.JSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !h.startSession(w, r, u, "An error occurred during login") {
		return
	}

	logger.Info().Int64("user_id", u.ID).Str("role", u.Role.String()).Msg("login successful")
	utils.JSON(w, http.StatusOK, sessionResp{User: u.Public(), Message: "Login successful"})
}

// -------------- REGISTER ----------------------

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	logger := logutil.GetOrDefault(r.Context())
	const internalMsg = "An error occurred during registration"

	if req.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "email is required")
		return
	}

	// A taken email is reported before any other validation problem.
	exists, err := h.Users.ExistsByEmail(r.Context(), req.Email)
	if err != nil {
		logger.Error().Err(err).Msg("register: email lookup failed")
		utils.JSONError(w, http.StatusInternalServerError, internalMsg)
		return
	}
	if exists {
		utils.JSONError(w, http.StatusConflict, "Email already in use")
		return
	}

	if field := req.missingField(); field != "" {
		utils.JSONError(w, http.StatusBadRequest, field+" is required")
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		utils.JSONError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("register: hashing failed")
		utils.JSONError(w, http.StatusInternalServerError, internalMsg)
		return
	}

	facilityID := req.FacilityID
	if facilityID != nil && *facilityID == 0 {
		facilityID = nil
	}

	u := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		FacilityID:   facilityID,
	}

	// the store enforces uniqueness again, for concurrent registrations
	if err := h.Users.Create(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			utils.JSONError(w, http.StatusConflict, "Email already in use")
			return
		}
		logger.Error().Err(err).Msg("register: insert failed")
		utils.JSONError(w, http.StatusInternalServerError, internalMsg)
		return
	}

	if !h.startSession(w, r, u, internalMsg) {
		return
	}

	logger.Info().Int64("user_id", u.ID).Str("role", u.Role.String()).Msg("user registered")
	utils.JSON(w, http.StatusOK, sessionResp{User: u.Public(), Message: "Registration successful"})
}

// decoy returns a hash made once with the handler's Hasher, so checking
// against it costs what checking a real account does.
func (h *AuthHandler) decoy() string {
	h.decoyOnce.Do(func() {
		hash, err := h.Hasher.Hash("decoy-password-never-matches")
		if err == nil {
			h.decoyHash = hash
		}
	})
	return h.decoyHash
}

func (req *registerReq) missingField() string {
	switch {
	case req.Password == "":
		return "password"
	case req.FirstName == "":
		return "firstName"
	case req.LastName == "":
		return "lastName"
	case req.Role == "":
		return "role"
	}
	return ""
}

// startSession mints a token for u and attaches it as the session cookie.
// On failure it writes a 500 and returns false.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, u *models.User, failMsg string) bool {
	token, err := h.Tokens.Issue(u)
	if err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Int64("user_id", u.ID).Msg("issuing session token failed")
		utils.JSONError(w, http.StatusInternalServerError, failMsg)
		return false
	}
	h.Cookies.Attach(w, token)
	return true
}

// -------------- LOGOUT -----------------------

// Logout clears the session cookie. Tokens are stateless, so a copy of the
// token kept elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w)
	utils.JSON(w, http.StatusOK, messageResp{Message: "Logout successful"})
}

// -------------- CURRENT USER ----------------

// CurrentUser reports the caller resolved by the Authenticate middleware, or
// {"user": null}. It never fails on a missing or bad session.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, currentUserResp{User: utils.UserFrom(r.Context())})
}
