package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/middleware"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/arunakai/care-home-saas/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	router http.Handler
	users  *store.MemoryUserRepository
	tokens *auth.TokenIssuer
	hasher auth.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := store.NewMemoryUserRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	_, err := store.SeedDemoUsers(context.Background(), users, hasher, zerolog.Nop())
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer("handler-test-secret", 24*time.Hour)
	cookies := auth.NewCookieManager("", false, tokens.TTL())
	h := NewHandler(users, hasher, tokens, cookies, nil)

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(auth.NewGuard(cookies, tokens)))
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/logout", h.Auth.Logout)
	r.Get("/auth/user", h.Auth.CurrentUser)
	r.Get("/healthz", h.Health.Health)

	return &testEnv{router: r, users: users, tokens: tokens, hasher: hasher}
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", auth.DefaultCookieName)
	return nil
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	res := apitest.New().
		Handler(env.router).
		Post("/auth/login").
		JSON(`{"email":"staff@carehome.com","password":"staff123"}`).
		Expect(t).
		Status(http.StatusOK).
		CookiePresent(auth.DefaultCookieName).
		Assert(jsonpath.Equal("$.message", "Login successful")).
		Assert(jsonpath.Equal("$.user.id", float64(2))).
		Assert(jsonpath.Equal("$.user.email", "staff@carehome.com")).
		Assert(jsonpath.Equal("$.user.firstName", "Staff")).
		Assert(jsonpath.Equal("$.user.role", "STAFF")).
		Assert(jsonpath.Equal("$.user.facilityId", float64(1))).
		Assert(jsonpath.NotPresent("$.user.passwordHash")).
		Assert(jsonpath.NotPresent("$.user.PasswordHash")).
		End()

	c := sessionCookie(t, res.Response)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	claims, err := env.tokens.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claims.SubjectInt())
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"wrong password": `{"email":"staff@carehome.com","password":"wrong"}`,
		"unknown email":  `{"email":"nobody@carehome.com","password":"staff123"}`,
	} {
		t.Run(name, func(t *testing.T) {
			apitest.New().
				Handler(env.router).
				Post("/auth/login").
				JSON(body).
				Expect(t).
				Status(http.StatusUnauthorized).
				Body(`{"error":"Invalid credentials"}`).
				CookieNotPresent(auth.DefaultCookieName).
				End()
		})
	}
}

type countingHasher struct {
	auth.Hasher
	verifies atomic.Int32
	hashes   atomic.Int32
}

func (c *countingHasher) Hash(plain string) (string, error) {
	c.hashes.Add(1)
	return c.Hasher.Hash(plain)
}

func (c *countingHasher) Verify(plain, hash string) bool {
	c.verifies.Add(1)
	return c.Hasher.Verify(plain, hash)
}

func TestLogin_UnknownEmailStillVerifies(t *testing.T) {
	users := store.NewMemoryUserRepository()
	hasher := &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	_, err := store.SeedDemoUsers(context.Background(), users, hasher, zerolog.Nop())
	require.NoError(t, err)
	hasher.hashes.Store(0)

	tokens := auth.NewTokenIssuer("s", time.Hour)
	h := NewAuthHandler(users, hasher, tokens, auth.NewCookieManager("", false, time.Hour))

	for _, body := range []string{
		`{"email":"staff@carehome.com","password":"wrong"}`,
		`{"email":"nobody@carehome.com","password":"staff123"}`,
		`{"email":"ghost@carehome.com","password":"staff123"}`,
	} {
		before := hasher.verifies.Load()
		apitest.New().
			HandlerFunc(h.Login).
			Post("/auth/login").
			JSON(body).
			Expect(t).
			Status(http.StatusUnauthorized).
			Body(`{"error":"Invalid credentials"}`).
			End()
		assert.Equal(t, before+1, hasher.verifies.Load(), body)
	}

	// the decoy hash is computed once and reused
	assert.Equal(t, int32(1), hasher.hashes.Load())

	decoy := h.decoy()
	cost, err := bcrypt.Cost([]byte(decoy))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.False(t, hasher.Verify("staff123", decoy))
}

func TestLogin_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"email":"staff@carehome.com"}`},
		{"missing email", `{"password":"staff123"}`},
		{"malformed", `{"email":`},
		{"unknown field", `{"email":"staff@carehome.com","password":"staff123","remember":true}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apitest.New().
				Handler(env.router).
				Post("/auth/login").
				Header("Content-Type", "application/json").
				Body(tt.body).
				Expect(t).
				Status(http.StatusBadRequest).
				Assert(jsonpath.Present("$.error")).
				CookieNotPresent(auth.DefaultCookieName).
				End()
		})
	}
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t)

	res := apitest.New().
		Handler(env.router).
		Post("/auth/register").
		JSON(`{"email":"nurse@carehome.com","password":"s3cret!","firstName":"Nia","lastName":"Okafor","role":"STAFF","facilityId":2}`).
		Expect(t).
		Status(http.StatusOK).
		CookiePresent(auth.DefaultCookieName).
		Assert(jsonpath.Equal("$.message", "Registration successful")).
		Assert(jsonpath.Equal("$.user.id", float64(4))).
		Assert(jsonpath.Equal("$.user.lastName", "Okafor")).
		Assert(jsonpath.Equal("$.user.facilityId", float64(2))).
		End()

	claims, err := env.tokens.Verify(sessionCookie(t, res.Response).Value)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.SubjectInt())

	stored, err := env.users.GetByEmail(context.Background(), "nurse@carehome.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)
	assert.True(t, env.hasher.Verify("s3cret!", stored.PasswordHash))

	apitest.New().
		Handler(env.router).
		Post("/auth/login").
		JSON(`{"email":"nurse@carehome.com","password":"s3cret!"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestRegister_NoFacility(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"email":"a@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"ADMIN"}`,
		`{"email":"b@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"ADMIN","facilityId":null}`,
		`{"email":"c@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"ADMIN","facilityId":0}`,
	} {
		apitest.New().
			Handler(env.router).
			Post("/auth/register").
			JSON(body).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal("$.user.facilityId", nil)).
			End()
	}
}

func TestRegister_DuplicateEmailWinsOverValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"email":"admin@carehome.com","password":"x","firstName":"A","lastName":"B","role":"ADMIN"}`,
		`{"email":"admin@carehome.com"}`,
		`{"email":"admin@carehome.com","password":"x","firstName":"A","lastName":"B","role":"janitor"}`,
	} {
		apitest.New().
			Handler(env.router).
			Post("/auth/register").
			JSON(body).
			Expect(t).
			Status(http.StatusConflict).
			Body(`{"error":"Email already in use"}`).
			CookieNotPresent(auth.DefaultCookieName).
			End()
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing email", `{"password":"pw","firstName":"A","lastName":"B","role":"STAFF"}`, "email is required"},
		{"missing password", `{"email":"n@carehome.com","firstName":"A","lastName":"B","role":"STAFF"}`, "password is required"},
		{"missing first name", `{"email":"n@carehome.com","password":"pw","lastName":"B","role":"STAFF"}`, "firstName is required"},
		{"missing last name", `{"email":"n@carehome.com","password":"pw","firstName":"A","role":"STAFF"}`, "lastName is required"},
		{"missing role", `{"email":"n@carehome.com","password":"pw","firstName":"A","lastName":"B"}`, "role is required"},
		{"unknown role", `{"email":"n@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"NURSE"}`, "Invalid role"},
		{"lower-case role", `{"email":"n@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"staff"}`, "Invalid role"},
		{"password too long", `{"email":"n@carehome.com","password":"` + strings.Repeat("p", 73) + `","firstName":"A","lastName":"B","role":"STAFF"}`, "password must be at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apitest.New().
				Handler(env.router).
				Post("/auth/register").
				JSON(tt.body).
				Expect(t).
				Status(http.StatusBadRequest).
				Assert(jsonpath.Equal("$.error", tt.msg)).
				End()
		})
	}

	exists, err := env.users.ExistsByEmail(context.Background(), "n@carehome.com")
	require.NoError(t, err)
	assert.False(t, exists, "failed registrations store nothing")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	res := apitest.New().
		Handler(env.router).
		Post("/auth/logout").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"message":"Logout successful"}`).
		End()

	raw := res.Response.Header.Get("Set-Cookie")
	assert.Contains(t, raw, auth.DefaultCookieName+"=;")
	assert.Contains(t, raw, "Max-Age=0")
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.tokens.Issue(&models.User{ID: 1, Email: "admin@carehome.com", FirstName: "Admin", LastName: "User", Role: models.RoleAdmin})
	require.NoError(t, err)

	apitest.New().
		Handler(env.router).
		Get("/auth/user").
		Cookie(auth.DefaultCookieName, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.email", "admin@carehome.com")).
		Assert(jsonpath.Equal("$.user.role", "ADMIN")).
		End()

	apitest.New().
		Handler(env.router).
		Get("/auth/user").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"user":null}`).
		End()

	expired, err := env.tokens.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) }).
		Issue(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	apitest.New().
		Handler(env.router).
		Get("/auth/user").
		Cookie(auth.DefaultCookieName, expired).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"user":null}`).
		End()
}

type brokenRepo struct{ store.UserRepository }

func (brokenRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, assert.AnError
}

func (brokenRepo) ExistsByEmail(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestAuth_StoreFailuresAreGeneric500(t *testing.T) {
	tokens := auth.NewTokenIssuer("s", time.Hour)
	h := NewAuthHandler(brokenRepo{}, auth.NewBcryptHasher(bcrypt.MinCost), tokens, auth.NewCookieManager("", false, time.Hour))

	apitest.New().
		HandlerFunc(h.Login).
		Post("/auth/login").
		JSON(`{"email":"staff@carehome.com","password":"staff123"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Body(`{"error":"An error occurred during login"}`).
		End()

	apitest.New().
		HandlerFunc(h.Register).
		Post("/auth/register").
		JSON(`{"email":"x@carehome.com","password":"pw","firstName":"A","lastName":"B","role":"STAFF"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Body(`{"error":"An error occurred during registration"}`).
		End()
}

func TestLogin_TokenFailureIs500(t *testing.T) {
	users := store.NewMemoryUserRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	_, err := store.SeedDemoUsers(context.Background(), users, hasher, zerolog.Nop())
	require.NoError(t, err)

	h := NewAuthHandler(users, hasher, auth.NewTokenIssuer("", time.Hour), auth.NewCookieManager("", false, time.Hour))

	apitest.New().
		HandlerFunc(h.Login).
		Post("/auth/login").
		JSON(`{"email":"staff@carehome.com","password":"staff123"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		CookieNotPresent(auth.DefaultCookieName).
		End()
}
