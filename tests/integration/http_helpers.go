package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	internalauth "github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/database"
	"github.com/studyhive/studyhive/internal/handlers"
	middlewareCustom "github.com/studyhive/studyhive/internal/middleware"
	"github.com/studyhive/studyhive/internal/routes"
	"github.com/studyhive/studyhive/internal/services"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
	pkglogger "github.com/studyhive/studyhive/pkg/logger"
)

const (
	testAccessSecret  = "test-access-secret-32-chars-long!!!!"
	testRefreshSecret = "test-refresh-secret-32-chars-long!!!"
	testAccessExpiry  = 15 * time.Minute
	testRefreshExpiry = 7 * 24 * time.Hour
)

// StubIdentityVerifier accepts tokens registered ahead of time, standing in
// for the external provider in tests.
type StubIdentityVerifier struct {
	Identities map[string]*internalauth.FederatedIdentity
}

func (s *StubIdentityVerifier) VerifyIDToken(ctx context.Context, idToken string) (*internalauth.FederatedIdentity, error) {
	if identity, ok := s.Identities[idToken]; ok {
		return identity, nil
	}
	return nil, internalauth.ErrIdentityTokenInvalid
}

// TestServer wraps httptest.Server with the full application stack
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	TokenManager *internalauth.TokenManager
	Verifier     *StubIdentityVerifier
}

// NewTestServer initializes a complete HTTP server against a real database
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	userRepo, friendshipRepo := InitializeRepositories(db)

	tokenManager := internalauth.NewTokenManager(
		testAccessSecret,
		testRefreshSecret,
		testAccessExpiry,
		testRefreshExpiry,
	)

	verifier := &StubIdentityVerifier{
		Identities: map[string]*internalauth.FederatedIdentity{},
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(userRepo, tokenManager, verifier, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger)
	friendshipService := services.NewFriendshipService(friendshipRepo, logger)

	authHandler := handlers.NewAuthHandler(authService, internalauth.CookieConfig{}, testRefreshExpiry)
	userHandler := handlers.NewUserHandler(userService)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, authHandler, userHandler, friendshipHandler, tokenManager, userRepo)

	return &TestServer{
		Server:       httptest.NewServer(router),
		DB:           db,
		TokenManager: tokenManager,
		Verifier:     verifier,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// URL joins the server base URL with a path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// DoJSON sends a JSON request, optionally with a bearer token and cookies
func (ts *TestServer) DoJSON(method, path string, body interface{}, accessToken string, cookies ...*http.Cookie) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
	}

	req, err := http.NewRequest(method, ts.URL(path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	return http.DefaultClient.Do(req)
}

// DecodeEnvelope reads a response body into the standard envelope
func DecodeEnvelope(resp *http.Response) (pkghttp.Envelope, error) {
	defer resp.Body.Close()

	var envelope pkghttp.Envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope, err
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, fmt.Errorf("failed to decode envelope %q: %w", string(raw), err)
	}
	return envelope, nil
}

// RefreshCookie extracts the refresh cookie from a response, nil if absent
func RefreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == internalauth.RefreshCookieName {
			return c
		}
	}
	return nil
}

// EnvelopeUserID digs the user id out of an auth envelope
func EnvelopeUserID(envelope pkghttp.Envelope) string {
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	user, ok := data["user"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := user["id"].(string)
	return id
}
