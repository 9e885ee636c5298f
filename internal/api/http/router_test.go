package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/api/http/handlers"
	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/cache"
	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/domain"
	"github.com/spec-kit/hms-service/internal/events"
	"github.com/spec-kit/hms-service/internal/observability"
	"github.com/spec-kit/hms-service/internal/persistence"
	"github.com/spec-kit/hms-service/internal/pubsub"
	"github.com/spec-kit/hms-service/internal/service"
)

type memoryUsers struct {
	byID map[string]*domain.User
}

func (m *memoryUsers) Create(ctx context.Context, user *domain.User) error {
	m.byID[user.ID] = user
	return nil
}

func (m *memoryUsers) Update(ctx context.Context, user *domain.User) error {
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	command := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	listen := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	subscriber := pubsub.NewSubscriber(listen, logger)
	t.Cleanup(func() {
		_ = subscriber.Close()
		_ = listen.Close()
		_ = command.Close()
	})

	tokens, err := auth.NewTokenManager(config.AuthConfig{JWTSecret: "router-secret", JWTAlgorithm: "HS256", AccessTokenTTLMinutes: 5, RefreshTokenTTLHours: 1})
	require.NoError(t, err)

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	users := &memoryUsers{byID: map[string]*domain.User{
		"d1": {ID: "d1", Name: "Doc", Email: "doc@example.com", PasswordHash: hash, Role: domain.RoleDoctor, Status: domain.UserStatusActive},
	}}

	store := cache.NewStore(command)
	dispatcher := events.NewRedisDispatcher(pubsub.NewPublisher(command), subscriber, logger)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	err = RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("hms-service", "test", nil, &persistence.Redis{Client: command}),
		Auth:        handlers.NewAuthHandler(service.NewAuthService(users, tokens, logger)),
		Profile:     handlers.NewProfileHandler(service.NewProfileService(users, store, time.Minute, dispatcher, logger)),
		Chat:        handlers.NewChatHandler(service.NewChatService(store, "chat:", time.Hour, dispatcher, logger)),
		Admin:       handlers.NewAdminHandler(service.NewCacheAdminService(store, dispatcher, logger), metrics),
		Gate:        auth.NewGate(tokens, "/metrics", logger, metrics),
		MetricsPath: "/metrics",
	})
	require.NoError(t, err)

	return &testServer{app: app, tokens: tokens, mr: mr}
}

func (s *testServer) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	issued, err := s.tokens.IssueAccess(&domain.User{ID: id, Role: role})
	require.NoError(t, err)
	return "Bearer " + issued.Value
}

func (s *testServer) do(t *testing.T, method, path, authorization, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestRouter_PublicAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = srv.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "auth_decisions")

	status, body = srv.do(t, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_OR_INVALID_TOKEN", errorCode(body))
}

func TestRouter_RoleEnforcement(t *testing.T) {
	srv := newTestServer(t)
	doctor := srv.token(t, "d1", domain.RoleDoctor)
	receptionist := srv.token(t, "r1", domain.RoleReceptionist)

	status, _ := srv.do(t, http.MethodGet, "/v1/chat/sessions", doctor, "")
	assert.Equal(t, http.StatusOK, status)

	status, body := srv.do(t, http.MethodDelete, "/v1/chat/sessions", doctor, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN_RESOURCE", errorCode(body))

	status, body = srv.do(t, http.MethodPost, "/v1/chat/sessions/s1/messages", receptionist, `{"body":"hi"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN_RESOURCE", errorCode(body))

	status, body = srv.do(t, http.MethodGet, "/v1/chat/sessions", "Bearer not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", errorCode(body))
}

func TestRouter_ChatFlow(t *testing.T) {
	srv := newTestServer(t)
	patient := srv.token(t, "p1", domain.RolePatient)
	admin := srv.token(t, "a1", domain.RoleAdmin)

	status, body := srv.do(t, http.MethodPost, "/v1/chat/sessions/s1/messages", patient, `{"body":"hello doctor"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["stored"])

	status, body = srv.do(t, http.MethodGet, "/v1/chat/sessions/s1/messages", admin, "")
	require.Equal(t, http.StatusOK, status)
	messages, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "hello doctor", first["body"])
	assert.Equal(t, "p1", first["sender_id"])

	status, body = srv.do(t, http.MethodGet, "/v1/chat/sessions/unknown/messages", admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = srv.do(t, http.MethodPost, "/v1/chat/sessions/s1/messages", patient, `{"body":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestRouter_LoginProfileAndCacheAdmin(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"doc@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	access := data["access"].(map[string]any)["token"].(string)

	status, body = srv.do(t, http.MethodGet, "/v1/users/me", "Bearer "+access, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Doc", body["data"].(map[string]any)["name"])
	assert.True(t, srv.mr.Exists("user:d1"))

	status, _ = srv.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"doc@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := srv.token(t, "a1", domain.RoleAdmin)
	status, body = srv.do(t, http.MethodDelete, "/v1/admin/cache", admin, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = srv.do(t, http.MethodDelete, "/v1/admin/cache?pattern=user:*", admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["removed"])
	assert.False(t, srv.mr.Exists("user:d1"))
}

func TestRouter_UnknownRouteRendersError(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestRoutes_DeclareEveryPolicy(t *testing.T) {
	health := &handlers.HealthHandler{}
	table := Routes(RouteConfig{
		Health:      health,
		Auth:        &handlers.AuthHandler{},
		Profile:     &handlers.ProfileHandler{},
		Chat:        &handlers.ChatHandler{},
		Admin:       &handlers.AdminHandler{},
		MetricsPath: "/metrics",
	})

	policy, ok := table.Lookup(fiber.MethodGet, "/metrics")
	require.True(t, ok)
	assert.False(t, policy.Public)

	policy, ok = table.Lookup(fiber.MethodDelete, "/v1/chat/sessions")
	require.True(t, ok)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, policy.RequiredRoles)

	policy, ok = table.Lookup(fiber.MethodGet, "/v1/users/me")
	require.True(t, ok)
	assert.False(t, policy.Public)
	assert.Empty(t, policy.RequiredRoles)

	for _, route := range table {
		assert.NotNil(t, route.Handler, "%s %s", route.Method, route.Path)
	}
}
