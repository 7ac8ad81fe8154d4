package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"valorant-missions/internal/api"
	"valorant-missions/internal/cache"
	"valorant-missions/internal/clerk"
	"valorant-missions/internal/clerk/clerktest"
	"valorant-missions/internal/config"
	"valorant-missions/internal/database/dbtest"
	"valorant-missions/internal/db"
	"valorant-missions/internal/kofi"
	"valorant-missions/internal/repository"
	"valorant-missions/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler     http.Handler
	keys        *clerktest.Keys
	cfg         *config.Config
	rateLimited atomic.Bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{keys: clerktest.NewKeys(t)}

	hdev := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ts.rateLimited.Load() {
			w.Header().Set("Retry-After", "42")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		switch {
		case r.URL.Path == "/valorant/v2/account/Ace/EUW":
			w.Write([]byte(`{"status":200,"data":{"puuid":"p-ace","region":"eu","account_level":50,"name":"Ace","tag":"EUW","card":"card-1"}}`))
		case strings.HasPrefix(r.URL.Path, "/valorant/v4/by-puuid/matches/"):
			w.Write([]byte(`{"status":200,"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(hdev.Close)

	ts.cfg = &config.Config{
		AppBaseURL:         "http://localhost:3000",
		HDevAPIKey:         "test-key",
		HDevBaseURL:        hdev.URL,
		ClerkJWTKey:        ts.keys.PublicPEM,
		ClerkWebhookSecret: ts.keys.WebhookSecret,
		KofiWebhookSecret:  "kofi-secret",
		KofiPageURL:        "https://ko-fi.com/valorantmissions",
	}

	sqlDB := dbtest.New(t)
	q := db.New(sqlDB)
	log := zerolog.Nop()
	clock := service.SystemClock()

	userRepo := repository.NewUserRepository(sqlDB, q, log)
	missionRepo := repository.NewMissionRepository(sqlDB, q, log)
	userMissions := repository.NewUserMissionRepository(sqlDB, q, log)
	matches := repository.NewMatchRepository(sqlDB, q, log)
	logs := repository.NewWebhookLogRepository(sqlDB, q, log)

	valorant := api.NewHDevClient(ts.cfg)
	users := service.NewUserService(userRepo, clock, log)
	missions := service.NewMissionService(users, missionRepo, userMissions, clock, log)
	daily := service.NewDailyMissionService(users, userRepo, missionRepo, userMissions, clock, log)
	progress := service.NewProgressService(users, missionRepo, userMissions, matches, valorant, clock, log)

	tokens, err := clerk.NewTokenVerifier(ts.cfg)
	require.NoError(t, err)
	hooks, err := clerk.NewWebhookVerifier(ts.cfg)
	require.NoError(t, err)

	srv := NewServer(
		users,
		missions,
		daily,
		progress,
		service.NewRiotService(users, userRepo, valorant, cache.Noop{}, clock, log),
		service.NewSubscriptionService(users, userRepo, api.NewKofiClient(ts.cfg), ts.cfg, clock, log),
		service.NewWebhookService(userRepo, logs, hooks, ts.cfg, clock, log),
		service.NewDashboardService(users, missions, daily, progress, log),
		tokens,
		sqlDB,
		ts.cfg,
		log,
	)
	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token := ts.keys.Token(t, userID, jwt.MapClaims{"email": userID + "@example.com", "username": userID})
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	e := decodeBody[errorResponse](t, rec)
	assert.Equal(t, code, e.Code)
	assert.NotEmpty(t, e.Error)
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/users", "/api/user-missions", "/api/daily-missions", "/api/subscriptions"} {
		assertError(t, ts.do(t, http.MethodGet, path, "", nil), http.StatusUnauthorized, "unauthenticated")
	}
}

func TestGetUserCreatesFreeUser(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/users", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "user_1", u["id"])
	assert.Equal(t, "user_1@example.com", u["email"])
	sub := u["subscription"].(map[string]any)
	assert.Equal(t, "free", sub["tier"])
	limits := u["missionLimits"].(map[string]any)
	assert.Equal(t, float64(1), limits["maxActiveMissions"])
}

func TestMissionFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/users", "user_1", nil)

	e := assertError(t, ts.do(t, http.MethodPost, "/api/user-missions", "user_1", map[string]string{"missionId": "kills-25"}),
		http.StatusBadRequest, "riot_id_required")
	assert.NotEmpty(t, e.Error)

	e = assertError(t, ts.do(t, http.MethodPost, "/api/user-missions", "user_1", map[string]string{}),
		http.StatusBadRequest, "validation")
	assert.Equal(t, "missionId is required", e.Error)

	rec := ts.do(t, http.MethodPost, "/api/riot-id/link", "user_1", map[string]string{"name": "Ace", "tag": "EUW"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/user-missions", "user_1", map[string]string{"missionId": "kills-25"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assertError(t, ts.do(t, http.MethodPost, "/api/user-missions", "user_1", map[string]string{"missionId": "kills-25"}),
		http.StatusConflict, "mission_already_active")

	e = assertError(t, ts.do(t, http.MethodPost, "/api/user-missions", "user_1", map[string]string{"missionId": "wins-1"}),
		http.StatusForbidden, "mission_limit_reached")
	assert.Contains(t, e.Error, "Mission limit reached")

	rec = ts.do(t, http.MethodGet, "/api/user-missions?active=true", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/api/user-missions/refresh", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.rateLimited.Store(true)
	rec = ts.do(t, http.MethodPost, "/api/valorant/refresh", "user_1", nil)
	e = assertError(t, rec, http.StatusTooManyRequests, "rate_limited")
	assert.Equal(t, 42, e.RetryAfter)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
}

func TestLinkConflicts(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/users", "user_1", nil)
	ts.do(t, http.MethodGet, "/api/users", "user_2", nil)

	req := map[string]string{"name": "Ace", "tag": "EUW"}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/riot-id/link", "user_1", req).Code)
	assertError(t, ts.do(t, http.MethodPost, "/api/riot-id/link", "user_2", req), http.StatusConflict, "riot_id_taken")
	assertError(t, ts.do(t, http.MethodPost, "/api/riot-id/verify", "user_2", map[string]string{"name": "Nobody", "tag": "0000"}),
		http.StatusNotFound, "not_found")
}

func TestDailyMissionsAndDashboard(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/daily-missions", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decodeBody[map[string]any](t, rec)
	assert.Len(t, d["missions"], 3)
	assert.Equal(t, "free", d["tier"])
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/users", "user_1", nil)

	rec := ts.do(t, http.MethodGet, "/api/subscriptions", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string]any](t, rec)["tiers"], 3)

	assertError(t, ts.do(t, http.MethodPost, "/api/subscriptions", "user_1", map[string]string{"tier": "premium"}),
		http.StatusBadRequest, "invalid_tier")

	rec = ts.do(t, http.MethodGet, "/api/kofi/subscriptions", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)

	rec = ts.do(t, http.MethodPost, "/api/kofi/subscriptions", "user_1", map[string]string{"tier": "standard"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeBody[map[string]any](t, rec)["url"], "user_1")

	assertError(t, ts.do(t, http.MethodPost, "/api/kofi/subscriptions/sync", "user_1", nil), http.StatusBadGateway, "upstream")

	rec = ts.do(t, http.MethodDelete, "/api/subscriptions", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestKofiWebhook(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/users", "user_1", nil)
	body := []byte(`{"type":"subscription.created","data":{"subscription_id":"sub-1","user_id":"user_1","tier":"Premium","status":"active"}}`)

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/kofi/webhooks", bytes.NewReader(body))
		req.Header.Set(kofi.SignatureHeader, sig)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		return rec
	}

	assertError(t, post("bad"), http.StatusUnauthorized, "invalid_signature")

	rec := post(kofi.Sign(body, ts.cfg.KofiWebhookSecret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "processed", decodeBody[map[string]any](t, rec)["outcome"])

	rec = ts.do(t, http.MethodGet, "/api/subscriptions", "user_1", nil)
	assert.Equal(t, "premium", decodeBody[map[string]any](t, rec)["currentTier"].(map[string]any)["key"])
}

func TestClerkWebhook(t *testing.T) {
	ts := newTestServer(t)
	payload := []byte(`{"type":"user.created","data":{"id":"user_9","username":"nine"}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assertError(t, rec, http.StatusUnauthorized, "invalid_signature")

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewReader(payload))
	for k, v := range ts.keys.WebhookHeaders(t, "msg_1", payload) {
		req.Header[k] = v
	}
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/users", "user_9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nine", decodeBody[map[string]any](t, rec)["username"])
}
