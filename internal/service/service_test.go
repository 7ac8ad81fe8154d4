package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"
	"valorant-missions/internal/api"
	"valorant-missions/internal/cache"
	"valorant-missions/internal/config"
	"valorant-missions/internal/database/dbtest"
	"valorant-missions/internal/db"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeValorant struct {
	mu           sync.Mutex
	accounts     map[string]api.AccountData
	matches      []api.V4MatchData
	err          error
	accountCalls int
}

func (f *fakeValorant) GetAccount(_ context.Context, name, tag string) (*api.AccountResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	if f.err != nil {
		return nil, f.err
	}
	acct, ok := f.accounts[name+"#"+tag]
	if !ok {
		return nil, &api.StatusError{StatusCode: 404}
	}
	return &api.AccountResponse{Status: 200, Data: acct}, nil
}

func (f *fakeValorant) GetV4Matches(context.Context, string, string) (*api.V4MatchesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &api.V4MatchesResponse{Status: 200, Data: f.matches}, nil
}

type fakeKofi struct {
	subs []api.KofiSubscription
	err  error
}

func (f *fakeKofi) Enabled() bool { return true }

func (f *fakeKofi) CheckoutURL(tierName, userID string) string {
	return "https://ko-fi.test/membership?tier=" + tierName + "&ref=" + userID
}

func (f *fakeKofi) FindSubscriptions(context.Context, string) (*api.KofiSubscriptionsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.KofiSubscriptionsResponse{Data: f.subs}, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

type harness struct {
	db           *sql.DB
	clock        *testClock
	valorant     *fakeValorant
	kofi         *fakeKofi
	cache        cache.Cache
	userRepo     *repository.UserRepository
	missionRepo  *repository.MissionRepository
	userMissions *repository.UserMissionRepository
	matches      *repository.MatchRepository
	webhookLogs  *repository.WebhookLogRepository

	users         *UserService
	missions      *MissionService
	daily         *DailyMissionService
	progress      *ProgressService
	riot          *RiotService
	subscriptions *SubscriptionService
	dashboard     *DashboardService
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	sqlDB := dbtest.New(t)
	q := db.New(sqlDB)
	log := zerolog.Nop()

	h := &harness{
		db:       sqlDB,
		clock:    &testClock{t: start},
		valorant: &fakeValorant{accounts: map[string]api.AccountData{}},
		kofi:     &fakeKofi{},
		cache:    newMemCache(),
	}
	h.userRepo = repository.NewUserRepository(sqlDB, q, log)
	h.missionRepo = repository.NewMissionRepository(sqlDB, q, log)
	h.userMissions = repository.NewUserMissionRepository(sqlDB, q, log)
	h.matches = repository.NewMatchRepository(sqlDB, q, log)
	h.webhookLogs = repository.NewWebhookLogRepository(sqlDB, q, log)

	clock := Clock(h.clock.now)
	h.users = NewUserService(h.userRepo, clock, log)
	h.missions = NewMissionService(h.users, h.missionRepo, h.userMissions, clock, log)
	h.daily = NewDailyMissionService(h.users, h.userRepo, h.missionRepo, h.userMissions, clock, log)
	h.progress = NewProgressService(h.users, h.missionRepo, h.userMissions, h.matches, h.valorant, clock, log)
	h.riot = NewRiotService(h.users, h.userRepo, h.valorant, h.cache, clock, log)
	h.subscriptions = NewSubscriptionService(h.users, h.userRepo, h.kofi, cfg, clock, log)
	h.dashboard = NewDashboardService(h.users, h.missions, h.daily, h.progress, log)
	return h
}

func (h *harness) createUser(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := h.users.Ensure(context.Background(), id, id+"@example.com", id)
	require.NoError(t, err)
	return u
}

func (h *harness) linkedUser(t *testing.T, id string, tier domain.Tier) *domain.User {
	t.Helper()
	ctx := context.Background()
	u := h.createUser(t, id)
	require.NoError(t, h.userRepo.LinkRiotAccount(ctx, id, domain.RiotAccount{
		Puuid:    "puuid-" + id,
		Region:   "eu",
		Name:     id,
		Tag:      "EUW",
		LinkedAt: h.clock.now(),
	}))
	if tier != domain.TierFree {
		entitlement.ApplyTierChange(u, entitlement.TierChange{Provider: domain.ProviderManual, Tier: tier, Status: domain.StatusActive}, h.clock.now())
		require.NoError(t, h.userRepo.SaveEntitlements(ctx, u))
	}
	u, err := h.userRepo.Get(ctx, id)
	require.NoError(t, err)
	return u
}
