package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
	"valorant-missions/internal/config"

	"github.com/valyala/fasthttp"
)

type HDevClient struct {
	apiKey      string
	baseURL     string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewHDevClient(cfg *config.Config) *HDevClient {
	return &HDevClient{
		apiKey:  cfg.HDevAPIKey,
		baseURL: cfg.HDevBaseURL,
		client:  newFastHTTPClient(),
		rateLimit: RateLimitInfo{
			Limit:     90,
			Remaining: 90,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *HDevClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *HDevClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-Ratelimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if val, ok := headerInt(resp, "X-Ratelimit-Limit"); ok {
		c.rateLimit.Limit = val
	}
	if val, ok := headerInt(resp, "X-Ratelimit-Remaining"); ok {
		c.rateLimit.Remaining = val
	}
	if val, ok := headerInt(resp, "X-Ratelimit-Reset"); ok {
		c.rateLimit.Reset = val
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// onResponse records rate limit headers and turns a 429 into a RateLimitError.
func (c *HDevClient) onResponse(resp *fasthttp.Response) error {
	c.updateRateLimit(resp)
	if resp.StatusCode() != fasthttp.StatusTooManyRequests {
		return nil
	}
	retryAfter, ok := headerInt(resp, "Retry-After")
	if !ok {
		retryAfter, ok = headerInt(resp, "X-Ratelimit-Reset")
	}
	if !ok || retryAfter <= 0 {
		retryAfter = 60
	}
	return &RateLimitError{RetryAfter: retryAfter}
}

func (c *HDevClient) GetAccount(ctx context.Context, name, tag string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/valorant/v2/account/%s/%s", c.baseURL, url.PathEscape(name), url.PathEscape(tag))
	return doRequest[AccountResponse](ctx, c.client, u, c.apiKey, c.onResponse)
}

func (c *HDevClient) GetV4Matches(ctx context.Context, region, puuid string) (*V4MatchesResponse, error) {
	u := fmt.Sprintf("%s/valorant/v4/by-puuid/matches/%s/pc/%s", c.baseURL, url.PathEscape(region), url.PathEscape(puuid))
	return doRequest[V4MatchesResponse](ctx, c.client, u, c.apiKey, c.onResponse)
}

func headerInt(resp *fasthttp.Response, key string) (int, bool) {
	raw := string(resp.Header.Peek(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return val, true
}

type AccountResponse struct {
	Status int         `json:"status"`
	Data   AccountData `json:"data"`
}

type AccountData struct {
	Puuid        string      `json:"puuid"`
	Region       string      `json:"region"`
	AccountLevel int         `json:"account_level"`
	Name         string      `json:"name"`
	Tag          string      `json:"tag"`
	Card         AccountCard `json:"card"`
	Title        string      `json:"title"`
	Platforms    []string    `json:"platforms"`
	UpdatedAt    string      `json:"updated_at"`
}

// AccountCard accepts both the v1 object form and the v2 bare card id.
type AccountCard struct {
	ID    string `json:"id"`
	Small string `json:"small"`
	Large string `json:"large"`
	Wide  string `json:"wide"`
}

func (c *AccountCard) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		id, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*c = AccountCard{ID: id}
		return nil
	}
	type plain AccountCard
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = AccountCard(p)
	return nil
}

type V4MatchesResponse struct {
	Status int           `json:"status"`
	Data   []V4MatchData `json:"data"`
}

type V4MatchData struct {
	Metadata V4MatchMetadata `json:"metadata"`
	Players  []V4Player      `json:"players"`
	Teams    []V4Team        `json:"teams"`
	Rounds   []V4Round       `json:"rounds"`
	Kills    []V4Kill        `json:"kills"`
}

type V4MatchMetadata struct {
	MatchID string `json:"match_id"`
	Region  string `json:"region"`
	Cluster string `json:"cluster"`
	Map     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"map"`
	Queue struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ModeType string `json:"mode_type"`
	} `json:"queue"`
	StartedAt      time.Time `json:"started_at"`
	GameLengthInMs int64     `json:"game_length_in_ms"`
	Season         struct {
		ID    string `json:"id"`
		Short string `json:"short"`
	} `json:"season"`
	GameVersion string `json:"game_version"`
}

type V4Player struct {
	Puuid string `json:"puuid"`
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	Agent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"agent"`
	Stats struct {
		Score     int `json:"score"`
		Kills     int `json:"kills"`
		Deaths    int `json:"deaths"`
		Assists   int `json:"assists"`
		Headshots int `json:"headshots"`
		Bodyshots int `json:"bodyshots"`
		Legshots  int `json:"legshots"`
		Damage    struct {
			Made     int `json:"dealt"`
			Received int `json:"received"`
		} `json:"damage"`
	} `json:"stats"`
	Tier struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"tier"`
	AccountLevel int    `json:"account_level"`
	TeamID       string `json:"team_id"`
}

type V4Team struct {
	TeamID string `json:"team_id"`
	Won    bool   `json:"won"`
	Rounds struct {
		Won  int `json:"won"`
		Lost int `json:"lost"`
	} `json:"rounds"`
}

type V4Round struct {
	ID          int    `json:"id"`
	WinningTeam string `json:"winning_team"`
}

type V4Kill struct {
	Round  int `json:"round"`
	Killer struct {
		Puuid string `json:"puuid"`
	} `json:"killer"`
	Victim struct {
		Puuid string `json:"puuid"`
	} `json:"victim"`
	Weapon struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"weapon"`
}
