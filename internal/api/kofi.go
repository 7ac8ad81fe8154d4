package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"valorant-missions/internal/config"

	"github.com/valyala/fasthttp"
)

type KofiClient struct {
	apiKey  string
	baseURL string
	pageURL string
	client  *fasthttp.Client
}

func NewKofiClient(cfg *config.Config) *KofiClient {
	return &KofiClient{
		apiKey:  cfg.KofiAPIKey,
		baseURL: cfg.KofiBaseURL,
		pageURL: strings.TrimRight(cfg.KofiPageURL, "/"),
		client:  newFastHTTPClient(),
	}
}

// Enabled reports whether subscription lookups can be made.
func (c *KofiClient) Enabled() bool {
	return c.apiKey != ""
}

// CheckoutURL links to the Ko-fi membership page for tierName. The user id rides
// along as the reference Ko-fi echoes back in webhooks.
func (c *KofiClient) CheckoutURL(tierName, userID string) string {
	q := url.Values{}
	q.Set("tier", tierName)
	q.Set("ref", userID)
	return c.pageURL + "/membership?" + q.Encode()
}

// FindSubscriptions returns the subscriptions Ko-fi holds for email.
func (c *KofiClient) FindSubscriptions(ctx context.Context, email string) (*KofiSubscriptionsResponse, error) {
	if !c.Enabled() {
		return nil, ErrKofiDisabled
	}
	u := fmt.Sprintf("%s/subscriptions?email=%s", c.baseURL, url.QueryEscape(email))
	return doRequest[KofiSubscriptionsResponse](ctx, c.client, u, "Bearer "+c.apiKey, nil)
}

func (c *KofiClient) GetSubscription(ctx context.Context, subscriptionID string) (*KofiSubscription, error) {
	if !c.Enabled() {
		return nil, ErrKofiDisabled
	}
	u := fmt.Sprintf("%s/subscriptions/%s", c.baseURL, url.PathEscape(subscriptionID))
	return doRequest[KofiSubscription](ctx, c.client, u, "Bearer "+c.apiKey, nil)
}

type KofiSubscriptionsResponse struct {
	Data []KofiSubscription `json:"data"`
}

type KofiSubscription struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	UserID          string    `json:"user_id"`
	TierName        string    `json:"tier_name"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	NextPaymentDate time.Time `json:"next_payment_date"`
}

func (s KofiSubscription) Active() bool {
	return strings.EqualFold(s.Status, "active")
}
