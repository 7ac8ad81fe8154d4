package clerk

import (
	"encoding/json"
	"net/http"
	"strings"
	"valorant-missions/internal/config"
	"valorant-missions/internal/domain"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type WebhookVerifier struct {
	wh *svix.Webhook
}

func NewWebhookVerifier(cfg *config.Config) (*WebhookVerifier, error) {
	wh, err := svix.NewWebhook(cfg.ClerkWebhookSecret)
	if err != nil {
		return nil, err
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify checks the svix-id, svix-timestamp and svix-signature headers against payload.
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) error {
	return v.wh.Verify(payload, headers)
}

type Event struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type UserData struct {
	ID                    string         `json:"id"`
	Username              *string        `json:"username"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PublicMetadata        PublicMetadata `json:"public_metadata"`
	Deleted               bool           `json:"deleted"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type PublicMetadata struct {
	Subscription *MetadataSubscription `json:"subscription,omitempty"`
}

// MetadataSubscription is the billing state Clerk mirrors into public metadata.
type MetadataSubscription struct {
	PlanID           string           `json:"plan_id"`
	Status           string           `json:"status"`
	SubscriptionID   string           `json:"subscription_id"`
	CurrentPeriodEnd domain.Timestamp `json:"current_period_end"`
}

func (u UserData) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// DisplayName prefers the username and falls back to first and last name.
func (u UserData) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}
