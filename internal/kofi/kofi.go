// Package kofi verifies Ko-fi webhook deliveries and decodes their payloads.
package kofi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"valorant-missions/internal/domain"
)

const SignatureHeader = "x-kofi-signature"

const (
	EventSubscriptionCreated          = "subscription.created"
	EventSubscriptionUpdated          = "subscription.updated"
	EventSubscriptionCancelled        = "subscription.cancelled"
	EventSubscriptionPaymentFailed    = "subscription.payment_failed"
	EventSubscriptionPaymentSucceeded = "subscription.payment_succeeded"
)

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

type Event struct {
	Type      string           `json:"type"`
	Data      Subscription     `json:"data"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

type Subscription struct {
	SubscriptionID  string           `json:"subscription_id"`
	UserID          string           `json:"user_id"`
	Email           string           `json:"email"`
	Tier            string           `json:"tier"`
	Status          string           `json:"status"`
	Amount          Amount           `json:"amount"`
	NextPaymentDate domain.Timestamp `json:"next_payment_date"`
}

// Amount accepts both numeric and quoted amounts.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func Parse(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
