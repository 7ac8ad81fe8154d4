package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"valorant-missions/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKofiCheckoutURL(t *testing.T) {
	c := NewKofiClient(&config.Config{KofiPageURL: "https://ko-fi.com/missions/"})

	raw := c.CheckoutURL("Premium", "user_123")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/missions/membership", u.Path)
	assert.Equal(t, "Premium", u.Query().Get("tier"))
	assert.Equal(t, "user_123", u.Query().Get("ref"))
}

func TestKofiDisabledWithoutKey(t *testing.T) {
	c := NewKofiClient(&config.Config{})
	assert.False(t, c.Enabled())

	_, err := c.FindSubscriptions(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrKofiDisabled)
}

func TestKofiFindSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer kofi-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/subscriptions", r.URL.Path)
		assert.Equal(t, "a@example.com", r.URL.Query().Get("email"))
		w.Write([]byte(`{"data":[{"id":"sub-1","email":"a@example.com","tier_name":"Standard","status":"active","next_payment_date":"2025-07-01T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := NewKofiClient(&config.Config{KofiAPIKey: "kofi-key", KofiBaseURL: srv.URL})
	resp, err := c.FindSubscriptions(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Active())
	assert.Equal(t, "Standard", resp.Data[0].TierName)
	assert.Equal(t, 2025, resp.Data[0].NextPaymentDate.Year())
}
