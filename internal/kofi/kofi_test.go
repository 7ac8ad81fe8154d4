package kofi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"subscription.created"}`)
	sig := Sign(body, "secret")

	assert.True(t, VerifySignature(body, sig, "secret"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature([]byte(`{"type":"subscription.cancelled"}`), sig, "secret"))
	assert.False(t, VerifySignature(body, "", "secret"))
	assert.False(t, VerifySignature(body, "zz-not-hex", "secret"))
	assert.False(t, VerifySignature(body, sig, ""))
}

func TestParse(t *testing.T) {
	ev, err := Parse([]byte(`{
		"type":"subscription.created",
		"data":{"subscription_id":"sub-1","user_id":"user_1","email":"a@example.com","tier":"Standard","status":"active","amount":"3.00","next_payment_date":"2025-07-01T00:00:00Z"},
		"timestamp":1748779200
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventSubscriptionCreated, ev.Type)
	assert.Equal(t, "sub-1", ev.Data.SubscriptionID)
	assert.Equal(t, Amount(3), ev.Data.Amount)
	assert.True(t, ev.Data.NextPaymentDate.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, ev.Timestamp.IsSet())
}

func TestParseNumericAmount(t *testing.T) {
	ev, err := Parse([]byte(`{"type":"subscription.updated","data":{"amount":5}}`))
	require.NoError(t, err)
	assert.Equal(t, Amount(5), ev.Data.Amount)
	assert.False(t, ev.Data.NextPaymentDate.IsSet())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	assert.Error(t, err)
}
