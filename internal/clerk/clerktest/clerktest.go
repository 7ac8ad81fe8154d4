// Package clerktest signs session tokens and webhook deliveries for tests.
package clerktest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	svix "github.com/svix/svix-webhooks/go"
)

type Keys struct {
	private *rsa.PrivateKey
	// PublicPEM is the value to put in CLERK_JWT_KEY
	PublicPEM string
	// WebhookSecret is the value to put in CLERK_WEBHOOK_SECRET
	WebhookSecret string
}

func NewKeys(t testing.TB) *Keys {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("generate webhook secret: %v", err)
	}
	return &Keys{
		private:       priv,
		PublicPEM:     string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		WebhookSecret: "whsec_" + base64.StdEncoding.EncodeToString(secret),
	}
}

// Token signs claims with sub set to userID, valid for an hour.
func (k *Keys) Token(t testing.TB, userID string, extra jwt.MapClaims) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"nbf": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k.private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// WebhookHeaders returns svix headers that authenticate payload.
func (k *Keys) WebhookHeaders(t testing.TB, msgID string, payload []byte) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(k.WebhookSecret)
	if err != nil {
		t.Fatalf("svix webhook: %v", err)
	}
	ts := time.Now()
	sig, err := wh.Sign(msgID, ts, payload)
	if err != nil {
		t.Fatalf("svix sign: %v", err)
	}
	h := http.Header{}
	h.Set("svix-id", msgID)
	h.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}
