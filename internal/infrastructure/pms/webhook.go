package pms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// SignatureHeader carries the webhook signature
const SignatureHeader = "X-PMS-Signature"

// signaturePrefix is accepted in front of the hex digest
const signaturePrefix = "sha256="

// SignWebhook returns the hex HMAC-SHA256 of payload under secret
func SignWebhook(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks signature against the HMAC-SHA256 of payload.
// An empty secret or signature never verifies. Comparison is constant time.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, signaturePrefix)
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

// WebhookSecrets looks up the signing secret of a connection
type WebhookSecrets interface {
	WebhookSecret(hotelID uuid.UUID, provider integration.ProviderKey) (string, bool)
}

// SignatureAuthenticator verifies X-PMS-Signature headers against connection secrets.
// Connections without a secret are accepted unless Require is set.
type SignatureAuthenticator struct {
	Secrets WebhookSecrets
	Require bool
}

// Authenticate implements integration.WebhookAuthenticator
func (a SignatureAuthenticator) Authenticate(hotelID uuid.UUID, provider integration.ProviderKey, body []byte, signature string) error {
	secret, ok := "", false
	if a.Secrets != nil {
		secret, ok = a.Secrets.WebhookSecret(hotelID, provider)
	}
	if !ok {
		if a.Require {
			return integration.NewIntegrationError(integration.CodeInvalidSignature,
				"no webhook secret configured for connection", http.StatusUnauthorized)
		}
		return nil
	}
	if !VerifyWebhookSignature(body, signature, secret) {
		return integration.NewIntegrationError(integration.CodeInvalidSignature,
			"webhook signature mismatch", http.StatusUnauthorized)
	}
	return nil
}
