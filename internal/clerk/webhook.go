package clerk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// Webhook event types the identity bridge applies.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Signature header names.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

var (
	ErrMissingHeaders = errors.New("missing webhook signature headers")
	ErrVerification   = errors.New("webhook verification failed")
)

// Event is a verified webhook delivery.
type Event struct {
	Type string `json:"type"`
	Data User   `json:"data"`
}

// WebhookVerifier checks deliveries against the shared signing secret.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier creates a verifier for a "whsec_" signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// HasSignatureHeaders reports whether all three signature headers are set.
func HasSignatureHeaders(h http.Header) bool {
	return h.Get(HeaderID) != "" && h.Get(HeaderTimestamp) != "" && h.Get(HeaderSignature) != ""
}

// Verify authenticates payload and decodes the event. Nothing from an
// unverified payload is returned.
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) (*Event, error) {
	if !HasSignatureHeaders(headers) {
		return nil, ErrMissingHeaders
	}
	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", ErrVerification, err)
	}
	return &evt, nil
}
