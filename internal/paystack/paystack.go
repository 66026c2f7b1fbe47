// Package paystack verifies and decodes Paystack webhook deliveries.
package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	SignatureHeader = "X-Paystack-Signature"

	EventChargeSuccess = "charge.success"
	StatusSuccess      = "success"
)

var ErrInvalidSignature = errors.New("paystack: invalid signature")

// Sign returns the lowercase hex HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature over the raw body and compares it byte for byte in constant time.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// Event is the subset of a webhook payload this service reads.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	// ID is a number in practice; a string or a missing id must not fail decoding.
	ID        json.RawMessage `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
}

// IsChargeSuccess is true for a charge.success event whose data also reports success.
func (e *Event) IsChargeSuccess() bool {
	return e.Event == EventChargeSuccess && e.Data.Status == StatusSuccess
}

// ProviderID is the provider's transaction id as text, or "" when the event carries none.
func (e *Event) ProviderID() string {
	raw := e.Data.ID
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("paystack: decode event: %w", err)
	}
	return &ev, nil
}
