// Package session issues and verifies the stateless, HMAC-signed session
// token carried in the marketplace cookie.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Payload is the identity a token vouches for. ExpiresAt is unix seconds.
type Payload struct {
	UserID    string  `json:"userId"`
	CityID    string  `json:"cityId"`
	Email     *string `json:"email"`
	Name      string  `json:"name"`
	ExpiresAt int64   `json:"exp"`
}

// Codec signs and verifies tokens of the form
// base64url(json(payload)) + "." + base64url(hmac-sha256).
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: secret, now: now}
}

var b64 = base64.RawURLEncoding

func (c *Codec) Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal session payload: %w", err)
	}
	encoded := b64.EncodeToString(raw)
	return encoded + "." + b64.EncodeToString(c.sign(encoded)), nil
}

// Decode returns the payload and true only for a well-formed, correctly
// signed, unexpired token. Every failure yields the same (Payload{}, false).
func (c *Codec) Decode(token string) (Payload, bool) {
	encoded, sigPart, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sigPart == "" || strings.Contains(sigPart, ".") {
		return Payload{}, false
	}

	// Compare the encoded forms so that every character of the signature is
	// significant, including base64 padding bits.
	expected := b64.EncodeToString(c.sign(encoded))
	if len(sigPart) != len(expected) || !hmac.Equal([]byte(sigPart), []byte(expected)) {
		return Payload{}, false
	}

	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return Payload{}, false
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, false
	}

	if p.ExpiresAt != 0 && p.ExpiresAt < c.now().Unix() {
		return Payload{}, false
	}
	return p, true
}

func (c *Codec) sign(encoded string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return mac.Sum(nil)
}
