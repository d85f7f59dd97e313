package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "city_marketplace_session"
	MaxAge     = 7 * 24 * time.Hour
)

// CookiePolicy controls the attributes of the session cookie.
type CookiePolicy struct {
	Name   string
	MaxAge time.Duration
	Secure bool
	Domain string
}

// DefaultPolicy is the production cookie shape; secure should be true
// outside local development.
func DefaultPolicy(secure bool, domain string) CookiePolicy {
	return CookiePolicy{Name: CookieName, MaxAge: MaxAge, Secure: secure, Domain: domain}
}

// Store keeps the session token in an HTTP-only cookie. It holds no
// server-side state; every request verifies its own token.
type Store struct {
	codec  *Codec
	policy CookiePolicy
}

func NewStore(codec *Codec, policy CookiePolicy) *Store {
	if policy.Name == "" {
		policy.Name = CookieName
	}
	if policy.MaxAge <= 0 {
		policy.MaxAge = MaxAge
	}
	return &Store{codec: codec, policy: policy}
}

// Create stamps p with a fresh expiry, signs it and sets the cookie.
// It returns the stamped payload.
func (s *Store) Create(c *gin.Context, p Payload) (Payload, error) {
	p.ExpiresAt = s.codec.now().Add(s.policy.MaxAge).Unix()
	token, err := s.codec.Encode(p)
	if err != nil {
		return Payload{}, err
	}
	s.setCookie(c, token, int(s.policy.MaxAge.Seconds()))
	return p, nil
}

// Read returns the verified payload from the request cookie. A missing
// cookie and a bad token look the same to the caller.
func (s *Store) Read(c *gin.Context) (Payload, bool) {
	token, err := c.Cookie(s.policy.Name)
	if err != nil || token == "" {
		return Payload{}, false
	}
	return s.codec.Decode(token)
}

// Destroy expires the cookie immediately.
func (s *Store) Destroy(c *gin.Context) {
	s.setCookie(c, "", -1)
}

func (s *Store) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.policy.Name, value, maxAge, "/", s.policy.Domain, s.policy.Secure, true)
}
