package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionState is the visitor's content mode.
type SessionState int

const (
	// Published is the default state: no cookie, or an unusable one.
	Published SessionState = iota
	Preview
)

func (s SessionState) String() string {
	if s == Preview {
		return "PREVIEW"
	}
	return "PUBLISHED"
}

const (
	DefaultCookieName = "preview"
	DefaultMaxAge     = 24 * time.Hour
)

// SessionStore reads and writes the preview session state of one request.
// Implementations only touch the response's Set-Cookie header.
type SessionStore interface {
	Read(ctx *fiber.Ctx) SessionState
	// SessionID identifies the preview session, "" when not in preview.
	SessionID(ctx *fiber.Ctx) string
	SetPreview(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx)
}

// ErrNoSigningKey is returned by SetPreview when no signing key is configured.
var ErrNoSigningKey = errors.New("preview cookie signing key is not configured")

type previewClaims struct {
	Preview bool `json:"preview"`
	jwt.RegisteredClaims
}

// CookieSessionStore keeps the state in one HMAC signed, HTTP-only cookie.
// There is no server side session storage.
type CookieSessionStore struct {
	name   string
	key    []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

type CookieOption func(*CookieSessionStore)

func WithCookieName(name string) CookieOption {
	return func(s *CookieSessionStore) { s.name = name }
}

func WithMaxAge(d time.Duration) CookieOption {
	return func(s *CookieSessionStore) { s.maxAge = d }
}

func WithSecure(secure bool) CookieOption {
	return func(s *CookieSessionStore) { s.secure = secure }
}

func WithClock(now func() time.Time) CookieOption {
	return func(s *CookieSessionStore) { s.now = now }
}

func NewCookieSessionStore(signingKey string, opts ...CookieOption) *CookieSessionStore {
	s := &CookieSessionStore{
		name:   DefaultCookieName,
		key:    []byte(signingKey),
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CookieSessionStore) CookieName() string {
	return s.name
}

// claims returns the verified claims of the request's cookie, nil when the
// cookie is absent, forged, expired or not a preview cookie.
func (s *CookieSessionStore) claims(ctx *fiber.Ctx) *previewClaims {
	value := ctx.Cookies(s.name)
	if value == "" || len(s.key) == 0 {
		return nil
	}

	claims := &previewClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || !claims.Preview {
		return nil
	}
	return claims
}

func (s *CookieSessionStore) Read(ctx *fiber.Ctx) SessionState {
	if s.claims(ctx) == nil {
		return Published
	}
	return Preview
}

func (s *CookieSessionStore) SessionID(ctx *fiber.Ctx) string {
	if claims := s.claims(ctx); claims != nil {
		return claims.ID
	}
	return ""
}

func (s *CookieSessionStore) SetPreview(ctx *fiber.Ctx) error {
	if len(s.key) == 0 {
		return ErrNoSigningKey
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, previewClaims{
		Preview: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign preview cookie: %w", err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie immediately. Clearing an absent cookie is a no-op
// for the visitor. fasthttp only writes Max-Age when it is positive, so the
// cookie is expired with an epoch Expires instead of Max-Age=0.
func (s *CookieSessionStore) Clear(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
