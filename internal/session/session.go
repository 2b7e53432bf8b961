// Package session keeps the signed-in identity in an HS256-signed cookie.
// No server-side session state is stored.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "eduwrite_session"
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession is returned when the cookie fails verification.
	ErrInvalidSession = errors.New("invalid session")
)

// Identity is the signed-in user as recorded in the cookie.
type Identity struct {
	UserID    int
	Username  string
	Permanent bool
	ExpiresAt time.Time
}

type claims struct {
	Username  string `json:"username"`
	Permanent bool   `json:"permanent"`
	jwt.RegisteredClaims
}

// Manager issues, verifies and clears session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a permanent session for user and sets it on the response.
func (m *Manager) Issue(w http.ResponseWriter, user types.User) (Identity, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username:  user.Username,
		Permanent: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Identity{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Permanent: true,
		ExpiresAt: time.Unix(expires.Unix(), 0),
	}, nil
}

// Identity returns the verified identity carried by r.
func (m *Manager) Identity(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Identity{}, ErrNoSession
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	userID, err := strconv.Atoi(strings.TrimSpace(c.Subject))
	if err != nil || userID < 1 {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}

	identity := Identity{
		UserID:    userID,
		Username:  c.Username,
		Permanent: c.Permanent,
	}
	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time
	}
	return identity, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
