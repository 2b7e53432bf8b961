package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduwrite/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, m *Manager, user types.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := m.Issue(rec, user)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("  ", 0)
	assert.Error(t, err)
}

func TestIssueAndIdentity(t *testing.T) {
	m, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	cookie := issue(t, m, types.User{ID: 7, Username: "alice"})
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(DefaultTTL.Seconds()), cookie.MaxAge)

	identity, err := m.Identity(requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, 7, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.True(t, identity.Permanent)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), identity.ExpiresAt, time.Minute)
}

func TestIdentityMissingCookie(t *testing.T) {
	m, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	_, err = m.Identity(requestWith(nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestIdentityRejectsForeignSignature(t *testing.T) {
	issuer, err := NewManager("other", 0)
	require.NoError(t, err)
	verifier, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	cookie := issue(t, issuer, types.User{ID: 7, Username: "alice"})
	_, err = verifier.Identity(requestWith(cookie))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestIdentityRejectsTamperedValue(t *testing.T) {
	m, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	cookie := issue(t, m, types.User{ID: 7, Username: "alice"})
	cookie.Value += "x"
	_, err = m.Identity(requestWith(cookie))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestIdentityExpired(t *testing.T) {
	m, err := NewManager("s3cret", time.Hour)
	require.NoError(t, err)

	issued := time.Date(2026, 5, 6, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	cookie := issue(t, m, types.User{ID: 7, Username: "alice"})

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Identity(requestWith(cookie))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClear(t *testing.T) {
	m, err := NewManager("s3cret", 0)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
