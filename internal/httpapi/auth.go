package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gtechitgaminghub-byte/gamezone/internal/models"
	"github.com/gtechitgaminghub-byte/gamezone/internal/store"

	"github.com/gorilla/securecookie"
)

const sessionCookieName = "gc_session"

// cookieCodec signs the session token so the cookie presented by clients is
// tamper-evident. The server-side session itself lives in the store.
type cookieCodec struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func newCookieCodec(secret string, secure bool) *cookieCodec {
	if secret == "" {
		secret = "dev_secret"
	}
	return &cookieCodec{
		codec:  securecookie.New([]byte(secret), nil),
		secure: secure,
	}
}

func (c *cookieCodec) sessionCookie(token string, expiresAt time.Time) (*http.Cookie, error) {
	encoded, err := c.codec.Encode(sessionCookieName, token)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (c *cookieCodec) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *cookieCodec) token(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	var token string
	if err := c.codec.Decode(sessionCookieName, cookie.Value, &token); err != nil {
		return ""
	}
	return token
}

func (h *Handler) currentUser(r *http.Request) (models.User, error) {
	token := h.cookies.token(r)
	if token == "" {
		return models.User{}, store.ErrAuthSessionNotFound
	}
	return h.store.GetAuthSession(r.Context(), token)
}

// requireAuth resolves the caller from the session cookie, writing a 401
// when the cookie is absent, invalid, or expired.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := h.currentUser(r)
	if err != nil {
		if errors.Is(err, store.ErrAuthSessionNotFound) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return models.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return models.User{}, false
	}
	return user, true
}
