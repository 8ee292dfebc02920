package api

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const sessionCookieName = "branch_booking_session"

// SessionCookies carries the booking session id in a signed, encrypted cookie.
type SessionCookies struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
}

func NewSessionCookies(hashKey, blockKey []byte, maxAge time.Duration) *SessionCookies {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &SessionCookies{sc: sc, maxAge: maxAge}
}

func (c *SessionCookies) Set(w http.ResponseWriter, r *http.Request, sessionID string) error {
	encoded, err := c.sc.Encode(sessionCookieName, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(c.maxAge.Seconds()),
	})
	return nil
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// SessionID returns the session id carried by r, if the cookie is present
// and authentic.
func (c *SessionCookies) SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := c.sc.Decode(sessionCookieName, cookie.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}
