package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionstore/pkg/cookie"
)

// CookieTransport carries the public id in a signed cookie.
type CookieTransport struct {
	cookies *cookie.Manager
	name    string
	secure  bool
	options []cookie.Option
}

// NewCookieTransport creates a cookie transport. secure adds the Secure flag.
func NewCookieTransport(cookies *cookie.Manager, name string, secure bool, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookies: cookies,
		name:    name,
		secure:  secure,
		options: opts,
	}
}

// GetToken returns ErrNoToken for a missing cookie and the signature error
// for a forged one.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookies.GetSigned(r, t.name)
	if errors.Is(err, cookie.ErrCookieNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := []cookie.Option{
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if ttl > 0 {
		opts = append(opts, cookie.WithMaxAge(int(ttl.Seconds())))
	}
	if t.secure {
		opts = append(opts, cookie.WithSecure(true))
	}
	opts = append(opts, t.options...)

	return t.cookies.SetSigned(w, t.name, token, opts...)
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookies.Delete(w, t.name)
	return nil
}
