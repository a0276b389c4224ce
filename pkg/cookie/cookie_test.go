package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/cookie"
)

const (
	secretA = "0123456789abcdef0123456789abcdef"
	secretB = "fedcba9876543210fedcba9876543210"
)

// roundTrip copies cookies set on rec into a new request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNew(t *testing.T) {
	t.Run("no secrets", func(t *testing.T) {
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{"", ""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := cookie.New([]string{"short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := cookie.New([]string{secretA})
		require.NoError(t, err)
		d := m.Defaults()
		assert.Equal(t, "/", d.Path)
		assert.True(t, d.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, d.SameSite)
	})
}

func TestManager_SetGet(t *testing.T) {
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Set(rec, "plain", "value", cookie.WithMaxAge(60)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 60, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	got, err := m.Get(roundTrip(rec), "plain")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "plain")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestManager_SetValidation(t *testing.T) {
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", "a b", "a;b", "a=b"} {
			err := m.Set(httptest.NewRecorder(), name, "v")
			assert.ErrorIs(t, err, cookie.ErrInvalidName, name)
		}
	})

	t.Run("samesite none requires secure", func(t *testing.T) {
		err := m.Set(httptest.NewRecorder(), "c", "v", cookie.WithSameSite(http.SameSiteNoneMode))
		assert.ErrorIs(t, err, cookie.ErrInsecureSameSite)

		err = m.Set(httptest.NewRecorder(), "c", "v",
			cookie.WithSameSite(http.SameSiteNoneMode), cookie.WithSecure(true))
		assert.NoError(t, err)
	})
}

func TestManager_Signed(t *testing.T) {
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(rec, "sid", "abc123"))

		raw := rec.Result().Cookies()[0].Value
		assert.NotEqual(t, "abc123", raw)

		got, err := m.GetSigned(roundTrip(rec), "sid")
		require.NoError(t, err)
		assert.Equal(t, "abc123", got)
	})

	t.Run("tampered value", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(rec, "sid", "abc123"))
		c := rec.Result().Cookies()[0]
		_, sig, _ := strings.Cut(c.Value, ".")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "eHl6." + sig})
		_, err := m.GetSigned(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, v := range []string{"nodot", "!!!.abc", "YWJj.!!!"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: v})
			_, err := m.GetSigned(req, "sid")
			assert.ErrorIs(t, err, cookie.ErrInvalidFormat, v)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := m.GetSigned(httptest.NewRequest(http.MethodGet, "/", nil), "sid")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})
}

func TestManager_SecretRotation(t *testing.T) {
	old, err := cookie.New([]string{secretA})
	require.NoError(t, err)
	rotated, err := cookie.New([]string{secretB, secretA})
	require.NoError(t, err)
	fresh, err := cookie.New([]string{secretB})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, old.SetSigned(rec, "sid", "v"))

	got, err := rotated.GetSigned(roundTrip(rec), "sid")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = fresh.GetSigned(roundTrip(rec), "sid")
	assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
}

func TestManager_Delete(t *testing.T) {
	m, err := cookie.New([]string{secretA}, cookie.WithDomain("example.com"), cookie.WithSecure(true))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Delete(rec, "sid")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	assert.Equal(t, "example.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
}

func TestNewFromConfig(t *testing.T) {
	t.Run("parses secrets", func(t *testing.T) {
		cfg := cookie.DefaultConfig()
		cfg.Secrets = " " + secretA + " , ," + secretB
		assert.Equal(t, []string{secretA, secretB}, cfg.SecretList())

		m, err := cookie.NewFromConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, "/", m.Defaults().Path)
	})

	t.Run("applies attributes", func(t *testing.T) {
		cfg := cookie.Config{
			Secrets:  secretA,
			Domain:   "example.com",
			Secure:   true,
			HttpOnly: false,
			SameSite: http.SameSiteStrictMode,
		}
		m, err := cookie.NewFromConfig(cfg, cookie.WithPath("/app"))
		require.NoError(t, err)
		d := m.Defaults()
		assert.Equal(t, "/app", d.Path)
		assert.Equal(t, "example.com", d.Domain)
		assert.True(t, d.Secure)
		assert.False(t, d.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, d.SameSite)
	})

	t.Run("empty secrets", func(t *testing.T) {
		_, err := cookie.NewFromConfig(cookie.DefaultConfig())
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})
}
