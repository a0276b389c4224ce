package session

import "time"

// Config holds session store configuration
type Config struct {
	// Namespace prefixes every store key as "<namespace>:<id>" (empty for none)
	Namespace string `env:"SESSION_NAMESPACE" envDefault:"rack:session"`

	// ExpireAfter is the session lifetime in the store (0 means no expiry)
	ExpireAfter time.Duration `env:"SESSION_EXPIRE_AFTER" envDefault:"0s"`

	// PreventWriteAfterDelete enables tombstones and conditional writes so a
	// write racing a delete cannot bring the session back
	PreventWriteAfterDelete bool `env:"SESSION_PREVENT_WRITE_AFTER_DELETE" envDefault:"false"`

	// TombstoneExpire is how long a delete marker lives
	TombstoneExpire time.Duration `env:"SESSION_TOMBSTONE_EXPIRE" envDefault:"60s"`

	// Threadsafe serializes store operations within the process
	Threadsafe bool `env:"SESSION_THREADSAFE" envDefault:"true"`

	// MaxGenerateAttempts caps id collision retries (0 retries forever)
	MaxGenerateAttempts int `env:"SESSION_MAX_GENERATE_ATTEMPTS" envDefault:"0"`

	// IDLength is the number of random bytes in a public id
	IDLength int `env:"SESSION_ID_LENGTH" envDefault:"32"`

	// DerivationKey switches private ids to a keyed derivation
	DerivationKey string `env:"SESSION_DERIVATION_KEY"`

	// CookieName is the name of the session cookie
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"rack.session"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

const defaultTombstoneExpire = 60 * time.Second

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		Namespace:               "rack:session",
		ExpireAfter:             0,
		PreventWriteAfterDelete: false,
		TombstoneExpire:         defaultTombstoneExpire,
		Threadsafe:              true,
		MaxGenerateAttempts:     0,
		IDLength:                32,
		CookieName:              "rack.session",
		SecureCookies:           false,
	}
}

// normalize fills values that must never be zero.
func (c Config) normalize() Config {
	if c.TombstoneExpire <= 0 {
		c.TombstoneExpire = defaultTombstoneExpire
	}
	if c.ExpireAfter < 0 {
		c.ExpireAfter = 0
	}
	if c.MaxGenerateAttempts < 0 {
		c.MaxGenerateAttempts = 0
	}
	if c.CookieName == "" {
		c.CookieName = "rack.session"
	}
	return c
}

// NewStoreFromConfig creates a Store from the provided Config.
func NewStoreFromConfig(backend Backend, cfg Config, opts ...Option) *Store {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return NewStore(backend, configOpts...)
}
