package sid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/crypto/hkdf"
)

const (
	// DefaultLength is the number of random bytes behind a public id (256 bits).
	DefaultLength = 32

	// MinLength is the smallest accepted random length (128 bits).
	MinLength = 16

	hashedPrefix = "2::"
	keyedPrefix  = "3::"

	derivationInfo = "sessionstore/private-id"
)

// SID is a session identifier with its two derived forms.
// Public is handed to the client, Private is the storage key and never leaves the server.
type SID struct {
	Public  string
	Private string
}

// IsZero reports whether the id is unset.
func (s SID) IsZero() bool {
	return s.Public == "" && s.Private == ""
}

// String returns the public id only.
func (s SID) String() string {
	return s.Public
}

// LogValue keeps the private id out of logs.
func (s SID) LogValue() slog.Value {
	if len(s.Public) <= 8 {
		return slog.StringValue(s.Public)
	}
	return slog.StringValue(s.Public[:8] + "…")
}

// Generator produces session ids and derives private ids from public ones.
type Generator struct {
	length int
	key    []byte
	rand   io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithLength sets the number of random bytes in a public id.
// Values below MinLength are raised to MinLength.
func WithLength(n int) Option {
	return func(g *Generator) {
		g.length = max(n, MinLength)
	}
}

// WithDerivationKey switches private id derivation to HKDF keyed with the given secret.
// Empty keys are ignored.
func WithDerivationKey(key []byte) Option {
	return func(g *Generator) {
		if len(key) > 0 {
			g.key = append([]byte(nil), key...)
		}
	}
}

// WithRandom replaces the entropy source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		length: DefaultLength,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh random session id.
func (g *Generator) Generate() SID {
	b := make([]byte, g.length)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		// crypto/rand does not fail on supported platforms; a custom reader that
		// runs dry is a programming error.
		panic(errors.Join(ErrDerivationFailed, err))
	}
	public := hex.EncodeToString(b)

	private, err := g.derive(public)
	if err != nil {
		panic(err)
	}
	return SID{Public: public, Private: private}
}

// FromPublic rebuilds the full id from a client-supplied public id.
func (g *Generator) FromPublic(public string) (SID, error) {
	if len(public) != g.length*2 {
		return SID{}, ErrInvalidID
	}
	if _, err := hex.DecodeString(public); err != nil {
		return SID{}, ErrInvalidID
	}

	private, err := g.derive(public)
	if err != nil {
		return SID{}, err
	}
	return SID{Public: public, Private: private}, nil
}

func (g *Generator) derive(public string) (string, error) {
	if len(g.key) == 0 {
		sum := sha256.Sum256([]byte(public))
		return hashedPrefix + hex.EncodeToString(sum[:]), nil
	}

	r := hkdf.New(sha256.New, g.key, []byte(public), []byte(derivationInfo))
	out := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", errors.Join(ErrDerivationFailed, err)
	}
	return keyedPrefix + hex.EncodeToString(out), nil
}
