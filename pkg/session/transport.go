package session

import (
	"net/http"
	"time"
)

// Transport moves the public session id between client and server.
type Transport interface {
	// GetToken extracts the public id; ErrNoToken when the request has none
	GetToken(r *http.Request) (string, error)

	// SetToken sends the public id; ttl <= 0 means no client-side expiry
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken tells the client to forget the public id
	ClearToken(w http.ResponseWriter) error
}
