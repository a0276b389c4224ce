package session

import "errors"

var (
	// ErrSessionNotFound indicates no session was found
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrNoToken indicates the request carries no session token
	ErrNoToken = errors.New("session.no_token")

	// ErrIDExhausted indicates unique id generation gave up after MaxGenerateAttempts collisions
	ErrIDExhausted = errors.New("session.id_exhausted")

	// ErrInvalidValue indicates a value that cannot be stored in a session
	ErrInvalidValue = errors.New("session.invalid_value")

	// ErrInvalidPayload indicates a stored payload that cannot be decoded
	ErrInvalidPayload = errors.New("session.invalid_payload")

	// ErrUnsupportedVersion indicates a payload written by a newer codec
	ErrUnsupportedVersion = errors.New("session.unsupported_version")

	// ErrNoStore indicates no store is configured
	ErrNoStore = errors.New("session.no_store")

	// ErrNoTransport indicates no transport is configured
	ErrNoTransport = errors.New("session.no_transport")
)
