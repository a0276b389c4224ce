package sid

import "errors"

var (
	// ErrInvalidID is returned when a public id is not a well-formed session id.
	ErrInvalidID = errors.New("sid.invalid_id")

	// ErrDerivationFailed is returned when the keyed private id derivation fails.
	ErrDerivationFailed = errors.New("sid.derivation_failed")
)
