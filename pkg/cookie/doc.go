// Package cookie writes and reads HTTP cookies with shared default
// attributes and optional HMAC-SHA256 signatures.
//
// The session cookie transport uses SetSigned/GetSigned so a client cannot
// forge or alter the public session id it presents. Signing keys are derived
// from the configured secrets with HKDF; the first secret signs and every
// secret verifies, which allows rotation.
//
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil {
//	    return err
//	}
//	_ = man.SetSigned(w, "rack.session", id.Public)
//	public, err := man.GetSigned(r, "rack.session")
//
// Errors are sentinels (ErrCookieNotFound, ErrInvalidSignature,
// ErrInvalidFormat, ...) for use with errors.Is.
package cookie
