package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// codecVersion is the payload format written by this package.
	codecVersion = 1

	versionKey = "__v"
	deletedKey = "__deleted"
	sessionKey = "session"
)

// encodeSession wraps data as {"__v":1,"__deleted":false,"session":{...}}.
func encodeSession(data Data) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{%q:%d,%q:false,%q:`, versionKey, codecVersion, deletedKey, sessionKey)
	if err := encodeMap(&buf, data); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// tombstonePayload marks a deleted session.
var tombstonePayload = fmt.Appendf(nil, `{%q:%d,%q:true}`, versionKey, codecVersion, deletedKey)

// decodeSession unwraps a stored payload. An object carrying "__v" or
// "__deleted" is an envelope; anything else is taken as the raw session itself.
// tombstone is true for delete markers. Unversioned envelopes without a session
// are misses.
func decodeSession(b []byte) (data Data, tombstone bool, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, false, errors.Join(ErrInvalidPayload, err)
	}
	if fields == nil {
		return nil, false, ErrInvalidPayload
	}

	rawVersion, versioned := fields[versionKey]
	rawDeleted, marked := fields[deletedKey]
	if !versioned && !marked {
		data, err := decodeData(b)
		return data, false, err
	}

	if versioned {
		var version int
		if err := json.Unmarshal(rawVersion, &version); err != nil {
			return nil, false, errors.Join(ErrInvalidPayload, err)
		}
		if version < 1 || version > codecVersion {
			return nil, false, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
	}

	if marked {
		var deleted bool
		if err := json.Unmarshal(rawDeleted, &deleted); err != nil {
			return nil, false, errors.Join(ErrInvalidPayload, err)
		}
		if deleted {
			return nil, true, nil
		}
	}

	rawSession, ok := fields[sessionKey]
	if !ok || bytes.Equal(bytes.TrimSpace(rawSession), []byte("null")) {
		if !versioned {
			return nil, false, fmt.Errorf("%w: envelope without session", ErrInvalidPayload)
		}
		return NewData(), false, nil
	}
	data, err = decodeData(rawSession)
	return data, false, err
}

func decodeData(b []byte) (Data, error) {
	raw, err := decodeJSON(b)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: session is %T, want object", ErrInvalidPayload, raw)
	}
	data, err := DataOf(m)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return data, nil
}

// isTombstone reports whether a stored payload is a delete marker.
// Undecodable payloads are not tombstones.
func isTombstone(b []byte) bool {
	_, tombstone, err := decodeSession(b)
	return err == nil && tombstone
}

// notTombstone is the guard used by conditional writes.
func notTombstone(current []byte, exists bool) bool {
	return !exists || !isTombstone(current)
}
