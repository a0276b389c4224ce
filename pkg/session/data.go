package session

import "maps"

// Data is the session payload: string keys mapped to Values.
// A nil Data reads as empty; write helpers need a non-nil map.
type Data map[string]Value

// NewData returns an empty session.
func NewData() Data {
	return make(Data)
}

// Empty reports whether the session holds no keys.
func (d Data) Empty() bool {
	return len(d) == 0
}

// Get retrieves a value from session data
func (d Data) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// GetString retrieves a string value from session data
func (d Data) GetString(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

// GetInt retrieves an integer value from session data
func (d Data) GetInt(key string) (int64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// GetBool retrieves a bool value from session data
func (d Data) GetBool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	return v.Bool()
}

// Set stores a value in session data
func (d Data) Set(key string, v Value) {
	d[key] = v
}

// SetAny converts a plain Go value with ValueOf and stores it.
func (d Data) SetAny(key string, x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	d[key] = v
	return nil
}

// Delete removes a value from session data
func (d Data) Delete(key string) {
	delete(d, key)
}

// Clear removes all data from the session
func (d Data) Clear() {
	clear(d)
}

// Clone returns a deep copy.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v.clone()
	}
	return out
}

// Equal reports whether both sessions hold the same keys and values.
// nil and empty compare equal.
func (d Data) Equal(o Data) bool {
	return maps.EqualFunc(d, o, Value.Equal)
}

// Map converts the session into plain Go values.
func (d Data) Map() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.Any()
	}
	return out
}

// DataOf converts a plain map into session data.
func DataOf(m map[string]any) (Data, error) {
	out := make(Data, len(m))
	for k, x := range m {
		if err := out.SetAny(k, x); err != nil {
			return nil, err
		}
	}
	return out, nil
}
