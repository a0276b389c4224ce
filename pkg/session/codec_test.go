package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/session"
)

func TestStore_PayloadFormat(t *testing.T) {
	ctx := context.Background()

	t.Run("writes versioned envelope", func(t *testing.T) {
		store, backend := newStore(t)
		id := store.GenerateSID()

		data := session.NewData()
		data.Set("n", session.Int(1))
		data.Set("f", session.Float(2))
		data.Set("tags", session.List(session.String("a"), session.Null()))
		_, err := store.WriteSession(ctx, id, data, session.WriteOptions{})
		require.NoError(t, err)

		raw, err := backend.Get(ctx, ns+":"+id.Private)
		require.NoError(t, err)
		assert.Equal(t,
			`{"__v":1,"__deleted":false,"session":{"f":2.0,"n":1,"tags":["a",null]}}`,
			string(raw))
	})

	tests := []struct {
		name    string
		payload string
		want    session.Data
	}{
		{
			name:    "legacy raw session",
			payload: `{"user":"alice","visits":3}`,
			want:    session.Data{"user": session.String("alice"), "visits": session.Int(3)},
		},
		{
			name:    "envelope",
			payload: `{"__v":1,"__deleted":false,"session":{"cart":{"items":[1,2.5]}}}`,
			want: session.Data{"cart": session.Map(map[string]session.Value{
				"items": session.List(session.Int(1), session.Float(2.5)),
			})},
		},
		{
			name:    "envelope with null session",
			payload: `{"__v":1,"session":null}`,
			want:    session.Data{},
		},
		{
			name:    "unversioned envelope",
			payload: `{"__deleted":false,"session":{"user":"bob"}}`,
			want:    session.Data{"user": session.String("bob")},
		},
		{
			name:    "large integers stay exact",
			payload: `{"id":9007199254740993}`,
			want:    session.Data{"id": session.Int(9007199254740993)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend := newStore(t)
			id := store.GenerateSID()
			require.NoError(t, backend.Set(ctx, ns+":"+id.Private, []byte(tt.payload), 0))

			got, data, err := store.FindSession(ctx, id.Public, session.FindOptions{})
			require.NoError(t, err)
			assert.Equal(t, id, got)
			assert.True(t, tt.want.Equal(data), "got %v", data)
		})
	}

	misses := map[string]string{
		"tombstone":                       `{"__v":1,"__deleted":true}`,
		"newer version":                   `{"__v":2,"__deleted":false,"session":{}}`,
		"not json":                        `not json`,
		"not an object":                   `[1,2,3]`,
		"session not object":              `{"__v":1,"session":"x"}`,
		"trailing data":                   `{"a":1} {"b":2}`,
		"bad deleted flag":                `{"__v":1,"__deleted":"yes"}`,
		"json null":                       `null`,
		"unversioned tombstone":           `{"__deleted":true}`,
		"unversioned envelope no session": `{"__deleted":false}`,
		"unversioned envelope null":       `{"__deleted":false,"session":null}`,
	}
	for name, payload := range misses {
		t.Run("miss on "+name, func(t *testing.T) {
			store, backend := newStore(t)
			id := store.GenerateSID()
			require.NoError(t, backend.Set(ctx, ns+":"+id.Private, []byte(payload), 0))

			got, data, err := store.FindSession(ctx, id.Public, session.FindOptions{})
			require.NoError(t, err)
			assert.NotEqual(t, id, got)
			assert.True(t, data.Empty())
		})
	}
}

func TestStore_UnversionedTombstoneBlocksWrites(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t, session.WithPreventWriteAfterDelete(true))
	id := store.GenerateSID()
	key := ns + ":" + id.Private
	require.NoError(t, backend.Set(ctx, key, []byte(`{"__deleted":true}`), 0))

	got, data, err := store.FindSession(ctx, id.Public, session.FindOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, id, got)
	assert.True(t, data.Empty())

	res, err := store.WriteSession(ctx, id, alice(), session.WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, session.WriteDropped, res.Status)

	raw, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"__deleted":true}`, string(raw))
}
