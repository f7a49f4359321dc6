package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every Store implementation that can run without external
// infrastructure, keyed by name.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(client),
	}
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key returns ErrNotFound", func(t *testing.T) {
				_, err := st.Get(ctx, "absent")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("set then get round trips", func(t *testing.T) {
				require.NoError(t, st.Set(ctx, HardwareIDKey, "hwid-123"))

				value, err := st.Get(ctx, HardwareIDKey)
				require.NoError(t, err)
				assert.Equal(t, "hwid-123", value)
			})

			t.Run("set overwrites existing value", func(t *testing.T) {
				require.NoError(t, st.Set(ctx, "k", "first"))
				require.NoError(t, st.Set(ctx, "k", "second"))

				value, err := st.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, "second", value)
			})
		})
	}
}

func TestStoreSetAll(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string]string{
				UsernameKey:   "SP Tool",
				LicenseKeyKey: "studentai2026",
			}
			require.NoError(t, st.SetAll(ctx, entries))

			for k, want := range entries {
				got, err := st.Get(ctx, k)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			t.Run("empty map is a no-op", func(t *testing.T) {
				assert.NoError(t, st.SetAll(ctx, nil))
			})
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.SetAll(ctx, map[string]string{
				UsernameKey:   "SP Tool",
				LicenseKeyKey: "studentai2026",
			}))

			t.Run("removes multiple keys at once", func(t *testing.T) {
				require.NoError(t, st.Delete(ctx, CredentialKeys()...))

				_, err := st.Get(ctx, UsernameKey)
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = st.Get(ctx, LicenseKeyKey)
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("deleting absent keys is not an error", func(t *testing.T) {
				assert.NoError(t, st.Delete(ctx, "never-written"))
			})
		})
	}
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	st := WithPrefix("studio", inner)

	require.NoError(t, st.Set(ctx, HardwareIDKey, "hwid"))

	t.Run("namespaces keys on the inner store", func(t *testing.T) {
		value, err := inner.Get(ctx, "studio:"+HardwareIDKey)
		require.NoError(t, err)
		assert.Equal(t, "hwid", value)
	})

	t.Run("reads back through the prefix", func(t *testing.T) {
		value, err := st.Get(ctx, HardwareIDKey)
		require.NoError(t, err)
		assert.Equal(t, "hwid", value)
	})

	t.Run("SetAll and Delete are namespaced", func(t *testing.T) {
		require.NoError(t, st.SetAll(ctx, map[string]string{UsernameKey: "SP Tool"}))

		_, err := inner.Get(ctx, "studio:"+UsernameKey)
		require.NoError(t, err)

		require.NoError(t, st.Delete(ctx, UsernameKey))
		_, err = st.Get(ctx, UsernameKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty prefix returns the inner store", func(t *testing.T) {
		assert.Equal(t, Store(inner), WithPrefix("", inner))
	})
}

func TestNewMemoryFrom(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryFrom(map[string]string{GoogleProfileKey: `{"name":"Jane"}`})

	value, err := st.Get(ctx, GoogleProfileKey)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Jane"}`, value)
	assert.Equal(t, 1, st.Len())
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()

	type observation struct {
		backend, operation, status string
	}
	var seen []observation
	st := NewInstrumented("memory", NewMemory(), func(backend, operation, status string, _ time.Duration) {
		seen = append(seen, observation{backend, operation, status})
	})

	require.NoError(t, st.Set(ctx, UsernameKey, "SP Tool"))

	_, err := st.Get(ctx, UsernameKey)
	require.NoError(t, err)

	// An absent key is a normal answer, not a backend failure.
	_, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetAll(ctx, map[string]string{LicenseKeyKey: "k"}))
	require.NoError(t, st.Delete(ctx, UsernameKey, LicenseKeyKey))

	assert.Equal(t, []observation{
		{"memory", "SET", "success"},
		{"memory", "GET", "success"},
		{"memory", "GET", "success"},
		{"memory", "SETALL", "success"},
		{"memory", "DELETE", "success"},
	}, seen)
}
