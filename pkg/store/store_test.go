package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// backends that run without external services.
func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"Memory": NewMemoryStore(),
		"File":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			key := SnapshotKey("abc")

			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get before Set: err = %v, want ErrNotFound", err)
			}

			want := []byte(`{"id":"abc"}`)
			if err := s.Set(ctx, key, want, 0); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Get = %q, want %q", got, want)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
			}
			// Deleting again is fine.
			if err := s.Delete(ctx, key); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestStoreExpiration(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			if err := s.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
				t.Fatal(err)
			}
			time.Sleep(10 * time.Millisecond)
			if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expired Get: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	if SnapshotKey("x") == GraphKey("x") {
		t.Error("snapshot and graph keys collide")
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("distinct inputs hashed equal")
	}
	if len(Hash(nil)) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(Hash(nil)))
	}
}
