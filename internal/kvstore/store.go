package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event signals that the value stored under Key changed, either in this
// process or in another one sharing the same backend.
type Event struct {
	Key string
}

// Store is a durable key/value medium with change notification.
//
// Save and Remove publish an Event for the key after a successful write,
// including to watchers in the same process, so in-process components
// never depend on a cross-process broadcast arriving.
type Store interface {
	// Load returns the raw value for key. ok is false when the key is
	// absent; that is not an error.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Save durably writes value under key and publishes a change event.
	Save(ctx context.Context, key string, value []byte) error

	// Remove deletes key and publishes a change event. Removing an
	// absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// Keys enumerates stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Watch subscribes to change events for key. The returned cancel
	// function releases the subscription. Events may be coalesced;
	// watchers must treat an event as "reload and re-merge", not as a
	// delta.
	Watch(key string) (<-chan Event, func())

	Close() error
}

// LoadJSON loads key and unmarshals it into out.
//
// A missing key returns (false, nil). A stored value that does not parse
// as JSON also returns (false, nil): corrupt state degrades to the
// caller's default value, it never crashes the store.
func LoadJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	data, ok, err := s.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

// SaveJSON marshals value and saves it under key.
func SaveJSON(ctx context.Context, s Store, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
