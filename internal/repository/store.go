package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Snapshot keys
const (
	KeyQueue = "queue"
	KeyRuns  = "runs"
)

// ErrCorruptSnapshot is returned when a stored snapshot cannot be decoded
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Store defines the key-value persistence the application snapshots into
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// LoadJSON decodes the snapshot stored under key into v.
// It reports false, leaving v untouched, when the key is absent.
func LoadJSON(ctx context.Context, store Store, key string, v any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
