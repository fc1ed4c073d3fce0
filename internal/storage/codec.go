package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetJSON decodes the record at key into v. It reports false when the key
// has no record.
func GetJSON(ctx context.Context, p Provider, key Key, v any) (bool, error) {
	raw, err := p.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, p Provider, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return p.Set(ctx, key, raw)
}

// UpdateJSON runs an atomic read-modify-write on a JSON value. The decode
// hook receives the raw current value and returns the typed value, so
// callers decide how to treat malformed data.
func UpdateJSON[T any](ctx context.Context, p Provider, key Key, decode func([]byte) T, fn func(T) (T, error)) (T, error) {
	var out T
	_, err := p.Update(ctx, key, func(current []byte) ([]byte, error) {
		next, err := fn(decode(current))
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		out = next
		return raw, nil
	})
	return out, err
}
