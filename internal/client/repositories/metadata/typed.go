package metadata

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// GetInt returns 0 when the key is absent.
func GetInt(ctx context.Context, r Repository, key string) (int, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("register state %s is not an integer: %w", key, err)
	}
	return n, nil
}

func SetInt(ctx context.Context, r Repository, key string, n int) error {
	return r.Set(ctx, key, strconv.Itoa(n))
}

// GetTime returns the zero time when the key is absent.
func GetTime(ctx context.Context, r Repository, key string) (time.Time, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("register state %s is not a timestamp: %w", key, err)
	}
	return t, nil
}

func SetTime(ctx context.Context, r Repository, key string, t time.Time) error {
	return r.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}
