package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// ErrUnavailable is returned by every operation of a backend that cannot
// be reached (for example, a database that failed to open).
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a durable string key/value namespace.
type Storage interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists the keys beginning with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Unavailable is a Storage that always fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Get(context.Context, string) (string, error)      { return "", ErrUnavailable }
func (Unavailable) Set(context.Context, string, string) error        { return ErrUnavailable }
func (Unavailable) Remove(context.Context, string) error             { return ErrUnavailable }
func (Unavailable) Keys(context.Context, string) ([]string, error)   { return nil, ErrUnavailable }
