package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"
)

var (
	// ErrCacheMiss - no cache entry for the client
	ErrCacheMiss = errors.New("session cache miss")
	// ErrCacheConflict - the entry changed since the caller read it
	ErrCacheConflict = errors.New("session cache entry changed")
)

// SessionCacheRepository - persistent recovery cache of the auth store.
// User and session of an entry are written and cleared together.
// Every write gives the entry a new revision.
type SessionCacheRepository interface {
	SaveAuth(ctx context.Context, entry model.CachedAuth) error
	GetAuth(ctx context.Context, clientID string) (*model.CachedAuth, error)
	ClearAuth(ctx context.Context, clientID string) error

	// SaveAuthIf and ClearAuthIf apply only while the stored revision is
	// still revision ("" meaning no entry) and return ErrCacheConflict
	// otherwise.
	SaveAuthIf(ctx context.Context, entry model.CachedAuth, revision string) error
	ClearAuthIf(ctx context.Context, clientID string, revision string) error
}
