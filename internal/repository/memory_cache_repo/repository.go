package memory_cache_repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/google/uuid"
)

// CacheRepo - in-process session cache, used when no database is configured
type CacheRepo struct {
	mtx     sync.RWMutex
	entries map[string]model.CachedAuth
}

func NewCacheRepository() *CacheRepo {
	return &CacheRepo{
		entries: make(map[string]model.CachedAuth),
	}
}

// SaveAuth stores a deep copy so callers cannot mutate the cache afterwards
func (r *CacheRepo) SaveAuth(_ context.Context, entry model.CachedAuth) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.put(entry)
	return nil
}

func (r *CacheRepo) SaveAuthIf(_ context.Context, entry model.CachedAuth, revision string) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.revision(entry.ClientID) != revision {
		return repository.ErrCacheConflict
	}
	r.put(entry)
	return nil
}

func (r *CacheRepo) GetAuth(_ context.Context, clientID string) (*model.CachedAuth, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	entry, ok := r.entries[clientID]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	entry = copyEntry(entry)
	return &entry, nil
}

func (r *CacheRepo) ClearAuth(_ context.Context, clientID string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.entries, clientID)
	return nil
}

func (r *CacheRepo) ClearAuthIf(_ context.Context, clientID string, revision string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.revision(clientID) != revision {
		return repository.ErrCacheConflict
	}
	delete(r.entries, clientID)
	return nil
}

// Len - number of cached clients
func (r *CacheRepo) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.entries)
}

// put expects r.mtx to be held
func (r *CacheRepo) put(entry model.CachedAuth) {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	entry.Revision = uuid.NewString()
	r.entries[entry.ClientID] = copyEntry(entry)
}

// revision expects r.mtx to be held
func (r *CacheRepo) revision(clientID string) string {
	return r.entries[clientID].Revision
}

func checkEntry(entry model.CachedAuth) error {
	if !entry.State.Authenticated() {
		return errors.New("session cache entry needs both user and session")
	}
	return nil
}

func copyEntry(e model.CachedAuth) model.CachedAuth {
	user := *e.State.User
	session := *e.State.Session
	e.State = model.AuthState{User: &user, Session: &session}
	return e
}
