package session_cache_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersTable    = "cached_users"
	sessionsTable = "cached_sessions"

	colClientID      = "client_id"
	colUserID        = "user_id"
	colEmail         = "email"
	colName          = "name"
	colEmailVerified = "email_verified"
	colFingerprint   = "fingerprint"
	colSessionID     = "session_id"
	colExpiresAt     = "expires_at"
	colAccessToken   = "access_token"
	colRefreshToken  = "refresh_token"
	colUpdatedAt     = "updated_at"
	colRevision      = "revision"
)

const schema = `
CREATE TABLE IF NOT EXISTS cached_users (
	client_id      TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	email          TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	fingerprint    TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS cached_sessions (
	client_id     TEXT PRIMARY KEY REFERENCES cached_users (client_id) ON DELETE CASCADE,
	session_id    TEXT NOT NULL,
	expires_at    TIMESTAMPTZ,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE cached_users ADD COLUMN IF NOT EXISTS revision TEXT NOT NULL DEFAULT '';`

type repo struct {
	dbc       *pgxpool.Pool
	getter    *trmpgx.CtxGetter
	txManager trm.Manager
}

func NewSessionCacheRepository(dbc *pgxpool.Pool, txManager trm.Manager) repository.SessionCacheRepository {
	return &repo{
		dbc:       dbc,
		getter:    trmpgx.DefaultCtxGetter,
		txManager: txManager,
	}
}

// EnsureSchema - creates the cache tables if they do not exist
func EnsureSchema(ctx context.Context, dbc *pgxpool.Pool) error {
	if _, err := dbc.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create session cache tables: %w", err)
	}
	return nil
}

// SaveAuth - upserts user and session of the client in one transaction
func (r *repo) SaveAuth(ctx context.Context, entry model.CachedAuth) error {
	return r.save(ctx, entry, nil)
}

// SaveAuthIf - like SaveAuth, but only while the stored revision is still revision
func (r *repo) SaveAuthIf(ctx context.Context, entry model.CachedAuth, revision string) error {
	return r.save(ctx, entry, &revision)
}

func (r *repo) save(ctx context.Context, entry model.CachedAuth, expected *string) error {
	if !entry.State.Authenticated() {
		return errors.New("session cache entry needs both user and session")
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	revision := uuid.NewString()

	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		conn := r.getter.DefaultTrOrDB(txCtx, r.dbc)

		sqlStr, args, err := userWrite(entry, updatedAt, revision, expected).ToSql()
		if err != nil {
			return err
		}
		tag, err := conn.Exec(txCtx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("failed to cache user: %w", err)
		}
		if expected != nil && tag.RowsAffected() == 0 {
			return repository.ErrCacheConflict
		}

		session := entry.State.Session
		var expiresAt *time.Time
		if !session.ExpiresAt.IsZero() {
			expiresAt = &session.ExpiresAt
		}

		sessionQuery := sq.Insert(sessionsTable).
			Columns(colClientID, colSessionID, colExpiresAt, colAccessToken, colRefreshToken, colUpdatedAt).
			Values(entry.ClientID, session.ID, expiresAt, session.AccessToken, session.RefreshToken, updatedAt).
			Suffix(upsertSuffix(colSessionID, colExpiresAt, colAccessToken, colRefreshToken, colUpdatedAt)).
			PlaceholderFormat(sq.Dollar)

		sqlStr, args, err = sessionQuery.ToSql()
		if err != nil {
			return err
		}
		if _, err = conn.Exec(txCtx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to cache session: %w", err)
		}

		return nil
	})
}

// userWrite - upsert when expected is nil, insert-if-absent when it is
// empty, update-if-unchanged otherwise
func userWrite(entry model.CachedAuth, updatedAt time.Time, revision string, expected *string) sq.Sqlizer {
	user := entry.State.User

	if expected != nil && *expected != "" {
		return sq.Update(usersTable).
			SetMap(map[string]any{
				colUserID:        user.ID,
				colEmail:         user.Email,
				colName:          user.Name,
				colEmailVerified: user.EmailVerified,
				colFingerprint:   entry.Fingerprint,
				colUpdatedAt:     updatedAt,
				colRevision:      revision,
			}).
			Where(sq.Eq{colClientID: entry.ClientID, colRevision: *expected}).
			PlaceholderFormat(sq.Dollar)
	}

	suffix := upsertSuffix(colUserID, colEmail, colName, colEmailVerified, colFingerprint, colUpdatedAt, colRevision)
	if expected != nil {
		suffix = "ON CONFLICT (" + colClientID + ") DO NOTHING"
	}

	return sq.Insert(usersTable).
		Columns(colClientID, colUserID, colEmail, colName, colEmailVerified, colFingerprint, colUpdatedAt, colRevision).
		Values(entry.ClientID, user.ID, user.Email, user.Name, user.EmailVerified, entry.Fingerprint, updatedAt, revision).
		Suffix(suffix).
		PlaceholderFormat(sq.Dollar)
}

// GetAuth - returns the cached user and session of the client.
// Returns repository.ErrCacheMiss if nothing is cached.
func (r *repo) GetAuth(ctx context.Context, clientID string) (*model.CachedAuth, error) {
	query := sq.Select(
		"u."+colUserID, "u."+colEmail, "u."+colName, "u."+colEmailVerified, "u."+colFingerprint, "u."+colRevision,
		"s."+colSessionID, "s."+colExpiresAt, "s."+colAccessToken, "s."+colRefreshToken, "s."+colUpdatedAt,
	).
		From(usersTable + " u").
		Join(sessionsTable + " s ON s." + colClientID + " = u." + colClientID).
		Where(sq.Eq{"u." + colClientID: clientID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		user      model.User
		session   model.Session
		expiresAt *time.Time
		entry     = model.CachedAuth{ClientID: clientID}
	)
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(
		&user.ID, &user.Email, &user.Name, &user.EmailVerified, &entry.Fingerprint, &entry.Revision,
		&session.ID, &expiresAt, &session.AccessToken, &session.RefreshToken, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCacheMiss
		}
		return nil, err
	}

	if expiresAt != nil {
		session.ExpiresAt = *expiresAt
	}
	entry.State = model.AuthState{User: &user, Session: &session}

	return &entry, nil
}

// ClearAuth - removes the client's session and user rows
func (r *repo) ClearAuth(ctx context.Context, clientID string) error {
	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		conn := r.getter.DefaultTrOrDB(txCtx, r.dbc)

		for _, table := range []string{sessionsTable, usersTable} {
			query := sq.Delete(table).
				Where(sq.Eq{colClientID: clientID}).
				PlaceholderFormat(sq.Dollar)

			sqlStr, args, err := query.ToSql()
			if err != nil {
				return err
			}
			if _, err = conn.Exec(txCtx, sqlStr, args...); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ClearAuthIf - removes the entry only while its revision is still revision.
// The session row goes with the user row (ON DELETE CASCADE).
func (r *repo) ClearAuthIf(ctx context.Context, clientID string, revision string) error {
	conn := r.getter.DefaultTrOrDB(ctx, r.dbc)

	if revision == "" {
		sqlStr, args, err := sq.Select("1").
			From(usersTable).
			Where(sq.Eq{colClientID: clientID}).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var one int
		err = conn.QueryRow(ctx, sqlStr, args...).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", usersTable, err)
		}
		return repository.ErrCacheConflict
	}

	sqlStr, args, err := sq.Delete(usersTable).
		Where(sq.Eq{colClientID: clientID, colRevision: revision}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", usersTable, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrCacheConflict
	}
	return nil
}

// upsertSuffix - ON CONFLICT clause overwriting cols with the inserted values
func upsertSuffix(cols ...string) string {
	s := "ON CONFLICT (" + colClientID + ") DO UPDATE SET "
	for i, c := range cols {
		if i > 0 {
			s += ", "
		}
		s += c + " = EXCLUDED." + c
	}
	return s
}
