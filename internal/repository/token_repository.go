package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// TokenRepo stores refresh token hashes. The raw token never touches the
// database; only its SHA-256 digest is persisted, so a leaked table dump
// cannot be replayed into new sessions.
type TokenRepo struct {
    db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the provided database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh saves a refresh token hash for a user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
    const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt.UTC())
    return err
}

// LookupRefresh returns the owning user for a live (unexpired, unrevoked)
// refresh token hash, or ErrUserNotFound.
func (r *TokenRepo) LookupRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    const q = `SELECT user_id FROM refresh_tokens
               WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`
    var userID uint64
    err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrUserNotFound
    }
    if err != nil {
        return 0, err
    }
    return userID, nil
}

// RevokeRefresh marks a refresh token as revoked. Revoking an unknown or
// already-revoked token is not an error.
func (r *TokenRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
    const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`
    _, err := r.db.ExecContext(ctx, q, tokenHash)
    return err
}
