package repository

import (
	"context"
	"time"
)

// TokenRepo persists revoked token identifiers in `revoked_tokens`. Each row
// carries the token's own expiry so expired rows can be purged.
type TokenRepo struct{ DB DBTX }

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{DB: db} }

// Revoke records jti as revoked until exp. Revoking twice is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)",
		jti, exp.UTC().Unix())
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

// IsRevoked reports whether jti has been revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?", jti).Scan(&n)
	return n > 0, err
}

// PurgeExpired deletes rows whose token has expired by now and returns how
// many were removed.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at <= ?", now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
