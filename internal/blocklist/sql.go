package blocklist

import (
	"context"
	"time"

	"github.com/iliyamo/stores-rest-api/internal/repository"
)

// SQL keeps revoked jtis in the `revoked_tokens` table of the main database.
type SQL struct {
	tokens *repository.TokenRepo
	now    func() time.Time
}

// NewSQL returns a blocklist backed by repo.
func NewSQL(repo *repository.TokenRepo) *SQL {
	return &SQL{tokens: repo, now: time.Now}
}

var _ Blocklist = (*SQL)(nil)

// Add purges expired rows before inserting so the table stays bounded.
func (s *SQL) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	if _, err := s.tokens.PurgeExpired(ctx, s.now()); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, jti, expiresAt)
}

func (s *SQL) Contains(ctx context.Context, jti string) (bool, error) {
	return s.tokens.IsRevoked(ctx, jti)
}
