package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/blocklist"
	"github.com/iliyamo/stores-rest-api/internal/database"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/queue"
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db     *sql.DB
	bl     *blocklist.Memory
	pub    *recorder
	auth   *AuthService
	stores *StoreService
	items  *ItemService
	tags   *TagService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))

	log := logger.Discard()
	pub := &recorder{}
	bl := blocklist.NewMemory()
	return &fixture{
		db:  db,
		bl:  bl,
		pub: pub,
		auth: NewAuthService(db, bl, AuthConfig{
			Secret:     "test-secret",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			BcryptCost: bcrypt.MinCost,
		}, pub, log),
		stores: NewStoreService(db, pub, log),
		items:  NewItemService(db, pub, log),
		tags:   NewTagService(db, pub, log),
	}
}

func assertCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.From(err).Code, "error: %v", err)
}
