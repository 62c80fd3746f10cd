package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/iliyamo/stores-rest-api/internal/blocklist"
	"github.com/iliyamo/stores-rest-api/internal/config"
	"github.com/iliyamo/stores-rest-api/internal/database"
	"github.com/iliyamo/stores-rest-api/internal/handler"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/middleware"
	"github.com/iliyamo/stores-rest-api/internal/queue"
	"github.com/iliyamo/stores-rest-api/internal/repository"
	"github.com/iliyamo/stores-rest-api/internal/router"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logger.New(logger.Config{
		Format:      cfg.LogFormat,
		Environment: cfg.Env,
		Level:       logger.ParseLevel(cfg.LogLevel),
	}), nil
}

// DatabaseHandle wraps the pool with Shutdownable.
type DatabaseHandle struct {
	*sql.DB
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	return h.DB.Close()
}

// ProvideDatabase opens the configured database and applies migrations.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := database.Open(*cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready", "driver", cfg.DBDriver)
	return &DatabaseHandle{DB: db}, nil
}

// RedisBlocklistHandle closes the Redis client on shutdown.
type RedisBlocklistHandle struct {
	*blocklist.Redis
}

// Shutdown implements do.Shutdownable.
func (h *RedisBlocklistHandle) Shutdown() error {
	return h.Close()
}

// ProvideBlocklist selects the revoked token store.  An unreachable Redis
// falls back to the in-process set.
func ProvideBlocklist(i do.Injector) (blocklist.Blocklist, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.BlocklistBackend {
	case config.BlocklistRedis:
		if rdb := config.NewRedisClient(); rdb != nil {
			log.Info("token blocklist", "backend", "redis")
			return &RedisBlocklistHandle{Redis: blocklist.NewRedis(rdb)}, nil
		}
		log.Warn("redis unreachable, using in-memory token blocklist")
	case config.BlocklistSQL:
		db := do.MustInvoke[*DatabaseHandle](i)
		log.Info("token blocklist", "backend", "sql")
		return blocklist.NewSQL(repository.NewTokenRepo(db.DB)), nil
	case config.BlocklistMemory:
		log.Info("token blocklist", "backend", "memory")
	default:
		return nil, fmt.Errorf("unsupported BLOCKLIST_BACKEND: %q", cfg.BlocklistBackend)
	}
	return blocklist.NewMemory(), nil
}

// PublisherHandle wraps the event publisher with Shutdownable.
type PublisherHandle struct {
	queue.Publisher
}

// Shutdown implements do.Shutdownable.
func (h *PublisherHandle) Shutdown() error {
	return h.Close()
}

// ProvidePublisher provides the RabbitMQ publisher, or a no-op one when
// events are disabled.
func ProvidePublisher(i do.Injector) (*PublisherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.EventsEnabled {
		return &PublisherHandle{Publisher: queue.Nop{}}, nil
	}
	return &PublisherHandle{Publisher: queue.NewAMQPPublisher(cfg.AMQPURL, do.MustInvoke[*logger.Logger](i))}, nil
}

// AuditConsumerHandle owns the background audit consumer.
type AuditConsumerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *AuditConsumerHandle) Shutdown() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return nil
}

// ProvideAuditConsumer starts the audit log consumer when enabled.
func ProvideAuditConsumer(i do.Injector) (*AuditConsumerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	if !cfg.EventsConsumerEnabled {
		return &AuditConsumerHandle{}, nil
	}

	consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogDir, log)
	ctx, cancel := context.WithCancel(context.Background())
	h := &AuditConsumerHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit consumer stopped", "error", err)
		}
	}()
	return h, nil
}

// ProvideAuthService provides the auth service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	bl := do.MustInvoke[blocklist.Blocklist](i)
	pub := do.MustInvoke[*PublisherHandle](i)

	return service.NewAuthService(db.DB, bl, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	}, pub, log), nil
}

// ProvideStoreService provides the store service.
func ProvideStoreService(i do.Injector) (*service.StoreService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	pub := do.MustInvoke[*PublisherHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewStoreService(db.DB, pub, log), nil
}

// ProvideItemService provides the item service.
func ProvideItemService(i do.Injector) (*service.ItemService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	pub := do.MustInvoke[*PublisherHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewItemService(db.DB, pub, log), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	pub := do.MustInvoke[*PublisherHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTagService(db.DB, pub, log), nil
}

// HTTPServerHandle wraps the Echo instance with Shutdownable.
type HTTPServerHandle struct {
	*echo.Echo
	Addr string
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Echo.Shutdown(ctx)
}

// Start listens on Addr and blocks.  A graceful shutdown is not an error.
func (h *HTTPServerHandle) Start() error {
	if err := h.Echo.Start(h.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ProvideHTTPServer builds the Echo instance with every route mounted.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	auth := do.MustInvoke[*service.AuthService](i)
	stores := do.MustInvoke[*service.StoreService](i)
	items := do.MustInvoke[*service.ItemService](i)
	tags := do.MustInvoke[*service.TagService](i)

	e := router.New(log)
	router.Register(e, db.DB, router.Handlers{
		Auth:   handler.NewAuthHandler(auth),
		Stores: handler.NewStoreHandler(stores, tags),
		Items:  handler.NewItemHandler(items),
		Tags:   handler.NewTagHandler(tags),
	}, middleware.NewJWT(auth))

	return &HTTPServerHandle{Echo: e, Addr: ":" + cfg.Port}, nil
}
