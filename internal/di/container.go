// Package di wires the application with a samber/do container.
package di

import (
	"github.com/samber/do/v2"

	"github.com/iliyamo/stores-rest-api/internal/blocklist"
	"github.com/iliyamo/stores-rest-api/internal/config"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// cfg is passed in so main and tests decide where configuration comes from.
func NewContainer(cfg config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, &cfg)
	do.Provide(injector, ProvideLogger)

	// Storage
	do.Provide(injector, ProvideDatabase)
	do.Provide(injector, ProvideBlocklist)

	// Events
	do.Provide(injector, ProvidePublisher)
	do.Provide(injector, ProvideAuditConsumer)

	// Business services
	do.Provide(injector, ProvideAuthService)
	do.Provide(injector, ProvideStoreService)
	do.Provide(injector, ProvideItemService)
	do.Provide(injector, ProvideTagService)

	// Server
	do.Provide(injector, ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services.  This triggers lazy initialization so
// configuration or connection problems surface before the server listens.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*DatabaseHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[blocklist.Blocklist](injector)
	_ = do.MustInvoke[*PublisherHandle](injector)
	_ = do.MustInvoke[*AuditConsumerHandle](injector)

	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.StoreService](injector)
	_ = do.MustInvoke[*service.ItemService](injector)
	_ = do.MustInvoke[*service.TagService](injector)

	_ = do.MustInvoke[*HTTPServerHandle](injector)
	return nil
}
