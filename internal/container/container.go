// Package container wires the decision service with samber/do.
package container

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/config"
)

// New creates the injector for cfg. Services are built lazily on first
// invocation, so commands only connect to what they use.
func New(cfg *config.Config, logger *zap.Logger) *do.RootScope {
	injector := do.New()

	// Core
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	// Persistence
	do.Provide(injector, ProvideDatabase)
	do.Provide(injector, ProvideHistoryRepository)
	do.Provide(injector, ProvideBlocklistRepository)
	do.Provide(injector, ProvidePendingRepository)
	do.Provide(injector, ProvideDelayProfileRepository)
	do.Provide(injector, ProvideTrackFileRepository)

	// Messaging
	do.Provide(injector, ProvideNATS)
	do.Provide(injector, ProvideKafka)
	do.Provide(injector, ProvideEventBus)
	do.Provide(injector, ProvideDownloadTrigger)

	// Decision pipeline
	do.Provide(injector, ProvideMetrics)
	do.Provide(injector, ProvideBlocklistService)
	do.Provide(injector, ProvideDiskProvider)
	do.Provide(injector, ProvideRegistry)
	do.Provide(injector, ProvideDecisionMaker)
	do.Provide(injector, ProvidePrioritizer)
	do.Provide(injector, ProvideProcessor)
	do.Provide(injector, ProvideGrabService)

	// Reports
	do.Provide(injector, ProvideArchiver)

	return injector
}
