package container

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/config"
	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/decisionengine/specifications"
	"github.com/narwhalmedia/decisionengine/internal/domain/blocklist"
	"github.com/narwhalmedia/decisionengine/internal/grab"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/disk"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/download"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/events/kafka"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/events/nats"
	gormrepo "github.com/narwhalmedia/decisionengine/internal/infrastructure/persistence/gorm"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/report"
	"github.com/narwhalmedia/decisionengine/internal/metrics"
	"github.com/narwhalmedia/decisionengine/pkg/events"
	pkglogger "github.com/narwhalmedia/decisionengine/pkg/logger"
)

// ErrNATSDisabled is returned when a grab is requested without a transport.
var ErrNATSDisabled = errors.New("nats is disabled; grabs cannot be submitted")

// DatabaseHandle owns the gorm connection.
type DatabaseHandle struct {
	*gorm.DB
	cleanup func()
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	h.cleanup()
	return nil
}

// ProvideDatabase opens the configured database.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	db, cleanup, err := gormrepo.NewDB(cfg.Database, logger, cfg.Logger.Level == "debug")
	if err != nil {
		return nil, err
	}
	return &DatabaseHandle{DB: db, cleanup: cleanup}, nil
}

func ProvideHistoryRepository(i do.Injector) (*gormrepo.HistoryRepository, error) {
	return gormrepo.NewHistoryRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideBlocklistRepository(i do.Injector) (*gormrepo.BlocklistRepository, error) {
	return gormrepo.NewBlocklistRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvidePendingRepository(i do.Injector) (*gormrepo.PendingReleaseRepository, error) {
	return gormrepo.NewPendingReleaseRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideDelayProfileRepository(i do.Injector) (*gormrepo.DelayProfileRepository, error) {
	return gormrepo.NewDelayProfileRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideTrackFileRepository(i do.Injector) (*gormrepo.TrackFileRepository, error) {
	return gormrepo.NewTrackFileRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

// NATSHandle owns the NATS connection.
type NATSHandle struct {
	*nats.Client
	cleanup func()
}

// Shutdown implements do.Shutdownable.
func (h *NATSHandle) Shutdown() error {
	h.cleanup()
	return nil
}

// ProvideNATS connects to NATS and declares the streams.
func ProvideNATS(i do.Injector) (*NATSHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	if !cfg.NATS.Enabled {
		return nil, ErrNATSDisabled
	}
	client, cleanup, err := nats.NewClient(context.Background(), cfg.NATS, cfg.Download.Subject, logger)
	if err != nil {
		return nil, err
	}
	return &NATSHandle{Client: client, cleanup: cleanup}, nil
}

// KafkaHandle owns the Kafka producer.
type KafkaHandle struct {
	*kafka.Publisher
}

// Shutdown implements do.Shutdownable.
func (h *KafkaHandle) Shutdown() error {
	return h.Close()
}

func ProvideKafka(i do.Injector) (*KafkaHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	if !cfg.Kafka.Enabled {
		return nil, errors.New("kafka is disabled")
	}
	publisher, err := kafka.NewPublisher(cfg.Kafka, logger)
	if err != nil {
		return nil, err
	}
	return &KafkaHandle{Publisher: publisher}, nil
}

// EventBusHandle is the in-process bus release events are published on.
type EventBusHandle struct {
	*events.InMemoryEventBus
}

// Shutdown implements do.Shutdownable.
func (h *EventBusHandle) Shutdown() error {
	return h.Stop()
}

// ProvideEventBus creates the bus and forwards every event to the enabled
// brokers.
func ProvideEventBus(i do.Injector) (*EventBusHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	bus := events.NewInMemoryEventBus(pkglogger.Wrap(logger.Named("event-bus")))

	if cfg.NATS.Enabled {
		handle, err := do.Invoke[*NATSHandle](i)
		if err != nil {
			return nil, err
		}
		publisher := nats.NewPublisher(handle.JetStream(), logger)
		if err := bus.Subscribe(publisher.EventType(), publisher); err != nil {
			return nil, err
		}
	}

	if cfg.Kafka.Enabled {
		handle, err := do.Invoke[*KafkaHandle](i)
		if err != nil {
			return nil, err
		}
		if err := bus.Subscribe(handle.EventType(), handle.Publisher); err != nil {
			return nil, err
		}
	}

	if err := bus.Start(context.Background()); err != nil {
		return nil, err
	}
	return &EventBusHandle{InMemoryEventBus: bus}, nil
}

// ProvideDownloadTrigger submits grabs over NATS, rate limited.
func ProvideDownloadTrigger(i do.Injector) (decisionengine.DownloadTrigger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	handle, err := do.Invoke[*NATSHandle](i)
	if err != nil {
		return nil, err
	}
	submitter := nats.NewGrabSubmitter(handle.JetStream(), cfg.Download.Subject, logger)
	return download.NewRateLimitedTrigger(submitter, cfg.Download.GrabsPerSecond, cfg.Download.GrabBurst, logger), nil
}

// ProvideMetrics registers the collector with the default registry when
// metrics are enabled.
func ProvideMetrics(i do.Injector) (*metrics.Collector, error) {
	cfg := do.MustInvoke[*config.Config](i)

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	return metrics.NewCollector(cfg.Metrics.Namespace, reg)
}

func ProvideBlocklistService(i do.Injector) (*blocklist.Service, error) {
	repo := do.MustInvoke[*gormrepo.BlocklistRepository](i)
	return blocklist.NewService(repo, do.MustInvoke[*zap.Logger](i)), nil
}

func ProvideDiskProvider(i do.Injector) (*disk.FreeSpaceProvider, error) {
	return disk.NewFreeSpaceProvider(), nil
}

// ProvideRegistry builds the default specification chain.
func ProvideRegistry(i do.Injector) (*decisionengine.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)

	specs := specifications.Default(specifications.Dependencies{
		Config:           cfg.Decision,
		History:          do.MustInvoke[*gormrepo.HistoryRepository](i),
		Blocklist:        do.MustInvoke[*blocklist.Service](i),
		Delays:           do.MustInvoke[*gormrepo.DelayProfileRepository](i),
		Pending:          do.MustInvoke[*gormrepo.PendingReleaseRepository](i),
		TrackFiles:       do.MustInvoke[*gormrepo.TrackFileRepository](i),
		Disk:             do.MustInvoke[*disk.FreeSpaceProvider](i),
		DownloadFolder:   cfg.Download.DownloadFolder,
		RecentGrabWindow: cfg.Decision.RecentGrabWindow,
		Logger:           do.MustInvoke[*zap.Logger](i),
	})
	return decisionengine.NewRegistry(specs...)
}

func ProvideDecisionMaker(i do.Injector) (*decisionengine.DecisionMaker, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return decisionengine.NewDecisionMaker(
		do.MustInvoke[*decisionengine.Registry](i),
		do.MustInvoke[*zap.Logger](i),
		decisionengine.WithMaxParallel(cfg.Decision.MaxParallel),
		decisionengine.WithMetrics(do.MustInvoke[*metrics.Collector](i)),
	), nil
}

func ProvidePrioritizer(i do.Injector) (*decisionengine.Prioritizer, error) {
	return decisionengine.NewPrioritizer(
		do.MustInvoke[*gormrepo.DelayProfileRepository](i),
		do.MustInvoke[*zap.Logger](i),
	), nil
}

func ProvideProcessor(i do.Injector) (*decisionengine.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)

	trigger, err := do.Invoke[decisionengine.DownloadTrigger](i)
	if err != nil {
		return nil, err
	}
	bus, err := do.Invoke[*EventBusHandle](i)
	if err != nil {
		return nil, err
	}

	return decisionengine.NewProcessor(
		trigger,
		do.MustInvoke[*gormrepo.PendingReleaseRepository](i),
		do.MustInvoke[*decisionengine.Prioritizer](i),
		do.MustInvoke[*zap.Logger](i),
		decisionengine.WithGrabTimeout(cfg.Decision.GrabTimeout),
		decisionengine.WithPublisher(bus.InMemoryEventBus),
		decisionengine.WithHistory(do.MustInvoke[*gormrepo.HistoryRepository](i)),
		decisionengine.WithProcessorMetrics(do.MustInvoke[*metrics.Collector](i)),
	), nil
}

// GrabServiceHandle owns the remote release cache.
type GrabServiceHandle struct {
	*grab.Service
}

// Shutdown implements do.Shutdownable.
func (h *GrabServiceHandle) Shutdown() error {
	h.Close()
	return nil
}

func ProvideGrabService(i do.Injector) (*GrabServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	trigger, err := do.Invoke[decisionengine.DownloadTrigger](i)
	if err != nil {
		return nil, err
	}
	bus, err := do.Invoke[*EventBusHandle](i)
	if err != nil {
		return nil, err
	}

	svc := grab.NewService(
		cfg.Grab.CacheTTL,
		trigger,
		do.MustInvoke[*blocklist.Service](i),
		do.MustInvoke[*gormrepo.HistoryRepository](i),
		do.MustInvoke[*zap.Logger](i),
		grab.WithPublisher(bus.InMemoryEventBus),
	)
	return &GrabServiceHandle{Service: svc}, nil
}

// ProvideArchiver archives batch reports to S3.
func ProvideArchiver(i do.Injector) (*report.Archiver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	if !cfg.S3.Enabled {
		return nil, errors.New("s3 report archive is disabled")
	}
	storage, err := report.NewS3Storage(context.Background(), cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region, logger)
	if err != nil {
		return nil, err
	}
	return report.NewArchiver(storage, logger), nil
}
