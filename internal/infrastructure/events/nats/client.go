package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/config"
)

// Stream names created on connect.
const (
	ReleaseStream = "RELEASE_EVENTS"
	GrabStream    = "GRAB_REQUESTS"
)

// Client wraps NATS and JetStream connections
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *zap.Logger
}

// NewClient connects to NATS and makes sure the streams exist. grabSubject is
// the subject download clients consume grab requests from.
func NewClient(ctx context.Context, cfg config.NATSConfig, grabSubject string, logger *zap.Logger) (*Client, func(), error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		nc:     nc,
		js:     js,
		logger: logger.Named("nats"),
	}

	if err := client.initializeStreams(ctx, grabSubject); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", zap.Error(err))
		}
		nc.Close()
	}

	logger.Info("NATS client initialized",
		zap.String("url", cfg.URL),
		zap.String("client_id", cfg.ClientID),
	)

	return client, cleanup, nil
}

// JetStream returns the JetStream context
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

func (c *Client) initializeStreams(ctx context.Context, grabSubject string) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        ReleaseStream,
			Description: "Release decision events",
			Subjects:    []string{"release.>"},
			MaxAge:      7 * 24 * time.Hour,
		},
		{
			Name:        GrabStream,
			Description: "Grab requests for download clients",
			Subjects:    []string{grabSubject},
			// work queue: each grab is consumed once
			Retention:  jetstream.WorkQueuePolicy,
			MaxAge:     24 * time.Hour,
			Duplicates: 10 * time.Minute,
		},
	}

	for _, sc := range streams {
		sc.Replicas = 1
		sc.Storage = jetstream.FileStorage
		sc.Discard = jetstream.DiscardOld
		sc.MaxMsgs = -1
		sc.MaxBytes = -1
		sc.MaxConsumers = -1
		if _, err := c.js.CreateOrUpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("failed to create %s stream: %w", sc.Name, err)
		}
	}

	c.logger.Info("JetStream streams initialized")
	return nil
}
