// Package grab bridges search results to later user-initiated grabs.
package grab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/pkg/cache"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
)

// DefaultCacheTTL is how long search results stay grabbable.
const DefaultCacheTTL = 30 * time.Minute

// Key identifies a cached search result.
type Key struct {
	IndexerID int
	GUID      string
}

// BlocklistChecker answers whether a release is blocklisted for an artist.
type BlocklistChecker interface {
	IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error)
}

// Service caches candidates from searches so they can be grabbed by
// (indexer, guid) once the user picks one.
type Service struct {
	results   *cache.TTLCache[Key, *release.Candidate]
	trigger   decisionengine.DownloadTrigger
	blocklist BlocklistChecker
	history   history.Writer
	publisher decisionengine.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	cacheOpts []cache.Option
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher publishes a grabbed event on success.
func WithPublisher(p decisionengine.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock sets the clock used for cache expiry and history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.cacheOpts = append(s.cacheOpts, cache.WithClock(now))
	}
}

// NewService creates a grab service whose cached results live for ttl.
func NewService(ttl time.Duration, trigger decisionengine.DownloadTrigger, blocklist BlocklistChecker, h history.Writer, logger *zap.Logger, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &Service{
		trigger:   trigger,
		blocklist: blocklist,
		history:   h,
		logger:    logger.Named("grab"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.results = cache.NewTTLCache[Key, *release.Candidate](ttl, s.cacheOpts...)
	return s
}

// CacheSearchResults remembers every evaluated candidate, approved or not,
// so an interactive grab can override a rejection.
func (s *Service) CacheSearchResults(decisions []decisionengine.Decision) int {
	cached := 0
	for _, d := range decisions {
		c := d.Candidate
		if c == nil || c.Release == nil || c.Release.GUID == "" {
			continue
		}
		s.results.Set(Key{IndexerID: c.Release.IndexerID, GUID: c.Release.GUID}, c)
		cached++
	}
	s.logger.Debug("cached search results", zap.Int("count", cached))
	return cached
}

// Lookup returns a cached candidate.
func (s *Service) Lookup(indexerID int, guid string) (*release.Candidate, error) {
	c, err := s.results.Get(Key{IndexerID: indexerID, GUID: guid})
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) || errors.Is(err, cache.ErrExpired) {
			return nil, pkgerrors.NotFound(fmt.Sprintf("release %s from indexer %d is no longer cached, search again", guid, indexerID))
		}
		return nil, err
	}
	return c, nil
}

// Grab submits a cached candidate and records it in history.
func (s *Service) Grab(ctx context.Context, indexerID int, guid string) (*release.Candidate, error) {
	if guid == "" {
		return nil, pkgerrors.BadRequest("guid is required")
	}

	c, err := s.Lookup(indexerID, guid)
	if err != nil {
		return nil, err
	}
	if c.Artist == nil || len(c.Albums) == 0 {
		return nil, pkgerrors.BadRequest(fmt.Sprintf("release %q is not mapped to an album", c.Release.Title))
	}

	if s.blocklist != nil {
		blocked, err := s.blocklist.IsBlocklisted(ctx, c.Artist.ID, c.Release)
		if err != nil {
			return nil, fmt.Errorf("checking blocklist: %w", err)
		}
		if blocked {
			return nil, pkgerrors.Conflict(fmt.Sprintf("release %q is blocklisted", c.Release.Title))
		}
	}

	if err := s.trigger.Submit(ctx, c); err != nil {
		s.logger.Warn("interactive grab failed",
			zap.String("release", c.Release.Title),
			zap.Error(err))
		return nil, fmt.Errorf("submitting %q: %w", c.Release.Title, err)
	}

	for _, entry := range history.GrabbedEntries(c, s.now()) {
		if err := s.history.Insert(ctx, entry); err != nil {
			s.logger.Error("failed to record grab history",
				zap.String("release", c.Release.Title),
				zap.Int("album_id", entry.AlbumID),
				zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := decisionengine.NewReleaseEvent(decisionengine.EventReleaseGrabbed, decisionengine.NewDecision(c),
			map[string]interface{}{"interactive": true})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", zap.Error(err))
		}
	}

	s.logger.Info("release grabbed",
		zap.String("release", c.Release.Title),
		zap.String("indexer", c.Release.Indexer))
	return c, nil
}

// Close stops the cache sweeper.
func (s *Service) Close() {
	s.results.Close()
}
