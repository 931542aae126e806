package decisionengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
	"github.com/narwhalmedia/decisionengine/pkg/events"
)

// DefaultGrabTimeout bounds a single download client submission.
const DefaultGrabTimeout = 30 * time.Second

// ProcessedDecisions is the outcome of a batch.
type ProcessedDecisions struct {
	Grabbed  []Decision
	Pending  []Decision
	Rejected []Decision
	// Failed holds approved decisions whose grab failed.
	Failed []Decision
	// Skipped holds approved decisions that were not attempted, either because
	// their target was already grabbed or because the batch was cancelled.
	Skipped []Decision
}

// grabbedSet tracks album ids grabbed in one batch.
type grabbedSet struct {
	mu     sync.Mutex
	albums map[int]struct{}
}

func newGrabbedSet() *grabbedSet {
	return &grabbedSet{albums: make(map[int]struct{})}
}

// reserve claims every album of c, failing if any is taken.
func (s *grabbedSet) reserve(c *release.Candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := c.AlbumIDs()
	for _, id := range ids {
		if _, ok := s.albums[id]; ok {
			return false
		}
	}
	for _, id := range ids {
		s.albums[id] = struct{}{}
	}
	return true
}

func (s *grabbedSet) release(c *release.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range c.AlbumIDs() {
		delete(s.albums, id)
	}
}

func (s *grabbedSet) overlaps(c *release.Candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range c.AlbumIDs() {
		if _, ok := s.albums[id]; ok {
			return true
		}
	}
	return false
}

// Processor grabs approved decisions and queues temporarily rejected ones.
type Processor struct {
	trigger     DownloadTrigger
	pending     pending.Store
	history     history.Writer
	prioritizer *Prioritizer
	publisher   EventPublisher
	metrics     Metrics
	logger      *zap.Logger
	grabTimeout time.Duration
	now         func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithGrabTimeout bounds each grab.
func WithGrabTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.grabTimeout = d
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(publisher EventPublisher) ProcessorOption {
	return func(p *Processor) {
		if publisher != nil {
			p.publisher = publisher
		}
	}
}

// WithHistory records a grabbed entry per album for every successful grab.
func WithHistory(h history.Writer) ProcessorOption {
	return func(p *Processor) {
		if h != nil {
			p.history = h
		}
	}
}

// WithProcessorMetrics sets the metrics sink.
func WithProcessorMetrics(metrics Metrics) ProcessorOption {
	return func(p *Processor) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithProcessorClock sets the clock stamped on pending releases and history.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor creates a processor.
func NewProcessor(trigger DownloadTrigger, store pending.Store, prioritizer *Prioritizer, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		trigger:     trigger,
		pending:     store,
		prioritizer: prioritizer,
		publisher:   nopPublisher{},
		metrics:     nopMetrics{},
		logger:      logger.Named("processor"),
		grabTimeout: DefaultGrabTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDecisions grabs the best approved release per target and queues
// temporarily rejected releases. It never fails as a whole. Once ctx is done
// no further grab is started.
func (p *Processor) ProcessDecisions(ctx context.Context, decisions []Decision) ProcessedDecisions {
	start := time.Now()
	defer func() { p.metrics.BatchProcessed(time.Since(start)) }()

	var result ProcessedDecisions
	grabbed := newGrabbedSet()
	// store writes outlive a cancelled batch
	storeCtx := context.WithoutCancel(ctx)

	var fallback []Decision
	for _, d := range p.prioritizer.Prioritize(ctx, decisions) {
		if !d.Approved() {
			result.Rejected = append(result.Rejected, d)
			continue
		}

		if ctx.Err() != nil {
			result.Skipped = append(result.Skipped, d)
			continue
		}

		if !grabbed.reserve(d.Candidate) {
			p.logger.Debug("target already grabbed in this batch",
				zap.String("release", d.Candidate.Release.Title),
				zap.String("target", d.Candidate.TargetKey()))
			result.Skipped = append(result.Skipped, d)
			continue
		}

		if err := p.grab(ctx, d.Candidate); err != nil {
			grabbed.release(d.Candidate)
			p.metrics.GrabAttempted(false)
			p.logger.Warn("failed to grab release",
				zap.String("release", d.Candidate.Release.Title),
				zap.String("indexer", d.Candidate.Release.Indexer),
				zap.Error(err))
			p.publish(ctx, NewReleaseEvent(EventReleaseGrabFailed, d, map[string]interface{}{"error": err.Error()}))
			result.Failed = append(result.Failed, d)
			if pkgerrors.IsUnavailable(err) {
				fallback = append(fallback, d)
			}
			continue
		}

		p.metrics.GrabAttempted(true)
		p.logger.Info("release grabbed",
			zap.String("release", d.Candidate.Release.Title),
			zap.String("indexer", d.Candidate.Release.Indexer),
			zap.String("quality", d.Candidate.Quality().String()))
		p.recordGrab(storeCtx, d.Candidate)
		p.publish(ctx, NewReleaseEvent(EventReleaseGrabbed, d, nil))
		result.Grabbed = append(result.Grabbed, d)
	}

	for _, d := range result.Rejected {
		if !d.TemporarilyRejected() || grabbed.overlaps(d.Candidate) {
			continue
		}
		if p.addPending(storeCtx, d, pending.ReasonDelay) {
			result.Pending = append(result.Pending, d)
		}
	}

	for _, d := range fallback {
		if grabbed.overlaps(d.Candidate) {
			continue
		}
		if p.addPending(storeCtx, d, pending.ReasonFallback) {
			result.Pending = append(result.Pending, d)
		}
	}

	p.logger.Info("processed decisions",
		zap.Int("decisions", len(decisions)),
		zap.Int("grabbed", len(result.Grabbed)),
		zap.Int("pending", len(result.Pending)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", len(result.Skipped)))

	return result
}

// grab submits under the grab timeout. A submission that outlives the timeout
// is abandoned and reported as unavailable.
func (p *Processor) grab(ctx context.Context, c *release.Candidate) error {
	grabCtx, cancel := context.WithTimeout(ctx, p.grabTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("download trigger panicked: %v", r)
			}
		}()
		errCh <- p.trigger.Submit(grabCtx, c)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, context.DeadlineExceeded) && !pkgerrors.IsUnavailable(err) {
			return pkgerrors.Unavailable("download client did not respond in time", err)
		}
		return err
	case <-grabCtx.Done():
		return pkgerrors.Unavailable("download client did not respond in time", grabCtx.Err())
	}
}

// recordGrab writes grab history and clears releases pending for the grabbed
// albums.
func (p *Processor) recordGrab(ctx context.Context, c *release.Candidate) {
	if p.history != nil {
		for _, entry := range history.GrabbedEntries(c, p.now()) {
			if err := p.history.Insert(ctx, entry); err != nil {
				p.logger.Error("failed to record grab history",
					zap.String("release", c.Release.Title),
					zap.Int("album_id", entry.AlbumID),
					zap.Error(err))
			}
		}
	}

	if p.pending == nil || c.Artist == nil {
		return
	}
	removed, err := p.pending.RemoveForAlbums(ctx, c.Artist.ID, c.AlbumIDs())
	if err != nil {
		p.logger.Warn("failed to clear pending releases",
			zap.String("release", c.Release.Title),
			zap.Error(err))
		return
	}
	if removed > 0 {
		p.logger.Debug("cleared pending releases",
			zap.String("target", c.TargetKey()),
			zap.Int64("removed", removed))
	}
}

func (p *Processor) addPending(ctx context.Context, d Decision, reason pending.Reason) bool {
	if p.pending == nil {
		return false
	}
	pr := pending.NewRelease(d.Candidate, reason, p.now())
	if err := p.pending.Add(ctx, pr); err != nil {
		p.logger.Warn("failed to add pending release",
			zap.String("release", d.Candidate.Release.Title),
			zap.Stringer("reason", reason),
			zap.Error(err))
		return false
	}
	p.publish(ctx, NewReleaseEvent(EventReleasePending, d, map[string]interface{}{"pending_reason": reason.String()}))
	return true
}

func (p *Processor) publish(ctx context.Context, event *events.BaseEvent) {
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}
