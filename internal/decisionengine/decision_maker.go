package decisionengine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/logger"
)

const (
	internalErrorReason = "Internal error evaluating release"
	cancelledReason     = "Evaluation cancelled"
	specParseFailure    = "Parser"
)

// DecisionMaker runs the specification chain over candidates.
type DecisionMaker struct {
	registry    *Registry
	logger      *zap.Logger
	metrics     Metrics
	maxParallel int
	now         func() time.Time
}

// DecisionMakerOption customizes a DecisionMaker.
type DecisionMakerOption func(*DecisionMaker)

// WithMaxParallel bounds how many candidates are evaluated at once.
func WithMaxParallel(n int) DecisionMakerOption {
	return func(m *DecisionMaker) {
		if n > 0 {
			m.maxParallel = n
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) DecisionMakerOption {
	return func(m *DecisionMaker) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithClock sets the evaluation clock used when a search context has none.
func WithClock(now func() time.Time) DecisionMakerOption {
	return func(m *DecisionMaker) {
		if now != nil {
			m.now = now
		}
	}
}

// NewDecisionMaker creates a decision maker over the registry.
func NewDecisionMaker(registry *Registry, logger *zap.Logger, opts ...DecisionMakerOption) *DecisionMaker {
	m := &DecisionMaker{
		registry:    registry,
		logger:      logger.Named("decision-maker"),
		metrics:     nopMetrics{},
		maxParallel: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetRSSDecision evaluates candidates from an automatic RSS sync.
func (m *DecisionMaker) GetRSSDecision(ctx context.Context, candidates []*release.Candidate) []Decision {
	return m.GetSearchDecision(ctx, candidates, &SearchContext{rss: true})
}

// GetSearchDecision evaluates candidates from a search. The result has one
// decision per candidate, in input order. It never fails as a whole.
func (m *DecisionMaker) GetSearchDecision(ctx context.Context, candidates []*release.Candidate, search *SearchContext) []Decision {
	if search == nil {
		search = &SearchContext{}
	}
	if search.Now == nil {
		evaluatedAt := m.now()
		scoped := *search
		scoped.Now = func() time.Time { return evaluatedAt }
		search = &scoped
	}

	decisions := make([]Decision, len(candidates))
	if len(candidates) == 0 {
		return decisions
	}

	m.logger.Debug("evaluating releases",
		zap.Int("count", len(candidates)),
		zap.Bool("interactive", search.UserInvokedSearch))

	var g errgroup.Group
	g.SetLimit(m.maxParallel)

	for i, c := range candidates {
		i, c := i, c
		if ctx.Err() != nil {
			decisions[i] = NewDecision(c, Rejection{Reason: cancelledReason, Type: Permanent})
			continue
		}
		g.Go(func() error {
			decisions[i] = m.evaluate(ctx, c, search)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range decisions {
		m.metrics.DecisionEvaluated(d.Outcome())
		for _, r := range d.Rejections {
			m.metrics.Rejected(r.Specification)
		}
	}

	return decisions
}

func (m *DecisionMaker) evaluate(ctx context.Context, c *release.Candidate, search *SearchContext) Decision {
	if c == nil {
		return NewDecision(c, Rejection{Reason: "Unable to parse release", Type: Permanent, Specification: specParseFailure})
	}
	if reason := c.ParseFailure(); reason != "" {
		return NewDecision(c, Rejection{Reason: reason, Type: Permanent, Specification: specParseFailure})
	}

	log := logger.WithArtist(logger.WithRelease(m.logger, c.Release.Title, c.Release.GUID), c.Artist.ID)

	for _, spec := range m.registry.specs {
		result, err := m.run(ctx, spec, c, search)
		if err != nil {
			log.Error("specification failed",
				zap.String("specification", spec.Name()),
				zap.Error(err))
			return NewDecision(c, Rejection{Reason: internalErrorReason, Type: Permanent, Specification: spec.Name()})
		}
		if result.Rejected {
			log.Debug("release rejected",
				zap.String("specification", spec.Name()),
				zap.String("reason", result.Reason),
				zap.Stringer("type", result.Type))
			return NewDecision(c, Rejection{Reason: result.Reason, Type: result.Type, Specification: spec.Name()})
		}
	}

	log.Debug("release accepted")
	return NewDecision(c)
}

func (m *DecisionMaker) run(ctx context.Context, spec Specification, c *release.Candidate, search *SearchContext) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", spec.Name(), r)
		}
	}()
	return spec.Evaluate(ctx, c, search)
}
