// Package download adapts download client submission for the decision engine.
package download

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
)

// RateLimitedTrigger spaces out submissions to a download client.
type RateLimitedTrigger struct {
	next    decisionengine.DownloadTrigger
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimitedTrigger allows perSecond grabs with the given burst. A
// non-positive rate disables limiting.
func NewRateLimitedTrigger(next decisionengine.DownloadTrigger, perSecond float64, burst int, logger *zap.Logger) *RateLimitedTrigger {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimitedTrigger{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("download"),
	}
}

// Submit waits for a token, then submits. Waiting respects ctx, so a grab
// timeout also covers time spent queued here. A release that cannot get a
// token before ctx ends is reported as unavailable.
func (t *RateLimitedTrigger) Submit(ctx context.Context, c *release.Candidate) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return pkgerrors.Unavailable("download client rate limited", err)
	}
	t.logger.Debug("submitting release", zap.String("release", c.Release.Title))
	return t.next.Submit(ctx, c)
}
