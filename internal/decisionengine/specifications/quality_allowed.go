package specifications

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// QualityAllowedByProfileSpecification rejects qualities the artist's profile does not allow.
type QualityAllowedByProfileSpecification struct{}

func NewQualityAllowedByProfileSpecification() *QualityAllowedByProfileSpecification {
	return &QualityAllowedByProfileSpecification{}
}

func (s *QualityAllowedByProfileSpecification) Name() string { return "QualityAllowedByProfile" }

func (s *QualityAllowedByProfileSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDefault
}

func (s *QualityAllowedByProfileSpecification) Evaluate(_ context.Context, c *release.Candidate, _ *decisionengine.SearchContext) (decisionengine.Result, error) {
	profile, ok := profileOf(c)
	if !ok {
		return decisionengine.Result{}, fmt.Errorf("artist %q has no quality profile", c.Artist.Name)
	}

	q := c.Quality().Quality
	if !profile.IsAllowed(q) {
		return decisionengine.Reject(decisionengine.Permanent, "%s is not wanted in profile", q.Name), nil
	}
	return decisionengine.Accept(), nil
}
