package specifications

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// BlocklistSpecification rejects releases that previously failed.
type BlocklistSpecification struct {
	blocklist BlocklistChecker
}

func NewBlocklistSpecification(blocklist BlocklistChecker) *BlocklistSpecification {
	return &BlocklistSpecification{blocklist: blocklist}
}

func (s *BlocklistSpecification) Name() string { return "Blocklist" }

func (s *BlocklistSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *BlocklistSpecification) Evaluate(ctx context.Context, c *release.Candidate, _ *decisionengine.SearchContext) (decisionengine.Result, error) {
	blocked, err := s.blocklist.IsBlocklisted(ctx, c.Artist.ID, c.Release)
	if err != nil {
		return decisionengine.Result{}, fmt.Errorf("checking blocklist: %w", err)
	}
	if blocked {
		return decisionengine.Reject(decisionengine.Permanent, "Release is blocklisted"), nil
	}
	return decisionengine.Accept(), nil
}
