package specifications

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// ProtocolSpecification rejects protocols the artist's delay profile disables.
type ProtocolSpecification struct {
	delays delay.Provider
}

func NewProtocolSpecification(delays delay.Provider) *ProtocolSpecification {
	return &ProtocolSpecification{delays: delays}
}

func (s *ProtocolSpecification) Name() string { return "Protocol" }

func (s *ProtocolSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *ProtocolSpecification) Evaluate(ctx context.Context, c *release.Candidate, _ *decisionengine.SearchContext) (decisionengine.Result, error) {
	profile, err := s.delays.BestForTags(ctx, c.Artist.Tags)
	if err != nil {
		return decisionengine.Result{}, fmt.Errorf("resolving delay profile: %w", err)
	}
	if profile == nil {
		return decisionengine.Accept(), nil
	}

	protocol := c.Release.DownloadProtocol
	if !profile.IsAllowedProtocol(protocol) {
		return decisionengine.Reject(decisionengine.Permanent, "%s is not enabled for this artist", protocolName(protocol)), nil
	}
	return decisionengine.Accept(), nil
}

func protocolName(p release.Protocol) string {
	switch p {
	case release.ProtocolUsenet:
		return "Usenet"
	case release.ProtocolTorrent:
		return "Torrent"
	}
	return "Unknown protocol"
}
