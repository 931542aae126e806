package specifications

import (
	"context"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// MonitoredSpecification rejects releases for unmonitored albums during RSS
// syncs and searches restricted to monitored albums.
type MonitoredSpecification struct{}

func NewMonitoredSpecification() *MonitoredSpecification {
	return &MonitoredSpecification{}
}

func (s *MonitoredSpecification) Name() string { return "Monitored" }

func (s *MonitoredSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDefault
}

func (s *MonitoredSpecification) Evaluate(_ context.Context, c *release.Candidate, search *decisionengine.SearchContext) (decisionengine.Result, error) {
	if !search.IsRSS() && (search == nil || !search.MonitoredAlbumsOnly) {
		return decisionengine.Accept(), nil
	}

	monitored := 0
	for _, a := range c.Albums {
		if a.Monitored {
			monitored++
		}
	}

	switch {
	case monitored == len(c.Albums):
		return decisionengine.Accept(), nil
	case len(c.Albums) == 1:
		return decisionengine.Reject(decisionengine.Permanent, "Album is not monitored"), nil
	case monitored == 0:
		return decisionengine.Reject(decisionengine.Permanent, "No albums in the release are monitored"), nil
	}
	return decisionengine.Reject(decisionengine.Permanent, "One or more albums is not monitored"), nil
}
