package decisionengine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// PreferredProtocolFunc returns the preferred protocol for a candidate's artist.
type PreferredProtocolFunc func(c *release.Candidate) release.Protocol

// Prioritize orders approved decisions best first and leaves rejected ones
// after them in their original order. Ties keep their input order.
//
// Keys: indexer priority ascending, quality descending, preferred protocol
// first, publish date descending, size descending.
func Prioritize(decisions []Decision, preferred PreferredProtocolFunc) []Decision {
	approved := make([]Decision, 0, len(decisions))
	rejected := make([]Decision, 0)
	for _, d := range decisions {
		if d.Approved() {
			approved = append(approved, d)
		} else {
			rejected = append(rejected, d)
		}
	}

	sort.SliceStable(approved, func(i, j int) bool {
		return compareDecisions(approved[i].Candidate, approved[j].Candidate, preferred) < 0
	})

	return append(approved, rejected...)
}

// compareDecisions returns a negative number when a should be grabbed before b.
func compareDecisions(a, b *release.Candidate, preferred PreferredProtocolFunc) int {
	if pa, pb := a.Release.Priority(), b.Release.Priority(); pa != pb {
		return pa - pb
	}

	if c := compareQuality(a, b); c != 0 {
		return -c
	}

	if preferred != nil {
		aPref := isPreferred(a, preferred(a))
		bPref := isPreferred(b, preferred(b))
		if aPref != bPref {
			if aPref {
				return -1
			}
			return 1
		}
	}

	if ta, tb := a.Release.PublishDate, b.Release.PublishDate; !ta.Equal(tb) {
		if ta.After(tb) {
			return -1
		}
		return 1
	}

	switch {
	case a.Release.Size > b.Release.Size:
		return -1
	case a.Release.Size < b.Release.Size:
		return 1
	}
	return 0
}

func isPreferred(c *release.Candidate, protocol release.Protocol) bool {
	return protocol != release.ProtocolUnknown && c.Release.DownloadProtocol == protocol
}

func compareQuality(a, b *release.Candidate) int {
	var profile *quality.Profile
	if a.Artist != nil && a.Artist.QualityProfile != nil {
		profile = a.Artist.QualityProfile
	}
	qa, qb := a.Quality(), b.Quality()
	if profile == nil {
		return qa.Revision.Compare(qb.Revision)
	}
	return profile.Comparer().CompareModel(qa, qb, true)
}

// Prioritizer resolves each artist's delay profile and orders decisions.
type Prioritizer struct {
	delays delay.Provider
	logger *zap.Logger
}

// NewPrioritizer creates a prioritizer.
func NewPrioritizer(delays delay.Provider, logger *zap.Logger) *Prioritizer {
	return &Prioritizer{delays: delays, logger: logger.Named("prioritizer")}
}

// Prioritize orders decisions. A delay profile lookup failure only drops the
// protocol preference for that artist.
func (p *Prioritizer) Prioritize(ctx context.Context, decisions []Decision) []Decision {
	preferredByArtist := make(map[int]release.Protocol)
	for _, d := range decisions {
		c := d.Candidate
		if !d.Approved() || c == nil || c.Artist == nil {
			continue
		}
		if _, ok := preferredByArtist[c.Artist.ID]; ok {
			continue
		}
		preferredByArtist[c.Artist.ID] = release.ProtocolUnknown
		if p.delays == nil {
			continue
		}
		profile, err := p.delays.BestForTags(ctx, c.Artist.Tags)
		if err != nil {
			p.logger.Warn("delay profile lookup failed", zap.Int("artist_id", c.Artist.ID), zap.Error(err))
			continue
		}
		if profile != nil {
			preferredByArtist[c.Artist.ID] = profile.PreferredProtocol
		}
	}

	return Prioritize(decisions, func(c *release.Candidate) release.Protocol {
		if c.Artist == nil {
			return release.ProtocolUnknown
		}
		return preferredByArtist[c.Artist.ID]
	})
}
