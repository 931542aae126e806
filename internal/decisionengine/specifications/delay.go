package specifications

import (
	"context"
	"fmt"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
)

// DelaySpecification holds releases back for the artist's delay window so a
// better one can turn up.
type DelaySpecification struct {
	delays     delay.Provider
	pending    pending.Store
	files      trackfile.Provider
	upgradable *quality.UpgradableSpecification
}

func NewDelaySpecification(delays delay.Provider, store pending.Store, files trackfile.Provider, upgradable *quality.UpgradableSpecification) *DelaySpecification {
	return &DelaySpecification{
		delays:     delays,
		pending:    store,
		files:      files,
		upgradable: upgradable,
	}
}

func (s *DelaySpecification) Name() string { return "Delay" }

func (s *DelaySpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *DelaySpecification) Evaluate(ctx context.Context, c *release.Candidate, search *decisionengine.SearchContext) (decisionengine.Result, error) {
	if search.IsInteractive() {
		return decisionengine.Accept(), nil
	}

	profile, ok := profileOf(c)
	if !ok {
		return decisionengine.Result{}, fmt.Errorf("artist %q has no quality profile", c.Artist.Name)
	}
	delayProfile, err := s.delays.BestForTags(ctx, c.Artist.Tags)
	if err != nil {
		return decisionengine.Result{}, fmt.Errorf("resolving delay profile: %w", err)
	}
	if delayProfile == nil {
		return decisionengine.Accept(), nil
	}

	protocol := c.Release.DownloadProtocol
	delayMinutes := delayProfile.GetProtocolDelay(protocol)
	if delayMinutes == 0 {
		return decisionengine.Accept(), nil
	}
	isPreferredProtocol := protocol == delayProfile.PreferredProtocol
	candidate := c.Quality()

	if isPreferredProtocol {
		revisionUpgrade, err := s.isRevisionUpgradeOfExisting(ctx, c, profile, candidate)
		if err != nil {
			return decisionengine.Result{}, err
		}
		if revisionUpgrade {
			return decisionengine.Accept(), nil
		}
	}

	best := profile.LastAllowedQuality()
	if isPreferredProtocol && profile.Comparer().Compare(candidate.Quality, best) >= 0 {
		return decisionengine.Accept(), nil
	}

	now := search.Clock()
	window := time.Duration(delayMinutes) * time.Minute

	oldest, err := s.pending.OldestPendingRelease(ctx, c.Artist.ID, c.AlbumIDs())
	if err != nil {
		return decisionengine.Result{}, fmt.Errorf("reading pending releases: %w", err)
	}
	if oldest != nil && oldest.Release.Age(now) > window {
		return decisionengine.Accept(), nil
	}

	if c.Age(now) < window {
		return decisionengine.Reject(decisionengine.Temporary, "Waiting for better quality release"), nil
	}

	return decisionengine.Accept(), nil
}

// isRevisionUpgradeOfExisting reports a proper or repack of a file already on
// disk for any target album. Those are never delayed.
func (s *DelaySpecification) isRevisionUpgradeOfExisting(ctx context.Context, c *release.Candidate, profile *quality.Profile, candidate quality.Model) (bool, error) {
	for _, album := range c.Albums {
		files, err := s.files.GetFilesByAlbum(ctx, album.ID)
		if err != nil {
			return false, fmt.Errorf("listing files for album %d: %w", album.ID, err)
		}
		if len(files) == 0 {
			continue
		}

		current := trackfile.Qualities(files)
		if !s.upgradable.IsUpgradable(profile, current, candidate) {
			continue
		}
		for _, existing := range current {
			if s.upgradable.IsRevisionUpgrade(existing, candidate) {
				return true, nil
			}
		}
	}
	return false, nil
}
