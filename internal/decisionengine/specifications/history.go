package specifications

import (
	"context"
	"fmt"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// DefaultRecentGrabWindow is how long a grab counts as recent.
const DefaultRecentGrabWindow = 12 * time.Hour

// HistorySpecification rejects releases that would not improve on the most
// recent grab of a target album.
type HistorySpecification struct {
	history      history.Reader
	upgradable   *quality.UpgradableSpecification
	config       decisionengine.ConfigService
	recentWindow time.Duration
}

func NewHistorySpecification(h history.Reader, upgradable *quality.UpgradableSpecification, config decisionengine.ConfigService, recentWindow time.Duration) *HistorySpecification {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentGrabWindow
	}
	return &HistorySpecification{
		history:      h,
		upgradable:   upgradable,
		config:       config,
		recentWindow: recentWindow,
	}
}

func (s *HistorySpecification) Name() string { return "History" }

func (s *HistorySpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *HistorySpecification) Evaluate(ctx context.Context, c *release.Candidate, search *decisionengine.SearchContext) (decisionengine.Result, error) {
	if search.IsInteractive() {
		return decisionengine.Accept(), nil
	}

	profile, ok := profileOf(c)
	if !ok {
		return decisionengine.Result{}, fmt.Errorf("artist %q has no quality profile", c.Artist.Name)
	}

	cdhEnabled := s.config.EnableCompletedDownloadHandling()
	candidate := c.Quality()
	now := search.Clock()

	for _, album := range c.Albums {
		mostRecent, err := s.history.MostRecentForAlbum(ctx, album.ID)
		if err != nil {
			return decisionengine.Result{}, fmt.Errorf("reading history for album %d: %w", album.ID, err)
		}
		if mostRecent == nil || mostRecent.EventType != history.EventGrabbed {
			continue
		}

		recent := mostRecent.Date.After(now.Add(-s.recentWindow))
		grabbed := []quality.Model{mostRecent.Quality}
		cutoffUnmet := s.upgradable.CutoffNotMet(profile, grabbed, &candidate)
		upgradeable := s.upgradable.IsUpgradable(profile, grabbed, candidate)

		if !cutoffUnmet {
			if recent {
				return decisionengine.Reject(decisionengine.Permanent, "Recent grab event in history already meets cutoff: %s", mostRecent.Quality), nil
			}
			if !cdhEnabled {
				return decisionengine.Reject(decisionengine.Permanent, "CDH is disabled and grab event in history already meets cutoff: %s", mostRecent.Quality), nil
			}
		}

		if !upgradeable {
			if recent {
				return decisionengine.Reject(decisionengine.Permanent, "Recent grab event in history is of equal or higher quality: %s", mostRecent.Quality), nil
			}
			if !cdhEnabled {
				return decisionengine.Reject(decisionengine.Permanent, "CDH is disabled and grab event in history is of equal or higher quality: %s", mostRecent.Quality), nil
			}
		}
	}

	return decisionengine.Accept(), nil
}
