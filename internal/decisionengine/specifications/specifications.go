// Package specifications holds the accept/reject rules run by the decision engine.
package specifications

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
)

// BlocklistChecker answers whether a release is blocklisted for an artist.
type BlocklistChecker interface {
	IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error)
}

// DiskProvider reports free space. A nil result means unknown.
type DiskProvider interface {
	FreeSpace(path string) (*int64, error)
}

// Dependencies are the collaborators shared by the default chain.
type Dependencies struct {
	Config           decisionengine.ConfigService
	History          history.Reader
	Blocklist        BlocklistChecker
	Delays           delay.Provider
	Pending          pending.Store
	TrackFiles       trackfile.Provider
	Disk             DiskProvider
	DownloadFolder   string
	RecentGrabWindow time.Duration
	Logger           *zap.Logger
}

// Default returns the specification chain in registration order.
func Default(deps Dependencies) []decisionengine.Specification {
	upgradable := quality.NewUpgradableSpecification(deps.Config.DownloadPropersAndRepacks)

	return []decisionengine.Specification{
		NewMonitoredSpecification(),
		NewQualityAllowedByProfileSpecification(),
		NewProtocolSpecification(deps.Delays),
		NewUpgradeDiskSpecification(deps.TrackFiles, upgradable),
		NewBlocklistSpecification(deps.Blocklist),
		NewHistorySpecification(deps.History, upgradable, deps.Config, deps.RecentGrabWindow),
		NewAlreadyImportedSpecification(deps.History),
		NewDelaySpecification(deps.Delays, deps.Pending, deps.TrackFiles, upgradable),
		NewFreeSpaceSpecification(deps.Disk, deps.Config, deps.DownloadFolder, deps.Logger),
	}
}

func profileOf(c *release.Candidate) (*quality.Profile, bool) {
	if c.Artist == nil || c.Artist.QualityProfile == nil {
		return nil, false
	}
	return c.Artist.QualityProfile, true
}
