package specifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
)

// UpgradeDiskSpecification rejects releases that would not improve on files
// already imported for any target album.
type UpgradeDiskSpecification struct {
	files      trackfile.Provider
	upgradable *quality.UpgradableSpecification
}

func NewUpgradeDiskSpecification(files trackfile.Provider, upgradable *quality.UpgradableSpecification) *UpgradeDiskSpecification {
	return &UpgradeDiskSpecification{files: files, upgradable: upgradable}
}

func (s *UpgradeDiskSpecification) Name() string { return "UpgradeDisk" }

func (s *UpgradeDiskSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *UpgradeDiskSpecification) Evaluate(ctx context.Context, c *release.Candidate, _ *decisionengine.SearchContext) (decisionengine.Result, error) {
	profile, ok := profileOf(c)
	if !ok {
		return decisionengine.Result{}, fmt.Errorf("artist %q has no quality profile", c.Artist.Name)
	}
	candidate := c.Quality()

	for _, album := range c.Albums {
		files, err := s.files.GetFilesByAlbum(ctx, album.ID)
		if err != nil {
			return decisionengine.Result{}, fmt.Errorf("listing files for album %d: %w", album.ID, err)
		}
		if len(files) == 0 {
			continue
		}

		current := trackfile.Qualities(files)
		if !s.upgradable.IsUpgradeAllowed(profile, current, candidate) {
			return decisionengine.Reject(decisionengine.Permanent, "Existing files and the Quality profile does not allow upgrades"), nil
		}
		if !s.upgradable.IsUpgradable(profile, current, candidate) {
			return decisionengine.Reject(decisionengine.Permanent, "Existing files on disk is of equal or higher quality: %s", joinQualities(current)), nil
		}
	}

	return decisionengine.Accept(), nil
}

func joinQualities(models []quality.Model) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
