package specifications

import (
	"context"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// FreeSpacePadding is kept free on top of the release size.
const FreeSpacePadding int64 = 100 * 1024 * 1024

// FreeSpaceSpecification rejects releases that would not fit on disk. It
// accepts whenever free space cannot be determined.
type FreeSpaceSpecification struct {
	disk           DiskProvider
	config         decisionengine.ConfigService
	downloadFolder string
	logger         *zap.Logger
}

func NewFreeSpaceSpecification(disk DiskProvider, config decisionengine.ConfigService, downloadFolder string, logger *zap.Logger) *FreeSpaceSpecification {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FreeSpaceSpecification{
		disk:           disk,
		config:         config,
		downloadFolder: downloadFolder,
		logger:         logger.Named("free-space"),
	}
}

func (s *FreeSpaceSpecification) Name() string { return "FreeSpace" }

func (s *FreeSpaceSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDisk
}

func (s *FreeSpaceSpecification) Evaluate(_ context.Context, c *release.Candidate, _ *decisionengine.SearchContext) (decisionengine.Result, error) {
	if s.config.SkipFreeSpaceCheckWhenImporting() {
		return decisionengine.Accept(), nil
	}

	path := s.downloadFolder
	if c.Artist != nil && c.Artist.Path != "" {
		path = c.Artist.Path
	}
	if path == "" || s.disk == nil {
		return decisionengine.Accept(), nil
	}

	free, err := s.disk.FreeSpace(path)
	if err != nil {
		s.logger.Warn("unable to determine free space, skipping check",
			zap.String("path", path),
			zap.Error(err))
		return decisionengine.Accept(), nil
	}
	if free == nil {
		return decisionengine.Accept(), nil
	}

	size := c.Release.Size
	if *free < size {
		return decisionengine.Reject(decisionengine.Permanent,
			"Not enough free space: %s available, release is %s",
			humanize.IBytes(uint64(max(*free, 0))), humanize.IBytes(uint64(max(size, 0)))), nil
	}
	if *free < size+FreeSpacePadding {
		return decisionengine.Reject(decisionengine.Permanent,
			"Not enough free space: %s would remain, %s required",
			humanize.IBytes(uint64(*free-size)), humanize.IBytes(uint64(FreeSpacePadding))), nil
	}

	return decisionengine.Accept(), nil
}
