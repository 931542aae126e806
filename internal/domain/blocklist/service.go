package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
)

// Service answers blocklist questions and records failed downloads.
type Service struct {
	repo     Repository
	matchers map[release.Protocol]Matcher
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a blocklist service with the torrent and usenet matchers.
func NewService(repo Repository, logger *zap.Logger) *Service {
	s := &Service{
		repo:     repo,
		matchers: make(map[release.Protocol]Matcher),
		now:      time.Now,
		logger:   logger.Named("blocklist"),
	}
	for _, m := range []Matcher{NewTorrentMatcher(repo), NewUsenetMatcher(repo)} {
		s.matchers[m.Protocol()] = m
	}
	return s
}

// IsBlocklisted reports whether r is blocklisted for the artist. Releases of
// an unknown protocol are never blocklisted.
func (s *Service) IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error) {
	matcher, ok := s.matchers[r.DownloadProtocol]
	if !ok {
		return false, nil
	}
	blocked, err := matcher.IsBlocklisted(ctx, artistID, r)
	if err != nil {
		return false, fmt.Errorf("checking %s blocklist: %w", r.DownloadProtocol, err)
	}
	return blocked, nil
}

// Block records a failed download.
func (s *Service) Block(ctx context.Context, failed FailedDownload) (*Entry, error) {
	if failed.Release == nil || failed.Release.Title == "" {
		return nil, pkgerrors.BadRequest("failed download has no release title")
	}

	r := failed.Release
	entry := &Entry{
		ID:              uuid.New(),
		ArtistID:        failed.ArtistID,
		AlbumIDs:        failed.AlbumIDs,
		SourceTitle:     r.Title,
		Quality:         failed.Quality,
		Date:            s.now(),
		Protocol:        r.DownloadProtocol,
		Indexer:         r.Indexer,
		TorrentInfoHash: r.ResolveInfoHash(),
		Message:         failed.Message,
	}
	if !r.PublishDate.IsZero() {
		published := r.PublishDate
		entry.PublishedDate = &published
	}
	if r.Size > 0 {
		size := r.Size
		entry.Size = &size
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("inserting blocklist entry: %w", err)
	}

	s.logger.Info("release blocklisted",
		zap.Int("artist_id", entry.ArtistID),
		zap.String("release", entry.SourceTitle),
		zap.String("protocol", entry.Protocol.String()),
		zap.String("reason", entry.Message))

	return entry, nil
}

// List returns the entries for an artist.
func (s *Service) List(ctx context.Context, artistID int) ([]*Entry, error) {
	return s.repo.FindByArtist(ctx, artistID)
}

// DeleteForArtist removes every entry of a deleted artist.
func (s *Service) DeleteForArtist(ctx context.Context, artistID int) (int64, error) {
	n, err := s.repo.DeleteByArtist(ctx, artistID)
	if err != nil {
		return 0, fmt.Errorf("deleting blocklist for artist %d: %w", artistID, err)
	}
	s.logger.Info("blocklist cleared for artist", zap.Int("artist_id", artistID), zap.Int64("removed", n))
	return n, nil
}

// Purge removes entries older than olderThan, or every entry when it is zero.
func (s *Service) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	var cutoff time.Time
	if olderThan > 0 {
		cutoff = s.now().Add(-olderThan)
	}
	n, err := s.repo.Purge(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging blocklist: %w", err)
	}
	s.logger.Info("blocklist purged", zap.Duration("older_than", olderThan), zap.Int64("removed", n))
	return n, nil
}
