package blocklist

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// Entry is a release that must not be grabbed again for an artist.
type Entry struct {
	ID              uuid.UUID
	ArtistID        int
	AlbumIDs        []int
	SourceTitle     string
	Quality         quality.Model
	Date            time.Time
	PublishedDate   *time.Time
	Size            *int64
	Protocol        release.Protocol
	Indexer         string
	TorrentInfoHash string
	Message         string
}

// Repository persists blocklist entries.
type Repository interface {
	// FindByTitle matches source titles ignoring case.
	FindByTitle(ctx context.Context, artistID int, title string) ([]*Entry, error)
	FindByTorrentInfoHash(ctx context.Context, artistID int, infoHash string) ([]*Entry, error)
	FindByArtist(ctx context.Context, artistID int) ([]*Entry, error)
	Insert(ctx context.Context, entry *Entry) error
	DeleteByArtist(ctx context.Context, artistID int) (int64, error)
	// Purge removes entries created before olderThan; a zero time removes all.
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// FailedDownload describes a download that failed and should be blocklisted.
type FailedDownload struct {
	ArtistID int
	AlbumIDs []int
	Quality  quality.Model
	Release  *release.Info
	Message  string
}
