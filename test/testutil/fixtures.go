package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// CreateTestProfile creates a profile allowing MP3-320 through FLAC 24bit with a FLAC cutoff.
func CreateTestProfile() *quality.Profile {
	p := quality.NewProfile("Standard", quality.FLAC,
		quality.MP3256, quality.MP3320, quality.FLAC, quality.FLAC24)
	p.ID = 1
	return p
}

// CreateTestArtist creates a test artist with the standard profile.
func CreateTestArtist(id int, name string) *release.Artist {
	return &release.Artist{
		ID:             id,
		Name:           name,
		Path:           fmt.Sprintf("/music/%s", name),
		QualityProfile: CreateTestProfile(),
	}
}

// CreateTestAlbum creates a monitored test album.
func CreateTestAlbum(id, artistID int, title string) *release.Album {
	return &release.Album{
		ID:        id,
		ArtistID:  artistID,
		Title:     title,
		Monitored: true,
	}
}

// CandidateOption customizes a test candidate.
type CandidateOption func(*release.Candidate)

// WithQuality sets the parsed quality.
func WithQuality(q quality.Quality) CandidateOption {
	return func(c *release.Candidate) {
		c.ParsedInfo.Quality = quality.NewModel(q)
	}
}

// WithRevision sets the parsed quality revision.
func WithRevision(version int) CandidateOption {
	return func(c *release.Candidate) {
		c.ParsedInfo.Quality.Revision.Version = version
	}
}

// WithProtocol sets the download protocol.
func WithProtocol(p release.Protocol) CandidateOption {
	return func(c *release.Candidate) {
		c.Release.DownloadProtocol = p
	}
}

// WithSize sets the release size in bytes.
func WithSize(size int64) CandidateOption {
	return func(c *release.Candidate) {
		c.Release.Size = size
	}
}

// WithPublished sets the publish date.
func WithPublished(at time.Time) CandidateOption {
	return func(c *release.Candidate) {
		c.Release.PublishDate = at
	}
}

// WithIndexer sets the indexer name, id and priority.
func WithIndexer(id int, name string, priority int) CandidateOption {
	return func(c *release.Candidate) {
		c.Release.IndexerID = id
		c.Release.Indexer = name
		c.Release.IndexerPriority = priority
	}
}

// WithInfoHash sets the torrent info hash.
func WithInfoHash(hash string) CandidateOption {
	return func(c *release.Candidate) {
		c.Release.InfoHash = hash
	}
}

// WithAlbums replaces the target albums.
func WithAlbums(albums ...*release.Album) CandidateOption {
	return func(c *release.Candidate) {
		c.Albums = albums
	}
}

// WithArtist replaces the target artist.
func WithArtist(artist *release.Artist) CandidateOption {
	return func(c *release.Candidate) {
		c.Artist = artist
	}
}

// CreateTestCandidate creates a parsed usenet MP3-320 candidate for artist 1 / album 10.
func CreateTestCandidate(title string, opts ...CandidateOption) *release.Candidate {
	artist := CreateTestArtist(1, "Test Artist")
	c := &release.Candidate{
		Release: &release.Info{
			GUID:             uuid.NewString(),
			Title:            title,
			Size:             100 * 1024 * 1024,
			DownloadURL:      "https://indexer.example/get/" + title,
			IndexerID:        1,
			Indexer:          "Indexer",
			IndexerPriority:  release.DefaultIndexerPriority,
			PublishDate:      time.Now(),
			DownloadProtocol: release.ProtocolUsenet,
		},
		ParsedInfo: &release.ParsedAlbumInfo{
			ArtistName:   artist.Name,
			AlbumTitle:   "Test Album",
			ReleaseTitle: title,
			Quality:      quality.NewModel(quality.MP3320),
		},
		Artist:          artist,
		Albums:          []*release.Album{CreateTestAlbum(10, artist.ID, "Test Album")},
		DownloadAllowed: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
