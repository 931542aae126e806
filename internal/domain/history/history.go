package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// EventType classifies a history entry.
type EventType int

const (
	EventUnknown EventType = iota
	EventGrabbed
	EventArtistFolderImported
	EventDownloadFailed
	EventTrackFileDeleted
	EventTrackFileRenamed
	EventAlbumImportIncomplete
	EventDownloadImported
	EventTrackFileRetagged
	EventDownloadIgnored
)

var eventTypeNames = map[EventType]string{
	EventUnknown:               "unknown",
	EventGrabbed:               "grabbed",
	EventArtistFolderImported:  "artistFolderImported",
	EventDownloadFailed:        "downloadFailed",
	EventTrackFileDeleted:      "trackFileDeleted",
	EventTrackFileRenamed:      "trackFileRenamed",
	EventAlbumImportIncomplete: "albumImportIncomplete",
	EventDownloadImported:      "downloadImported",
	EventTrackFileRetagged:     "trackFileRetagged",
	EventDownloadIgnored:       "downloadIgnored",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Entry is one recorded event for an album.
type Entry struct {
	ID          uuid.UUID
	ArtistID    int
	AlbumID     int
	SourceTitle string
	Quality     quality.Model
	Date        time.Time
	EventType   EventType
	DownloadID  string
	Data        map[string]string
}

// NewGrabbed builds the entry recorded when a release is sent to a download client.
func NewGrabbed(artistID, albumID int, title string, q quality.Model, downloadID string, at time.Time) *Entry {
	return &Entry{
		ID:          uuid.New(),
		ArtistID:    artistID,
		AlbumID:     albumID,
		SourceTitle: title,
		Quality:     q,
		Date:        at,
		EventType:   EventGrabbed,
		DownloadID:  downloadID,
		Data:        map[string]string{},
	}
}

// GrabbedEntries builds one grabbed entry per album of c.
func GrabbedEntries(c *release.Candidate, at time.Time) []*Entry {
	if c.Artist == nil {
		return nil
	}
	entries := make([]*Entry, 0, len(c.Albums))
	for _, album := range c.Albums {
		entry := NewGrabbed(c.Artist.ID, album.ID, c.Release.Title, c.Quality(), c.Release.GUID, at)
		entry.Data["indexer"] = c.Release.Indexer
		entry.Data["protocol"] = c.Release.DownloadProtocol.String()
		entries = append(entries, entry)
	}
	return entries
}

// Writer records history entries.
type Writer interface {
	Insert(ctx context.Context, entry *Entry) error
}

// Reader is the read side consulted during evaluation.
type Reader interface {
	// MostRecentForAlbum returns nil, nil when the album has no history.
	MostRecentForAlbum(ctx context.Context, albumID int) (*Entry, error)
	// GetByAlbum returns entries newest first, optionally filtered by type.
	GetByAlbum(ctx context.Context, albumID int, eventType *EventType) ([]*Entry, error)
	FindByDownloadID(ctx context.Context, downloadID string) ([]*Entry, error)
}

// Repository adds the write side.
type Repository interface {
	Reader
	Writer
}
