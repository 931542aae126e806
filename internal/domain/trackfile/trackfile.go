package trackfile

import (
	"context"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
)

// TrackFile is an imported audio file on disk.
type TrackFile struct {
	ID        int
	ArtistID  int
	AlbumID   int
	Path      string
	Size      int64
	Quality   quality.Model
	DateAdded time.Time
}

// Provider lists the files already imported for an album.
type Provider interface {
	GetFilesByAlbum(ctx context.Context, albumID int) ([]*TrackFile, error)
}

// Qualities returns the distinct qualities of files, in first-seen order.
func Qualities(files []*TrackFile) []quality.Model {
	seen := make(map[quality.Model]bool, len(files))
	out := make([]quality.Model, 0, len(files))
	for _, f := range files {
		if seen[f.Quality] {
			continue
		}
		seen[f.Quality] = true
		out = append(out, f.Quality)
	}
	return out
}
