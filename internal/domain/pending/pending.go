package pending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// Reason records why a release was held back.
type Reason int

const (
	ReasonDelay Reason = iota
	ReasonFallback
)

func (r Reason) String() string {
	if r == ReasonFallback {
		return "fallback"
	}
	return "delay"
}

// Release is a temporarily rejected candidate awaiting reconsideration.
type Release struct {
	ID         uuid.UUID
	ArtistID   int
	AlbumIDs   []int
	Title      string
	Added      time.Time
	Release    release.Info
	ParsedInfo release.ParsedAlbumInfo
	Reason     Reason
}

// NewRelease captures a candidate for the pending queue.
func NewRelease(c *release.Candidate, reason Reason, added time.Time) *Release {
	p := &Release{
		ID:       uuid.New(),
		AlbumIDs: c.AlbumIDs(),
		Title:    c.Release.Title,
		Added:    added,
		Release:  *c.Release,
		Reason:   reason,
	}
	if c.Artist != nil {
		p.ArtistID = c.Artist.ID
	}
	if c.ParsedInfo != nil {
		p.ParsedInfo = *c.ParsedInfo
	}
	return p
}

// Overlaps reports whether r targets any of albumIDs.
func (r *Release) Overlaps(albumIDs []int) bool {
	for _, a := range r.AlbumIDs {
		for _, b := range albumIDs {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Store holds pending releases.
type Store interface {
	// OldestPendingRelease returns nil, nil when nothing is pending for the target.
	OldestPendingRelease(ctx context.Context, artistID int, albumIDs []int) (*Release, error)
	// Add stores r, or refreshes the matching release already pending. The
	// first Added time is kept.
	Add(ctx context.Context, r *Release) error
	ListByArtist(ctx context.Context, artistID int) ([]*Release, error)
	// RemoveForAlbums drops every pending release of the artist sharing an
	// album with albumIDs.
	RemoveForAlbums(ctx context.Context, artistID int, albumIDs []int) (int64, error)
	RemoveByArtist(ctx context.Context, artistID int) (int64, error)
	RemoveAddedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
