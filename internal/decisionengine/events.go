package decisionengine

import (
	"context"

	"github.com/narwhalmedia/decisionengine/pkg/events"
	"github.com/narwhalmedia/decisionengine/pkg/interfaces"
)

// Event types published while processing decisions.
const (
	EventReleaseGrabbed    = "release.grabbed"
	EventReleaseGrabFailed = "release.grab_failed"
	EventReleasePending    = "release.pending"
)

// EventPublisher delivers processing events. Failures never fail a batch.
type EventPublisher interface {
	Publish(ctx context.Context, event interfaces.Event) error
}

// NewReleaseEvent builds an event about a decision, keyed by its target.
func NewReleaseEvent(eventType string, d Decision, extra map[string]interface{}) *events.BaseEvent {
	c := d.Candidate
	data := map[string]interface{}{
		"title":     c.Release.Title,
		"guid":      c.Release.GUID,
		"indexer":   c.Release.Indexer,
		"protocol":  c.Release.DownloadProtocol.String(),
		"size":      c.Release.Size,
		"quality":   c.Quality().String(),
		"album_ids": c.AlbumIDs(),
	}
	if c.Artist != nil {
		data["artist_id"] = c.Artist.ID
	}
	if len(d.Rejections) > 0 {
		data["reasons"] = d.Reasons()
	}
	for k, v := range extra {
		data[k] = v
	}
	return events.NewAggregateEvent(eventType, c.TargetKey(), data)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, interfaces.Event) error { return nil }
