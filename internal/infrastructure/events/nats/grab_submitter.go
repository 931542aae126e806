package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
)

// GrabRequest is the message a download client consumes.
type GrabRequest struct {
	GUID        string           `json:"guid"`
	Title       string           `json:"title"`
	DownloadURL string           `json:"downloadUrl"`
	Protocol    release.Protocol `json:"protocol"`
	InfoHash    string           `json:"infoHash,omitempty"`
	Size        int64            `json:"size"`
	IndexerID   int              `json:"indexerId"`
	Indexer     string           `json:"indexer"`
	ArtistID    int              `json:"artistId"`
	AlbumIDs    []int            `json:"albumIds"`
	Quality     string           `json:"quality"`
	RequestedAt time.Time        `json:"requestedAt"`
}

// NewGrabRequest builds the request for a candidate.
func NewGrabRequest(c *release.Candidate, at time.Time) GrabRequest {
	req := GrabRequest{
		GUID:        c.Release.GUID,
		Title:       c.Release.Title,
		DownloadURL: c.Release.DownloadURL,
		Protocol:    c.Release.DownloadProtocol,
		InfoHash:    c.Release.ResolveInfoHash(),
		Size:        c.Release.Size,
		IndexerID:   c.Release.IndexerID,
		Indexer:     c.Release.Indexer,
		AlbumIDs:    c.AlbumIDs(),
		Quality:     c.Quality().String(),
		RequestedAt: at.UTC(),
	}
	if c.Artist != nil {
		req.ArtistID = c.Artist.ID
	}
	return req
}

// GrabSubmitter hands grabs to download clients over a JetStream work queue.
type GrabSubmitter struct {
	js      StreamPublisher
	subject string
	logger  *zap.Logger
	now     func() time.Time
}

// NewGrabSubmitter creates a submitter publishing to subject.
func NewGrabSubmitter(js StreamPublisher, subject string, logger *zap.Logger) *GrabSubmitter {
	return &GrabSubmitter{
		js:      js,
		subject: subject,
		logger:  logger.Named("grab-submitter"),
		now:     time.Now,
	}
}

// Submit publishes a grab request. The release guid is the message id, so a
// repeated submission within the stream's duplicate window is dropped.
func (s *GrabSubmitter) Submit(ctx context.Context, c *release.Candidate) error {
	if c == nil || c.Release == nil || c.Release.GUID == "" {
		return pkgerrors.BadRequest("grab requires a release guid")
	}

	data, err := json.Marshal(NewGrabRequest(c, s.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal grab request: %w", err)
	}

	ack, err := s.js.Publish(ctx, s.subject, data, jetstream.WithMsgID(c.Release.GUID))
	if err != nil {
		return pkgerrors.Unavailable("download queue rejected grab", err)
	}
	if ack.Duplicate {
		s.logger.Info("grab already queued", zap.String("guid", c.Release.GUID))
		return nil
	}

	s.logger.Debug("grab queued",
		zap.String("release", c.Release.Title),
		zap.Uint64("sequence", ack.Sequence))
	return nil
}
