package specifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// AlreadyImportedSpecification rejects a download client item whose download
// was imported after it was last grabbed.
type AlreadyImportedSpecification struct {
	history history.Reader
}

func NewAlreadyImportedSpecification(h history.Reader) *AlreadyImportedSpecification {
	return &AlreadyImportedSpecification{history: h}
}

func (s *AlreadyImportedSpecification) Name() string { return "AlreadyImported" }

func (s *AlreadyImportedSpecification) Priority() decisionengine.Priority {
	return decisionengine.PriorityDatabase
}

func (s *AlreadyImportedSpecification) Evaluate(ctx context.Context, c *release.Candidate, search *decisionengine.SearchContext) (decisionengine.Result, error) {
	if search == nil || search.DownloadClientItem == nil || search.DownloadClientItem.DownloadID == "" {
		return decisionengine.Accept(), nil
	}
	downloadID := search.DownloadClientItem.DownloadID

	entries, err := s.history.FindByDownloadID(ctx, downloadID)
	if err != nil {
		return decisionengine.Result{}, fmt.Errorf("reading history for download %s: %w", downloadID, err)
	}

	targets := make(map[int]bool, len(c.Albums))
	for _, a := range c.Albums {
		targets[a.ID] = true
	}

	var lastGrabbed, lastImported *history.Entry
	for _, e := range entries {
		if !targets[e.AlbumID] || !strings.EqualFold(e.DownloadID, downloadID) {
			continue
		}
		switch e.EventType {
		case history.EventGrabbed:
			if lastGrabbed == nil || e.Date.After(lastGrabbed.Date) {
				lastGrabbed = e
			}
		case history.EventDownloadImported:
			if lastImported == nil || e.Date.After(lastImported.Date) {
				lastImported = e
			}
		}
	}

	if lastImported == nil {
		return decisionengine.Accept(), nil
	}
	if lastGrabbed != nil && !lastImported.Date.After(lastGrabbed.Date) {
		return decisionengine.Accept(), nil
	}

	return decisionengine.Reject(decisionengine.Permanent, "Release already imported at %s", lastImported.Date.UTC().Format(time.RFC3339)), nil
}
