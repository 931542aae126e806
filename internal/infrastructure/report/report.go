// Package report archives the outcome of processed decision batches.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
)

// Entry is one decision in a report.
type Entry struct {
	Title     string   `json:"title"`
	GUID      string   `json:"guid,omitempty"`
	Indexer   string   `json:"indexer,omitempty"`
	Protocol  string   `json:"protocol"`
	Quality   string   `json:"quality"`
	Size      int64    `json:"size"`
	ArtistID  int      `json:"artistId,omitempty"`
	AlbumIDs  []int    `json:"albumIds,omitempty"`
	Outcome   string   `json:"outcome"`
	Rejection []string `json:"rejections,omitempty"`
}

// Report summarises a processed batch.
type Report struct {
	ID          uuid.UUID `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	Interactive bool      `json:"interactive"`
	Grabbed     []Entry   `json:"grabbed"`
	Pending     []Entry   `json:"pending"`
	Rejected    []Entry   `json:"rejected"`
	Failed      []Entry   `json:"failed"`
	Skipped     []Entry   `json:"skipped"`
}

// New builds a report from a processed batch.
func New(processed decisionengine.ProcessedDecisions, interactive bool, at time.Time) *Report {
	return &Report{
		ID:          uuid.New(),
		GeneratedAt: at.UTC(),
		Interactive: interactive,
		Grabbed:     Entries(processed.Grabbed, "grabbed"),
		Pending:     Entries(processed.Pending, "pending"),
		Rejected:    Entries(processed.Rejected, ""),
		Failed:      Entries(processed.Failed, "failed"),
		Skipped:     Entries(processed.Skipped, "skipped"),
	}
}

// Key returns the object key the report is stored under, partitioned by day.
func (r *Report) Key() string {
	return fmt.Sprintf("%s/%s.json", r.GeneratedAt.Format("2006/01/02"), r.ID)
}

// Total returns the number of decisions in the report.
func (r *Report) Total() int {
	return len(r.Grabbed) + len(r.Pending) + len(r.Rejected) + len(r.Failed) + len(r.Skipped)
}

// Entries converts decisions to report entries. An empty outcome uses each
// decision's own outcome.
func Entries(decisions []decisionengine.Decision, outcome string) []Entry {
	out := make([]Entry, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, newEntry(d, outcome))
	}
	return out
}

func newEntry(d decisionengine.Decision, outcome string) Entry {
	c := d.Candidate
	if outcome == "" {
		outcome = d.Outcome()
	}
	if c == nil {
		return Entry{Outcome: outcome, Rejection: d.Reasons()}
	}
	e := Entry{
		Title:     c.String(),
		Quality:   c.Quality().String(),
		AlbumIDs:  c.AlbumIDs(),
		Outcome:   outcome,
		Rejection: d.Reasons(),
	}
	if c.Release != nil {
		e.GUID = c.Release.GUID
		e.Indexer = c.Release.Indexer
		e.Protocol = c.Release.DownloadProtocol.String()
		e.Size = c.Release.Size
	}
	if c.Artist != nil {
		e.ArtistID = c.Artist.ID
	}
	return e
}
