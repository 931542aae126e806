package decisionengine

import (
	"context"
	"fmt"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// Priority orders specifications from cheap to expensive.
type Priority int

const (
	PriorityDefault Priority = iota
	PriorityDatabase
	PriorityDisk
)

func (p Priority) String() string {
	switch p {
	case PriorityDatabase:
		return "database"
	case PriorityDisk:
		return "disk"
	}
	return "default"
}

// SearchContext describes why candidates are being evaluated.
type SearchContext struct {
	// UserInvokedSearch disables time-based deferrals and history checks.
	UserInvokedSearch   bool
	MonitoredAlbumsOnly bool
	DownloadClientItem  *release.DownloadClientItem
	Now                 func() time.Time

	rss bool
}

// IsRSS reports an automatic RSS sync evaluation.
func (s *SearchContext) IsRSS() bool {
	return s != nil && s.rss
}

// Clock returns the evaluation time.
func (s *SearchContext) Clock() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// IsInteractive reports a user-invoked search.
func (s *SearchContext) IsInteractive() bool {
	return s != nil && s.UserInvokedSearch
}

// Result is a specification verdict.
type Result struct {
	Rejected bool
	Reason   string
	Type     RejectionType
}

// Accept lets the candidate continue down the chain.
func Accept() Result {
	return Result{}
}

// Reject turns the candidate down.
func Reject(t RejectionType, format string, args ...interface{}) Result {
	return Result{Rejected: true, Reason: fmt.Sprintf(format, args...), Type: t}
}

// Specification is a single accept/reject rule. Implementations only read
// shared collaborators. A returned error is a collaborator fault, not a
// rejection.
type Specification interface {
	Name() string
	Priority() Priority
	Evaluate(ctx context.Context, c *release.Candidate, search *SearchContext) (Result, error)
}

// ConfigService exposes the flags specifications consult.
type ConfigService interface {
	EnableCompletedDownloadHandling() bool
	DownloadPropersAndRepacks() quality.ProperDownloadType
	SkipFreeSpaceCheckWhenImporting() bool
}

// DownloadTrigger hands an approved candidate to a download client.
type DownloadTrigger interface {
	Submit(ctx context.Context, c *release.Candidate) error
}
