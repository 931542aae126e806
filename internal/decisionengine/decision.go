package decisionengine

import (
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// RejectionType tells whether a rejected release may be retried later.
type RejectionType int

const (
	// Permanent rejections are never retried automatically.
	Permanent RejectionType = iota
	// Temporary rejections may be reconsidered once their condition lapses.
	Temporary
)

func (t RejectionType) String() string {
	if t == Temporary {
		return "temporary"
	}
	return "permanent"
}

// Rejection is one reason a candidate was turned down.
type Rejection struct {
	Reason        string
	Type          RejectionType
	Specification string
}

func (r Rejection) String() string {
	return "[" + r.Type.String() + "] " + r.Reason
}

// Decision is the outcome of evaluating one candidate. It is approved iff it
// carries no rejections.
type Decision struct {
	Candidate  *release.Candidate
	Rejections []Rejection
}

// NewDecision creates a decision. The rejections slice is copied.
func NewDecision(c *release.Candidate, rejections ...Rejection) Decision {
	var rs []Rejection
	if len(rejections) > 0 {
		rs = make([]Rejection, len(rejections))
		copy(rs, rejections)
	}
	return Decision{Candidate: c, Rejections: rs}
}

// Approved reports whether nothing rejected the candidate.
func (d Decision) Approved() bool {
	return len(d.Rejections) == 0
}

// TemporarilyRejected reports a rejection made only of Temporary reasons.
func (d Decision) TemporarilyRejected() bool {
	if d.Approved() {
		return false
	}
	for _, r := range d.Rejections {
		if r.Type != Temporary {
			return false
		}
	}
	return true
}

// PermanentlyRejected reports whether any reason is Permanent.
func (d Decision) PermanentlyRejected() bool {
	for _, r := range d.Rejections {
		if r.Type == Permanent {
			return true
		}
	}
	return false
}

// Reasons returns the human readable rejection reasons.
func (d Decision) Reasons() []string {
	reasons := make([]string, len(d.Rejections))
	for i, r := range d.Rejections {
		reasons[i] = r.Reason
	}
	return reasons
}

// Outcome labels the decision for metrics and output.
func (d Decision) Outcome() string {
	switch {
	case d.Approved():
		return "approved"
	case d.TemporarilyRejected():
		return "temporarily_rejected"
	}
	return "rejected"
}
