package delay

import (
	"context"
	"math"
	"sort"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

// DefaultOrder is the order of the untagged fallback profile.
const DefaultOrder = math.MaxInt32

// Profile controls how long to wait for a better release.
type Profile struct {
	ID                     int
	Order                  int
	PreferredProtocol      release.Protocol
	UsenetDelay            int
	TorrentDelay           int
	EnableUsenet           bool
	EnableTorrent          bool
	BypassIfHighestQuality bool
	Tags                   []int
}

// DefaultProfile returns the profile used when nothing else applies.
func DefaultProfile() *Profile {
	return &Profile{
		ID:                1,
		Order:             DefaultOrder,
		PreferredProtocol: release.ProtocolUsenet,
		EnableUsenet:      true,
		EnableTorrent:     true,
	}
}

// GetProtocolDelay returns the delay in minutes for a protocol.
func (p *Profile) GetProtocolDelay(protocol release.Protocol) int {
	switch protocol {
	case release.ProtocolUsenet:
		return p.UsenetDelay
	case release.ProtocolTorrent:
		return p.TorrentDelay
	}
	return 0
}

// IsAllowedProtocol reports whether a protocol is enabled.
func (p *Profile) IsAllowedProtocol(protocol release.Protocol) bool {
	switch protocol {
	case release.ProtocolUsenet:
		return p.EnableUsenet
	case release.ProtocolTorrent:
		return p.EnableTorrent
	}
	return false
}

// IsDefault reports whether the profile applies to every artist.
func (p *Profile) IsDefault() bool {
	return len(p.Tags) == 0
}

func (p *Profile) matches(tags []int) bool {
	if p.IsDefault() {
		return true
	}
	for _, want := range p.Tags {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// BestForTags picks the lowest-ordered profile sharing a tag, falling back to the
// untagged profile. It returns nil only when profiles is empty.
func BestForTags(profiles []*Profile, tags []int) *Profile {
	sorted := make([]*Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var fallback *Profile
	for _, p := range sorted {
		if p.IsDefault() {
			if fallback == nil {
				fallback = p
			}
			continue
		}
		if p.matches(tags) {
			return p
		}
	}
	return fallback
}

// Provider resolves the delay profile for an artist's tags.
type Provider interface {
	BestForTags(ctx context.Context, tags []int) (*Profile, error)
}
