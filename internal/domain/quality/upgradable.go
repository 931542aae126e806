package quality

import "fmt"

// ProperDownloadType is the policy for propers and repacks.
type ProperDownloadType string

const (
	PreferAndUpgrade ProperDownloadType = "prefer_and_upgrade"
	DoNotUpgrade     ProperDownloadType = "do_not_upgrade"
	DoNotPrefer      ProperDownloadType = "do_not_prefer"
)

// ParseProperDownloadType parses a configured policy. Empty means PreferAndUpgrade.
func ParseProperDownloadType(s string) (ProperDownloadType, error) {
	switch t := ProperDownloadType(s); t {
	case PreferAndUpgrade, DoNotUpgrade, DoNotPrefer:
		return t, nil
	case "":
		return PreferAndUpgrade, nil
	}
	return PreferAndUpgrade, fmt.Errorf("unknown proper download type %q", s)
}

type comparison int

const (
	downgrade comparison = iota - 1
	equal
	upgrade
)

// UpgradableSpecification answers upgrade and cutoff questions for a profile.
type UpgradableSpecification struct {
	properPolicy func() ProperDownloadType
}

// NewUpgradableSpecification creates the predicates with a live policy lookup.
func NewUpgradableSpecification(policy func() ProperDownloadType) *UpgradableSpecification {
	if policy == nil {
		policy = func() ProperDownloadType { return PreferAndUpgrade }
	}
	return &UpgradableSpecification{properPolicy: policy}
}

func (s *UpgradableSpecification) qualityComparison(profile *Profile, current []Model, candidate Model) comparison {
	cmp := profile.Comparer()
	result := equal
	for _, existing := range current {
		switch c := cmp.Compare(candidate.Quality, existing.Quality); {
		case c < 0:
			return downgrade
		case c > 0:
			result = upgrade
		}
	}
	return result
}

// IsUpgradable reports whether candidate improves on every current quality.
// Equal tiers count only when the candidate is a preferred revision upgrade.
func (s *UpgradableSpecification) IsUpgradable(profile *Profile, current []Model, candidate Model) bool {
	switch s.qualityComparison(profile, current, candidate) {
	case upgrade:
		return true
	case downgrade:
		return false
	}

	if s.properPolicy() == DoNotPrefer {
		return false
	}
	for _, existing := range current {
		if candidate.Revision.Compare(existing.Revision) <= 0 {
			return false
		}
	}
	return len(current) > 0
}

// QualityCutoffNotMet reports whether current sits below the cutoff, or
// whether candidate would be a revision upgrade of it.
func (s *UpgradableSpecification) QualityCutoffNotMet(profile *Profile, current Model, candidate *Model) bool {
	cutoff := profile.FirstAllowedQuality()
	if profile.UpgradeAllowed {
		if q, err := FindByID(profile.Cutoff); err == nil {
			cutoff = q
		}
	}

	if profile.Comparer().Compare(current.Quality, cutoff) < 0 {
		return true
	}

	return candidate != nil && s.IsRevisionUpgrade(current, *candidate)
}

// CutoffNotMet reports whether any current quality has not reached the cutoff.
func (s *UpgradableSpecification) CutoffNotMet(profile *Profile, current []Model, candidate *Model) bool {
	for _, q := range current {
		if s.QualityCutoffNotMet(profile, q, candidate) {
			return true
		}
	}
	return false
}

// IsRevisionUpgrade reports a same-tier, newer-revision candidate.
func (s *UpgradableSpecification) IsRevisionUpgrade(current, candidate Model) bool {
	if s.properPolicy() == DoNotPrefer {
		return false
	}
	return current.Quality.ID == candidate.Quality.ID &&
		candidate.Revision.Compare(current.Revision) > 0
}

// IsUpgradeAllowed reports false only when the candidate is a quality upgrade
// and the profile forbids upgrades.
func (s *UpgradableSpecification) IsUpgradeAllowed(profile *Profile, current []Model, candidate Model) bool {
	if s.qualityComparison(profile, current, candidate) == upgrade && !profile.UpgradeAllowed {
		return false
	}
	return true
}
