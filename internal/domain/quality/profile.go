package quality

// ProfileItem is one entry in a quality profile.
type ProfileItem struct {
	Quality Quality `json:"quality"`
	Allowed bool    `json:"allowed"`
}

// Profile ranks qualities for an artist. Items are ordered worst to best.
type Profile struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	UpgradeAllowed bool          `json:"upgradeAllowed"`
	Cutoff         int           `json:"cutoff"`
	Items          []ProfileItem `json:"items"`
}

// NewProfile builds a profile from the catalog order allowing the given qualities.
func NewProfile(name string, cutoff Quality, allowed ...Quality) *Profile {
	allow := make(map[int]bool, len(allowed))
	for _, q := range allowed {
		allow[q.ID] = true
	}
	items := make([]ProfileItem, 0, len(All))
	for _, q := range All {
		items = append(items, ProfileItem{Quality: q, Allowed: allow[q.ID]})
	}
	return &Profile{
		Name:           name,
		UpgradeAllowed: true,
		Cutoff:         cutoff.ID,
		Items:          items,
	}
}

// Index returns the position of q in the profile, or -1 if absent.
func (p *Profile) Index(q Quality) int {
	for i, item := range p.Items {
		if item.Quality.ID == q.ID {
			return i
		}
	}
	return -1
}

// IsAllowed reports whether q is an allowed item.
func (p *Profile) IsAllowed(q Quality) bool {
	i := p.Index(q)
	return i >= 0 && p.Items[i].Allowed
}

// FirstAllowedQuality returns the worst allowed quality.
func (p *Profile) FirstAllowedQuality() Quality {
	for _, item := range p.Items {
		if item.Allowed {
			return item.Quality
		}
	}
	return Unknown
}

// LastAllowedQuality returns the best allowed quality.
func (p *Profile) LastAllowedQuality() Quality {
	for i := len(p.Items) - 1; i >= 0; i-- {
		if p.Items[i].Allowed {
			return p.Items[i].Quality
		}
	}
	return Unknown
}

// Comparer returns an ordinal comparer over this profile.
func (p *Profile) Comparer() Comparer {
	return Comparer{profile: p}
}

// Comparer orders qualities by their position in a profile.
type Comparer struct {
	profile *Profile
}

// Compare returns -1, 0 or 1 as a ranks below, equal to or above b.
func (c Comparer) Compare(a, b Quality) int {
	ia, ib := c.profile.Index(a), c.profile.Index(b)
	switch {
	case ia > ib:
		return 1
	case ia < ib:
		return -1
	}
	return 0
}

// CompareModel compares qualities and, when they tie and respectRevision is set, revisions.
func (c Comparer) CompareModel(a, b Model, respectRevision bool) int {
	if r := c.Compare(a.Quality, b.Quality); r != 0 {
		return r
	}
	if respectRevision {
		return a.Revision.Compare(b.Revision)
	}
	return 0
}
