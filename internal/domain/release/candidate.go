package release

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
)

// ParsedAlbumInfo is what the title parser extracted from a release.
type ParsedAlbumInfo struct {
	ArtistName   string        `json:"artistName"`
	AlbumTitle   string        `json:"albumTitle"`
	ReleaseTitle string        `json:"releaseTitle"`
	Quality      quality.Model `json:"quality"`
	Discography  bool          `json:"discography,omitempty"`
}

// Artist is the library artist a release was mapped to.
type Artist struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	Path           string           `json:"path"`
	QualityProfile *quality.Profile `json:"qualityProfile,omitempty"`
	Tags           []int            `json:"tags,omitempty"`
}

// Album is a library album a release was mapped to.
type Album struct {
	ID        int    `json:"id"`
	ArtistID  int    `json:"artistId"`
	Title     string `json:"title"`
	Monitored bool   `json:"monitored"`
}

// Candidate is a release together with its parsed target.
type Candidate struct {
	Release         *Info            `json:"release"`
	ParsedInfo      *ParsedAlbumInfo `json:"parsedInfo,omitempty"`
	Artist          *Artist          `json:"artist,omitempty"`
	Albums          []*Album         `json:"albums,omitempty"`
	DownloadAllowed bool             `json:"downloadAllowed"`
}

// Age returns the release age at now.
func (c *Candidate) Age(now time.Time) time.Duration {
	return c.Release.Age(now)
}

// AgeMinutes returns the release age at now in minutes.
func (c *Candidate) AgeMinutes(now time.Time) float64 {
	return c.Age(now).Minutes()
}

// Quality returns the parsed quality, or Unknown when unparsed.
func (c *Candidate) Quality() quality.Model {
	if c.ParsedInfo == nil {
		return quality.NewModel(quality.Unknown)
	}
	return c.ParsedInfo.Quality
}

// AlbumIDs returns the target album ids in ascending order.
func (c *Candidate) AlbumIDs() []int {
	ids := make([]int, 0, len(c.Albums))
	for _, a := range c.Albums {
		ids = append(ids, a.ID)
	}
	sort.Ints(ids)
	return ids
}

// TargetKey identifies the artist and album set this candidate would fill.
func (c *Candidate) TargetKey() string {
	var b strings.Builder
	if c.Artist != nil {
		b.WriteString(strconv.Itoa(c.Artist.ID))
	}
	b.WriteByte(':')
	for i, id := range c.AlbumIDs() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// ParseFailure returns why the candidate has no usable target, or "" if it has one.
func (c *Candidate) ParseFailure() string {
	switch {
	case c.Release == nil || c.ParsedInfo == nil:
		return "Unable to parse release"
	case c.Artist == nil:
		return "Unknown artist"
	case len(c.Albums) == 0:
		return "No albums matched"
	}
	return ""
}

func (c *Candidate) String() string {
	if c.Release == nil {
		return "<empty candidate>"
	}
	return c.Release.Title
}
