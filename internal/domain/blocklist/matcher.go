package blocklist

import (
	"context"
	"strings"
	"time"

	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

const (
	publishedDateTolerance = 2 * time.Minute
	sizeTolerance          = 2 * 1024 * 1024
)

// Matcher decides whether a release of one protocol is blocklisted.
type Matcher interface {
	Protocol() release.Protocol
	IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error)
}

type torrentMatcher struct {
	repo Repository
}

// NewTorrentMatcher matches by info hash, or by indexer and title when the
// release carries no hash.
func NewTorrentMatcher(repo Repository) Matcher {
	return &torrentMatcher{repo: repo}
}

func (m *torrentMatcher) Protocol() release.Protocol { return release.ProtocolTorrent }

func (m *torrentMatcher) IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error) {
	hash := r.ResolveInfoHash()

	var (
		entries []*Entry
		err     error
	)
	if hash != "" {
		entries, err = m.repo.FindByTorrentInfoHash(ctx, artistID, hash)
		if err != nil {
			return false, err
		}
		byTitle, err := m.repo.FindByTitle(ctx, artistID, r.Title)
		if err != nil {
			return false, err
		}
		entries = append(entries, byTitle...)
	} else {
		entries, err = m.repo.FindByTitle(ctx, artistID, r.Title)
		if err != nil {
			return false, err
		}
	}

	for _, e := range entries {
		if e.Protocol == release.ProtocolTorrent && sameTorrent(e, r, hash) {
			return true, nil
		}
	}
	return false, nil
}

func sameTorrent(e *Entry, r *release.Info, hash string) bool {
	entryHash := release.NormalizeInfoHash(e.TorrentInfoHash)
	if hash != "" && entryHash != "" {
		return hash == entryHash
	}
	return strings.EqualFold(e.Indexer, r.Indexer) && strings.EqualFold(e.SourceTitle, r.Title)
}

type usenetMatcher struct {
	repo Repository
}

// NewUsenetMatcher matches by title and a published date and size window.
func NewUsenetMatcher(repo Repository) Matcher {
	return &usenetMatcher{repo: repo}
}

func (m *usenetMatcher) Protocol() release.Protocol { return release.ProtocolUsenet }

func (m *usenetMatcher) IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error) {
	entries, err := m.repo.FindByTitle(ctx, artistID, r.Title)
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		if e.Protocol == release.ProtocolUsenet && sameNzb(e, r) {
			return true, nil
		}
	}
	return false, nil
}

func sameNzb(e *Entry, r *release.Info) bool {
	if e.PublishedDate != nil && e.PublishedDate.Equal(r.PublishDate) {
		return true
	}

	if e.Indexer != "" && !strings.EqualFold(e.Indexer, r.Indexer) {
		return false
	}

	return samePublishedDate(e, r.PublishDate) && sameSize(e, r.Size)
}

func samePublishedDate(e *Entry, published time.Time) bool {
	if e.PublishedDate == nil {
		return true
	}
	diff := e.PublishedDate.Sub(published)
	if diff < 0 {
		diff = -diff
	}
	return diff <= publishedDateTolerance
}

func sameSize(e *Entry, size int64) bool {
	if e.Size == nil {
		return true
	}
	diff := *e.Size - size
	if diff < 0 {
		diff = -diff
	}
	return diff <= sizeTolerance
}
