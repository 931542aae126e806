package release

import (
	"fmt"
	"strings"
	"time"
)

// Protocol is the transport a release is downloaded over.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolUsenet
	ProtocolTorrent
)

func (p Protocol) String() string {
	switch p {
	case ProtocolUsenet:
		return "usenet"
	case ProtocolTorrent:
		return "torrent"
	}
	return "unknown"
}

// ParseProtocol parses a protocol name, ignoring case.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "usenet":
		return ProtocolUsenet, nil
	case "torrent":
		return ProtocolTorrent, nil
	case "", "unknown":
		return ProtocolUnknown, nil
	}
	return ProtocolUnknown, fmt.Errorf("unknown protocol %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DefaultIndexerPriority applies when an indexer has none configured.
const DefaultIndexerPriority = 25

// Info is a release as reported by an indexer or RSS feed.
type Info struct {
	GUID             string    `json:"guid"`
	Title            string    `json:"title"`
	Size             int64     `json:"size"`
	DownloadURL      string    `json:"downloadUrl"`
	InfoURL          string    `json:"infoUrl,omitempty"`
	IndexerID        int       `json:"indexerId"`
	Indexer          string    `json:"indexer"`
	IndexerPriority  int       `json:"indexerPriority"`
	PublishDate      time.Time `json:"publishDate"`
	DownloadProtocol Protocol  `json:"protocol"`
	InfoHash         string    `json:"infoHash,omitempty"`
	Seeders          *int      `json:"seeders,omitempty"`
}

// Priority returns the indexer priority, defaulting unset values.
func (r *Info) Priority() int {
	if r.IndexerPriority <= 0 {
		return DefaultIndexerPriority
	}
	return r.IndexerPriority
}

// Age returns how long ago the release was published.
func (r *Info) Age(now time.Time) time.Duration {
	if r.PublishDate.IsZero() {
		return 0
	}
	return now.Sub(r.PublishDate)
}

func (r *Info) String() string {
	return fmt.Sprintf("[%s] %s [%s]", r.PublishDate.Format(time.RFC3339), r.Title, r.Indexer)
}

// DownloadClientItem is a download client entry a release is evaluated against.
type DownloadClientItem struct {
	DownloadID string   `json:"downloadId"`
	Title      string   `json:"title"`
	Protocol   Protocol `json:"protocol"`
}
