package release

import (
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// NormalizeInfoHash returns the lowercase hex form of a v1 info hash. Base32
// hashes as found in some magnet links are converted. Anything else is only
// trimmed and lowercased so that indexer-specific ids still compare equal.
func NormalizeInfoHash(s string) string {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 0:
		return ""
	case 32:
		if m, err := metainfo.ParseMagnetURI("magnet:?xt=urn:btih:" + s); err == nil {
			return m.InfoHash.HexString()
		}
	case 40:
		var h metainfo.Hash
		if err := h.FromHexString(s); err == nil {
			return h.HexString()
		}
	}
	return strings.ToLower(s)
}

// InfoHashFromMagnet extracts the info hash of a magnet URI.
func InfoHashFromMagnet(uri string) string {
	if !strings.HasPrefix(strings.ToLower(uri), "magnet:") {
		return ""
	}
	m, err := metainfo.ParseMagnetURI(uri)
	if err != nil || m.InfoHash == (metainfo.Hash{}) {
		return ""
	}
	return m.InfoHash.HexString()
}

// ResolveInfoHash returns the normalised hash of a torrent release, falling back
// to a magnet download URL. Non-torrent releases have none.
func (r *Info) ResolveInfoHash() string {
	if r.DownloadProtocol != ProtocolTorrent {
		return ""
	}
	if r.InfoHash != "" {
		return NormalizeInfoHash(r.InfoHash)
	}
	return InfoHashFromMagnet(r.DownloadURL)
}
