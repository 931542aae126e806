package quality

import (
	"fmt"
	"strings"
)

// Quality is one audio format/bitrate tier.
type Quality struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (q Quality) String() string {
	return q.Name
}

var (
	Unknown   = Quality{ID: 0, Name: "Unknown"}
	MP3008    = Quality{ID: 32, Name: "MP3-8"}
	MP3064    = Quality{ID: 25, Name: "MP3-64"}
	MP3128    = Quality{ID: 22, Name: "MP3-128"}
	MP3160    = Quality{ID: 5, Name: "MP3-160"}
	MP3192    = Quality{ID: 1, Name: "MP3-192"}
	MP3VBRV2  = Quality{ID: 8, Name: "MP3-VBR-V2"}
	MP3256    = Quality{ID: 3, Name: "MP3-256"}
	MP3VBR    = Quality{ID: 2, Name: "MP3-VBR-V0"}
	MP3320    = Quality{ID: 4, Name: "MP3-320"}
	AAC192    = Quality{ID: 9, Name: "AAC-192"}
	AAC256    = Quality{ID: 10, Name: "AAC-256"}
	AAC320    = Quality{ID: 11, Name: "AAC-320"}
	AACVBR    = Quality{ID: 12, Name: "AAC-VBR"}
	VorbisQ5  = Quality{ID: 19, Name: "OGG Vorbis Q5"}
	VorbisQ6  = Quality{ID: 18, Name: "OGG Vorbis Q6"}
	VorbisQ7  = Quality{ID: 17, Name: "OGG Vorbis Q7"}
	VorbisQ8  = Quality{ID: 16, Name: "OGG Vorbis Q8"}
	VorbisQ9  = Quality{ID: 15, Name: "OGG Vorbis Q9"}
	VorbisQ10 = Quality{ID: 14, Name: "OGG Vorbis Q10"}
	WMA       = Quality{ID: 20, Name: "WMA"}
	APE       = Quality{ID: 33, Name: "APE"}
	WavPack   = Quality{ID: 34, Name: "WavPack"}
	ALAC      = Quality{ID: 7, Name: "ALAC"}
	FLAC      = Quality{ID: 6, Name: "FLAC"}
	WAV       = Quality{ID: 13, Name: "WAV"}
	ALAC24    = Quality{ID: 36, Name: "ALAC 24bit"}
	FLAC24    = Quality{ID: 21, Name: "FLAC 24bit"}
)

// All lists the catalog ordered from worst to best. It doubles as the
// item order of the default profile.
var All = []Quality{
	Unknown,
	MP3008, MP3064, MP3128, MP3160, MP3192, MP3VBRV2, MP3256, MP3VBR, MP3320,
	WMA,
	AAC192, AAC256, AAC320, AACVBR,
	VorbisQ5, VorbisQ6, VorbisQ7, VorbisQ8, VorbisQ9, VorbisQ10,
	APE, WavPack, ALAC, FLAC, WAV,
	ALAC24, FLAC24,
}

// FindByID returns the catalog quality with the given id.
func FindByID(id int) (Quality, error) {
	for _, q := range All {
		if q.ID == id {
			return q, nil
		}
	}
	return Unknown, fmt.Errorf("unknown quality id %d", id)
}

// FindByName returns the catalog quality with the given name, ignoring case.
func FindByName(name string) (Quality, error) {
	for _, q := range All {
		if strings.EqualFold(q.Name, name) {
			return q, nil
		}
	}
	return Unknown, fmt.Errorf("unknown quality %q", name)
}

// Revision identifies a re-release of the same quality tier.
type Revision struct {
	Version  int  `json:"version"`
	Real     int  `json:"real"`
	IsRepack bool `json:"isRepack,omitempty"`
}

// Compare orders revisions by version, then by real.
func (r Revision) Compare(other Revision) int {
	switch {
	case r.Version > other.Version:
		return 1
	case r.Version < other.Version:
		return -1
	case r.Real > other.Real:
		return 1
	case r.Real < other.Real:
		return -1
	}
	return 0
}

// Model is the parsed quality of a release or file.
type Model struct {
	Quality  Quality  `json:"quality"`
	Revision Revision `json:"revision"`
}

// NewModel returns a model at revision 1.
func NewModel(q Quality) Model {
	return Model{Quality: q, Revision: Revision{Version: 1}}
}

func (m Model) String() string {
	if m.Revision.Version > 1 {
		if m.Revision.IsRepack {
			return fmt.Sprintf("%s Repack%d", m.Quality.Name, m.Revision.Version)
		}
		return fmt.Sprintf("%s Proper%d", m.Quality.Name, m.Revision.Version)
	}
	return m.Quality.Name
}
