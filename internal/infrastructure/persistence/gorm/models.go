package gorm

import (
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/decisionengine/internal/domain/blocklist"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
)

// QualityColumns flattens a quality.Model into columns.
type QualityColumns struct {
	QualityID       int  `gorm:"not null;default:0"`
	RevisionVersion int  `gorm:"not null;default:1"`
	RevisionReal    int  `gorm:"not null;default:0"`
	RevisionRepack  bool `gorm:"not null;default:false"`
}

func qualityColumns(m quality.Model) QualityColumns {
	return QualityColumns{
		QualityID:       m.Quality.ID,
		RevisionVersion: m.Revision.Version,
		RevisionReal:    m.Revision.Real,
		RevisionRepack:  m.Revision.IsRepack,
	}
}

// ToQuality maps the columns back. Unknown quality ids become quality.Unknown.
func (c QualityColumns) ToQuality() quality.Model {
	q, err := quality.FindByID(c.QualityID)
	if err != nil {
		q = quality.Unknown
	}
	return quality.Model{
		Quality: q,
		Revision: quality.Revision{
			Version:  c.RevisionVersion,
			Real:     c.RevisionReal,
			IsRepack: c.RevisionRepack,
		},
	}
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return id.String()
}

// HistoryModel is a row of the history table.
type HistoryModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	ArtistID    int    `gorm:"not null;index"`
	AlbumID     int    `gorm:"not null;index:idx_history_album_date"`
	SourceTitle string `gorm:"not null"`
	QualityColumns
	Date       time.Time         `gorm:"not null;index:idx_history_album_date"`
	EventType  int               `gorm:"not null"`
	DownloadID string            `gorm:"index"`
	Data       map[string]string `gorm:"serializer:json"`
}

func (HistoryModel) TableName() string { return "history" }

func newHistoryModel(e *history.Entry) *HistoryModel {
	return &HistoryModel{
		ID:             idString(e.ID),
		ArtistID:       e.ArtistID,
		AlbumID:        e.AlbumID,
		SourceTitle:    e.SourceTitle,
		QualityColumns: qualityColumns(e.Quality),
		Date:           e.Date.UTC(),
		EventType:      int(e.EventType),
		DownloadID:     e.DownloadID,
		Data:           e.Data,
	}
}

func (m *HistoryModel) ToDomain() *history.Entry {
	return &history.Entry{
		ID:          parseID(m.ID),
		ArtistID:    m.ArtistID,
		AlbumID:     m.AlbumID,
		SourceTitle: m.SourceTitle,
		Quality:     m.QualityColumns.ToQuality(),
		Date:        m.Date,
		EventType:   history.EventType(m.EventType),
		DownloadID:  m.DownloadID,
		Data:        m.Data,
	}
}

// BlocklistModel is a row of the blocklist table.
type BlocklistModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	ArtistID    int    `gorm:"not null;index"`
	AlbumIDs    []int  `gorm:"serializer:json"`
	SourceTitle string `gorm:"not null"`
	QualityColumns
	Date            time.Time `gorm:"not null;index"`
	PublishedDate   *time.Time
	Size            *int64
	Protocol        int    `gorm:"not null"`
	Indexer         string
	TorrentInfoHash string `gorm:"index"`
	Message         string
}

func (BlocklistModel) TableName() string { return "blocklist" }

func newBlocklistModel(e *blocklist.Entry) *BlocklistModel {
	return &BlocklistModel{
		ID:              idString(e.ID),
		ArtistID:        e.ArtistID,
		AlbumIDs:        e.AlbumIDs,
		SourceTitle:     e.SourceTitle,
		QualityColumns:  qualityColumns(e.Quality),
		Date:            e.Date.UTC(),
		PublishedDate:   e.PublishedDate,
		Size:            e.Size,
		Protocol:        int(e.Protocol),
		Indexer:         e.Indexer,
		TorrentInfoHash: release.NormalizeInfoHash(e.TorrentInfoHash),
		Message:         e.Message,
	}
}

func (m *BlocklistModel) ToDomain() *blocklist.Entry {
	return &blocklist.Entry{
		ID:              parseID(m.ID),
		ArtistID:        m.ArtistID,
		AlbumIDs:        m.AlbumIDs,
		SourceTitle:     m.SourceTitle,
		Quality:         m.QualityColumns.ToQuality(),
		Date:            m.Date,
		PublishedDate:   m.PublishedDate,
		Size:            m.Size,
		Protocol:        release.Protocol(m.Protocol),
		Indexer:         m.Indexer,
		TorrentInfoHash: m.TorrentInfoHash,
		Message:         m.Message,
	}
}

// PendingReleaseModel is a row of the pending_releases table.
type PendingReleaseModel struct {
	ID          string                  `gorm:"primaryKey;size:36"`
	ArtistID    int                     `gorm:"not null;index"`
	AlbumIDs    []int                   `gorm:"serializer:json"`
	Title       string                  `gorm:"not null"`
	Indexer     string                  `gorm:"index"`
	Added       time.Time               `gorm:"not null"`
	PublishDate time.Time               `gorm:"index"`
	Release     release.Info            `gorm:"serializer:json"`
	ParsedInfo  release.ParsedAlbumInfo `gorm:"serializer:json"`
	Reason      int                     `gorm:"not null"`
}

func (PendingReleaseModel) TableName() string { return "pending_releases" }

func newPendingReleaseModel(r *pending.Release) *PendingReleaseModel {
	return &PendingReleaseModel{
		ID:          idString(r.ID),
		ArtistID:    r.ArtistID,
		AlbumIDs:    r.AlbumIDs,
		Title:       r.Title,
		Indexer:     r.Release.Indexer,
		Added:       r.Added.UTC(),
		PublishDate: r.Release.PublishDate.UTC(),
		Release:     r.Release,
		ParsedInfo:  r.ParsedInfo,
		Reason:      int(r.Reason),
	}
}

func (m *PendingReleaseModel) ToDomain() *pending.Release {
	return &pending.Release{
		ID:         parseID(m.ID),
		ArtistID:   m.ArtistID,
		AlbumIDs:   m.AlbumIDs,
		Title:      m.Title,
		Added:      m.Added,
		Release:    m.Release,
		ParsedInfo: m.ParsedInfo,
		Reason:     pending.Reason(m.Reason),
	}
}

// DelayProfileModel is a row of the delay_profiles table.
type DelayProfileModel struct {
	ID                     int   `gorm:"primaryKey"`
	Order                  int   `gorm:"column:sort_order;not null"`
	PreferredProtocol      int   `gorm:"not null"`
	UsenetDelay            int   `gorm:"not null;default:0"`
	TorrentDelay           int   `gorm:"not null;default:0"`
	EnableUsenet           bool  `gorm:"not null"`
	EnableTorrent          bool  `gorm:"not null"`
	BypassIfHighestQuality bool  `gorm:"not null;default:false"`
	Tags                   []int `gorm:"serializer:json"`
}

func (DelayProfileModel) TableName() string { return "delay_profiles" }

func newDelayProfileModel(p *delay.Profile) *DelayProfileModel {
	return &DelayProfileModel{
		ID:                     p.ID,
		Order:                  p.Order,
		PreferredProtocol:      int(p.PreferredProtocol),
		UsenetDelay:            p.UsenetDelay,
		TorrentDelay:           p.TorrentDelay,
		EnableUsenet:           p.EnableUsenet,
		EnableTorrent:          p.EnableTorrent,
		BypassIfHighestQuality: p.BypassIfHighestQuality,
		Tags:                   p.Tags,
	}
}

func (m *DelayProfileModel) ToDomain() *delay.Profile {
	return &delay.Profile{
		ID:                     m.ID,
		Order:                  m.Order,
		PreferredProtocol:      release.Protocol(m.PreferredProtocol),
		UsenetDelay:            m.UsenetDelay,
		TorrentDelay:           m.TorrentDelay,
		EnableUsenet:           m.EnableUsenet,
		EnableTorrent:          m.EnableTorrent,
		BypassIfHighestQuality: m.BypassIfHighestQuality,
		Tags:                   m.Tags,
	}
}

// TrackFileModel is a row of the track_files table.
type TrackFileModel struct {
	ID       int    `gorm:"primaryKey"`
	ArtistID int    `gorm:"not null;index"`
	AlbumID  int    `gorm:"not null;index"`
	Path     string `gorm:"not null"`
	Size     int64
	QualityColumns
	DateAdded time.Time `gorm:"not null"`
}

func (TrackFileModel) TableName() string { return "track_files" }

func newTrackFileModel(f *trackfile.TrackFile) *TrackFileModel {
	return &TrackFileModel{
		ID:             f.ID,
		ArtistID:       f.ArtistID,
		AlbumID:        f.AlbumID,
		Path:           f.Path,
		Size:           f.Size,
		QualityColumns: qualityColumns(f.Quality),
		DateAdded:      f.DateAdded.UTC(),
	}
}

func (m *TrackFileModel) ToDomain() *trackfile.TrackFile {
	return &trackfile.TrackFile{
		ID:        m.ID,
		ArtistID:  m.ArtistID,
		AlbumID:   m.AlbumID,
		Path:      m.Path,
		Size:      m.Size,
		Quality:   m.QualityColumns.ToQuality(),
		DateAdded: m.DateAdded,
	}
}
