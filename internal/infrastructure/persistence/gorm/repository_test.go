package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/decisionengine/internal/domain/blocklist"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
	"github.com/narwhalmedia/decisionengine/test/testutil"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type RepositorySuite struct {
	suite.Suite
	ctx context.Context

	history   *HistoryRepository
	blocklist *BlocklistRepository
	pending   *PendingReleaseRepository
	delays    *DelayProfileRepository
	files     *TrackFileRepository
}

func (s *RepositorySuite) SetupTest() {
	db := NewTestDB(s.T())
	s.ctx = context.Background()
	s.history = NewHistoryRepository(db)
	s.blocklist = NewBlocklistRepository(db)
	s.pending = NewPendingReleaseRepository(db)
	s.delays = NewDelayProfileRepository(db)
	s.files = NewTrackFileRepository(db)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) TestHistory_MostRecentForAlbum() {
	empty, err := s.history.MostRecentForAlbum(s.ctx, 10)
	s.Require().NoError(err)
	s.Nil(empty)

	flac := quality.NewModel(quality.FLAC)
	flac.Revision.Version = 2
	s.Require().NoError(s.history.Insert(s.ctx, history.NewGrabbed(1, 10, "old", quality.NewModel(quality.MP3320), "dl-1", base.Add(-2*time.Hour))))
	s.Require().NoError(s.history.Insert(s.ctx, history.NewGrabbed(1, 10, "new", flac, "dl-2", base)))
	s.Require().NoError(s.history.Insert(s.ctx, history.NewGrabbed(1, 11, "other", flac, "dl-3", base.Add(time.Hour))))

	latest, err := s.history.MostRecentForAlbum(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal("new", latest.SourceTitle)
	s.Equal(flac, latest.Quality)
	s.Equal(history.EventGrabbed, latest.EventType)
	s.True(base.Equal(latest.Date))
}

func (s *RepositorySuite) TestHistory_GetByAlbumAndDownloadID() {
	imported := &history.Entry{
		ArtistID:    1,
		AlbumID:     10,
		SourceTitle: "Artist - Album",
		Quality:     quality.NewModel(quality.FLAC),
		Date:        base,
		EventType:   history.EventDownloadImported,
		DownloadID:  "ABC",
	}
	s.Require().NoError(s.history.Insert(s.ctx, history.NewGrabbed(1, 10, "Artist - Album", quality.NewModel(quality.FLAC), "abc", base.Add(-time.Hour))))
	s.Require().NoError(s.history.Insert(s.ctx, imported))

	all, err := s.history.GetByAlbum(s.ctx, 10, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(history.EventDownloadImported, all[0].EventType, "newest first")

	grabbed := history.EventGrabbed
	onlyGrabs, err := s.history.GetByAlbum(s.ctx, 10, &grabbed)
	s.Require().NoError(err)
	s.Len(onlyGrabs, 1)

	byDownload, err := s.history.FindByDownloadID(s.ctx, "abc")
	s.Require().NoError(err)
	s.Len(byDownload, 2, "download ids match ignoring case")
}

func (s *RepositorySuite) TestBlocklist_FindAndPurge() {
	published := base.Add(-24 * time.Hour)
	size := int64(100 * 1024 * 1024)
	entries := []*blocklist.Entry{
		{ArtistID: 1, AlbumIDs: []int{10}, SourceTitle: "Artist - Album FLAC", Date: base.Add(-48 * time.Hour),
			Protocol: release.ProtocolTorrent, Indexer: "Tracker", TorrentInfoHash: "ABC123", Quality: quality.NewModel(quality.FLAC)},
		{ArtistID: 1, AlbumIDs: []int{10, 11}, SourceTitle: "Artist - Album MP3", Date: base,
			Protocol: release.ProtocolUsenet, Indexer: "Newznab", PublishedDate: &published, Size: &size},
		{ArtistID: 2, SourceTitle: "Artist - Album FLAC", Date: base, Protocol: release.ProtocolUsenet},
	}
	for _, e := range entries {
		s.Require().NoError(s.blocklist.Insert(s.ctx, e))
		s.NotEmpty(e.ID.String())
	}

	byTitle, err := s.blocklist.FindByTitle(s.ctx, 1, "artist - album flac")
	s.Require().NoError(err)
	s.Require().Len(byTitle, 1)
	s.Equal("abc123", byTitle[0].TorrentInfoHash)
	s.Equal(release.ProtocolTorrent, byTitle[0].Protocol)

	byHash, err := s.blocklist.FindByTorrentInfoHash(s.ctx, 1, "abc123")
	s.Require().NoError(err)
	s.Len(byHash, 1)

	byArtist, err := s.blocklist.FindByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(byArtist, 2)
	s.Equal([]int{10, 11}, byArtist[0].AlbumIDs)
	s.Require().NotNil(byArtist[0].Size)
	s.Equal(size, *byArtist[0].Size)
	s.Require().NotNil(byArtist[0].PublishedDate)
	s.True(published.Equal(*byArtist[0].PublishedDate))

	purged, err := s.blocklist.Purge(s.ctx, base.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), purged)

	removed, err := s.blocklist.DeleteByArtist(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	all, err := s.blocklist.Purge(s.ctx, time.Time{})
	s.Require().NoError(err)
	s.Equal(int64(1), all)
}

func (s *RepositorySuite) TestPending_OldestForTarget() {
	older := testutil.CreateTestCandidate("older", testutil.WithPublished(base.Add(-3*time.Hour)),
		testutil.WithAlbums(testutil.CreateTestAlbum(10, 1, "A"), testutil.CreateTestAlbum(11, 1, "B")))
	newer := testutil.CreateTestCandidate("newer", testutil.WithPublished(base.Add(-time.Hour)))
	unrelated := testutil.CreateTestCandidate("unrelated", testutil.WithPublished(base.Add(-10*time.Hour)),
		testutil.WithAlbums(testutil.CreateTestAlbum(99, 1, "C")))

	for _, c := range []*release.Candidate{newer, older, unrelated} {
		s.Require().NoError(s.pending.Add(s.ctx, pending.NewRelease(c, pending.ReasonDelay, base)))
	}

	oldest, err := s.pending.OldestPendingRelease(s.ctx, 1, []int{10})
	s.Require().NoError(err)
	s.Require().NotNil(oldest)
	s.Equal("older", oldest.Title)
	s.Equal(release.ProtocolUsenet, oldest.Release.DownloadProtocol)
	s.Equal(quality.MP3320, oldest.ParsedInfo.Quality.Quality)

	none, err := s.pending.OldestPendingRelease(s.ctx, 2, []int{10})
	s.Require().NoError(err)
	s.Nil(none)

	listed, err := s.pending.ListByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(listed, 3)

	removed, err := s.pending.RemoveByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(int64(3), removed)
}

func (s *RepositorySuite) TestPending_AddRefreshesMatchingRelease() {
	c := testutil.CreateTestCandidate("Artist - Album [MP3]", testutil.WithPublished(base.Add(-time.Hour)))

	for i := 0; i < 3; i++ {
		p := pending.NewRelease(c, pending.ReasonDelay, base.Add(time.Duration(i)*5*time.Minute))
		s.Require().NoError(s.pending.Add(s.ctx, p))
		s.True(base.Equal(p.Added), "refresh keeps the first queue time")
	}

	sameTitleOtherIndexer := testutil.CreateTestCandidate("artist - album [mp3]",
		testutil.WithIndexer(2, "Other", 25), testutil.WithPublished(base.Add(-time.Hour)))
	s.Require().NoError(s.pending.Add(s.ctx, pending.NewRelease(sameTitleOtherIndexer, pending.ReasonFallback, base.Add(time.Hour))))

	listed, err := s.pending.ListByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Indexer", listed[0].Release.Indexer)
	s.Equal("Other", listed[1].Release.Indexer)
}

func (s *RepositorySuite) TestPending_RemoveForAlbums() {
	discography := testutil.CreateTestCandidate("discography",
		testutil.WithAlbums(testutil.CreateTestAlbum(10, 1, "A"), testutil.CreateTestAlbum(11, 1, "B")))
	other := testutil.CreateTestCandidate("other", testutil.WithAlbums(testutil.CreateTestAlbum(12, 1, "C")))
	otherArtist := testutil.CreateTestCandidate("other artist",
		testutil.WithArtist(testutil.CreateTestArtist(2, "Someone Else")),
		testutil.WithAlbums(testutil.CreateTestAlbum(11, 2, "B")))

	for _, c := range []*release.Candidate{discography, other, otherArtist} {
		s.Require().NoError(s.pending.Add(s.ctx, pending.NewRelease(c, pending.ReasonDelay, base)))
	}

	removed, err := s.pending.RemoveForAlbums(s.ctx, 1, []int{11})
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	oldest, err := s.pending.OldestPendingRelease(s.ctx, 1, []int{10})
	s.Require().NoError(err)
	s.Nil(oldest)

	remaining, err := s.pending.ListByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("other", remaining[0].Title)

	untouched, err := s.pending.ListByArtist(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(untouched, 1)

	none, err := s.pending.RemoveForAlbums(s.ctx, 1, []int{99})
	s.Require().NoError(err)
	s.Zero(none)
}

func (s *RepositorySuite) TestPending_RemoveAddedBefore() {
	stale := testutil.CreateTestCandidate("stale", testutil.WithAlbums(testutil.CreateTestAlbum(10, 1, "A")))
	fresh := testutil.CreateTestCandidate("fresh", testutil.WithAlbums(testutil.CreateTestAlbum(11, 1, "B")))
	s.Require().NoError(s.pending.Add(s.ctx, pending.NewRelease(stale, pending.ReasonDelay, base.Add(-48*time.Hour))))
	s.Require().NoError(s.pending.Add(s.ctx, pending.NewRelease(fresh, pending.ReasonDelay, base)))

	removed, err := s.pending.RemoveAddedBefore(s.ctx, base.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	remaining, err := s.pending.ListByArtist(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("fresh", remaining[0].Title)
}

func (s *RepositorySuite) TestDelayProfiles_BestForTags() {
	fallback, err := s.delays.BestForTags(s.ctx, []int{5})
	s.Require().NoError(err)
	s.True(fallback.IsDefault(), "built-in default without stored profiles")

	def := delay.DefaultProfile()
	def.ID = 0
	s.Require().NoError(s.delays.Save(s.ctx, def))
	tagged := &delay.Profile{
		Order:             1,
		PreferredProtocol: release.ProtocolTorrent,
		TorrentDelay:      120,
		EnableUsenet:      true,
		EnableTorrent:     true,
		Tags:              []int{5},
	}
	s.Require().NoError(s.delays.Save(s.ctx, tagged))
	s.NotZero(tagged.ID)

	best, err := s.delays.BestForTags(s.ctx, []int{5})
	s.Require().NoError(err)
	s.Equal(tagged.ID, best.ID)
	s.Equal(120, best.GetProtocolDelay(release.ProtocolTorrent))

	untagged, err := s.delays.BestForTags(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(def.ID, untagged.ID)
}

func (s *RepositorySuite) TestTrackFiles() {
	s.Require().NoError(s.files.Insert(s.ctx, &trackfile.TrackFile{ArtistID: 1, AlbumID: 10, Path: "/music/a/01.flac", Quality: quality.NewModel(quality.FLAC), DateAdded: base}))
	s.Require().NoError(s.files.Insert(s.ctx, &trackfile.TrackFile{ArtistID: 1, AlbumID: 10, Path: "/music/a/02.flac", Quality: quality.NewModel(quality.FLAC), DateAdded: base}))

	files, err := s.files.GetFilesByAlbum(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(files, 2)
	s.Equal([]quality.Model{quality.NewModel(quality.FLAC)}, trackfile.Qualities(files))

	none, err := s.files.GetFilesByAlbum(s.ctx, 11)
	s.Require().NoError(err)
	s.Empty(none)
}

func TestQualityColumnsUnknownID(t *testing.T) {
	m := QualityColumns{QualityID: 9999, RevisionVersion: 1}.ToQuality()
	assert.Equal(t, quality.Unknown, m.Quality)
	require.Equal(t, 1, m.Revision.Version)
}
