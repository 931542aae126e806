package specifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
	"github.com/narwhalmedia/decisionengine/test/testutil"
)

func upgradable() *quality.UpgradableSpecification {
	return quality.NewUpgradableSpecification(nil)
}

func automatic() *decisionengine.SearchContext {
	return &decisionengine.SearchContext{Now: fixedClock}
}

func TestMonitoredSpecification(t *testing.T) {
	spec := NewMonitoredSpecification()
	ctx := context.Background()

	unmonitored := testutil.CreateTestAlbum(11, 1, "B-Sides")
	unmonitored.Monitored = false
	c := testutil.CreateTestCandidate("Artist - Album",
		testutil.WithAlbums(testutil.CreateTestAlbum(10, 1, "Album"), unmonitored))

	res, err := spec.Evaluate(ctx, c, &decisionengine.SearchContext{MonitoredAlbumsOnly: true})
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Equal(t, "One or more albums is not monitored", res.Reason)

	res, err = spec.Evaluate(ctx, c, &decisionengine.SearchContext{UserInvokedSearch: true})
	require.NoError(t, err)
	assert.False(t, res.Rejected, "unrestricted searches ignore monitoring")
}

func TestQualityAllowedByProfileSpecification(t *testing.T) {
	spec := NewQualityAllowedByProfileSpecification()
	ctx := context.Background()

	res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("ok", testutil.WithQuality(quality.FLAC)), automatic())
	require.NoError(t, err)
	assert.False(t, res.Rejected)

	res, err = spec.Evaluate(ctx, testutil.CreateTestCandidate("low", testutil.WithQuality(quality.MP3128)), automatic())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Equal(t, decisionengine.Permanent, res.Type)
	assert.Contains(t, res.Reason, "is not wanted in profile")

	noProfile := testutil.CreateTestCandidate("no profile")
	noProfile.Artist.QualityProfile = nil
	_, err = spec.Evaluate(ctx, noProfile, automatic())
	assert.Error(t, err)
}

func TestProtocolSpecification(t *testing.T) {
	ctx := context.Background()
	profile := delay.DefaultProfile()
	profile.EnableTorrent = false
	spec := NewProtocolSpecification(fakeDelays{profile: profile})

	res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("t", testutil.WithProtocol(release.ProtocolTorrent)), automatic())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Equal(t, "Torrent is not enabled for this artist", res.Reason)

	res, err = spec.Evaluate(ctx, testutil.CreateTestCandidate("u"), automatic())
	require.NoError(t, err)
	assert.False(t, res.Rejected)

	_, err = NewProtocolSpecification(fakeDelays{err: errors.New("db down")}).
		Evaluate(ctx, testutil.CreateTestCandidate("u"), automatic())
	assert.Error(t, err)
}

func TestUpgradeDiskSpecification(t *testing.T) {
	ctx := context.Background()
	files := fakeFiles{10: {trackFile(10, quality.FLAC)}}
	spec := NewUpgradeDiskSpecification(files, upgradable())

	t.Run("equal quality on disk", func(t *testing.T) {
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac", testutil.WithQuality(quality.FLAC)), automatic())
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Equal(t, "Existing files on disk is of equal or higher quality: FLAC", res.Reason)
	})

	t.Run("better quality", func(t *testing.T) {
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("hires", testutil.WithQuality(quality.FLAC24)), automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("upgrades disabled", func(t *testing.T) {
		c := testutil.CreateTestCandidate("hires", testutil.WithQuality(quality.FLAC24))
		c.Artist.QualityProfile.UpgradeAllowed = false
		res, err := spec.Evaluate(ctx, c, automatic())
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Equal(t, "Existing files and the Quality profile does not allow upgrades", res.Reason)
	})

	t.Run("no files", func(t *testing.T) {
		c := testutil.CreateTestCandidate("other", testutil.WithAlbums(testutil.CreateTestAlbum(99, 1, "Other")))
		res, err := spec.Evaluate(ctx, c, automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})
}

// Scenario: a torrent whose info hash matches a blocklist entry is rejected
// whatever its title.
func TestBlocklistSpecification(t *testing.T) {
	ctx := context.Background()
	checker := new(mockBlocklist)
	spec := NewBlocklistSpecification(checker)

	c := testutil.CreateTestCandidate("Renamed Title",
		testutil.WithProtocol(release.ProtocolTorrent),
		testutil.WithInfoHash("abc123"))
	checker.On("IsBlocklisted", mock.Anything, 1, c.Release).Return(true, nil).Once()

	res, err := spec.Evaluate(ctx, c, automatic())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Equal(t, decisionengine.Permanent, res.Type)
	assert.Equal(t, "Release is blocklisted", res.Reason)
	checker.AssertExpectations(t)
}

func TestHistorySpecification(t *testing.T) {
	ctx := context.Background()
	grabbedFLAC := func(age time.Duration) *fakeHistory {
		return &fakeHistory{byAlbum: map[int][]*history.Entry{
			10: {history.NewGrabbed(1, 10, "old grab", quality.NewModel(quality.FLAC), "dl-1", testNow.Add(-age))},
		}}
	}

	t.Run("recent grab meets cutoff", func(t *testing.T) {
		spec := NewHistorySpecification(grabbedFLAC(2*time.Hour), upgradable(), fakeConfig{cdh: true}, 0)
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac", testutil.WithQuality(quality.FLAC)), automatic())
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Equal(t, decisionengine.Permanent, res.Type)
		assert.Contains(t, res.Reason, "already meets cutoff")
	})

	t.Run("old grab with CDH enabled", func(t *testing.T) {
		spec := NewHistorySpecification(grabbedFLAC(48*time.Hour), upgradable(), fakeConfig{cdh: true}, 0)
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac", testutil.WithQuality(quality.FLAC)), automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("old grab with CDH disabled", func(t *testing.T) {
		spec := NewHistorySpecification(grabbedFLAC(48*time.Hour), upgradable(), fakeConfig{}, 0)
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac", testutil.WithQuality(quality.FLAC)), automatic())
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Contains(t, res.Reason, "CDH is disabled")
	})

	t.Run("recent grab below cutoff not upgraded", func(t *testing.T) {
		h := &fakeHistory{byAlbum: map[int][]*history.Entry{
			10: {history.NewGrabbed(1, 10, "mp3", quality.NewModel(quality.MP3320), "dl-2", testNow.Add(-time.Hour))},
		}}
		spec := NewHistorySpecification(h, upgradable(), fakeConfig{cdh: true}, 0)
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("mp3", testutil.WithQuality(quality.MP3256)), automatic())
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Contains(t, res.Reason, "is of equal or higher quality")
	})

	t.Run("interactive search skips history", func(t *testing.T) {
		spec := NewHistorySpecification(grabbedFLAC(time.Hour), upgradable(), fakeConfig{}, 0)
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac", testutil.WithQuality(quality.FLAC)),
			&decisionengine.SearchContext{UserInvokedSearch: true, Now: fixedClock})
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("history failure is an error", func(t *testing.T) {
		spec := NewHistorySpecification(&fakeHistory{err: errors.New("db down")}, upgradable(), fakeConfig{}, 0)
		_, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("flac"), automatic())
		assert.Error(t, err)
	})
}

func TestAlreadyImportedSpecification(t *testing.T) {
	ctx := context.Background()
	grab := history.NewGrabbed(1, 10, "Artist - Album", quality.NewModel(quality.FLAC), "dl-1", testNow.Add(-3*time.Hour))
	imported := &history.Entry{
		ArtistID:   1,
		AlbumID:    10,
		EventType:  history.EventDownloadImported,
		DownloadID: "dl-1",
		Date:       testNow.Add(-time.Hour),
	}
	search := &decisionengine.SearchContext{
		Now:                fixedClock,
		DownloadClientItem: &release.DownloadClientItem{DownloadID: "dl-1"},
	}

	t.Run("imported after grab", func(t *testing.T) {
		spec := NewAlreadyImportedSpecification(&fakeHistory{byAlbum: map[int][]*history.Entry{10: {grab, imported}}})
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("Artist - Album"), search)
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.Equal(t, decisionengine.Permanent, res.Type)
		assert.Equal(t, "Release already imported at 2024-06-01T11:00:00Z", res.Reason)
	})

	t.Run("grabbed again after import", func(t *testing.T) {
		regrab := history.NewGrabbed(1, 10, "Artist - Album", quality.NewModel(quality.FLAC), "dl-1", testNow.Add(-time.Minute))
		spec := NewAlreadyImportedSpecification(&fakeHistory{byAlbum: map[int][]*history.Entry{10: {grab, imported, regrab}}})
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("Artist - Album"), search)
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("no download client item", func(t *testing.T) {
		spec := NewAlreadyImportedSpecification(&fakeHistory{byAlbum: map[int][]*history.Entry{10: {grab, imported}}})
		res, err := spec.Evaluate(ctx, testutil.CreateTestCandidate("Artist - Album"), automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})
}

func TestDelaySpecification(t *testing.T) {
	ctx := context.Background()
	profile := delay.DefaultProfile()
	profile.UsenetDelay = 60
	store := &fakePending{}
	spec := NewDelaySpecification(fakeDelays{profile: profile}, store, fakeFiles{}, upgradable())

	// Two releases for one album under a one hour usenet delay.
	mp3 := testutil.CreateTestCandidate("Artist - Album MP3",
		testutil.WithQuality(quality.MP3320), testutil.WithPublished(testNow))
	flac := testutil.CreateTestCandidate("Artist - Album FLAC",
		testutil.WithQuality(quality.FLAC), testutil.WithSize(600*1024*1024),
		testutil.WithPublished(testNow.Add(-time.Hour)))

	res, err := spec.Evaluate(ctx, mp3, automatic())
	require.NoError(t, err)
	assert.True(t, res.Rejected)
	assert.Equal(t, decisionengine.Temporary, res.Type)
	assert.Equal(t, "Waiting for better quality release", res.Reason)

	res, err = spec.Evaluate(ctx, flac, automatic())
	require.NoError(t, err)
	assert.False(t, res.Rejected)

	t.Run("best quality on preferred protocol", func(t *testing.T) {
		hires := testutil.CreateTestCandidate("hires",
			testutil.WithQuality(quality.FLAC24), testutil.WithPublished(testNow))
		res, err := spec.Evaluate(ctx, hires, automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("oldest pending release past delay", func(t *testing.T) {
		old := testutil.CreateTestCandidate("pending", testutil.WithPublished(testNow.Add(-2*time.Hour)))
		withPending := NewDelaySpecification(fakeDelays{profile: profile},
			&fakePending{oldest: pending.NewRelease(old, pending.ReasonDelay, testNow)}, fakeFiles{}, upgradable())
		res, err := withPending.Evaluate(ctx, mp3, automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("revision upgrade of existing file", func(t *testing.T) {
		files := fakeFiles{10: {&trackfile.TrackFile{AlbumID: 10, Quality: quality.NewModel(quality.MP3320)}}}
		withFiles := NewDelaySpecification(fakeDelays{profile: profile}, store, files, upgradable())
		proper := testutil.CreateTestCandidate("proper",
			testutil.WithQuality(quality.MP3320), testutil.WithRevision(2), testutil.WithPublished(testNow))
		res, err := withFiles.Evaluate(ctx, proper, automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("interactive search is never delayed", func(t *testing.T) {
		res, err := spec.Evaluate(ctx, mp3, &decisionengine.SearchContext{UserInvokedSearch: true, Now: fixedClock})
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})

	t.Run("no delay for protocol", func(t *testing.T) {
		torrent := testutil.CreateTestCandidate("torrent",
			testutil.WithProtocol(release.ProtocolTorrent), testutil.WithPublished(testNow))
		res, err := spec.Evaluate(ctx, torrent, automatic())
		require.NoError(t, err)
		assert.False(t, res.Rejected)
	})
}

func TestFreeSpaceSpecification(t *testing.T) {
	ctx := context.Background()
	c := testutil.CreateTestCandidate("Artist - Album", testutil.WithSize(100*1024*1024))

	tests := []struct {
		name     string
		disk     DiskProvider
		config   fakeConfig
		rejected bool
	}{
		{"less space than release", fakeDisk{free: int64Ptr(80 * 1024 * 1024)}, fakeConfig{}, true},
		{"space without padding", fakeDisk{free: int64Ptr(150 * 1024 * 1024)}, fakeConfig{}, true},
		{"enough space", fakeDisk{free: int64Ptr(10 * 1024 * 1024 * 1024)}, fakeConfig{}, false},
		{"unknown free space", fakeDisk{}, fakeConfig{}, false},
		{"disk error", fakeDisk{err: errors.New("stat failed")}, fakeConfig{}, false},
		{"check skipped", fakeDisk{free: int64Ptr(0)}, fakeConfig{skipSpace: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NewFreeSpaceSpecification(tt.disk, tt.config, "/downloads", nil)
			res, err := spec.Evaluate(ctx, c, automatic())
			require.NoError(t, err)
			assert.Equal(t, tt.rejected, res.Rejected)
			if tt.rejected {
				assert.Equal(t, decisionengine.Permanent, res.Type)
				assert.Contains(t, res.Reason, "Not enough free space")
			}
		})
	}
}

func TestDefaultChainRegisters(t *testing.T) {
	specs := Default(Dependencies{
		Config:     fakeConfig{},
		History:    &fakeHistory{},
		Blocklist:  new(mockBlocklist),
		Delays:     fakeDelays{},
		Pending:    &fakePending{},
		TrackFiles: fakeFiles{},
		Disk:       fakeDisk{},
	})

	registry, err := decisionengine.NewRegistry(specs...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Monitored", "QualityAllowedByProfile", "Protocol", "UpgradeDisk",
		"Blocklist", "History", "AlreadyImported", "Delay",
		"FreeSpace",
	}, registry.Names())
}

func TestDefaultChainPriorities(t *testing.T) {
	specs := Default(Dependencies{Config: fakeConfig{}})

	got := make(map[string]decisionengine.Priority, len(specs))
	for _, s := range specs {
		got[s.Name()] = s.Priority()
	}
	assert.Equal(t, map[string]decisionengine.Priority{
		"Monitored":               decisionengine.PriorityDefault,
		"QualityAllowedByProfile": decisionengine.PriorityDefault,
		"Protocol":                decisionengine.PriorityDatabase,
		"UpgradeDisk":             decisionengine.PriorityDatabase,
		"Blocklist":               decisionengine.PriorityDatabase,
		"History":                 decisionengine.PriorityDatabase,
		"AlreadyImported":         decisionengine.PriorityDatabase,
		"Delay":                   decisionengine.PriorityDatabase,
		"FreeSpace":               decisionengine.PriorityDisk,
	}, got)
}
