package specifications

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeConfig struct {
	cdh       bool
	propers   quality.ProperDownloadType
	skipSpace bool
}

func (c fakeConfig) EnableCompletedDownloadHandling() bool { return c.cdh }
func (c fakeConfig) DownloadPropersAndRepacks() quality.ProperDownloadType {
	if c.propers == "" {
		return quality.PreferAndUpgrade
	}
	return c.propers
}
func (c fakeConfig) SkipFreeSpaceCheckWhenImporting() bool { return c.skipSpace }

type fakeHistory struct {
	byAlbum map[int][]*history.Entry
	err     error
}

func (h *fakeHistory) MostRecentForAlbum(_ context.Context, albumID int) (*history.Entry, error) {
	if h.err != nil {
		return nil, h.err
	}
	var newest *history.Entry
	for _, e := range h.byAlbum[albumID] {
		if newest == nil || e.Date.After(newest.Date) {
			newest = e
		}
	}
	return newest, nil
}

func (h *fakeHistory) GetByAlbum(_ context.Context, albumID int, eventType *history.EventType) ([]*history.Entry, error) {
	var out []*history.Entry
	for _, e := range h.byAlbum[albumID] {
		if eventType == nil || e.EventType == *eventType {
			out = append(out, e)
		}
	}
	return out, h.err
}

func (h *fakeHistory) FindByDownloadID(_ context.Context, downloadID string) ([]*history.Entry, error) {
	var out []*history.Entry
	for _, entries := range h.byAlbum {
		for _, e := range entries {
			if e.DownloadID == downloadID {
				out = append(out, e)
			}
		}
	}
	return out, h.err
}

type fakeFiles map[int][]*trackfile.TrackFile

func (f fakeFiles) GetFilesByAlbum(_ context.Context, albumID int) ([]*trackfile.TrackFile, error) {
	return f[albumID], nil
}

type fakeDelays struct {
	profile *delay.Profile
	err     error
}

func (d fakeDelays) BestForTags(context.Context, []int) (*delay.Profile, error) {
	return d.profile, d.err
}

type fakePending struct {
	oldest *pending.Release
}

func (p *fakePending) OldestPendingRelease(context.Context, int, []int) (*pending.Release, error) {
	return p.oldest, nil
}
func (p *fakePending) Add(context.Context, *pending.Release) error { return nil }
func (p *fakePending) ListByArtist(context.Context, int) ([]*pending.Release, error) {
	return nil, nil
}
func (p *fakePending) RemoveForAlbums(context.Context, int, []int) (int64, error) { return 0, nil }
func (p *fakePending) RemoveByArtist(context.Context, int) (int64, error) { return 0, nil }
func (p *fakePending) RemoveAddedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeDisk struct {
	free *int64
	err  error
}

func (d fakeDisk) FreeSpace(string) (*int64, error) { return d.free, d.err }

type mockBlocklist struct {
	mock.Mock
}

func (m *mockBlocklist) IsBlocklisted(ctx context.Context, artistID int, r *release.Info) (bool, error) {
	args := m.Called(ctx, artistID, r)
	return args.Bool(0), args.Error(1)
}

func trackFile(albumID int, q quality.Quality) *trackfile.TrackFile {
	return &trackfile.TrackFile{AlbumID: albumID, Quality: quality.NewModel(q)}
}

func int64Ptr(v int64) *int64 { return &v }
