package gorm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/config"
	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/decisionengine/specifications"
	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/test/testutil"
)

type recordingTrigger struct {
	mu     sync.Mutex
	titles []string
}

func (t *recordingTrigger) Submit(_ context.Context, c *release.Candidate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titles = append(t.titles, c.Release.Title)
	return nil
}

type pipeline struct {
	now       time.Time
	maker     *decisionengine.DecisionMaker
	processor *decisionengine.Processor
	pending   *PendingReleaseRepository
	history   *HistoryRepository
	trigger   *recordingTrigger
}

// newPipeline wires History and Delay over sqlite with a one hour usenet delay.
func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	db := NewTestDB(t)
	ctx := context.Background()

	delays := NewDelayProfileRepository(db)
	profile := delay.DefaultProfile()
	profile.ID = 0
	profile.UsenetDelay = 60
	require.NoError(t, delays.Save(ctx, profile))

	p := &pipeline{
		now:     base,
		pending: NewPendingReleaseRepository(db),
		history: NewHistoryRepository(db),
		trigger: &recordingTrigger{},
	}
	clock := func() time.Time { return p.now }

	upgradable := quality.NewUpgradableSpecification(nil)
	cfg := config.DecisionConfig{
		CompletedDownloadHandling: true,
		ProperDownloadType:        string(quality.PreferAndUpgrade),
	}
	registry, err := decisionengine.NewRegistry(
		specifications.NewHistorySpecification(p.history, upgradable, cfg, 0),
		specifications.NewDelaySpecification(delays, p.pending, NewTrackFileRepository(db), upgradable),
	)
	require.NoError(t, err)

	p.maker = decisionengine.NewDecisionMaker(registry, zap.NewNop(), decisionengine.WithClock(clock))
	p.processor = decisionengine.NewProcessor(p.trigger, p.pending,
		decisionengine.NewPrioritizer(delays, zap.NewNop()), zap.NewNop(),
		decisionengine.WithHistory(p.history),
		decisionengine.WithProcessorClock(clock))
	return p
}

func (p *pipeline) rss(candidates ...*release.Candidate) decisionengine.ProcessedDecisions {
	ctx := context.Background()
	return p.processor.ProcessDecisions(ctx, p.maker.GetRSSDecision(ctx, candidates))
}

func TestPendingLifecycle_DelayWindowSurvivesRepeatedSyncs(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	mp3 := testutil.CreateTestCandidate("Artist - Album [MP3]", testutil.WithPublished(base))

	for i := 1; i <= 3; i++ {
		p.now = base.Add(time.Duration(i) * 5 * time.Minute)
		result := p.rss(mp3)
		require.Len(t, result.Pending, 1, "run %d", i)
	}

	queued, err := p.pending.ListByArtist(ctx, 1)
	require.NoError(t, err)
	require.Len(t, queued, 1, "one row per release however often it is seen")
	assert.True(t, base.Add(5*time.Minute).Equal(queued[0].Added))

	// past the delay the queued release is grabbed and the queue is cleared
	p.now = base.Add(70 * time.Minute)
	result := p.rss(mp3)
	require.Len(t, result.Grabbed, 1)
	assert.Equal(t, []string{"Artist - Album [MP3]"}, p.trigger.titles)

	queued, err = p.pending.ListByArtist(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, queued)

	// a new release a week later starts its own delay window
	p.now = base.Add(7 * 24 * time.Hour)
	fresh := testutil.CreateTestCandidate("Artist - Album [MP3] REPACK",
		testutil.WithIndexer(2, "Other", 25), testutil.WithPublished(p.now))
	decisions := p.maker.GetRSSDecision(ctx, []*release.Candidate{fresh})
	require.Len(t, decisions, 1)
	assert.True(t, decisions[0].TemporarilyRejected())
	assert.Equal(t, []string{"Waiting for better quality release"}, decisions[0].Reasons())
}

func TestPendingLifecycle_AutomaticGrabBlocksEquivalentRelease(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.now = base.Add(2 * time.Hour)
	first := testutil.CreateTestCandidate("Artist - Album [MP3]", testutil.WithPublished(base))
	result := p.rss(first)
	require.Len(t, result.Grabbed, 1)

	grabbed, err := p.history.MostRecentForAlbum(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, grabbed)
	assert.Equal(t, history.EventGrabbed, grabbed.EventType)
	assert.Equal(t, first.Release.GUID, grabbed.DownloadID)
	assert.Equal(t, "Indexer", grabbed.Data["indexer"])

	p.now = base.Add(3 * time.Hour)
	mirror := testutil.CreateTestCandidate("Artist - Album [MP3] mirror",
		testutil.WithIndexer(2, "Other", 25), testutil.WithPublished(base))
	result = p.rss(mirror)

	assert.Empty(t, result.Grabbed)
	require.Len(t, result.Rejected, 1)
	assert.True(t, result.Rejected[0].PermanentlyRejected())
	assert.Contains(t, result.Rejected[0].Reasons()[0], "Recent grab event in history")
	assert.Equal(t, []string{"Artist - Album [MP3]"}, p.trigger.titles)
}
