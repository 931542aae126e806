package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("decisiond", "development", "debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("decisiond", "production", "loud", "json")
	assert.Error(t, err)
}

func TestWithRelease(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := WithArtist(WithRelease(zap.New(core), "Artist - Album", "guid-1"), 12)

	l.Info("evaluated")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "Artist - Album", fields["release"])
	assert.Equal(t, "guid-1", fields["guid"])
	assert.Equal(t, int64(12), fields["artist_id"])
}
