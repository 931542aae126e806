package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeToSQL(t *testing.T) {
	spec := And(
		Equals("artist_id", 7),
		And(EqualFold("source_title", "Artist - Album [FLAC]"), LessThan("date", 3)),
	)

	sql, args := spec.ToSQL()

	assert.Equal(t, "(artist_id = ? AND (LOWER(source_title) = ? AND date < ?))", sql)
	assert.Equal(t, []interface{}{7, "artist - album [flac]", 3}, args)
}

func TestAndSkipsEmptyParts(t *testing.T) {
	sql, args := And(Equals("artist_id", 1), And()).ToSQL()

	assert.Equal(t, "artist_id = ?", sql)
	assert.Equal(t, []interface{}{1}, args)
}

func TestInEmptyMatchesNothing(t *testing.T) {
	sql, args := In[int]("album_id", nil).ToSQL()

	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}

func TestIn(t *testing.T) {
	sql, args := In("album_id", []int{1, 2}).ToSQL()

	assert.Equal(t, "album_id IN ?", sql)
	assert.Equal(t, []interface{}{[]interface{}{1, 2}}, args)
}
