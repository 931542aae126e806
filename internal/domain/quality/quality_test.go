package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func losslessProfile() *Profile {
	return NewProfile("Lossless", FLAC, MP3320, FLAC, FLAC24)
}

func TestFindByIDAndName(t *testing.T) {
	q, err := FindByID(FLAC.ID)
	require.NoError(t, err)
	assert.Equal(t, FLAC, q)

	q, err = FindByName("mp3-320")
	require.NoError(t, err)
	assert.Equal(t, MP3320, q)

	_, err = FindByID(999)
	assert.Error(t, err)
}

func TestRevisionCompare(t *testing.T) {
	assert.Equal(t, 1, Revision{Version: 2}.Compare(Revision{Version: 1}))
	assert.Equal(t, -1, Revision{Version: 1}.Compare(Revision{Version: 1, Real: 1}))
	assert.Equal(t, 0, Revision{Version: 1}.Compare(Revision{Version: 1}))
}

func TestProfileComparer(t *testing.T) {
	p := losslessProfile()
	cmp := p.Comparer()

	assert.Equal(t, 1, cmp.Compare(FLAC, MP3320))
	assert.Equal(t, -1, cmp.Compare(MP3320, FLAC24))
	assert.Equal(t, 0, cmp.Compare(FLAC, FLAC))

	proper := Model{Quality: FLAC, Revision: Revision{Version: 2}}
	assert.Equal(t, 1, cmp.CompareModel(proper, NewModel(FLAC), true))
	assert.Equal(t, 0, cmp.CompareModel(proper, NewModel(FLAC), false))
}

func TestProfileAllowed(t *testing.T) {
	p := losslessProfile()

	assert.True(t, p.IsAllowed(FLAC))
	assert.False(t, p.IsAllowed(MP3128))
	assert.Equal(t, MP3320, p.FirstAllowedQuality())
	assert.Equal(t, FLAC24, p.LastAllowedQuality())
}

func TestUpgradableSpecification_IsUpgradable(t *testing.T) {
	p := losslessProfile()
	proper := Model{Quality: FLAC, Revision: Revision{Version: 2}}

	tests := []struct {
		name      string
		policy    ProperDownloadType
		current   []Model
		candidate Model
		want      bool
	}{
		{"better tier", PreferAndUpgrade, []Model{NewModel(MP3320)}, NewModel(FLAC), true},
		{"worse tier", PreferAndUpgrade, []Model{NewModel(FLAC)}, NewModel(MP3320), false},
		{"same tier same revision", PreferAndUpgrade, []Model{NewModel(FLAC)}, NewModel(FLAC), false},
		{"same tier newer revision", PreferAndUpgrade, []Model{NewModel(FLAC)}, proper, true},
		{"newer revision not preferred", DoNotPrefer, []Model{NewModel(FLAC)}, proper, false},
		{"worse than any existing", PreferAndUpgrade, []Model{NewModel(MP3320), NewModel(FLAC24)}, NewModel(FLAC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			spec := NewUpgradableSpecification(func() ProperDownloadType { return policy })
			assert.Equal(t, tt.want, spec.IsUpgradable(p, tt.current, tt.candidate))
		})
	}
}

func TestUpgradableSpecification_CutoffNotMet(t *testing.T) {
	p := losslessProfile()
	spec := NewUpgradableSpecification(nil)

	assert.True(t, spec.CutoffNotMet(p, []Model{NewModel(MP3320)}, nil))
	assert.False(t, spec.CutoffNotMet(p, []Model{NewModel(FLAC)}, nil))

	proper := Model{Quality: FLAC, Revision: Revision{Version: 2}}
	assert.True(t, spec.CutoffNotMet(p, []Model{NewModel(FLAC)}, &proper), "revision upgrade reopens the cutoff")

	p.UpgradeAllowed = false
	assert.False(t, spec.CutoffNotMet(p, []Model{NewModel(MP3320)}, nil), "without upgrades the first allowed quality is the cutoff")
}

func TestUpgradableSpecification_IsUpgradeAllowed(t *testing.T) {
	p := losslessProfile()
	spec := NewUpgradableSpecification(nil)

	assert.True(t, spec.IsUpgradeAllowed(p, []Model{NewModel(MP3320)}, NewModel(FLAC)))

	p.UpgradeAllowed = false
	assert.False(t, spec.IsUpgradeAllowed(p, []Model{NewModel(MP3320)}, NewModel(FLAC)))
	assert.True(t, spec.IsUpgradeAllowed(p, []Model{NewModel(FLAC)}, NewModel(FLAC)))
}

func TestParseProperDownloadType(t *testing.T) {
	got, err := ParseProperDownloadType("")
	require.NoError(t, err)
	assert.Equal(t, PreferAndUpgrade, got)

	_, err = ParseProperDownloadType("sometimes")
	assert.Error(t, err)
}

func TestModelString(t *testing.T) {
	assert.Equal(t, "FLAC", NewModel(FLAC).String())
	assert.Equal(t, "FLAC Proper2", Model{Quality: FLAC, Revision: Revision{Version: 2}}.String())
	assert.Equal(t, "FLAC Repack2", Model{Quality: FLAC, Revision: Revision{Version: 2, IsRepack: true}}.String())
}
