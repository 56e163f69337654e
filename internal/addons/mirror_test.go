package addons

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_StageUnstage(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWorkshop(t, fs, "workshop_111.vpk")
	m := NewMirror(fs, testWorkshop, testRoot, discardLogger())
	e := Entry{Name: "workshop_111.vpk", AddonID: "addon1"}

	require.NoError(t, m.Stage(e))
	assert.True(t, m.IsStaged(e))

	data, err := afero.ReadFile(fs, filepath.Join(testRoot, "addon1", StagedFileName))
	require.NoError(t, err)
	assert.Equal(t, "data:workshop_111.vpk", string(data))

	require.NoError(t, m.Unstage(e))
	assert.False(t, m.IsStaged(e))
	assert.False(t, m.StagingExists(e))

	// Removing an absent directory is not an error.
	require.NoError(t, m.Unstage(e))
}

func TestMirror_StageMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWorkshop(t, fs)
	m := NewMirror(fs, testWorkshop, testRoot, discardLogger())
	e := Entry{Name: "missing.vpk", AddonID: "addon4"}

	err := m.Stage(e)

	var merr *MirrorError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "copy", merr.Op)
	assert.Equal(t, "addon4", merr.AddonID)
	assert.False(t, m.StagingExists(e), "half-staged directory should be cleaned up")
}

func TestMirror_Restage(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWorkshop(t, fs, "a.vpk")
	m := NewMirror(fs, testWorkshop, testRoot, discardLogger())
	e := Entry{Name: "a.vpk", AddonID: "addon1"}

	require.NoError(t, fs.MkdirAll(m.StagingDir("addon1"), 0755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(m.StagingDir("addon1"), "stale.txt"), []byte("x"), 0644))

	require.NoError(t, m.Restage(e))

	assert.True(t, m.IsStaged(e))
	exists, err := afero.Exists(fs, filepath.Join(m.StagingDir("addon1"), "stale.txt"))
	require.NoError(t, err)
	assert.False(t, exists)

	// Restage works when nothing is staged yet.
	require.NoError(t, m.Unstage(e))
	require.NoError(t, m.Restage(e))
	assert.True(t, m.IsStaged(e))
}

func TestMirror_StagedIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWorkshop(t, fs, "workshop_111.vpk")
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, "addon3"), 0755))
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, "addonx"), 0755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testRoot, "addon4"), []byte("file"), 0644))
	m := NewMirror(fs, testWorkshop, testRoot, discardLogger())

	require.NoError(t, m.Stage(Entry{Name: "workshop_111.vpk", AddonID: "addon1"}))

	ids, err := m.StagedIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"addon1", "addon3"}, ids)

	_, err = NewMirror(fs, testWorkshop, "/missing", discardLogger()).StagedIDs()
	assert.Error(t, err)
}
