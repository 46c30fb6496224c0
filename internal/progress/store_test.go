package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "36-21-31_progress.json"))

	set, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "nested", "36-21-31_progress.json"))

	set := Set{}
	set.Add("02-00010-000")
	set.Add("01-00001-000")
	require.NoError(t, s.Save(set))

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `["01-00001-000","02-00010-000"]`, string(data))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Has("01-00001-000"))
	assert.True(t, loaded.Has("02-00010-000"))
	assert.False(t, loaded.Has("03-00000-000"))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(s.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveOverwritesWholeSet(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "p.json"))

	require.NoError(t, s.Save(Set{"a": {}, "b": {}}))
	require.NoError(t, s.Save(Set{"c": {}}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, loaded.IDs())
}

func TestLoadMalformedIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestLoadReadsUnsortedArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	// files written by the old tool are unordered
	require.NoError(t, os.WriteFile(path, []byte(`["z", "a", "a"]`), 0o644))

	set, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, set.IDs())
}
