package parcels

import (
	"os"
	"path/filepath"
	"testing"

	"parcelsales/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestPaths(t *testing.T) {
	cfg := config.ParcelsConfig{ChunkDir: "in", ChunkBasename: "benton_20250613", ChunkCount: 3}
	assert.Equal(t, []string{
		filepath.Join("in", "benton_20250613_part1.csv"),
		filepath.Join("in", "benton_20250613_part2.csv"),
		filepath.Join("in", "benton_20250613_part3.csv"),
	}, Paths(cfg))

	cfg.Files = []string{"bentonville_parcels.csv"}
	assert.Equal(t, []string{"bentonville_parcels.csv"}, Paths(cfg))
}

func TestLoadConcatenatesChunks(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a_part1.csv")
	p2 := filepath.Join(dir, "a_part2.csv")
	write(t, p1, "\xEF\xBB\xBFPARCELID,S_T_R,ACRE_AREA,LAND_VAL\n01-1,36-21-31,0.5,1000\n01-2,36-21-31,,2000\n")
	write(t, p2, "PARCELID,S_T_R,ACRE_AREA,LAND_VAL,lat,lon\n02-1,01-20-31,nan,0,36.1,-94.2\n")

	ds, err := Load([]string{p1, p2})
	require.NoError(t, err)

	assert.Equal(t, []string{"PARCELID", "S_T_R", "ACRE_AREA", "LAND_VAL", "lat", "lon"}, ds.Header)
	require.Len(t, ds.Parcels, 3)

	assert.Equal(t, "01-1", ds.Parcels[0].ID)
	assert.Equal(t, "36-21-31", ds.Parcels[0].Group)
	assert.True(t, ds.Parcels[0].HasAcreage)
	assert.Equal(t, 0.5, ds.Parcels[0].Acreage)
	assert.Equal(t, "1000", ds.Parcels[0].Attrs["LAND_VAL"])

	assert.False(t, ds.Parcels[1].HasAcreage)
	assert.False(t, ds.Parcels[2].HasAcreage)
	assert.Equal(t, "36.1", ds.Parcels[2].Attrs["lat"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.csv")
	write(t, p, "")
	_, err := Load([]string{p})
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber(" 1,250.5 ")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, v)

	for _, s := range []string{"", "nan", "NaN", "n/a"} {
		_, ok := ParseNumber(s)
		assert.False(t, ok, s)
	}
}
