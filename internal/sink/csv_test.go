package sink

import (
	"os"
	"path/filepath"
	"testing"

	"parcelsales/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCreatesWithHeaderThenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "36-21-31.csv")

	require.NoError(t, Append([]types.Sale{{
		ParcelID: "01-00001-000", SoldDate: "7/4/2023", SoldPrice: 1234567,
		DeedType: "WD", Acreage: 0.25, HasHouse: true, OwnerState: "AR",
	}}, path))
	require.NoError(t, Append([]types.Sale{{
		ParcelID: "01-00002-000", SoldDate: "1/2/2001", SoldPrice: 99.5,
		DeedType: "QC", Acreage: 2, OwnerState: "",
	}}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"PARCELID,sold_date,sold_price,deed_type,acre_area,has_house,owner_state\n"+
			"01-00001-000,7/4/2023,1234567.0,WD,0.25,True,AR\n"+
			"01-00002-000,1/2/2001,99.5,QC,2.0,False,\n",
		string(data))
}

func TestAppendEmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.csv")
	require.NoError(t, Append(nil, path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "g3.csv")
	header := "PARCELID,sold_date,sold_price,deed_type,acre_area,has_house,owner_state\n"

	require.NoError(t, EnsureHeader(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, header, string(data))

	// existing rows are left alone
	require.NoError(t, Append([]types.Sale{{ParcelID: "P1", SoldPrice: 1, DeedType: "WD"}}, path))
	require.NoError(t, EnsureHeader(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, header+"P1,,1.0,WD,0.0,False,\n", string(data))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "150000.0", FormatFloat(150000))
	assert.Equal(t, "0.0", FormatFloat(0))
	assert.Equal(t, "12.75", FormatFloat(12.75))
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("True"))
	assert.True(t, ParseBool(" true "))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("False"))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("yes"))
}
