package parse

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"parcelsales/internal/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "parcel.html"))
	require.NoError(t, err)
	return b
}

func doc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(markup)))
	require.NoError(t, err)
	return d
}

func TestParseFullPage(t *testing.T) {
	page, err := New(zap.NewNop()).Parse(loadFixture(t), "01-00001-000", 0.42)
	require.NoError(t, err)

	assert.Equal(t, "SMITH JOHN & JANE", page.OwnerName)
	assert.Equal(t, "PO BOX 12 | 123 MAIN ST, BENTONVILLE AR 72712 | c/o TRUST DEPT TX 75001-1234", page.OwnerAddress)
	assert.Equal(t, "AR", page.OwnerState)
	assert.True(t, page.HasStructure)

	// "abc" and the two-cell row are dropped; the decoy table before the
	// heading is ignored.
	assert.Equal(t, []types.Sale{
		{ParcelID: "01-00001-000", SoldDate: "7/4/2023", SoldPrice: 1234567.0, DeedType: "WD", Acreage: 0.42, HasHouse: true, OwnerState: "AR"},
		{ParcelID: "01-00001-000", SoldDate: "1/2/2001", SoldPrice: 0, DeedType: "QC", Acreage: 0.42, HasHouse: true, OwnerState: "AR"},
	}, page.Sales)
}

func TestParseWithoutOwnerSectionStillReadsSales(t *testing.T) {
	markup := `<div class="panel-heading">Sales History</div>
	<table class="table-striped-yellow">
	  <tr><td>h</td></tr>
	  <tr><td>a</td><td>5/6/2020</td><td>250,000</td><td>WD2</td></tr>
	</table>`

	page, err := New(zap.NewNop()).Parse([]byte(markup), "p", 1)
	require.NoError(t, err)

	assert.Empty(t, page.OwnerName)
	assert.Empty(t, page.OwnerAddress)
	assert.Empty(t, page.OwnerState)
	assert.False(t, page.HasStructure)
	require.Len(t, page.Sales, 1)
	assert.Equal(t, 250000.0, page.Sales[0].SoldPrice)
	assert.Equal(t, "WD2", page.Sales[0].DeedType)
	assert.Empty(t, page.Sales[0].OwnerState)
}

func TestParseLabelWithoutValueCell(t *testing.T) {
	markup := `<table><tr><td>Owner Name:</td></tr><tr><td>Mailing Address:</td></tr></table>`

	page, err := New(zap.NewNop()).Parse([]byte(markup), "p", 1)
	require.NoError(t, err)
	assert.Empty(t, page.OwnerName)
	assert.Empty(t, page.OwnerAddress)
	assert.Empty(t, page.Sales)
}

func TestSalesHistoryMissingSections(t *testing.T) {
	tests := map[string]string{
		"no heading":        `<table class="table-striped-yellow"><tr><td>h</td></tr><tr><td>a</td><td>d</td><td>1</td></tr></table>`,
		"heading, no table": `<div class="panel-heading">Sales History</div><table><tr><td>h</td></tr></table>`,
		"other heading":     `<div class="panel-heading">Sales</div><table class="table-striped-yellow"><tr><td>h</td></tr><tr><td>a</td><td>d</td><td>1</td></tr></table>`,
		"header row only":   `<div class="panel-heading">Sales History</div><table class="table-striped-yellow"><tr><td>a</td><td>d</td><td>1</td></tr></table>`,
	}
	for name, markup := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, SalesHistory(doc(t, markup), zap.NewNop()))
		})
	}
}

func TestSalesHistoryPriceParsing(t *testing.T) {
	markup := `<div class="panel-heading"> Sales History </div>
	<table class="table-striped-yellow">
	  <tr><td>h</td></tr>
	  <tr><td>a</td><td>d1</td><td>1,234,567.00</td><td>WD</td></tr>
	  <tr><td>a</td><td>d2</td><td>abc</td><td>WD</td></tr>
	  <tr><td>a</td><td>d3</td><td> 12 </td><td>QC</td></tr>
	</table>`

	sales := SalesHistory(doc(t, markup), zap.NewNop())
	require.Len(t, sales, 2)
	assert.Equal(t, 1234567.0, sales[0].SoldPrice)
	assert.Equal(t, "d1", sales[0].SoldDate)
	assert.Equal(t, 12.0, sales[1].SoldPrice)
	assert.Equal(t, "d3", sales[1].SoldDate)
	assert.Equal(t, "QC", sales[1].DeedType)
}

func TestOwnerState(t *testing.T) {
	tests := []struct {
		lines []string
		want  string
	}{
		{[]string{"123 MAIN ST, BENTONVILLE AR 72712"}, "AR"},
		{[]string{"PO BOX 1", "DALLAS tx 75001-1234"}, "TX"},
		{[]string{"BENTONVILLE AR 72712", "DALLAS TX 75001"}, "AR"},
		{[]string{"BENTONVILLE AR 72712 USA"}, ""},
		{[]string{"BENTONVILLE AR 7271"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OwnerState(tt.lines), "%v", tt.lines)
	}
}

func TestMailingAddressNestedMarkup(t *testing.T) {
	d := doc(t, `<table><tr><td>Mailing Address:</td><td><span>1 ELM</span><br>ROGERS <b>AR</b> 72756</td></tr></table>`)
	assert.Equal(t, []string{"1 ELM", "ROGERS AR 72756"}, MailingAddress(d))
}
