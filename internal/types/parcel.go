package types

import "time"

// Column names shared by the parcel dataset and the per-group sales files.
const (
	ColParcelID = "PARCELID"
	ColGroup    = "S_T_R"
	ColAcreage  = "ACRE_AREA"
	ColLat      = "lat"
	ColLon      = "lon"
)

// SalesHeader is the header row of every per-group sales CSV.
var SalesHeader = []string{
	ColParcelID, "sold_date", "sold_price", "deed_type", "acre_area", "has_house", "owner_state",
}

// Parcel is one row of the parcel dataset. Attrs keeps every column of the
// row so the report can carry them through the join.
type Parcel struct {
	ID         string
	Group      string
	Acreage    float64
	HasAcreage bool

	Attrs map[string]string
}

// Dataset is the concatenation of the parcel files, with Header holding the
// union of their columns in first-seen order.
type Dataset struct {
	Header  []string
	Parcels []Parcel
}

// Sale is one historical sale event scraped from a parcel page.
type Sale struct {
	ParcelID   string
	SoldDate   string
	SoldPrice  float64
	DeedType   string
	Acreage    float64
	HasHouse   bool
	OwnerState string
}

// Page holds everything extracted from a single parcel page.
type Page struct {
	OwnerName    string
	OwnerAddress string
	OwnerState   string
	HasStructure bool
	Sales        []Sale
}

// ReportRow is one parcel joined with its latest qualifying sale.
type ReportRow struct {
	Parcel Parcel
	Sale   Sale
	// SaleGroup is the group whose sales file the sale came from.
	SaleGroup string
	// SoldAt is zero when the sale date did not parse.
	SoldAt time.Time

	LandValue    float64
	HasLandValue bool
	Ratio        float64
	HasRatio     bool
	OutOfState   bool
}

// SaleYear is 0 when the sale date is unknown.
func (r ReportRow) SaleYear() int {
	if r.SoldAt.IsZero() {
		return 0
	}
	return r.SoldAt.Year()
}
