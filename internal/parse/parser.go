package parse

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"parcelsales/internal/types"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	labelOwnerName   = "Owner Name:"
	labelMailingAddr = "Mailing Address:"
	headingSales     = "Sales History"
	salesTableClass  = "table-striped-yellow"
	structureID      = "Improvements"

	addressSeparator = " | "
)

// stateZip matches a trailing "AR 72712" or "AR 72712-1234".
var stateZip = regexp.MustCompile(`([A-Za-z]{2}) (\d{5}(?:-\d{4})?)$`)

// Parser reads parcel pages from the county site.
type Parser struct {
	logger *zap.Logger
}

// New creates a Parser that logs skipped fields and rows to logger.
func New(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts owner facts and the sales history from a parcel page. Each
// owner field is read independently; a page missing any of them still yields
// its sales. An error means the markup could not be read at all.
func (p *Parser) Parse(markup []byte, parcelID string, acreage float64) (types.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return types.Page{}, fmt.Errorf("parse parcel %s: %w", parcelID, err)
	}

	var page types.Page
	p.isolate(parcelID, "owner name", func() {
		page.OwnerName = OwnerName(doc)
	})
	p.isolate(parcelID, "mailing address", func() {
		lines := MailingAddress(doc)
		page.OwnerAddress = strings.Join(lines, addressSeparator)
		page.OwnerState = OwnerState(lines)
	})
	page.HasStructure = doc.Find("#"+structureID).Length() > 0

	for _, s := range SalesHistory(doc, p.logger.With(zap.String("parcel", parcelID))) {
		s.ParcelID = parcelID
		s.Acreage = acreage
		s.HasHouse = page.HasStructure
		s.OwnerState = page.OwnerState
		page.Sales = append(page.Sales, s)
	}
	return page, nil
}

// isolate keeps a failure in one field from losing the rest of the page.
func (p *Parser) isolate(parcelID, field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("field extraction failed",
				zap.String("parcel", parcelID),
				zap.String("field", field),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// labelledCell returns the td following the td whose text is label.
func labelledCell(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == label
	}).First().NextAllFiltered("td").First()
}

// OwnerName reads the cell next to the "Owner Name:" label, or "".
func OwnerName(doc *goquery.Document) string {
	return strings.TrimSpace(labelledCell(doc, labelOwnerName).Text())
}

// MailingAddress splits the address cell on <br> into trimmed, non-empty lines.
func MailingAddress(doc *goquery.Document) []string {
	cell := labelledCell(doc, labelMailingAddr)
	if cell.Length() == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := strings.TrimSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}
	cell.Contents().Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		switch {
		case n.Type == html.ElementNode && n.Data == "br":
			flush()
		case n.Type == html.TextNode:
			cur.WriteString(n.Data)
		default:
			cur.WriteString(s.Text())
		}
	})
	flush()
	return lines
}

// OwnerState returns the upper-cased state of the first line ending in a
// state/ZIP pair, or "".
func OwnerState(lines []string) string {
	for _, line := range lines {
		if m := stateZip.FindStringSubmatch(line); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// SalesHistory reads the first striped table after the "Sales History" panel
// heading. Only date, price and deed type are filled in. Rows whose price
// does not parse are dropped.
func SalesHistory(doc *goquery.Document, logger *zap.Logger) []types.Sale {
	table := salesTable(doc)
	if table == nil {
		return nil
	}

	var sales []types.Sale
	doc.FindNodes(table).Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		raw := strings.TrimSpace(cells.Eq(2).Text())
		price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			logger.Debug("dropping sale row", zap.Int("row", i), zap.String("price", raw))
			return
		}
		sales = append(sales, types.Sale{
			SoldDate:  strings.TrimSpace(cells.Eq(1).Text()),
			SoldPrice: price,
			DeedType:  strings.TrimSpace(cells.Last().Text()),
		})
	})
	return sales
}

// salesTable walks the document in order and returns the first sales table
// that follows the sales heading, or nil.
func salesTable(doc *goquery.Document) *html.Node {
	var found *html.Node
	seenHeading := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case !seenHeading && n.Data == "div" && hasClass(n, "panel-heading") &&
				strings.TrimSpace(goquery.NewDocumentFromNode(n).Text()) == headingSales:
				seenHeading = true
			case seenHeading && n.Data == "table" && hasClass(n, salesTableClass):
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}
