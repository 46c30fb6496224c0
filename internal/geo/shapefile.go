package geo

import (
	"fmt"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// Feature is one parcel polygon reduced to its centroid and DBF attributes.
type Feature struct {
	Attrs map[string]string

	// X, Y are the centroid in the layer's own coordinates.
	X, Y     float64
	Lat, Lon float64
}

// Layer holds every feature of a shapefile with its DBF field names in order.
type Layer struct {
	Fields   []string
	Features []Feature
}

// LoadShapefile reads the polygons at path, computes their centroids and
// converts them with proj. Non-polygon shapes are skipped.
func LoadShapefile(path string, proj Projection) (Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return Layer{}, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	var layer Layer
	fields := r.Fields()
	for _, f := range fields {
		layer.Fields = append(layer.Fields, cleanAttr(f.String()))
	}

	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		x, y := Centroid(rings(poly))
		lat, lon := proj.ToLatLon(y, x)

		attrs := make(map[string]string, len(fields))
		for i, name := range layer.Fields {
			attrs[name] = cleanAttr(r.ReadAttribute(idx, i))
		}

		layer.Features = append(layer.Features, Feature{
			Attrs: attrs,
			X:     x,
			Y:     y,
			Lat:   lat,
			Lon:   lon,
		})
	}
	return layer, nil
}

// rings splits the flat points slice into parts.
func rings(poly *shp.Polygon) [][]shp.Point {
	numParts := len(poly.Parts)
	parts := make([][]shp.Point, 0, numParts)
	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		if start < 0 || end > int32(len(poly.Points)) || start >= end {
			continue
		}
		parts = append(parts, poly.Points[start:end])
	}
	return parts
}

// Centroid is the area-weighted centroid over all rings. Ring orientation
// gives holes the opposite sign of outer rings, so they subtract. When the
// total area is degenerate the mean of the points is returned.
func Centroid(parts [][]shp.Point) (x, y float64) {
	var area, cx, cy float64
	var sumX, sumY float64
	var count int

	for _, ring := range parts {
		for i := range ring {
			p := ring[i]
			q := ring[(i+1)%len(ring)]
			cross := p.X*q.Y - q.X*p.Y
			area += cross
			cx += (p.X + q.X) * cross
			cy += (p.Y + q.Y) * cross

			sumX += p.X
			sumY += p.Y
			count++
		}
	}

	if count == 0 {
		return math.NaN(), math.NaN()
	}
	if math.Abs(area) < 1e-12 {
		return sumX / float64(count), sumY / float64(count)
	}
	// area holds twice the signed area
	return cx / (3 * area), cy / (3 * area)
}

func cleanAttr(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
