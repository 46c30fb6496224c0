package geo

// Lambert Conformal Conic (two standard parallels) on the GRS80 ellipsoid,
// in US survey feet. State-plane parcel layers are published in this form;
// ToLatLon turns their coordinates back into WGS-84 lat/lon.

import (
	"fmt"
	"math"

	"parcelsales/internal/config"
)

const (
	ftPerMeter = 3937.0 / 1200.0  // US survey foot
	semiMajorM = 6378137.0        // GRS80 semi-major axis (metres)
	e2         = 0.00669438002290 // GRS80 eccentricity squared
)

// Projection converts a point in the layer's coordinate system to lat/lon.
type Projection interface {
	ToLatLon(y, x float64) (lat, lon float64)
}

// Identity leaves coordinates untouched: lat = y, lon = x.
type Identity struct{}

func (Identity) ToLatLon(y, x float64) (float64, float64) { return y, x }

// LambertConic is a two-parallel Lambert conformal conic zone on GRS80, in US
// survey feet.
type LambertConic struct {
	falseEasting  float64
	falseNorthing float64
	lon0          float64
	e             float64

	n    float64
	F    float64
	rho0 float64
}

// NewLambertConic takes the zone parameters in degrees and false
// easting/northing in US feet.
func NewLambertConic(phi0Deg, phi1Deg, phi2Deg, lon0Deg, falseEastingFt, falseNorthingFt float64) *LambertConic {
	phi0 := phi0Deg * math.Pi / 180
	phi1 := phi1Deg * math.Pi / 180
	phi2 := phi2Deg * math.Pi / 180
	e := math.Sqrt(e2)

	l := &LambertConic{
		falseEasting:  falseEastingFt,
		falseNorthing: falseNorthingFt,
		lon0:          lon0Deg * math.Pi / 180,
		e:             e,
	}

	m1 := l.m(phi1)
	m2 := l.m(phi2)
	t1 := l.t(phi1)
	t2 := l.t(phi2)
	t0 := l.t(phi0)

	l.n = math.Log(m1/m2) / math.Log(t1/t2)

	aFt := semiMajorM * ftPerMeter
	l.F = aFt * m1 / (l.n * math.Pow(t1, l.n))
	l.rho0 = l.F * math.Pow(t0, l.n)
	return l
}

// ARNorth is Arkansas North (EPSG:3433), where the Benton County layer lives.
func ARNorth() *LambertConic {
	return NewLambertConic(34.33333333333334, 34.93333333333333, 36.23333333333333, -92.0, 1312333.3333333333, 0)
}

// TXNorthCentral is Texas North Central (EPSG:2276).
func TXNorthCentral() *LambertConic {
	return NewLambertConic(31.66666666666667, 32.13333333333333, 33.96666666666667, -98.5, 1968500.0, 6561666.666666666)
}

// ProjectionFor maps a config projection name to its implementation.
func ProjectionFor(name string) (Projection, error) {
	switch name {
	case "", config.ProjectionNone:
		return Identity{}, nil
	case config.ProjectionARNorth:
		return ARNorth(), nil
	case config.ProjectionTXNorthCentral:
		return TXNorthCentral(), nil
	}
	return nil, fmt.Errorf("unknown projection %q", name)
}

func (l *LambertConic) m(phi float64) float64 {
	return math.Cos(phi) / math.Sqrt(1-e2*math.Sin(phi)*math.Sin(phi))
}

func (l *LambertConic) t(phi float64) float64 {
	es := l.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), l.e/2)
}

// Forward converts lat/lon in decimal degrees to (northing, easting) feet.
func (l *LambertConic) Forward(latDeg, lonDeg float64) (northingFt, eastingFt float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180

	rho := l.F * math.Pow(l.t(phi), l.n)
	theta := l.n * (lambda - l.lon0)

	eastingFt = rho*math.Sin(theta) + l.falseEasting
	northingFt = l.rho0 - rho*math.Cos(theta) + l.falseNorthing
	return
}

// ToLatLon is the inverse of Forward.
func (l *LambertConic) ToLatLon(northingFt, eastingFt float64) (latDeg, lonDeg float64) {
	x := eastingFt - l.falseEasting
	y := l.rho0 - (northingFt - l.falseNorthing)

	rho := math.Copysign(math.Hypot(x, y), l.n)
	theta := math.Atan2(x, y)
	if l.n < 0 {
		theta = math.Atan2(-x, -y)
	}
	t := math.Pow(rho/l.F, 1/l.n)

	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := l.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), l.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	latDeg = phi * 180 / math.Pi
	lonDeg = (theta/l.n + l.lon0) * 180 / math.Pi
	return
}
