// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Projections images can be in. Only the normalised geostationary view and plate carrée are
// computed here, anything else is carried around as an opaque WKT string.
package projection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/pkg/errors"
)

var ErrUnsupportedProjection = errors.New("unsupported projection")

// MapPoint - geodetic coordinates, degrees
type MapPoint struct {
	Lat float64
	Lon float64
}

// ProjectedPoint - coordinates on the projection plane. Degrees of scan angle for Geos (Y
// positive to the north), degrees of longitude/latitude for Latlon
type ProjectedPoint struct {
	X float64
	Y float64
}

// Projection is one of Geos, Latlon or ExternalWKT
type Projection interface {
	projection()
}

// Transformer - projections we can compute points for
type Transformer interface {
	MapToProjected(pt MapPoint) ProjectedPoint
	ProjectedToMap(pt ProjectedPoint) MapPoint
}

// Geos - normalised geostationary projection (CGMS 03 LRIT/HRIT Global Specification, section 4.4)
type Geos struct {
	SubLon      float64 // degrees
	OrbitRadius float64 // km from earth centre
}

// Latlon - plate carrée
type Latlon struct {
}

// ExternalWKT - a projection we only know by its description
type ExternalWKT struct {
	WKT string
}

func (Geos) projection()        {}
func (Latlon) projection()      {}
func (ExternalWKT) projection() {}

func NewGeos(sublon float64) Geos {
	return Geos{SubLon: sublon, OrbitRadius: facts.OrbitRadius}
}

const degToRad = math.Pi / 180
const radToDeg = 180 / math.Pi

// (polar radius / equatorial radius)^2
var polarRatio2 = (facts.PolarRadius * facts.PolarRadius) / (facts.EarthRadius * facts.EarthRadius)

// (equatorial radius / polar radius)^2
var equatorialRatio2 = (facts.EarthRadius * facts.EarthRadius) / (facts.PolarRadius * facts.PolarRadius)

// first eccentricity squared
var eccentricity2 = (facts.EarthRadius*facts.EarthRadius - facts.PolarRadius*facts.PolarRadius) / (facts.EarthRadius * facts.EarthRadius)

func (g Geos) MapToProjected(pt MapPoint) ProjectedPoint {
	lat := pt.Lat * degToRad
	dlon := (pt.Lon - g.SubLon) * degToRad

	// geocentric latitude
	cLat := math.Atan(polarRatio2 * math.Tan(lat))
	cosCLat := math.Cos(cLat)

	rl := facts.PolarRadius / math.Sqrt(1-eccentricity2*cosCLat*cosCLat)

	r1 := g.OrbitRadius - rl*cosCLat*math.Cos(dlon)
	r2 := -rl * cosCLat * math.Sin(dlon)
	r3 := rl * math.Sin(cLat)
	rn := math.Sqrt(r1*r1 + r2*r2 + r3*r3)

	return ProjectedPoint{
		X: math.Atan(-r2/r1) * radToDeg,
		Y: math.Asin(r3/rn) * radToDeg,
	}
}

// ProjectedToMap - points that don't see the earth come back as NaN
func (g Geos) ProjectedToMap(pt ProjectedPoint) MapPoint {
	x := pt.X * degToRad
	y := pt.Y * degToRad

	cosX := math.Cos(x)
	cosY := math.Cos(y)
	sinY := math.Sin(y)

	h := g.OrbitRadius
	q := cosY*cosY + equatorialRatio2*sinY*sinY

	sa := (h*cosX*cosY)*(h*cosX*cosY) - q*(h*h-facts.EarthRadius*facts.EarthRadius)
	if sa < 0 {
		return MapPoint{Lat: math.NaN(), Lon: math.NaN()}
	}

	sd := math.Sqrt(sa)
	sn := (h*cosX*cosY - sd) / q

	s1 := h - sn*cosX*cosY
	s2 := sn * math.Sin(x) * cosY
	s3 := sn * sinY
	sxy := math.Sqrt(s1*s1 + s2*s2)

	return MapPoint{
		Lat: math.Atan(equatorialRatio2*s3/sxy) * radToDeg,
		Lon: math.Atan(s2/s1)*radToDeg + g.SubLon,
	}
}

func (Latlon) MapToProjected(pt MapPoint) ProjectedPoint {
	return ProjectedPoint{X: pt.Lon, Y: pt.Lat}
}

func (Latlon) ProjectedToMap(pt ProjectedPoint) MapPoint {
	return MapPoint{Lat: pt.Y, Lon: pt.X}
}

func transformer(p Projection) (Transformer, error) {
	switch proj := p.(type) {
	case Geos:
		return proj, nil
	case *Geos:
		return *proj, nil
	case Latlon:
		return proj, nil
	case *Latlon:
		return *proj, nil
	case ExternalWKT:
		return nil, errors.Wrapf(ErrUnsupportedProjection, "cannot transform points in %v", proj.WKT)
	case *ExternalWKT:
		return nil, errors.Wrapf(ErrUnsupportedProjection, "cannot transform points in %v", proj.WKT)
	}
	return nil, ErrUnsupportedProjection
}

// ToProjected - MapToProjected for any projection, failing for ones we can't compute
func ToProjected(p Projection, pt MapPoint) (ProjectedPoint, error) {
	t, err := transformer(p)
	if err != nil {
		return ProjectedPoint{}, err
	}
	return t.MapToProjected(pt), nil
}

// ToMap - ProjectedToMap for any projection, failing for ones we can't compute
func ToMap(p Projection, pt ProjectedPoint) (MapPoint, error) {
	t, err := transformer(p)
	if err != nil {
		return MapPoint{}, err
	}
	return t.ProjectedToMap(pt), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Format - PROJ.4 style reference string for Geos and Latlon, the WKT itself otherwise
func Format(p Projection) string {
	switch proj := p.(type) {
	case Geos:
		return fmt.Sprintf("+proj=geos +lon_0=%v +h=%v +a=%v +b=%v +units=m +no_defs",
			formatFloat(proj.SubLon),
			formatFloat((proj.OrbitRadius-facts.EarthRadius)*1000),
			formatFloat(facts.EarthRadius*1000),
			formatFloat(facts.PolarRadius*1000),
		)
	case *Geos:
		return Format(*proj)
	case Latlon, *Latlon:
		return "+proj=longlat +datum=WGS84 +no_defs"
	case ExternalWKT:
		return proj.WKT
	case *ExternalWKT:
		return proj.WKT
	}
	return ""
}

// Parse - reads what Format wrote. Anything not in PROJ.4 form is kept as ExternalWKT
func Parse(ref string) (Projection, error) {
	ref = strings.TrimSpace(ref)
	if len(ref) <= 0 {
		return nil, errors.Wrap(ErrUnsupportedProjection, "empty projection reference")
	}

	if !strings.HasPrefix(ref, "+") {
		return ExternalWKT{WKT: ref}, nil
	}

	params := map[string]string{}
	for _, tok := range strings.Fields(ref) {
		tok = strings.TrimPrefix(tok, "+")
		key, value, _ := strings.Cut(tok, "=")
		params[key] = value
	}

	switch params["proj"] {
	case "geos":
		g := NewGeos(0)
		if v, ok := params["lon_0"]; ok {
			lon, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad lon_0 in %v", ref)
			}
			g.SubLon = lon
		}
		if v, ok := params["h"]; ok {
			h, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad h in %v", ref)
			}
			a := facts.EarthRadius * 1000
			if av, ok := params["a"]; ok {
				if a, err = strconv.ParseFloat(av, 64); err != nil {
					return nil, errors.Wrapf(err, "bad a in %v", ref)
				}
			}
			g.OrbitRadius = (h + a) / 1000
		}
		return g, nil
	case "longlat", "latlong", "lonlat", "latlon":
		return Latlon{}, nil
	}

	return nil, errors.Wrapf(ErrUnsupportedProjection, "projection: %v", params["proj"])
}
