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

package raster

import (
	"math"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/pkg/errors"
)

// PixelToLatlon - locates pixels of a dataset on the earth, from its projection and geotransform
type PixelToLatlon struct {
	proj projection.Projection
	gt   [6]float64

	// Geostationary only: pixels per degree of scan angle
	columnRes float64
	lineRes   float64
}

func NewPixelToLatlon(ds Dataset) (*PixelToLatlon, error) {
	proj, err := projection.Parse(ds.ProjectionRef())
	if err != nil {
		return nil, err
	}

	gt := ds.GeoTransform()
	if gt[1] == 0 || gt[5] == 0 {
		return nil, errors.Errorf("degenerate geotransform %v", gt)
	}

	result := &PixelToLatlon{proj: proj, gt: gt}

	switch proj.(type) {
	case projection.Geos:
		// Geotransform steps are ground pixel sizes in metres
		result.columnRes = facts.CFACFromPixelHSize(math.Abs(gt[1]))
		result.lineRes = facts.LFACFromPixelVSize(math.Abs(gt[5]))
	case projection.Latlon:
	default:
		return nil, errors.Wrapf(projection.ErrUnsupportedProjection, "cannot locate pixels in %v", ds.ProjectionRef())
	}
	return result, nil
}

// Projected - projected coordinates of a (possibly fractional) pixel position
func (p *PixelToLatlon) Projected(x float64, y float64) projection.ProjectedPoint {
	if _, ok := p.proj.(projection.Geos); ok {
		return projection.ProjectedPoint{
			X: (p.gt[0]/p.gt[1] + x) / p.columnRes,
			Y: (p.gt[3]/-p.gt[5] - y) / p.lineRes,
		}
	}
	return projection.ProjectedPoint{
		X: p.gt[0] + x*p.gt[1],
		Y: p.gt[3] + y*p.gt[5],
	}
}

// Convert - location of a pixel. Latitude and longitude are NaN for pixels off the earth disc
func (p *PixelToLatlon) Convert(x float64, y float64) projection.MapPoint {
	pt, _ := projection.ToMap(p.proj, p.Projected(x, y))
	return pt
}
