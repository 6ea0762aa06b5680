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

// Fixed facts about MSG/SEVIRI: orbit and earth constants, scan-angle encodings, channel and
// spacecraft tables, and the closed-form sun/satellite geometry used by derived bands.
package facts

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// Distance from earth centre to satellite, km
	OrbitRadius = 42164.0
	// Equatorial and polar earth radius used by the normalised geostationary projection, km
	EarthRadius = 6378.169
	PolarRadius = 6356.5838

	// Height of the satellite above the equator, km
	SatelliteHeight = OrbitRadius - EarthRadius

	// Column/line scaling factors of the standard and HRV grids, in pixels per degree of scan angle
	StdColumnRes = 13642337.0 / 65536.0
	StdLineRes   = 13642337.0 / 65536.0
	HRVColumnRes = 40927014.0 / 65536.0
	HRVLineRes   = 40927014.0 / 65536.0

	// Ground pixel size at the sub-satellite point of the standard and HRV grids, metres
	StdPixelSize = 3000.4031658172607
	HRVPixelSize = 1000.1343886

	// Sub-satellite longitude MSG satellites are nominally parked at, degrees
	DefaultSubLon = 0.0
)

var ErrUnknownChannel = errors.New("unknown channel")
var ErrUnknownSpacecraft = errors.New("unknown spacecraft")

// Tolerance used to recognise the standard grids in the scan-angle conversions
const gridMatchEpsilon = 0.001

func pixelSizeFromScale(res float64, std float64, stdSize float64, hrv float64, hrvSize float64) float64 {
	if math.Abs(res-std) < gridMatchEpsilon {
		return stdSize
	}
	if math.Abs(res-hrv) < gridMatchEpsilon {
		return hrvSize
	}
	return SatelliteHeight * math.Tan(math.Pi/180/res) * 1000
}

func scaleFromPixelSize(size float64, std float64, stdSize float64, hrv float64, hrvSize float64) float64 {
	if math.Abs(size-stdSize) < gridMatchEpsilon {
		return std
	}
	if math.Abs(size-hrvSize) < gridMatchEpsilon {
		return hrv
	}
	return math.Pi / math.Atan(size/(SatelliteHeight*1000)) / 180
}

// PixelHSizeFromCFAC - horizontal ground pixel size in metres for a column scaling factor
// (CFAC * 2^-16, pixels per degree)
func PixelHSizeFromCFAC(cfac float64) float64 {
	return pixelSizeFromScale(cfac, StdColumnRes, StdPixelSize, HRVColumnRes, HRVPixelSize)
}

// CFACFromPixelHSize - inverse of PixelHSizeFromCFAC
func CFACFromPixelHSize(size float64) float64 {
	return scaleFromPixelSize(size, StdColumnRes, StdPixelSize, HRVColumnRes, HRVPixelSize)
}

// PixelVSizeFromLFAC - vertical ground pixel size in metres for a line scaling factor
func PixelVSizeFromLFAC(lfac float64) float64 {
	return pixelSizeFromScale(lfac, StdLineRes, StdPixelSize, HRVLineRes, HRVPixelSize)
}

// LFACFromPixelVSize - inverse of PixelVSizeFromLFAC
func LFACFromPixelVSize(size float64) float64 {
	return scaleFromPixelSize(size, StdLineRes, StdPixelSize, HRVLineRes, HRVPixelSize)
}

// SEVIRI "DX/DY" is the number of pixels across the earth disc for a given resolution.
// Going from resolution to DX rounds, so the way back is only exact for the two grids we know.

func earthDiscAngle() float64 {
	return math.Asin(EarthRadius / OrbitRadius)
}

func SeviriDXFromColumnRes(res float64) int {
	return int(math.Round(earthDiscAngle() * res * 360 / math.Pi))
}

func SeviriDYFromLineRes(res float64) int {
	return int(math.Round(earthDiscAngle() * res * 360 / math.Pi))
}

func ColumnResFromSeviriDX(dx int) float64 {
	if dx == SeviriDXFromColumnRes(StdColumnRes) {
		return StdColumnRes
	}
	if dx == SeviriDXFromColumnRes(HRVColumnRes) {
		return HRVColumnRes
	}
	return float64(dx) * math.Pi / (360 * earthDiscAngle())
}

func LineResFromSeviriDY(dy int) float64 {
	if dy == SeviriDYFromLineRes(StdLineRes) {
		return StdLineRes
	}
	if dy == SeviriDYFromLineRes(HRVLineRes) {
		return HRVLineRes
	}
	return float64(dy) * math.Pi / (360 * earthDiscAngle())
}
