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

package reflectance

import (
	"math"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/raster"
	"github.com/pkg/errors"
)

// Value of derived samples we have no source data for
const NoData = -1

var cos80 = math.Cos(80 * math.Pi / 180)

// derivedBand - what all the computed bands share. They hold physical values, so scale is 1
type derivedBand struct {
	columns int
	lines   int
	meta    map[string]string
}

func newDerivedBand(src raster.Band) derivedBand {
	columns, lines := src.Size()
	return derivedBand{columns: columns, lines: lines, meta: map[string]string{}}
}

func (b *derivedBand) Size() (int, int) {
	return b.columns, b.lines
}

func (b *derivedBand) Scale() float64 {
	return 1
}

func (b *derivedBand) Offset() float64 {
	return 0
}

func (b *derivedBand) NoDataValue() (float64, bool) {
	return NoData, true
}

func (b *derivedBand) Metadata() map[string]string {
	return b.meta
}

func (b *derivedBand) SetMetadataItem(key string, value string) {
	b.meta[key] = value
}

// timeOfDay - day of year and fractional UTC hour
func timeOfDay(t time.Time) (int, float64) {
	t = t.UTC()
	jday := facts.JDay(t.Year(), int(t.Month()), t.Day())
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return jday, hour
}

// SingleChannelReflectanceBand - reflectance (%) of a solar channel:
// 100 * radiance / tr / max(cos(solar zenith), cos(80)), tr being the solar constant of the
// channel corrected for the earth-sun distance
type SingleChannelReflectanceBand struct {
	derivedBand
	src         raster.Band
	pixToLatlon *raster.PixelToLatlon
	jday        int
	hour        float64
	tr          float64
	scale       float64
	offset      float64
}

func NewSingleChannelReflectanceBand(channelID int, src raster.Band, pixToLatlon *raster.PixelToLatlon, t time.Time) (*SingleChannelReflectanceBand, error) {
	solarConstant, err := facts.SolarConstant(channelID)
	if err != nil {
		return nil, err
	}

	jday, hour := timeOfDay(t)
	esd := facts.EarthSunDistanceFactor(jday)

	return &SingleChannelReflectanceBand{
		derivedBand: newDerivedBand(src),
		src:         src,
		pixToLatlon: pixToLatlon,
		jday:        jday,
		hour:        hour,
		tr:          solarConstant / (esd * esd),
		scale:       src.Scale(),
		offset:      src.Offset(),
	}, nil
}

// Reflectance - of a radiance with the sun at the given zenith cosine, clamped to [0, 100]
func (b *SingleChannelReflectanceBand) Reflectance(radiance float64, cosSolZA float64) float64 {
	return clampReflectance(100 * radiance / b.tr / math.Max(cosSolZA, cos80))
}

func (b *SingleChannelReflectanceBand) ReadBlock(x int, y int, w int, h int, buf []float64) error {
	if err := raster.CheckBlock(b.columns, b.lines, x, y, w, h, buf); err != nil {
		return err
	}
	if err := b.src.ReadBlock(x, y, w, h, buf); err != nil {
		return errors.Wrap(err, "reading reflectance source")
	}

	srcNoData, hasNoData := b.src.NoDataValue()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			if hasNoData && buf[i] == srcNoData {
				buf[i] = NoData
				continue
			}

			pt := b.pixToLatlon.Convert(float64(x+col), float64(y+row))
			radiance := buf[i]*b.scale + b.offset
			buf[i] = b.Reflectance(radiance, facts.CosSolZA(b.jday, b.hour, pt.Lat, pt.Lon))
		}
	}
	return nil
}

// geometryBand - band whose value only depends on where and when a pixel was taken
type geometryBand struct {
	derivedBand
	src         raster.Band
	pixToLatlon *raster.PixelToLatlon
	sublon      float64
	jday        int
	hour        float64
	value       func(b *geometryBand, pt projection.MapPoint) float64
}

func newGeometryBand(ds raster.Dataset, value func(b *geometryBand, pt projection.MapPoint) float64) (*geometryBand, error) {
	bands := ds.Bands()
	if len(bands) <= 0 {
		return nil, errors.New("dataset has no bands")
	}

	t, err := raster.DatasetTime(ds)
	if err != nil {
		return nil, err
	}
	pixToLatlon, err := raster.NewPixelToLatlon(ds)
	if err != nil {
		return nil, err
	}

	sublon := facts.DefaultSubLon
	if proj, err := projection.Parse(ds.ProjectionRef()); err == nil {
		if g, ok := proj.(projection.Geos); ok {
			sublon = g.SubLon
		}
	}

	jday, hour := timeOfDay(t)
	return &geometryBand{
		derivedBand: newDerivedBand(bands[0]),
		src:         bands[0],
		pixToLatlon: pixToLatlon,
		sublon:      sublon,
		jday:        jday,
		hour:        hour,
		value:       value,
	}, nil
}

// ReadBlock - pixels with no data in the source band get no data here too
func (b *geometryBand) ReadBlock(x int, y int, w int, h int, buf []float64) error {
	if err := raster.CheckBlock(b.columns, b.lines, x, y, w, h, buf); err != nil {
		return err
	}
	if err := b.src.ReadBlock(x, y, w, h, buf); err != nil {
		return err
	}

	srcNoData, hasNoData := b.src.NoDataValue()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			if hasNoData && buf[i] == srcNoData {
				buf[i] = NoData
				continue
			}
			buf[i] = b.value(b, b.pixToLatlon.Convert(float64(x+col), float64(y+row)))
		}
	}
	return nil
}

// SatZABand - satellite zenith angle, degrees
type SatZABand struct {
	*geometryBand
}

func NewSatZABand(ds raster.Dataset) (*SatZABand, error) {
	b, err := newGeometryBand(ds, func(b *geometryBand, pt projection.MapPoint) float64 {
		return normalize(facts.SatZAWithSublon(pt.Lat, pt.Lon, b.sublon)*180/math.Pi, 0, 90)
	})
	if err != nil {
		return nil, err
	}
	b.meta[raster.MetaProduct] = "SatZA"
	return &SatZABand{b}, nil
}

// CosSolZABand - cosine of the solar zenith angle
type CosSolZABand struct {
	*geometryBand
}

func NewCosSolZABand(ds raster.Dataset) (*CosSolZABand, error) {
	b, err := newGeometryBand(ds, func(b *geometryBand, pt projection.MapPoint) float64 {
		return normalize(facts.CosSolZA(b.jday, b.hour, pt.Lat, pt.Lon), -1, 1)
	})
	if err != nil {
		return nil, err
	}
	b.meta[raster.MetaProduct] = "CosSolZA"
	return &CosSolZABand{b}, nil
}

// JDayBand - day of the year the image was taken, for every pixel with data
type JDayBand struct {
	*geometryBand
}

func NewJDayBand(ds raster.Dataset) (*JDayBand, error) {
	b, err := newGeometryBand(ds, func(b *geometryBand, pt projection.MapPoint) float64 {
		return normalize(float64(b.jday), 1, 366)
	})
	if err != nil {
		return nil, err
	}
	b.meta[raster.MetaProduct] = "JDay"
	return &JDayBand{b}, nil
}
