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
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/raster"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One pixel plate carrée dataset at lat 0 and the given longitude
func makeSource(channelID int, lon float64, raw float64, scale float64, offset float64) *raster.MemDataset {
	band := raster.NewMemBand(1, 1)
	band.Data[0] = raw
	band.ScaleValue = scale
	band.OffsetValue = offset
	band.SetMetadataItem(raster.MetaChannelID, fmt.Sprintf("%v", channelID))

	return &raster.MemDataset{
		Columns:   1,
		Lines:     1,
		ProjRef:   projection.Format(projection.Latlon{}),
		Transform: [6]float64{lon, 0.01, 0, 0, 0, -0.01},
		Meta:      map[string]string{raster.MetaDatetime: "2006-10-30 12:00:00"},
		BandList:  []raster.Band{band},
	}
}

// Longitude on the equator where the solar zenith cosine is 0.5 on day 303 at 12:00 UTC
func lonWithCosSolZAHalf(t *testing.T) float64 {
	lo, hi := 10.0, 89.0
	require.Greater(t, facts.CosSolZA(303, 12, 0, lo), 0.5)
	require.Less(t, facts.CosSolZA(303, 12, 0, hi), 0.5)

	for c := 0; c < 100; c++ {
		mid := (lo + hi) / 2
		if facts.CosSolZA(303, 12, 0, mid) > 0.5 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func TestReflectanceVIS006(t *testing.T) {
	lon := lonWithCosSolZAHalf(t)
	require.InDelta(t, 0.5, facts.CosSolZA(303, 12, 0, lon), 1e-9)
	require.Equal(t, 303, facts.JDay(2006, 10, 30))

	d := NewDataset(facts.ChannelVIS006, &logger.NullLogger{})
	require.NoError(t, d.AddSource(makeSource(facts.ChannelVIS006, lon, 92, 0.0201355, -1.02691), true))

	band, err := d.InitRasterBand()
	require.NoError(t, err)

	buf := make([]float64, 1)
	require.NoError(t, band.ReadBlock(0, 0, 1, 1, buf))

	esd := 1 - 0.0167*math.Cos(2*math.Pi*(303-3)/365)
	expected := 100 * (92*0.0201355 - 1.02691) / (20.76 / (esd * esd)) / 0.5
	assert.InEpsilon(t, expected, buf[0], 0.001)

	assert.Equal(t, "VIS006", band.Metadata()[raster.MetaChannel])
	assert.Equal(t, 1, raster.ChannelID(band))
	assert.Equal(t, 1.0, band.Scale())
	assert.Equal(t, 0.0, band.Offset())

	_, err = d.InitRasterBand()
	assert.Equal(t, ErrAlreadyInitialised, err)
	assert.NoError(t, d.Close())
}

func TestReflectanceClamping(t *testing.T) {
	lon := lonWithCosSolZAHalf(t)
	d := NewDataset(facts.ChannelVIS008, nil)
	require.NoError(t, d.AddSource(makeSource(facts.ChannelVIS008, lon, 1, 1, 0), false))
	band, err := d.InitRasterBand()
	require.NoError(t, err)
	refl := band.(*SingleChannelReflectanceBand)

	assert.Equal(t, 0.0, refl.Reflectance(-5, 0.5))
	assert.Equal(t, 100.0, refl.Reflectance(1000, 0.5))
	assert.Equal(t, 100.0, refl.Reflectance(math.Inf(1), 0.5))
	assert.Equal(t, 0.0, refl.Reflectance(math.NaN(), 0.5))
	assert.Equal(t, 0.0, refl.Reflectance(0, 0.5))
	// Sun below the horizon uses the cos(80) floor
	assert.InDelta(t, 100*1/refl.tr/math.Cos(80*math.Pi/180), refl.Reflectance(1, 0), 1e-9)
	assert.InDelta(t, 100*1/refl.tr/math.Cos(80*math.Pi/180), refl.Reflectance(1, -0.3), 1e-9)
	// No cos(80) floor to save a NaN
	assert.Equal(t, 0.0, refl.Reflectance(1, math.NaN()))

	assert.Equal(t, 0.0, normalize(math.SmallestNonzeroFloat64, 0, 100))
	assert.Equal(t, 0.0, normalize(-math.SmallestNonzeroFloat64, -1, 1))
	assert.Equal(t, -1.0, normalize(math.Inf(-1), -1, 1))
	assert.Equal(t, 0.25, normalize(0.25, -1, 1))
	assert.Equal(t, 100.0, clampReflectance(250))
	assert.Equal(t, 0.0, clampReflectance(-1e-3))
}

func TestReflectanceChannels(t *testing.T) {
	for _, channel := range []int{facts.ChannelVIS006, facts.ChannelVIS008, facts.ChannelIR016, facts.ChannelHRV} {
		d := NewDataset(channel, nil)
		require.NoError(t, d.AddSource(makeSource(channel, 20, 100, 0.02, -1), false))
		_, err := d.InitRasterBand()
		assert.NoError(t, err, "channel %v", channel)
	}

	d := NewDataset(facts.ChannelIR039, nil)
	require.NoError(t, d.AddSource(makeSource(facts.ChannelIR039, 20, 100, 0.02, -1), false))
	_, err := d.InitRasterBand()
	assert.Equal(t, ErrNotImplemented, errors.Cause(err))

	for _, channel := range []int{facts.ChannelWV062, facts.ChannelIR108, facts.ChannelIR134} {
		d = NewDataset(channel, nil)
		require.NoError(t, d.AddSource(makeSource(channel, 20, 100, 0.02, -1), false))
		_, err = d.InitRasterBand()
		assert.Equal(t, ErrNotComputable, errors.Cause(err), "channel %v", channel)
	}

	// Source of another channel only
	d = NewDataset(facts.ChannelVIS008, nil)
	require.NoError(t, d.AddSource(makeSource(facts.ChannelVIS006, 20, 100, 0.02, -1), false))
	_, err = d.InitRasterBand()
	assert.Equal(t, ErrMissingSource, errors.Cause(err))
}

func TestAddSourceConsistency(t *testing.T) {
	d := NewDataset(facts.ChannelVIS006, nil)
	first := makeSource(facts.ChannelVIS006, 20, 100, 0.02, -1)
	require.NoError(t, d.AddSource(first, true))

	other := makeSource(facts.ChannelVIS008, 20.5, 100, 0.02, -1)
	assert.Equal(t, ErrInconsistentSource, errors.Cause(d.AddSource(other, true)))

	other = makeSource(facts.ChannelVIS008, 20, 100, 0.02, -1)
	other.Meta[raster.MetaDatetime] = "2006-10-30 12:15:00"
	assert.Equal(t, ErrInconsistentSource, errors.Cause(d.AddSource(other, true)))

	other = makeSource(facts.ChannelVIS008, 20, 100, 0.02, -1)
	other.ProjRef = projection.Format(projection.NewGeos(0))
	assert.Equal(t, ErrInconsistentSource, errors.Cause(d.AddSource(other, true)))

	other = makeSource(facts.ChannelVIS008, 20, 100, 0.02, -1)
	other.Columns = 2
	assert.Equal(t, ErrInconsistentSource, errors.Cause(d.AddSource(other, true)))

	// Matches: VIS008 is claimed, the second VIS006 isn't
	borrowed := makeSource(facts.ChannelVIS008, 20, 100, 0.02, -1)
	borrowed.BandList = append(borrowed.BandList, makeSource(facts.ChannelVIS006, 20, 50, 0.02, -1).BandList[0])
	require.NoError(t, d.AddSource(borrowed, false))
	assert.Equal(t, borrowed.BandList[0], d.sources[facts.ChannelVIS008-1])
	assert.Equal(t, first.BandList[0], d.sources[facts.ChannelVIS006-1])

	// Missing time
	noTime := makeSource(facts.ChannelVIS008, 20, 100, 0.02, -1)
	delete(noTime.Meta, raster.MetaDatetime)
	assert.Error(t, d.AddSource(noTime, false))

	// Only what we own gets closed
	require.NoError(t, d.Close())
	assert.True(t, first.Closed)
	assert.False(t, borrowed.Closed)
	assert.NoError(t, borrowed.Close())
}

func makeGeosImage() *satimage.Image {
	data := satimage.NewPixelImageData[uint16](3, 3, false, satimage.Scaling{Slope: 0.02, Offset: -1, MissingValue: satimage.DefaultMissingValue, MissingRaw: 0, ScalesToInt: true, Bpp: 10})
	for c := range data.Pixels {
		data.Pixels[c] = uint16(100 + c)
	}
	data.Pixels[8] = 0

	// Pixel 1,1 is the sub-satellite point
	return &satimage.Image{
		Time:         time.Date(2006, 10, 30, 12, 0, 0, 0, time.UTC),
		ChannelID:    facts.ChannelVIS006,
		SpacecraftID: facts.SpacecraftMSG1,
		Proj:         projection.NewGeos(0),
		ColumnRes:    facts.StdColumnRes,
		LineRes:      facts.StdLineRes,
		ColumnOffset: 1856,
		LineOffset:   1856,
		X0:           1855,
		Y0:           1855,
		Data:         data,
	}
}

func TestGeometryBands(t *testing.T) {
	img := makeGeosImage()
	ds := raster.NewImageDataset(img, "", "")
	buf := make([]float64, 9)

	satza, err := NewSatZABand(ds)
	require.NoError(t, err)
	require.NoError(t, satza.ReadBlock(0, 0, 3, 3, buf))
	assert.Equal(t, 0.0, buf[4])
	assert.Greater(t, buf[0], 0.0)
	assert.Less(t, buf[0], 0.1)
	assert.Equal(t, float64(NoData), buf[8])
	assert.Equal(t, "SatZA", satza.Metadata()[raster.MetaProduct])

	cossolza, err := NewCosSolZABand(ds)
	require.NoError(t, err)
	require.NoError(t, cossolza.ReadBlock(0, 0, 3, 3, buf))
	pt, err := img.PixelsToCoords(1, 1)
	require.NoError(t, err)
	assert.InDelta(t, facts.CosSolZA(303, 12, pt.Lat, pt.Lon), buf[4], 1e-6)
	assert.Greater(t, buf[4], 0.5)
	assert.Equal(t, float64(NoData), buf[8])

	jday, err := NewJDayBand(ds)
	require.NoError(t, err)
	require.NoError(t, jday.ReadBlock(1, 1, 2, 2, buf))
	assert.Equal(t, []float64{303, 303, 303, NoData}, buf[0:4])

	assert.Error(t, jday.ReadBlock(2, 2, 2, 2, buf))

	_, err = NewJDayBand(&raster.MemDataset{})
	assert.Error(t, err)
}

func TestToImage(t *testing.T) {
	img := makeGeosImage()
	ds := raster.NewImageDataset(img, "", "")

	d := NewDataset(facts.ChannelVIS006, nil)
	require.NoError(t, d.AddSource(ds, false))
	band, err := d.InitRasterBand()
	require.NoError(t, err)

	out, err := ToImage(band, img, "Computed reflectance")
	require.NoError(t, err)

	columns, lines := out.Size()
	assert.Equal(t, 3, columns)
	assert.Equal(t, 3, lines)
	assert.Equal(t, img.X0, out.X0)
	assert.Equal(t, img.Time, out.Time)
	assert.False(t, out.Data.Scaling().ScalesToInt)
	assert.Equal(t, float32(NoData), out.Data.Scaled(2, 2))

	v := out.Data.Scaled(1, 1)
	assert.Greater(t, v, float32(0))
	assert.LessOrEqual(t, v, float32(100))

	// Template untouched
	assert.Equal(t, "", img.History)
	assert.Equal(t, "Computed reflectance", out.History)
	_, isPixels := img.Data.(*satimage.PixelImageData[uint16])
	assert.True(t, isPixels)
}
