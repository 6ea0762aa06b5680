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

package hrit

import (
	"image"
	"testing"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/metrics"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/raster"
	"github.com/meteosatlib/msat/core/reflectance"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	segmentReader
	reads map[int]int
}

func (r *countingReader) ReadSegment(seq int) (Header, []uint16, error) {
	r.reads[seq]++
	return r.segmentReader.ReadSegment(seq)
}

func importTestProduct(t *testing.T, product Product, channel string) (*satimage.Image, *ImageData) {
	root := t.TempDir()
	fs := &fileaccess.FSAccess{}
	key := testKey(channel)
	require.NoError(t, WriteProduct(fs, root, key, product))

	img, err := Import(fs, root, key, ImportOptions{})
	require.NoError(t, err)

	data, ok := img.Data.(*ImageData)
	require.True(t, ok)
	return img, data
}

func TestSegmentCacheBound(t *testing.T) {
	layout := smallLayout()
	layout.PlannedEnd = 4
	_, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, nil, 1, 2, 3, 4)}, "VIS006")

	counter := &countingReader{segmentReader: data.reader, reads: map[int]int{}}
	data.reader = counter

	readsBefore := testutil.ToFloat64(metrics.SegmentReads.WithLabelValues("VIS006"))
	evictionsBefore := testutil.ToFloat64(metrics.SegmentCacheEvictions.WithLabelValues("VIS006"))

	// One row of each of the first 3 segments
	assert.Equal(t, 100, data.Sample(0, 0))
	assert.Equal(t, 201, data.Sample(1, 2))
	assert.Equal(t, 306, data.Sample(2, 5))
	assert.Equal(t, []int{2, 1}, data.CachedSegments())

	// Hit moves it to the front
	assert.Equal(t, 200, data.Sample(0, 2))
	assert.Equal(t, []int{1, 2}, data.CachedSegments())
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, counter.reads)

	// Evicted one is read exactly once more
	assert.Equal(t, 103, data.Sample(3, 0))
	assert.Equal(t, 107, data.Sample(3, 1))
	assert.Equal(t, 102, data.Sample(2, 0))
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 1}, counter.reads)
	assert.Equal(t, []int{0, 1}, data.CachedSegments())

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.SegmentReads.WithLabelValues("VIS006"))-readsBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SegmentCacheEvictions.WithLabelValues("VIS006"))-evictionsBefore)
	assert.NoError(t, data.Err())
}

func TestMissingSegment(t *testing.T) {
	layout := smallLayout()
	layout.PlannedEnd = 3
	img, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, nil, 1, 3)}, "VIS006")

	columns, lines := img.Size()
	assert.Equal(t, 4, columns)
	assert.Equal(t, 6, lines)

	for y := 2; y < 4; y++ {
		for x := 0; x < columns; x++ {
			assert.Equal(t, 0, data.Sample(x, y))
			assert.Equal(t, satimage.DefaultMissingValue, data.Scaled(x, y))
		}
	}
	assert.Equal(t, 100, data.Sample(0, 0))
	assert.Equal(t, 305, data.Sample(1, 5))

	// Outside the image
	assert.Equal(t, 0, data.Sample(-1, 0))
	assert.Equal(t, 0, data.Sample(4, 0))
	assert.Equal(t, 0, data.Sample(0, 6))
	assert.NoError(t, data.Err())
}

func TestSwapAndCrop(t *testing.T) {
	layout := smallLayout()
	layout.CFAC = -13642337
	layout.LFAC = -13642337
	layout.COFF = 1
	layout.LOFF = 1
	img, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, nil, 1, 2)}, "VIS006")

	assert.True(t, data.SwapX)
	assert.True(t, data.SwapY)
	assert.Equal(t, 3, img.ColumnOffset)
	assert.Equal(t, 3, img.LineOffset)
	assert.Equal(t, facts.StdColumnRes, img.ColumnRes)

	assert.Equal(t, 207, data.Sample(0, 0))
	assert.Equal(t, 100, data.Sample(3, 3))
	assert.Equal(t, 104, data.Sample(3, 2))

	require.NoError(t, img.Crop(image.Rect(1, 1, 3, 3)))
	columns, lines := img.Size()
	assert.Equal(t, 2, columns)
	assert.Equal(t, 2, lines)
	assert.Equal(t, 1, img.X0)
	assert.Equal(t, 1, img.Y0)

	assert.Equal(t, 202, data.Sample(0, 0))
	assert.Equal(t, 105, data.Sample(1, 1))
	assert.Equal(t, 0, data.Sample(2, 0))
	assert.InDelta(t, 202*0.0201355-1.02691, data.Scaled(0, 0), 1e-5)

	// Crops stack
	require.NoError(t, data.Crop(image.Rect(1, 1, 2, 2)))
	assert.Equal(t, 105, data.Sample(0, 0))
	assert.Error(t, data.Crop(image.Rect(0, 0, 2, 2)))
}

func TestHRVStitching(t *testing.T) {
	layout := testSegmentLayout{ChannelID: facts.ChannelHRV, Columns: 4, Lines: 2, PlannedStart: 1, PlannedEnd: 3, CFAC: 40927014, LFAC: 40927014, COFF: 4, LOFF: 3}
	epi := testEpilogue()
	epi.HRVLowerCoverage = Coverage{SouthLine: 0, NorthLine: 2, EastColumn: 0, WestColumn: 3}
	epi.HRVUpperCoverage = Coverage{SouthLine: 3, NorthLine: 5, EastColumn: 3, WestColumn: 6}

	img, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: epi, Segments: testSegments(layout, nil, 1, 2, 3)}, "HRV")

	assert.True(t, data.HRV)
	columns, lines := img.Size()
	assert.Equal(t, 8, columns)
	assert.Equal(t, 6, lines)
	assert.Equal(t, 3, data.Frame.UpperSouthLineActual)
	assert.Equal(t, 3, data.Frame.UpperEastColumnActual)

	// Lower sub-frame, columns 0..3
	assert.Equal(t, 106, data.Sample(2, 1))
	assert.Equal(t, 0, data.Sample(5, 1))

	// Row 2 already reads from the upper sub-frame, one line before UpperSouthLineActual
	assert.Equal(t, 202, data.Sample(5, 2))
	assert.Equal(t, 0, data.Sample(1, 2))
	assert.Equal(t, 0, data.Sample(2, 2))

	// Column 5 is past the stitched width (8-3-1 = 4), rebased to 2
	assert.Equal(t, 307, data.Sample(6, 5))
	assert.Equal(t, 304, data.Sample(3, 5))
	assert.Equal(t, 0, data.Sample(7, 5))

	assert.Equal(t, []int{2, 1}, data.CachedSegments())
}

func TestCalibrationMissingPropagation(t *testing.T) {
	prologue := testPrologue()
	prologue.Calibration[facts.ChannelVIS006-1] = ChannelCalibration{Slope: 0.2, Offset: -1}
	prologue.Calibration[facts.ChannelIR108-1] = ChannelCalibration{Slope: 0.2, Offset: -1}

	// Segment 1 holds counts 0..7, segment 2 counts 40..47
	fill := func(seq int, i int) uint16 { return uint16((seq-1)*40 + i) }

	for _, channel := range []struct {
		name string
		id   int
	}{{"VIS006", facts.ChannelVIS006}, {"IR_108", facts.ChannelIR108}} {
		layout := smallLayout()
		layout.ChannelID = channel.id
		_, data := importTestProduct(t, Product{Prologue: prologue, Epilogue: testEpilogue(), Segments: testSegments(layout, fill, 1, 2)}, channel.name)

		missing := 0
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				raw := data.Sample(x, y)
				if raw <= 0 || data.calibration.Table[raw] < 0 {
					assert.Equal(t, data.Scaling().MissingValue, data.Scaled(x, y), "%v at %v,%v raw %v", channel.name, x, y, raw)
					missing++
				} else {
					assert.Equal(t, data.calibration.Table[raw], data.Scaled(x, y))
				}
			}
		}
		assert.Greater(t, missing, 0, channel.name)
		assert.Less(t, missing, 16, channel.name)
	}
}

func TestBuildCalibration(t *testing.T) {
	vis, err := BuildCalibration(facts.SpacecraftMSG1, facts.ChannelVIS006, 10, ChannelCalibration{Slope: 0.0201355, Offset: -1.02691})
	require.NoError(t, err)
	assert.Len(t, vis.Table, 1024)
	assert.True(t, vis.ScalesToInt)
	assert.Equal(t, 0.0201355, vis.Slope)
	assert.Equal(t, float32(-1), vis.Table[0])
	assert.Equal(t, float32(-1), vis.Table[50])
	assert.InDelta(t, 0.825556, vis.Table[92], 1e-6)

	ir, err := BuildCalibration(facts.SpacecraftMSG1, facts.ChannelIR108, 10, ChannelCalibration{Slope: 0.2, Offset: -10})
	require.NoError(t, err)
	assert.False(t, ir.ScalesToInt)
	assert.Equal(t, float32(-1), ir.Table[40])
	assert.InDelta(t, 286.0269, ir.Table[500], 1e-3)

	for channel := 1; channel <= facts.ChannelCount; channel++ {
		c, err := BuildCalibration(facts.SpacecraftMSG2, channel, 10, ChannelCalibration{Slope: 0.1, Offset: 0})
		require.NoError(t, err)
		assert.Less(t, c.Table[0], float32(0), "channel %v", channel)
		assert.Greater(t, c.Table[1023], float32(0), "channel %v", channel)
	}

	_, err = BuildCalibration(facts.SpacecraftMSG1, 13, 10, ChannelCalibration{Slope: 1})
	assert.Error(t, err)
	_, err = BuildCalibration(99, facts.ChannelIR108, 10, ChannelCalibration{Slope: 1})
	assert.Error(t, err)
	_, err = BuildCalibration(facts.SpacecraftMSG1, facts.ChannelIR108, 0, ChannelCalibration{Slope: 1})
	assert.Error(t, err)
}

// One full width VIS006 segment, imported end to end
func TestImportSingleSegment(t *testing.T) {
	layout := testSegmentLayout{ChannelID: facts.ChannelVIS006, Columns: 3712, Lines: 123, PlannedStart: 1, PlannedEnd: 1, CFAC: 13642337, LFAC: 13642337, COFF: 1856, LOFF: 1856}
	fill := func(seq int, i int) uint16 { return uint16((i*7 + 92) % 1024) }

	img, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, fill, 1)}, "VIS006")

	assert.Equal(t, facts.ChannelVIS006, img.ChannelID)
	assert.Equal(t, facts.SpacecraftMSG1, img.SpacecraftID)
	assert.True(t, time.Date(2006, 11, 14, 12, 0, 0, 0, time.UTC).Equal(img.Time))
	assert.Equal(t, projection.NewGeos(0), img.Proj)
	assert.Equal(t, facts.StdColumnRes, img.ColumnRes)
	assert.Equal(t, facts.StdLineRes, img.LineRes)
	assert.Equal(t, 1856, img.ColumnOffset)
	assert.Equal(t, 1856, img.LineOffset)
	assert.Equal(t, "Imported from HRIT H:MSG1:VIS006:200611141200", img.History)
	assert.Equal(t, "MSG1_VIS006_200611141200", img.DefaultFilename())

	columns, lines := img.Size()
	assert.Equal(t, 3712, columns)
	assert.Equal(t, 123, lines)

	scaling := img.Data.Scaling()
	assert.True(t, scaling.ScalesToInt)
	assert.Equal(t, 0.0201355, scaling.Slope)
	assert.Equal(t, -1.02691, scaling.Offset)
	assert.Equal(t, 10, scaling.Bpp)

	assert.Equal(t, 92, img.Data.Unscaled(0, 0))
	assert.Equal(t, data.calibration.Table[92], img.Data.Scaled(0, 0))
	assert.InDelta(t, 92*0.0201355-1.02691, img.Data.Scaled(0, 0), 1e-6)

	// Last sample of the segment
	assert.Equal(t, (456575*7+92)%1024, img.Data.Unscaled(3711, 122))

	digits, err := img.DecimalDigitsOfScaledValues()
	require.NoError(t, err)
	assert.Greater(t, digits, 0)
}

func TestImportUnknownChannel(t *testing.T) {
	layout := smallLayout()
	layout.ChannelID = 13
	root := t.TempDir()
	fs := &fileaccess.FSAccess{}
	key := testKey("VIS006")
	require.NoError(t, WriteProduct(fs, root, key, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, nil, 1, 2)}))

	_, err := Import(fs, root, key, ImportOptions{})
	assert.Error(t, err)
}

type failingReader struct {
	segmentReader
	failSeq int
}

func (r *failingReader) ReadSegment(seq int) (Header, []uint16, error) {
	if seq == r.failSeq {
		return Header{}, nil, ErrBinaryDataField
	}
	return r.segmentReader.ReadSegment(seq)
}

func TestSegmentReadFailure(t *testing.T) {
	layout := smallLayout()
	img, data := importTestProduct(t, Product{Prologue: testPrologue(), Epilogue: testEpilogue(), Segments: testSegments(layout, nil, 1, 2)}, "VIS006")
	data.reader = &failingReader{segmentReader: data.reader, failSeq: 2}

	assert.Equal(t, 100, data.Sample(0, 0))
	require.NoError(t, data.Err())
	require.NoError(t, satimage.ReadError(data))

	// Segment 2 fails: pixel comes back missing, and the failure sticks
	assert.Equal(t, 0, data.Sample(0, 2))
	assert.Equal(t, satimage.DefaultMissingValue, data.Scaled(0, 2))
	assert.Equal(t, ErrBinaryDataField, errors.Cause(data.Err()))
	assert.Equal(t, ErrBinaryDataField, errors.Cause(satimage.ReadError(img.Data)))
	assert.Equal(t, []int{0}, data.CachedSegments())

	assert.Equal(t, 101, data.Sample(1, 0))
	assert.Error(t, data.Err())

	_, err := img.Rescaled(2, 2)
	assert.Equal(t, ErrBinaryDataField, errors.Cause(err))
}

func TestUnscaledMissingFollowsCalibration(t *testing.T) {
	prologue := testPrologue()
	prologue.Calibration[facts.ChannelVIS006-1] = ChannelCalibration{Slope: 0.2, Offset: -1}

	// Counts 0..7 then 40..47, counts up to 5 calibrate to 0 or less
	fill := func(seq int, i int) uint16 { return uint16((seq-1)*40 + i) }
	img, data := importTestProduct(t, Product{Prologue: prologue, Epilogue: testEpilogue(), Segments: testSegments(smallLayout(), fill, 1, 2)}, "VIS006")
	require.True(t, data.Scaling().ScalesToInt)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if data.Scaled(x, y) == data.Scaling().MissingValue {
				assert.Equal(t, data.Scaling().MissingRaw, data.Unscaled(x, y), "%v,%v", x, y)
			} else {
				assert.Equal(t, data.Sample(x, y), data.Unscaled(x, y), "%v,%v", x, y)
			}
		}
	}
	assert.Equal(t, 1, data.Sample(1, 0))
	assert.Equal(t, 0, data.Unscaled(1, 0))
	assert.Equal(t, 0, data.Unscaled(1, 1))
	assert.Equal(t, 6, data.Unscaled(2, 1))

	rescaled, err := img.Rescaled(4, 4)
	require.NoError(t, err)
	assert.Equal(t, data.Scaling().MissingValue, rescaled.Data.Scaled(1, 0))
	assert.Equal(t, data.Scaling().MissingValue, rescaled.Data.Scaled(0, 0))
	assert.Equal(t, data.Scaling().MissingValue, rescaled.Data.Scaled(1, 1))
	assert.InDelta(t, 0.2, rescaled.Data.Scaled(2, 1), 1e-6)
	assert.InDelta(t, 41*0.2-1, rescaled.Data.Scaled(1, 2), 1e-5)
}

func TestReflectanceOfMissingCounts(t *testing.T) {
	prologue := testPrologue()
	prologue.Calibration[facts.ChannelVIS006-1] = ChannelCalibration{Slope: 0.2, Offset: -1}
	fill := func(seq int, i int) uint16 { return uint16((seq-1)*40 + i) }
	img, _ := importTestProduct(t, Product{Prologue: prologue, Epilogue: testEpilogue(), Segments: testSegments(smallLayout(), fill, 1, 2)}, "VIS006")

	refl := reflectance.NewDataset(img.ChannelID, &logger.NullLogger{})
	defer refl.Close()
	require.NoError(t, refl.AddSource(raster.NewImageDataset(img, "msat", "VIS006"), true))
	band, err := refl.InitRasterBand()
	require.NoError(t, err)

	buf := make([]float64, 16)
	require.NoError(t, band.ReadBlock(0, 0, 4, 4, buf))

	// Counts 1 and 5 calibrate to -0.8 and 0, count 41 to 7.2
	assert.Equal(t, float64(reflectance.NoData), buf[1])
	assert.Equal(t, float64(reflectance.NoData), buf[5])
	assert.NotEqual(t, float64(reflectance.NoData), buf[9])
	assert.GreaterOrEqual(t, buf[9], 0.0)
}
