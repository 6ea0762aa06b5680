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
	"fmt"
	"testing"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentHeaderRoundTrip(t *testing.T) {
	spec := SegmentSpec{
		SpacecraftID:        321,
		ChannelID:           facts.ChannelIR108,
		SeqNo:               3,
		PlannedStartSegment: 1,
		PlannedEndSegment:   8,
		BitsPerPixel:        10,
		Columns:             4,
		Lines:               2,
		SubLon:              9.5,
		CFAC:                -13642337,
		LFAC:                -13642337,
		COFF:                1856,
		LOFF:                1856,
		Time:                testRepeatCycleStart,
		Annotation:          "H-000-MSG1__-MSG1________-IR_108___-000003___-200611141200-__",
	}

	data, err := EncodeSegment(spec, []uint16{1, 2, 3, 4, 1020, 1021, 1022, 1023})
	require.NoError(t, err)

	headerLength, err := ReadHeaderLength(data[0:PrimaryHeaderLength])
	require.NoError(t, err)

	h, err := ParseHeader(data)
	require.NoError(t, err)

	assert.Equal(t, headerLength, h.HeaderLength)
	assert.Equal(t, FileTypeImage, h.FileType)
	assert.Equal(t, uint64(80), h.DataFieldBits)
	assert.Equal(t, 10, h.BitsPerPixel)
	assert.Equal(t, 4, h.Columns)
	assert.Equal(t, 2, h.Lines)
	assert.False(t, h.Compressed)
	assert.Equal(t, "GEOS(+009.5)", h.ProjectionName)
	assert.Equal(t, -13642337, h.CFAC)
	assert.Equal(t, -13642337, h.LFAC)
	assert.Equal(t, 1856, h.COFF)
	assert.Equal(t, 1856, h.LOFF)
	assert.Equal(t, spec.Annotation, h.Annotation)
	assert.True(t, h.Time.Equal(testRepeatCycleStart))
	assert.Equal(t, 321, h.SpacecraftID)
	assert.Equal(t, facts.ChannelIR108, h.ChannelID)
	assert.Equal(t, 3, h.SegmentSeqNo)
	assert.Equal(t, 1, h.PlannedStartSegment)
	assert.Equal(t, 8, h.PlannedEndSegment)
	assert.NoError(t, h.checkImageSegment())

	sublon, err := h.SubLon()
	require.NoError(t, err)
	assert.Equal(t, 9.5, sublon)

	samples, err := UnpackSamples(data[h.HeaderLength:], h.BitsPerPixel, h.Columns*h.Lines)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3, 4, 1020, 1021, 1022, 1023}, samples)
}

func TestHeaderChecks(t *testing.T) {
	_, err := ReadHeaderLength([]byte{0, 0, 16})
	assert.Equal(t, ErrBadHeader, errors.Cause(err))

	spec := SegmentSpec{SpacecraftID: 321, ChannelID: 1, SeqNo: 1, PlannedStartSegment: 1, PlannedEndSegment: 1, BitsPerPixel: 8, Columns: 2, Lines: 1, Compressed: true}
	data, err := EncodeSegment(spec, []uint16{1, 2})
	require.NoError(t, err)
	h, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, ErrCompressedSegment, errors.Cause(h.checkImageSegment()))

	spec.Compressed = false
	spec.DataFieldRepresentation = 2
	data, err = EncodeSegment(spec, []uint16{1, 2})
	require.NoError(t, err)
	h, err = ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, ErrBinaryDataField, errors.Cause(h.checkImageSegment()))

	// A prologue is not an image
	h, err = ParseHeader(EncodePrologue(testPrologue()))
	require.NoError(t, err)
	assert.Equal(t, FileTypePrologue, h.FileType)
	assert.Equal(t, ErrBinaryDataField, errors.Cause(h.checkImageSegment()))

	// Truncated: header claims more than we have
	_, err = ParseHeader(data[0:20])
	assert.Equal(t, ErrBadHeader, errors.Cause(err))

	_, err = EncodeSegment(spec, []uint16{1})
	assert.Error(t, err)
}

func TestPrologueEpilogueRoundTrip(t *testing.T) {
	p, err := ParsePrologue(EncodePrologue(testPrologue()))
	require.NoError(t, err)

	expected := testPrologue()
	assert.Equal(t, expected.SatelliteID, p.SatelliteID)
	assert.True(t, p.RepeatCycleStart.Equal(expected.RepeatCycleStart))
	assert.Equal(t, expected.LongitudeOfSSP, p.LongitudeOfSSP)
	assert.Equal(t, expected.ReferenceGridVISIR, p.ReferenceGridVISIR)
	assert.Equal(t, expected.ReferenceGridHRV, p.ReferenceGridHRV)
	assert.Equal(t, expected.Calibration, p.Calibration)

	epi := testEpilogue()
	epi.HRVLowerCoverage = Coverage{SouthLine: 0, NorthLine: 8063, EastColumn: 1000, WestColumn: 6567}
	epi.HRVUpperCoverage = Coverage{SouthLine: 8064, NorthLine: 11135, EastColumn: 3000, WestColumn: 8567}

	e, err := ParseEpilogue(EncodeEpilogue(epi))
	require.NoError(t, err)
	assert.Equal(t, epi.VISIRCoverage, e.VISIRCoverage)
	assert.Equal(t, epi.HRVLowerCoverage, e.HRVLowerCoverage)
	assert.Equal(t, epi.HRVUpperCoverage, e.HRVUpperCoverage)
	assert.True(t, e.ForwardScanEnd.Equal(epi.ForwardScanEnd))

	// Not interchangeable
	_, err = ParseEpilogue(EncodePrologue(testPrologue()))
	assert.Equal(t, ErrBadHeader, errors.Cause(err))
}

func TestUnpack10Bit(t *testing.T) {
	samples, err := UnpackSamples([]byte{0x00, 0x40, 0x2f, 0xfe, 0x00}, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 1023, 512}, samples)

	packed, err := PackSamples([]uint16{5, 1000, 77}, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x7e, 0x81, 0x34}, packed)

	_, err = UnpackSamples([]byte{0x00, 0x40}, 10, 4)
	assert.Error(t, err)
	_, err = UnpackSamples([]byte{0x00}, 17, 1)
	assert.Error(t, err)
}

func TestUnpackOtherWidths(t *testing.T) {
	for _, bpp := range []int{1, 3, 8, 12, 16} {
		top := uint16(1<<bpp - 1)
		in := []uint16{0, top, top / 2, 1, top, 0, 1}
		packed, err := PackSamples(in, bpp)
		require.NoError(t, err)
		assert.Len(t, packed, (len(in)*bpp+7)/8)

		out, err := UnpackSamples(packed, bpp, len(in))
		require.NoError(t, err)
		assert.Equal(t, in, out, "bpp %v", bpp)
	}
}

func Example_segmentKey() {
	key, err := ParseSegmentKey("hrit/H:MSG1:VIS006:200611141200")
	fmt.Println(err)
	fmt.Println(key.Dir)
	fmt.Println(key)
	fmt.Println(key.SegmentFileName(1))
	fmt.Println(key.PrologueFileName())
	fmt.Println(key.EpilogueFileName())

	fromName, err := KeyFromFileName("hrit/H-000-MSG1__-MSG1________-VIS006___-000001___-200611141200-__")
	fmt.Printf("%v, %v, %v\n", err, fromName.Dir, fromName)
	fmt.Println(IsEpilogueFileName("hrit/" + key.EpilogueFileName()))
	fmt.Println(IsEpilogueFileName("hrit/" + key.SegmentFileName(8)))

	_, err = ParseSegmentKey("H:MSG1:VIS006")
	fmt.Println(err)
	_, err = ParseSegmentKey("X:MSG1:VIS006:200611141200")
	fmt.Println(err != nil)

	// Output:
	// <nil>
	// hrit
	// H:MSG1:VIS006:200611141200
	// H-000-MSG1__-MSG1________-VIS006___-000001___-200611141200-__
	// H-000-MSG1__-MSG1________-_________-PRO______-200611141200-__
	// H-000-MSG1__-MSG1________-_________-EPI______-200611141200-__
	// <nil>, hrit, H:MSG1:VIS006:200611141200
	// true
	// false
	// segment key H:MSG1:VIS006 does not look like H:MSG1:VIS006:200611141200
	// true
}
