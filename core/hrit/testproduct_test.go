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
	"time"

	"github.com/meteosatlib/msat/core/facts"
)

var testRepeatCycleStart = time.Date(2006, 11, 14, 12, 0, 9, 500000000, time.UTC)

func testKey(channel string) SegmentKey {
	return SegmentKey{Dir: "hrit", Resolution: "H", ProductID1: "MSG1", ProductID2: channel, Timestamp: "200611141200"}
}

func testPrologue() Prologue {
	p := Prologue{
		SatelliteID:        321,
		NominalLongitude:   0,
		RepeatCycleStart:   testRepeatCycleStart,
		TypeOfProjection:   1,
		LongitudeOfSSP:     0,
		ReferenceGridVISIR: ReferenceGrid{Lines: 3712, Columns: 3712, LineStep: 3.0004032, ColumnStep: 3.0004032, GridOrigin: 2},
		ReferenceGridHRV:   ReferenceGrid{Lines: 11136, Columns: 11136, LineStep: 1.0001343, ColumnStep: 1.0001343, GridOrigin: 2},
	}
	p.Calibration[facts.ChannelVIS006-1] = ChannelCalibration{Slope: 0.0201355, Offset: -1.02691}
	p.Calibration[facts.ChannelIR108-1] = ChannelCalibration{Slope: 0.2, Offset: -10}
	p.Calibration[facts.ChannelHRV-1] = ChannelCalibration{Slope: 0.0267, Offset: -1.3617}
	return p
}

func testEpilogue() Epilogue {
	return Epilogue{
		SatelliteID:      321,
		ForwardScanStart: testRepeatCycleStart,
		ForwardScanEnd:   testRepeatCycleStart.Add(12 * time.Minute),
		VISIRCoverage:    Coverage{SouthLine: 0, NorthLine: 3711, EastColumn: 0, WestColumn: 3711},
	}
}

type testSegmentLayout struct {
	ChannelID    int
	Columns      int
	Lines        int
	PlannedStart int
	PlannedEnd   int
	CFAC         int
	LFAC         int
	COFF         int
	LOFF         int
}

// Sample i of segment seq is seq*100+i unless fill says otherwise
func testSegments(layout testSegmentLayout, fill func(seq int, i int) uint16, seqs ...int) []ProductSegment {
	if fill == nil {
		fill = func(seq int, i int) uint16 { return uint16(seq*100 + i) }
	}

	result := []ProductSegment{}
	for _, seq := range seqs {
		samples := make([]uint16, layout.Columns*layout.Lines)
		for i := range samples {
			samples[i] = fill(seq, i)
		}
		result = append(result, ProductSegment{
			Spec: SegmentSpec{
				SpacecraftID:        321,
				ChannelID:           layout.ChannelID,
				SeqNo:               seq,
				PlannedStartSegment: layout.PlannedStart,
				PlannedEndSegment:   layout.PlannedEnd,
				BitsPerPixel:        10,
				Columns:             layout.Columns,
				Lines:               layout.Lines,
				SubLon:              0,
				CFAC:                layout.CFAC,
				LFAC:                layout.LFAC,
				COFF:                layout.COFF,
				LOFF:                layout.LOFF,
				Time:                testRepeatCycleStart,
			},
			Samples: samples,
		})
	}
	return result
}

// Small VIS006 frame: 2 segments of 4x2
func smallLayout() testSegmentLayout {
	return testSegmentLayout{ChannelID: facts.ChannelVIS006, Columns: 4, Lines: 2, PlannedStart: 1, PlannedEnd: 2, CFAC: 13642337, LFAC: 13642337, COFF: 2, LOFF: 2}
}
