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
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// The prologue and epilogue data fields hold the parts of the level 1.5 header/trailer we use, in
// this order, big endian.

// ReferenceGrid - size and step of a level 1.5 grid
type ReferenceGrid struct {
	Lines      int32
	Columns    int32
	LineStep   float32 // km
	ColumnStep float32 // km
	GridOrigin uint8
}

// ChannelCalibration - radiance = count * Slope + Offset
type ChannelCalibration struct {
	Slope  float64
	Offset float64
}

type Prologue struct {
	SatelliteID      int // HRIT id, eg 321
	NominalLongitude float32
	RepeatCycleStart time.Time

	TypeOfProjection uint8
	LongitudeOfSSP   float32

	ReferenceGridVISIR ReferenceGrid
	ReferenceGridHRV   ReferenceGrid

	// Indexed by channel id - 1
	Calibration [12]ChannelCalibration
}

type prologueRecord struct {
	SatelliteID        uint16
	NominalLongitude   float32
	RepeatCycleStart   cdsTime
	TypeOfProjection   uint8
	LongitudeOfSSP     float32
	ReferenceGridVISIR ReferenceGrid
	ReferenceGridHRV   ReferenceGrid
	Calibration        [12]ChannelCalibration
}

// Coverage - line/column bounds of an area of the frame, inclusive. 0 based in memory,
// 1 based in the epilogue file
type Coverage struct {
	SouthLine  int
	NorthLine  int
	EastColumn int
	WestColumn int
}

type Epilogue struct {
	SatelliteID      int
	ForwardScanStart time.Time
	ForwardScanEnd   time.Time

	VISIRCoverage    Coverage
	HRVLowerCoverage Coverage
	HRVUpperCoverage Coverage
}

type coverageRecord struct {
	SouthLine  int32
	NorthLine  int32
	EastColumn int32
	WestColumn int32
}

type epilogueRecord struct {
	SatelliteID      uint16
	ForwardScanStart cdsTime
	ForwardScanEnd   cdsTime
	VISIRCoverage    coverageRecord
	HRVLowerCoverage coverageRecord
	HRVUpperCoverage coverageRecord
}

func (c coverageRecord) toCoverage() Coverage {
	return Coverage{
		SouthLine:  int(c.SouthLine) - 1,
		NorthLine:  int(c.NorthLine) - 1,
		EastColumn: int(c.EastColumn) - 1,
		WestColumn: int(c.WestColumn) - 1,
	}
}

func makeCoverageRecord(c Coverage) coverageRecord {
	return coverageRecord{
		SouthLine:  int32(c.SouthLine + 1),
		NorthLine:  int32(c.NorthLine + 1),
		EastColumn: int32(c.EastColumn + 1),
		WestColumn: int32(c.WestColumn + 1),
	}
}

func readDataField(data []byte, expectedType int, into interface{}) error {
	h, err := ParseHeader(data)
	if err != nil {
		return err
	}
	if h.FileType != expectedType {
		return errors.Wrapf(ErrBadHeader, "expected file type %v, got %v", expectedType, h.FileType)
	}

	field := data[h.HeaderLength:]
	if uint64(len(field))*8 < h.DataFieldBits {
		return errors.Wrapf(ErrBadHeader, "data field is %v bytes, header says %v bits", len(field), h.DataFieldBits)
	}

	return binary.Read(bytes.NewReader(field), binary.BigEndian, into)
}

// ParsePrologue - reads a whole prologue file
func ParsePrologue(data []byte) (Prologue, error) {
	var r prologueRecord
	if err := readDataField(data, FileTypePrologue, &r); err != nil {
		return Prologue{}, errors.Wrap(err, "prologue")
	}

	return Prologue{
		SatelliteID:        int(r.SatelliteID),
		NominalLongitude:   r.NominalLongitude,
		RepeatCycleStart:   r.RepeatCycleStart.toTime(),
		TypeOfProjection:   r.TypeOfProjection,
		LongitudeOfSSP:     r.LongitudeOfSSP,
		ReferenceGridVISIR: r.ReferenceGridVISIR,
		ReferenceGridHRV:   r.ReferenceGridHRV,
		Calibration:        r.Calibration,
	}, nil
}

// ParseEpilogue - reads a whole epilogue file
func ParseEpilogue(data []byte) (Epilogue, error) {
	var r epilogueRecord
	if err := readDataField(data, FileTypeEpilogue, &r); err != nil {
		return Epilogue{}, errors.Wrap(err, "epilogue")
	}

	return Epilogue{
		SatelliteID:      int(r.SatelliteID),
		ForwardScanStart: r.ForwardScanStart.toTime(),
		ForwardScanEnd:   r.ForwardScanEnd.toTime(),
		VISIRCoverage:    r.VISIRCoverage.toCoverage(),
		HRVLowerCoverage: r.HRVLowerCoverage.toCoverage(),
		HRVUpperCoverage: r.HRVUpperCoverage.toCoverage(),
	}, nil
}
