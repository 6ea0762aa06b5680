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

// SegmentSpec - header values of an image segment file to write
type SegmentSpec struct {
	SpacecraftID int // HRIT id
	ChannelID    int

	SeqNo               int
	PlannedStartSegment int
	PlannedEndSegment   int

	BitsPerPixel int
	Columns      int
	Lines        int
	Compressed   bool

	SubLon float64
	CFAC   int
	LFAC   int
	COFF   int
	LOFF   int

	Time       time.Time
	Annotation string

	DataFieldRepresentation int
}

type recordWriter struct {
	buf bytes.Buffer
}

func (w *recordWriter) write(recordType int, record interface{}) {
	length := binary.Size(record)
	binary.Write(&w.buf, binary.BigEndian, recordFraming{Type: uint8(recordType), Length: uint16(length + 3)})
	binary.Write(&w.buf, binary.BigEndian, record)
}

func (w *recordWriter) writeBytes(recordType int, body []byte) {
	binary.Write(&w.buf, binary.BigEndian, recordFraming{Type: uint8(recordType), Length: uint16(len(body) + 3)})
	w.buf.Write(body)
}

// assemble - primary header + the other records + data field
func assemble(fileType int, records *recordWriter, dataField []byte, dataFieldBits uint64) []byte {
	var out bytes.Buffer
	primary := recordWriter{}
	primary.write(recordPrimary, primaryHeaderRecord{
		FileTypeCode:      uint8(fileType),
		TotalHeaderLength: uint32(PrimaryHeaderLength + records.buf.Len()),
		DataFieldLength:   dataFieldBits,
	})
	out.Write(primary.buf.Bytes())
	out.Write(records.buf.Bytes())
	out.Write(dataField)
	return out.Bytes()
}

// EncodeSegment - an image segment file holding samples (Columns x Lines of them)
func EncodeSegment(spec SegmentSpec, samples []uint16) ([]byte, error) {
	if len(samples) != spec.Columns*spec.Lines {
		return nil, errors.Errorf("segment is %vx%v, got %v samples", spec.Columns, spec.Lines, len(samples))
	}

	field, err := PackSamples(samples, spec.BitsPerPixel)
	if err != nil {
		return nil, err
	}

	compression := uint8(0)
	if spec.Compressed {
		compression = 1
	}

	w := recordWriter{}
	w.write(recordImageStructure, imageStructureRecord{
		NB:          uint8(spec.BitsPerPixel),
		NC:          uint16(spec.Columns),
		NL:          uint16(spec.Lines),
		Compression: compression,
	})

	nav := imageNavigationRecord{CFAC: int32(spec.CFAC), LFAC: int32(spec.LFAC), COFF: int32(spec.COFF), LOFF: int32(spec.LOFF)}
	copy(nav.ProjectionName[:], projectionName(spec.SubLon))
	w.write(recordImageNavigation, nav)

	if len(spec.Annotation) > 0 {
		w.writeBytes(recordAnnotation, []byte(spec.Annotation))
	}

	w.write(recordTimeStamp, timeStampRecord{PField: 0x40, Time: makeCDSTime(spec.Time)})

	w.write(recordSegmentIdentification, segmentIdentificationRecord{
		GPSCID:                  uint16(spec.SpacecraftID),
		SpectralChannelID:       uint8(spec.ChannelID),
		SegmentSeqNo:            uint16(spec.SeqNo),
		PlannedStartSegment:     uint16(spec.PlannedStartSegment),
		PlannedEndSegment:       uint16(spec.PlannedEndSegment),
		DataFieldRepresentation: uint8(spec.DataFieldRepresentation),
	})

	return assemble(FileTypeImage, &w, field, uint64(len(samples))*uint64(spec.BitsPerPixel)), nil
}

func encodeDataField(fileType int, annotation string, record interface{}) []byte {
	var field bytes.Buffer
	binary.Write(&field, binary.BigEndian, record)

	w := recordWriter{}
	if len(annotation) > 0 {
		w.writeBytes(recordAnnotation, []byte(annotation))
	}
	return assemble(fileType, &w, field.Bytes(), uint64(field.Len())*8)
}

// EncodePrologue - a prologue file
func EncodePrologue(p Prologue) []byte {
	return encodeDataField(FileTypePrologue, "", prologueRecord{
		SatelliteID:        uint16(p.SatelliteID),
		NominalLongitude:   p.NominalLongitude,
		RepeatCycleStart:   makeCDSTime(p.RepeatCycleStart),
		TypeOfProjection:   p.TypeOfProjection,
		LongitudeOfSSP:     p.LongitudeOfSSP,
		ReferenceGridVISIR: p.ReferenceGridVISIR,
		ReferenceGridHRV:   p.ReferenceGridHRV,
		Calibration:        p.Calibration,
	})
}

// EncodeEpilogue - an epilogue file
func EncodeEpilogue(e Epilogue) []byte {
	return encodeDataField(FileTypeEpilogue, "", epilogueRecord{
		SatelliteID:      uint16(e.SatelliteID),
		ForwardScanStart: makeCDSTime(e.ForwardScanStart),
		ForwardScanEnd:   makeCDSTime(e.ForwardScanEnd),
		VISIRCoverage:    makeCoverageRecord(e.VISIRCoverage),
		HRVLowerCoverage: makeCoverageRecord(e.HRVLowerCoverage),
		HRVUpperCoverage: makeCoverageRecord(e.HRVUpperCoverage),
	})
}
