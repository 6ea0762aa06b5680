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

// Reads and writes HRIT segmented files as disseminated for MSG/SEVIRI: header records,
// prologue, epilogue and NB-bit image data fields, and rebuilds one calibrated image out of
// a product's segment files.
package hrit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrNoSuchFiles = errors.New("no such file(s)")
var ErrNonUnivoque = errors.New("non-univoque file match")
var ErrBinaryDataField = errors.New("binary data field format not supported")
var ErrCompressedSegment = errors.New("compressed segment not supported")
var ErrBadHeader = errors.New("bad HRIT header")

// Header record types
const (
	recordPrimary               = 0
	recordImageStructure        = 1
	recordImageNavigation       = 2
	recordAnnotation            = 4
	recordTimeStamp             = 5
	recordSegmentIdentification = 128
)

// File type codes
const (
	FileTypeImage    = 0
	FileTypePrologue = 128
	FileTypeEpilogue = 129
)

// Length of the primary header record, which is always first
const PrimaryHeaderLength = 16

type recordFraming struct {
	Type   uint8
	Length uint16
}

type primaryHeaderRecord struct {
	FileTypeCode      uint8
	TotalHeaderLength uint32
	DataFieldLength   uint64 // bits
}

type imageStructureRecord struct {
	NB          uint8
	NC          uint16
	NL          uint16
	Compression uint8
}

type imageNavigationRecord struct {
	ProjectionName [32]byte
	CFAC           int32
	LFAC           int32
	COFF           int32
	LOFF           int32
}

// CCSDS day segmented time, days since 1958-01-01
type cdsTime struct {
	Days   uint16
	Millis uint32
}

type timeStampRecord struct {
	PField uint8
	Time   cdsTime
}

type segmentIdentificationRecord struct {
	GPSCID                  uint16
	SpectralChannelID       uint8
	SegmentSeqNo            uint16
	PlannedStartSegment     uint16
	PlannedEndSegment       uint16
	DataFieldRepresentation uint8
}

var cdsEpoch = time.Date(1958, 1, 1, 0, 0, 0, 0, time.UTC)

func (t cdsTime) toTime() time.Time {
	return cdsEpoch.Add(time.Duration(t.Days)*24*time.Hour + time.Duration(t.Millis)*time.Millisecond)
}

func makeCDSTime(t time.Time) cdsTime {
	d := t.UTC().Sub(cdsEpoch)
	days := d / (24 * time.Hour)
	return cdsTime{Days: uint16(days), Millis: uint32((d - days*24*time.Hour) / time.Millisecond)}
}

// Header - everything we use from the header records of one HRIT file
type Header struct {
	FileType      int
	HeaderLength  int
	DataFieldBits uint64

	HasImageStructure bool
	BitsPerPixel      int
	Columns           int
	Lines             int
	Compressed        bool

	HasNavigation  bool
	ProjectionName string
	CFAC           int
	LFAC           int
	COFF           int
	LOFF           int

	Annotation string

	HasTime bool
	Time    time.Time

	HasSegmentID            bool
	SpacecraftID            int // HRIT id, eg 321
	ChannelID               int
	SegmentSeqNo            int
	PlannedStartSegment     int
	PlannedEndSegment       int
	DataFieldRepresentation int
}

// ReadHeaderLength - total header length from the primary header, which is all we need to read
// the rest of the header
func ReadHeaderLength(data []byte) (int, error) {
	if len(data) < PrimaryHeaderLength {
		return 0, errors.Wrapf(ErrBadHeader, "need %v bytes for primary header, got %v", PrimaryHeaderLength, len(data))
	}

	var framing recordFraming
	var primary primaryHeaderRecord
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.BigEndian, &framing); err != nil {
		return 0, err
	}
	if framing.Type != recordPrimary || framing.Length != PrimaryHeaderLength {
		return 0, errors.Wrapf(ErrBadHeader, "first record is type %v length %v, expected primary header", framing.Type, framing.Length)
	}
	if err := binary.Read(buf, binary.BigEndian, &primary); err != nil {
		return 0, err
	}
	return int(primary.TotalHeaderLength), nil
}

// ParseHeader - reads all header records at the start of data. Records we don't use are skipped
func ParseHeader(data []byte) (Header, error) {
	h := Header{}

	headerLength, err := ReadHeaderLength(data)
	if err != nil {
		return h, err
	}
	if headerLength > len(data) {
		return h, errors.Wrapf(ErrBadHeader, "header is %v bytes, only have %v", headerLength, len(data))
	}

	buf := bytes.NewReader(data[0:headerLength])
	for buf.Len() > 0 {
		var framing recordFraming
		if err := binary.Read(buf, binary.BigEndian, &framing); err != nil {
			return h, errors.Wrap(ErrBadHeader, "truncated record")
		}
		if framing.Length < 3 || int(framing.Length)-3 > buf.Len() {
			return h, errors.Wrapf(ErrBadHeader, "record type %v has bad length %v", framing.Type, framing.Length)
		}

		body := make([]byte, framing.Length-3)
		if _, err := io.ReadFull(buf, body); err != nil {
			return h, err
		}
		rec := bytes.NewReader(body)

		switch framing.Type {
		case recordPrimary:
			var r primaryHeaderRecord
			if err := binary.Read(rec, binary.BigEndian, &r); err != nil {
				return h, errors.Wrap(err, "primary header")
			}
			h.FileType = int(r.FileTypeCode)
			h.HeaderLength = int(r.TotalHeaderLength)
			h.DataFieldBits = r.DataFieldLength

		case recordImageStructure:
			var r imageStructureRecord
			if err := binary.Read(rec, binary.BigEndian, &r); err != nil {
				return h, errors.Wrap(err, "image structure")
			}
			h.HasImageStructure = true
			h.BitsPerPixel = int(r.NB)
			h.Columns = int(r.NC)
			h.Lines = int(r.NL)
			h.Compressed = r.Compression != 0

		case recordImageNavigation:
			var r imageNavigationRecord
			if err := binary.Read(rec, binary.BigEndian, &r); err != nil {
				return h, errors.Wrap(err, "image navigation")
			}
			h.HasNavigation = true
			h.ProjectionName = strings.TrimRight(string(r.ProjectionName[:]), " \x00")
			h.CFAC = int(r.CFAC)
			h.LFAC = int(r.LFAC)
			h.COFF = int(r.COFF)
			h.LOFF = int(r.LOFF)

		case recordAnnotation:
			h.Annotation = strings.TrimRight(string(body), " \x00")

		case recordTimeStamp:
			var r timeStampRecord
			if err := binary.Read(rec, binary.BigEndian, &r); err != nil {
				return h, errors.Wrap(err, "time stamp")
			}
			h.HasTime = true
			h.Time = r.Time.toTime()

		case recordSegmentIdentification:
			var r segmentIdentificationRecord
			if err := binary.Read(rec, binary.BigEndian, &r); err != nil {
				return h, errors.Wrap(err, "segment identification")
			}
			h.HasSegmentID = true
			h.SpacecraftID = int(r.GPSCID)
			h.ChannelID = int(r.SpectralChannelID)
			h.SegmentSeqNo = int(r.SegmentSeqNo)
			h.PlannedStartSegment = int(r.PlannedStartSegment)
			h.PlannedEndSegment = int(r.PlannedEndSegment)
			h.DataFieldRepresentation = int(r.DataFieldRepresentation)
		}
	}

	return h, nil
}

// checkImageSegment - can we decode the data field of this segment?
func (h Header) checkImageSegment() error {
	if h.FileType != FileTypeImage {
		return errors.Wrapf(ErrBinaryDataField, "file type %v is not an image", h.FileType)
	}
	if !h.HasImageStructure || !h.HasSegmentID {
		return errors.Wrap(ErrBadHeader, "image segment without image structure or segment identification")
	}
	if h.DataFieldRepresentation != 0 {
		return errors.Wrapf(ErrBinaryDataField, "data field representation %v", h.DataFieldRepresentation)
	}
	if h.Compressed {
		return ErrCompressedSegment
	}
	if h.BitsPerPixel <= 0 || h.BitsPerPixel > 16 {
		return errors.Wrapf(ErrBadHeader, "unsupported bits per pixel: %v", h.BitsPerPixel)
	}
	return nil
}

// SubLon - sub-satellite longitude from a projection name like GEOS(+009.5)
func (h Header) SubLon() (float64, error) {
	name := h.ProjectionName
	start := strings.Index(name, "(")
	end := strings.Index(name, ")")
	if !strings.HasPrefix(name, "GEOS") || start < 0 || end < start {
		return 0, fmt.Errorf("not a geostationary projection name: %v", name)
	}
	return strconv.ParseFloat(name[start+1:end], 64)
}

func projectionName(sublon float64) string {
	return fmt.Sprintf("GEOS(%+06.1f)", sublon)
}
