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
	"path"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/pkg/errors"
)

// FileAccess - finds the files of a product and reads them. Segments are placed by the sequence
// number in their header, not by their name. Sequence numbers with no file are holes in the
// image, not an error
type FileAccess struct {
	fs     fileaccess.FileAccess
	bucket string
	log    logger.ILogger

	Key          SegmentKey
	ProloguePath string
	EpiloguePath string

	// Indexed by sequence number - 1, "" where we have no file
	SegmentPaths []string
	// Header of the first segment we found
	FirstHeader Header
}

func matchOne(fs fileaccess.FileAccess, bucket string, dir string, pattern string) (string, error) {
	found, err := fileaccess.MatchObjects(fs, bucket, dir, pattern)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errors.Wrapf(ErrNoSuchFiles, "%v", path.Join(dir, pattern))
	}
	if len(found) > 1 {
		return "", errors.Wrapf(ErrNonUnivoque, "%v matches %v files", path.Join(dir, pattern), len(found))
	}
	return found[0], nil
}

// NewFileAccess - locates the prologue, epilogue and segments of key, reading just the header of each segment
func NewFileAccess(fs fileaccess.FileAccess, bucket string, key SegmentKey, log logger.ILogger) (*FileAccess, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	fa := &FileAccess{fs: fs, bucket: bucket, log: log, Key: key}

	var err error
	if fa.ProloguePath, err = matchOne(fs, bucket, key.Dir, key.prologuePattern()); err != nil {
		return nil, err
	}
	if fa.EpiloguePath, err = matchOne(fs, bucket, key.Dir, key.epiloguePattern()); err != nil {
		return nil, err
	}

	segments, err := fileaccess.MatchObjects(fs, bucket, key.Dir, key.segmentPattern())
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, errors.Wrapf(ErrNoSuchFiles, "%v", path.Join(key.Dir, key.segmentPattern()))
	}

	for c, segPath := range segments {
		h, err := fa.readHeader(segPath)
		if err != nil {
			return nil, errors.Wrapf(err, "reading header of %v", segPath)
		}
		if err := h.checkImageSegment(); err != nil {
			return nil, errors.Wrapf(err, "segment %v", segPath)
		}
		if c == 0 {
			fa.FirstHeader = h
		}

		seq := h.SegmentSeqNo
		if seq < 1 {
			return nil, errors.Wrapf(ErrBadHeader, "segment %v has sequence number %v", segPath, seq)
		}
		for len(fa.SegmentPaths) < seq {
			fa.SegmentPaths = append(fa.SegmentPaths, "")
		}
		if len(fa.SegmentPaths[seq-1]) > 0 {
			return nil, errors.Wrapf(ErrNonUnivoque, "segment %v and %v both have sequence number %v", fa.SegmentPaths[seq-1], segPath, seq)
		}
		fa.SegmentPaths[seq-1] = segPath
	}

	log.Debugf("%v: prologue %v, epilogue %v, %v segment files", key, fa.ProloguePath, fa.EpiloguePath, len(segments))
	return fa, nil
}

func (fa *FileAccess) readHeader(filePath string) (Header, error) {
	primary, err := fa.fs.ReadObjectRange(fa.bucket, filePath, 0, PrimaryHeaderLength)
	if err != nil {
		return Header{}, err
	}
	headerLength, err := ReadHeaderLength(primary)
	if err != nil {
		return Header{}, err
	}
	data, err := fa.fs.ReadObjectRange(fa.bucket, filePath, 0, int64(headerLength))
	if err != nil {
		return Header{}, err
	}
	return ParseHeader(data)
}

// SegmentPath - file holding segment number seq, "" if none
func (fa *FileAccess) SegmentPath(seq int) string {
	if seq < 1 || seq > len(fa.SegmentPaths) {
		return ""
	}
	return fa.SegmentPaths[seq-1]
}

func (fa *FileAccess) ReadPrologue() (Prologue, error) {
	data, err := fa.fs.ReadObject(fa.bucket, fa.ProloguePath)
	if err != nil {
		return Prologue{}, err
	}
	return ParsePrologue(data)
}

func (fa *FileAccess) ReadEpilogue() (Epilogue, error) {
	data, err := fa.fs.ReadObject(fa.bucket, fa.EpiloguePath)
	if err != nil {
		return Epilogue{}, err
	}
	return ParseEpilogue(data)
}

// ReadSegment - header and samples of segment number seq
func (fa *FileAccess) ReadSegment(seq int) (Header, []uint16, error) {
	segPath := fa.SegmentPath(seq)
	if len(segPath) <= 0 {
		return Header{}, nil, errors.Wrapf(ErrNoSuchFiles, "no segment %v for %v", seq, fa.Key)
	}

	data, err := fa.fs.ReadObject(fa.bucket, segPath)
	if err != nil {
		return Header{}, nil, err
	}

	h, err := ParseHeader(data)
	if err != nil {
		return h, nil, err
	}
	if err := h.checkImageSegment(); err != nil {
		return h, nil, errors.Wrapf(err, "segment %v", segPath)
	}

	samples, err := UnpackSamples(data[h.HeaderLength:], h.BitsPerPixel, h.Columns*h.Lines)
	if err != nil {
		return h, nil, errors.Wrapf(err, "segment %v", segPath)
	}

	fa.log.Debugf("Read segment %v of %v from %v", seq, fa.Key, segPath)
	return h, samples, nil
}
