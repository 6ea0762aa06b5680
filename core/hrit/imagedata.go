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
	"sync"

	"github.com/meteosatlib/msat/core/metrics"
	"github.com/meteosatlib/msat/core/satimage"
)

// Number of decoded segments kept in memory per image
const SegmentCacheSize = 2

// segmentReader - where ImageData gets segments from. Sequence numbers are 1 based
type segmentReader interface {
	SegmentPath(seq int) string
	ReadSegment(seq int) (Header, []uint16, error)
}

type cachedSegment struct {
	segno   int
	samples []uint16
}

// HRVFrame - where the two HRV sub-frames are, 0 based. Rows below UpperSouthLineActual-1 are
// in the lower sub-frame
type HRVFrame struct {
	UpperSouthLineActual  int
	UpperEastColumnActual int
	UpperWestColumnActual int
	LowerEastColumnActual int
	LowerWestColumnActual int
}

// ImageData - the samples of a product, read from segment files on demand. Implements
// satimage.ImageData. Cropping only moves the window we read through
type ImageData struct {
	reader      segmentReader
	channelName string

	// Full frame
	OrigColumns int
	OrigLines   int
	// Segment numbers are 0 based from the planned start segment
	npixperseg   int
	plannedStart int
	segmentCount int

	SwapX bool
	SwapY bool

	HRV   bool
	Frame HRVFrame

	cropX   int
	cropY   int
	columns int
	lines   int

	calibration Calibration
	scaling     satimage.Scaling

	mutex sync.Mutex
	// Front is the most recently used
	cache []cachedSegment
	err   error
}

// Size - after cropping
func (d *ImageData) Size() (int, int) {
	return d.columns, d.lines
}

func (d *ImageData) Scaling() satimage.Scaling {
	return d.scaling
}

// Err - first error reading a segment, if any. Samples of segments we failed to read come back
// missing, so whoever reads the pixels must check this before trusting them
func (d *ImageData) Err() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.err
}

func (d *ImageData) Crop(area image.Rectangle) error {
	if err := satimage.CheckCropArea(area, d.columns, d.lines); err != nil {
		return err
	}

	d.cropX += area.Min.X
	d.cropY += area.Min.Y
	d.columns = area.Dx()
	d.lines = area.Dy()
	return nil
}

// CachedSegments - segment numbers currently decoded, most recently used first
func (d *ImageData) CachedSegments() []int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	result := make([]int, 0, len(d.cache))
	for _, c := range d.cache {
		result = append(result, c.segno)
	}
	return result
}

// segment - samples of segment idx, nil if we don't have that segment. Must be called with the mutex held
func (d *ImageData) segment(idx int) ([]uint16, error) {
	if len(d.cache) > 0 && d.cache[0].segno == idx {
		metrics.SegmentCacheHits.WithLabelValues(d.channelName).Inc()
		return d.cache[0].samples, nil
	}

	for c := 1; c < len(d.cache); c++ {
		if d.cache[c].segno == idx {
			hit := d.cache[c]
			copy(d.cache[1:c+1], d.cache[0:c])
			d.cache[0] = hit
			metrics.SegmentCacheHits.WithLabelValues(d.channelName).Inc()
			return hit.samples, nil
		}
	}

	if idx < 0 || idx >= d.segmentCount {
		return nil, nil
	}
	seq := d.plannedStart + idx
	if len(d.reader.SegmentPath(seq)) <= 0 {
		return nil, nil
	}

	_, samples, err := d.reader.ReadSegment(seq)
	if err != nil {
		return nil, err
	}
	metrics.SegmentReads.WithLabelValues(d.channelName).Inc()

	if len(d.cache) >= SegmentCacheSize {
		d.cache = d.cache[0 : SegmentCacheSize-1]
		metrics.SegmentCacheEvictions.WithLabelValues(d.channelName).Inc()
	}
	d.cache = append([]cachedSegment{{segno: idx, samples: samples}}, d.cache...)
	return samples, nil
}

// Sample - raw count at x, y of the (cropped) image, 0 if there's no data there
func (d *ImageData) Sample(x int, y int) int {
	if x < 0 || y < 0 || x >= d.columns || y >= d.lines {
		return 0
	}

	x += d.cropX
	y += d.cropY

	if d.SwapX {
		x = d.OrigColumns - x - 1
	}
	if d.SwapY {
		y = d.OrigLines - y - 1
	}

	var pos int
	if d.HRV {
		// The -1 puts the boundary one line early, which is known to show as a one line
		// offset in the stitched image. Kept as is, stitched output is compared pixel by pixel
		if y < d.Frame.UpperSouthLineActual-1 {
			if x < d.Frame.LowerEastColumnActual || x > d.Frame.LowerWestColumnActual {
				return 0
			}
			x -= d.Frame.LowerEastColumnActual
		} else {
			if x < d.Frame.UpperEastColumnActual || x > d.Frame.UpperWestColumnActual {
				return 0
			}
			x -= d.Frame.UpperEastColumnActual
		}
		pos = y*(d.OrigColumns-d.Frame.UpperEastColumnActual-1) + x
	} else {
		pos = y*d.OrigColumns + x
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	segno := pos / d.npixperseg
	samples, err := d.segment(segno)
	if err != nil {
		if d.err == nil {
			d.err = err
		}
		return 0
	}
	if samples == nil {
		return 0
	}

	offset := pos - segno*d.npixperseg
	if offset >= len(samples) {
		return 0
	}
	return int(samples[offset])
}

// calibrated - physical value of count s, ok=false if it's missing. Counts of 0 and counts
// calibrating to negative values are missing
func (d *ImageData) calibrated(s int) (float32, bool) {
	if s <= 0 || s >= len(d.calibration.Table) {
		return 0, false
	}

	v := d.calibration.Table[s]
	if v < 0 {
		return 0, false
	}
	return v, true
}

// Unscaled - raw count at x, y, MissingRaw wherever Scaled is missing
func (d *ImageData) Unscaled(x int, y int) int {
	s := d.Sample(x, y)
	if _, ok := d.calibrated(s); !ok {
		return d.scaling.MissingRaw
	}
	return s
}

func (d *ImageData) Scaled(x int, y int) float32 {
	v, ok := d.calibrated(d.Sample(x, y))
	if !ok {
		return d.scaling.MissingValue
	}
	return v
}
