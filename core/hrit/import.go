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
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/progress"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
)

type ImportOptions struct {
	Log      logger.ILogger
	Progress progress.Reporter
}

// Import - reads the product identified by key as an image. Segment data is only read when
// samples are asked for
func Import(fs fileaccess.FileAccess, bucket string, key SegmentKey, opts ImportOptions) (*satimage.Image, error) {
	log := opts.Log
	if log == nil {
		log = &logger.NullLogger{}
	}
	prog := opts.Progress
	if prog == nil {
		prog = progress.NullReporter{}
	}

	prog.Start(fmt.Sprintf("Import %v", key), 4)
	defer prog.Done()

	fa, err := NewFileAccess(fs, bucket, key, log)
	if err != nil {
		return nil, err
	}
	prog.Step("located files")

	prologue, err := fa.ReadPrologue()
	if err != nil {
		return nil, errors.Wrapf(err, "reading prologue %v", fa.ProloguePath)
	}
	prog.Step("read prologue")

	epilogue, err := fa.ReadEpilogue()
	if err != nil {
		return nil, errors.Wrapf(err, "reading epilogue %v", fa.EpiloguePath)
	}
	prog.Step("read epilogue")

	h := fa.FirstHeader
	spacecraftID, err := facts.SpacecraftFromHRIT(h.SpacecraftID)
	if err != nil {
		return nil, err
	}
	channelName, err := facts.ChannelName(h.ChannelID)
	if err != nil {
		return nil, err
	}

	calibration, err := BuildCalibration(spacecraftID, h.ChannelID, h.BitsPerPixel, prologue.Calibration[h.ChannelID-1])
	if err != nil {
		return nil, err
	}
	prog.Step("built calibration")

	data := newImageData(fa, h, epilogue, calibration, channelName)

	img := &satimage.Image{
		Time:         prologue.RepeatCycleStart.UTC().Truncate(time.Minute),
		ChannelID:    h.ChannelID,
		SpacecraftID: spacecraftID,
		Proj:         projection.NewGeos(float64(prologue.LongitudeOfSSP)),
		ColumnRes:    abs(float64(h.CFAC)) / (1 << 16),
		LineRes:      abs(float64(h.LFAC)) / (1 << 16),
		ColumnOffset: h.COFF,
		LineOffset:   h.LOFF,
	}
	if data.SwapX {
		img.ColumnOffset = data.OrigColumns - h.COFF
	}
	if data.SwapY {
		img.LineOffset = data.OrigLines - h.LOFF
	}
	img.SetData(data)
	img.AddToHistory("Imported from HRIT " + key.String())

	log.Infof("Imported %v: %vx%v, %v segments of %v lines", key, data.OrigColumns, data.OrigLines, data.segmentCount, h.Lines)
	return img, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func newImageData(fa *FileAccess, h Header, epilogue Epilogue, calibration Calibration, channelName string) *ImageData {
	d := &ImageData{
		reader:       fa,
		channelName:  channelName,
		plannedStart: h.PlannedStartSegment,
		segmentCount: h.PlannedEndSegment - h.PlannedStartSegment + 1,
		npixperseg:   h.Columns * h.Lines,
		OrigColumns:  h.Columns,
		SwapX:        h.CFAC < 0,
		SwapY:        h.LFAC < 0,
		HRV:          h.ChannelID == facts.ChannelHRV,
		calibration:  calibration,
		scaling: satimage.Scaling{
			Slope:        calibration.Slope,
			Offset:       calibration.Offset,
			MissingValue: satimage.DefaultMissingValue,
			MissingRaw:   0,
			ScalesToInt:  calibration.ScalesToInt,
			Bpp:          h.BitsPerPixel,
		},
	}
	if d.plannedStart < 1 {
		d.plannedStart = 1
	}
	if d.segmentCount < 1 {
		d.segmentCount = len(fa.SegmentPaths)
	}
	d.OrigLines = h.Lines * d.segmentCount

	if d.HRV {
		// HRV segments hold half the width of the full frame, the upper and lower sub-frames
		// sit at different horizontal positions in it
		d.OrigColumns *= 2
		d.Frame = HRVFrame{
			UpperSouthLineActual:  epilogue.HRVUpperCoverage.SouthLine,
			UpperEastColumnActual: epilogue.HRVUpperCoverage.EastColumn,
			UpperWestColumnActual: epilogue.HRVUpperCoverage.WestColumn,
			LowerEastColumnActual: epilogue.HRVLowerCoverage.EastColumn,
			LowerWestColumnActual: epilogue.HRVLowerCoverage.WestColumn,
		}
	}

	d.columns = d.OrigColumns
	d.lines = d.OrigLines
	return d
}
