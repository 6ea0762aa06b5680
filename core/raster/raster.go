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

// Raster band sources: the minimal view of a raster that derived band computations and
// exporters need, whatever the raster was read from
package raster

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Metadata keys for satellite specific tags
const (
	MetaDatetime     = "MSAT_DATETIME"
	MetaSpacecraft   = "MSAT_SPACECRAFT"
	MetaSpacecraftID = "MSAT_SPACECRAFT_ID"
	MetaChannel      = "MSAT_CHANNEL"
	MetaChannelID    = "MSAT_CHANNEL_ID"
	MetaInstitution  = "MSAT_INSTITUTION"
	MetaProduct      = "MSAT_PRODUCT"
)

// Format of MetaDatetime values
const DatetimeFormat = "2006-01-02 15:04:05"

var ErrBadBlock = errors.New("block outside raster")
var ErrClosed = errors.New("dataset closed")

// Band - one grid of samples. Physical value = sample*Scale()+Offset()
type Band interface {
	Size() (int, int)
	// Reads the w x h block at x, y into buf, row by row
	ReadBlock(x int, y int, w int, h int, buf []float64) error
	Scale() float64
	Offset() float64
	// Raw sample value meaning "no data", if there is one
	NoDataValue() (float64, bool)
	Metadata() map[string]string
	SetMetadataItem(key string, value string)
}

// Dataset - bands sharing one grid and georeferencing
type Dataset interface {
	Size() (int, int)
	Bands() []Band
	ProjectionRef() string
	// Pixel to projected coordinates: x origin, x step, 0, y origin, 0, y step
	GeoTransform() [6]float64
	Metadata() map[string]string
	Close() error
}

// CheckBlock - is the block inside a columns x lines raster, and is buf big enough
func CheckBlock(columns int, lines int, x int, y int, w int, h int, buf []float64) error {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > columns || y+h > lines {
		return errors.Wrapf(ErrBadBlock, "%vx%v at %v,%v in %vx%v raster", w, h, x, y, columns, lines)
	}
	if len(buf) < w*h {
		return errors.Errorf("buffer of %v values for %vx%v block", len(buf), w, h)
	}
	return nil
}

// DatasetTime - acquisition time from the dataset metadata
func DatasetTime(ds Dataset) (time.Time, error) {
	value, ok := ds.Metadata()[MetaDatetime]
	if !ok {
		return time.Time{}, errors.Errorf("dataset has no %v", MetaDatetime)
	}
	t, err := time.Parse(DatetimeFormat, value)
	if err != nil {
		return t, errors.Wrapf(err, "bad %v", MetaDatetime)
	}
	return t, nil
}

// ChannelID - channel id tag of a band, 0 if not tagged
func ChannelID(b Band) int {
	value, ok := b.Metadata()[MetaChannelID]
	if !ok {
		return 0
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return id
}
