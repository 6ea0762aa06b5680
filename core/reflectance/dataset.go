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

// Derived bands computed on the fly from calibrated source bands: reflectance of the solar
// channels, and the geometry (zenith angles, day of year) that goes into it
package reflectance

import (
	"fmt"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/raster"
	"github.com/pkg/errors"
)

var ErrInconsistentSource = errors.New("inconsistent source")
var ErrNotImplemented = errors.New("not yet implemented")
var ErrNotComputable = errors.New("reflectance not computable for this channel")
var ErrMissingSource = errors.New("no source band for channel")
var ErrAlreadyInitialised = errors.New("raster band already initialised")

// Sources are either handed over to us (we close them) or borrowed (caller closes them)
type sourceDataset struct {
	ds    raster.Dataset
	owned bool
}

// Dataset - reflectance of one channel, computed from source datasets added one by one.
// All sources must share the geometry and time of the first one
type Dataset struct {
	ChannelID int
	log       logger.ILogger

	// Indexed by channel id - 1
	sources  [facts.ChannelCount]raster.Band
	datasets []sourceDataset

	hasReference bool
	projRef      string
	geoTransform [6]float64
	time         time.Time
	columns      int
	lines        int
	meta         map[string]string
	pixToLatlon  *raster.PixelToLatlon

	band raster.Band
}

func NewDataset(channelID int, log logger.ILogger) *Dataset {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Dataset{ChannelID: channelID, log: log, meta: map[string]string{}}
}

// AddSource - uses the bands of ds tagged with a channel we don't have yet. If takeOwnership,
// ds is closed when we are, even if none of its bands were used
func (d *Dataset) AddSource(ds raster.Dataset, takeOwnership bool) error {
	t, err := raster.DatasetTime(ds)
	if err != nil {
		return err
	}
	columns, lines := ds.Size()

	if !d.hasReference {
		pixToLatlon, err := raster.NewPixelToLatlon(ds)
		if err != nil {
			return err
		}

		d.hasReference = true
		d.projRef = ds.ProjectionRef()
		d.geoTransform = ds.GeoTransform()
		d.time = t
		d.columns = columns
		d.lines = lines
		d.pixToLatlon = pixToLatlon
		for k, v := range ds.Metadata() {
			d.meta[k] = v
		}
	} else {
		if ds.ProjectionRef() != d.projRef {
			return errors.Wrapf(ErrInconsistentSource, "projection %v differs from %v", ds.ProjectionRef(), d.projRef)
		}
		if ds.GeoTransform() != d.geoTransform {
			return errors.Wrapf(ErrInconsistentSource, "geotransform %v differs from %v", ds.GeoTransform(), d.geoTransform)
		}
		if !t.Equal(d.time) {
			return errors.Wrapf(ErrInconsistentSource, "time %v differs from %v", t, d.time)
		}
		if columns != d.columns || lines != d.lines {
			return errors.Wrapf(ErrInconsistentSource, "size %vx%v differs from %vx%v", columns, lines, d.columns, d.lines)
		}
	}

	used := 0
	for _, band := range ds.Bands() {
		id := raster.ChannelID(band)
		if id < 1 || id > facts.ChannelCount || d.sources[id-1] != nil {
			continue
		}
		d.sources[id-1] = band
		used++
	}

	d.datasets = append(d.datasets, sourceDataset{ds: ds, owned: takeOwnership})
	d.log.Debugf("Reflectance source added: %v bands used, owned: %v", used, takeOwnership)
	return nil
}

// InitRasterBand - sets up the band computing reflectance of our channel. Can only be done once
func (d *Dataset) InitRasterBand() (raster.Band, error) {
	if d.band != nil {
		return nil, ErrAlreadyInitialised
	}

	switch d.ChannelID {
	case facts.ChannelVIS006, facts.ChannelVIS008, facts.ChannelIR016, facts.ChannelHRV:
		src := d.sources[d.ChannelID-1]
		if src == nil {
			return nil, errors.Wrapf(ErrMissingSource, "channel %v", d.ChannelID)
		}
		band, err := NewSingleChannelReflectanceBand(d.ChannelID, src, d.pixToLatlon, d.time)
		if err != nil {
			return nil, err
		}
		d.band = band
	case facts.ChannelIR039:
		return nil, errors.Wrap(ErrNotImplemented, "reflectance of IR_039 needs CO2 correction")
	default:
		return nil, errors.Wrapf(ErrNotComputable, "channel %v", d.ChannelID)
	}

	name, _ := facts.ChannelName(d.ChannelID)
	d.band.SetMetadataItem(raster.MetaChannel, name)
	d.band.SetMetadataItem(raster.MetaChannelID, fmt.Sprintf("%v", d.ChannelID))
	d.band.SetMetadataItem(raster.MetaProduct, "Reflectance")
	return d.band, nil
}

func (d *Dataset) Size() (int, int) {
	return d.columns, d.lines
}

func (d *Dataset) Bands() []raster.Band {
	if d.band == nil {
		return []raster.Band{}
	}
	return []raster.Band{d.band}
}

func (d *Dataset) ProjectionRef() string {
	return d.projRef
}

func (d *Dataset) GeoTransform() [6]float64 {
	return d.geoTransform
}

func (d *Dataset) Metadata() map[string]string {
	return d.meta
}

// Close - closes the sources we own
func (d *Dataset) Close() error {
	var result error
	for _, src := range d.datasets {
		if !src.owned {
			continue
		}
		if err := src.ds.Close(); err != nil && result == nil {
			result = err
		}
	}
	d.datasets = nil
	d.sources = [facts.ChannelCount]raster.Band{}
	return result
}
