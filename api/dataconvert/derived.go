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

package dataconvert

import (
	"github.com/meteosatlib/msat/api/config"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/raster"
	"github.com/meteosatlib/msat/core/reflectance"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
)

const institution = "msat"

var ErrUnknownDerivedBand = errors.New("unknown derived band")

// IsNotDerivable - errors meaning the band just can't be made from this channel, so converting
// carries on without it
func IsNotDerivable(err error) bool {
	cause := errors.Cause(err)
	return cause == reflectance.ErrNotComputable || cause == reflectance.ErrNotImplemented
}

// DeriveImage - computes the named derived band over img
func DeriveImage(img *satimage.Image, name string, log logger.ILogger) (*satimage.Image, error) {
	ds := raster.NewImageDataset(img, institution, img.ChannelName())

	var band raster.Band
	var err error

	switch name {
	case config.DerivedReflectance:
		refl := reflectance.NewDataset(img.ChannelID, log)
		defer refl.Close()

		if err = refl.AddSource(ds, true); err != nil {
			return nil, err
		}
		band, err = refl.InitRasterBand()
	case config.DerivedSatZA:
		band, err = reflectance.NewSatZABand(ds)
	case config.DerivedCosSolZA:
		band, err = reflectance.NewCosSolZABand(ds)
	case config.DerivedJDay:
		band, err = reflectance.NewJDayBand(ds)
	default:
		return nil, errors.Wrap(ErrUnknownDerivedBand, name)
	}
	if err != nil {
		return nil, err
	}

	return reflectance.ToImage(band, img, "Derived "+name)
}
