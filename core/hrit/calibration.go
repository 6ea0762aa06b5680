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
	"math"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/pkg/errors"
)

// Calibration - physical value for each raw count. Negative entries mean "no physical value".
// If ScalesToInt, the non-negative entries are exactly count*Slope+Offset
type Calibration struct {
	Table       []float32
	Slope       float64
	Offset      float64
	ScalesToInt bool
}

// BuildCalibration - count to physical value table for a channel of a spacecraft (WMO id).
// Solar channels give radiance, IR channels brightness temperature
func BuildCalibration(spacecraftID int, channelID int, bpp int, cal ChannelCalibration) (Calibration, error) {
	if bpp <= 0 || bpp > 16 {
		return Calibration{}, errors.Errorf("unsupported bits per pixel: %v", bpp)
	}

	table := make([]float32, 1<<bpp)

	switch {
	case facts.IsVisibleChannel(channelID):
		for c := range table {
			radiance := float64(c)*cal.Slope + cal.Offset
			if radiance <= 0 {
				table[c] = -1
			} else {
				table[c] = float32(radiance)
			}
		}
		return Calibration{Table: table, Slope: cal.Slope, Offset: cal.Offset, ScalesToInt: true}, nil

	case facts.IsIRChannel(channelID):
		planck, err := facts.PlanckCoefficients(spacecraftID, channelID)
		if err != nil {
			return Calibration{}, err
		}
		for c := range table {
			radiance := float64(c)*cal.Slope + cal.Offset
			t := planck.BrightnessTemperature(radiance)
			if math.IsNaN(t) || math.IsInf(t, 0) {
				table[c] = -1
			} else {
				table[c] = float32(t)
			}
		}
		return Calibration{Table: table, Slope: 1, Offset: 0, ScalesToInt: false}, nil
	}

	return Calibration{}, errors.Wrapf(facts.ErrUnknownChannel, "no calibration for channel id %v", channelID)
}
