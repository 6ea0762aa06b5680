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

package facts

import (
	"math"

	"github.com/pkg/errors"
)

// SEVIRI channel ids as used in HRIT segment headers
const (
	ChannelVIS006 = 1
	ChannelVIS008 = 2
	ChannelIR016  = 3
	ChannelIR039  = 4
	ChannelWV062  = 5
	ChannelWV073  = 6
	ChannelIR087  = 7
	ChannelIR097  = 8
	ChannelIR108  = 9
	ChannelIR120  = 10
	ChannelIR134  = 11
	ChannelHRV    = 12

	ChannelCount = 12
)

var channelNames = map[int]string{
	ChannelVIS006: "VIS006",
	ChannelVIS008: "VIS008",
	ChannelIR016:  "IR_016",
	ChannelIR039:  "IR_039",
	ChannelWV062:  "WV_062",
	ChannelWV073:  "WV_073",
	ChannelIR087:  "IR_087",
	ChannelIR097:  "IR_097",
	ChannelIR108:  "IR_108",
	ChannelIR120:  "IR_120",
	ChannelIR134:  "IR_134",
	ChannelHRV:    "HRV",
}

// ChannelName - name of a channel as it appears in HRIT file names
func ChannelName(channelID int) (string, error) {
	name, ok := channelNames[channelID]
	if !ok {
		return "", errors.Wrapf(ErrUnknownChannel, "channel id %v", channelID)
	}
	return name, nil
}

// ChannelIDFromName - reverse of ChannelName
func ChannelIDFromName(name string) (int, error) {
	for id, n := range channelNames {
		if n == name {
			return id, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownChannel, "channel name %v", name)
}

// IsVisibleChannel - channels calibrated to radiance only (solar channels)
func IsVisibleChannel(channelID int) bool {
	return channelID == ChannelVIS006 || channelID == ChannelVIS008 || channelID == ChannelIR016 || channelID == ChannelHRV
}

// IsIRChannel - channels calibrated to brightness temperature
func IsIRChannel(channelID int) bool {
	return channelID >= ChannelIR039 && channelID <= ChannelIR134
}

// ChannelUnits - units of calibrated values
func ChannelUnits(channelID int) string {
	if IsIRChannel(channelID) {
		return "K"
	}
	if IsVisibleChannel(channelID) {
		return "mW m-2 sr-1 (cm-1)-1"
	}
	return ""
}

// ChannelDigits - significant decimal digits of calibrated values, when re-encoding them as integers
func ChannelDigits(channelID int) (int, bool) {
	if IsIRChannel(channelID) {
		return 2, true
	}
	if IsVisibleChannel(channelID) {
		return 4, true
	}
	return 0, false
}

// Band solar irradiance of the solar channels, mW m-2 (cm-1)-1
var solarConstants = map[int]float64{
	ChannelVIS006: 20.76,
	ChannelVIS008: 23.24,
	ChannelIR016:  19.85,
	ChannelHRV:    25.11,
}

func SolarConstant(channelID int) (float64, error) {
	c, ok := solarConstants[channelID]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownChannel, "no solar constant for channel id %v", channelID)
	}
	return c, nil
}

// Spacecraft ids, as WMO common code table C-5
const (
	SpacecraftMSG1 = 55
	SpacecraftMSG2 = 56
	SpacecraftMSG3 = 57
	SpacecraftMSG4 = 70
)

type spacecraft struct {
	hritID int
	wmoID  int
	name   string
}

var spacecrafts = []spacecraft{
	{321, SpacecraftMSG1, "MSG1"},
	{322, SpacecraftMSG2, "MSG2"},
	{323, SpacecraftMSG3, "MSG3"},
	{324, SpacecraftMSG4, "MSG4"},
}

// SpacecraftFromHRIT - WMO id for the spacecraft id found in HRIT headers and prologues
func SpacecraftFromHRIT(hritID int) (int, error) {
	for _, s := range spacecrafts {
		if s.hritID == hritID {
			return s.wmoID, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownSpacecraft, "HRIT spacecraft id %v", hritID)
}

// HRITSpacecraftFromWMO - reverse of SpacecraftFromHRIT
func HRITSpacecraftFromWMO(wmoID int) (int, error) {
	for _, s := range spacecrafts {
		if s.wmoID == wmoID {
			return s.hritID, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownSpacecraft, "WMO spacecraft id %v", wmoID)
}

func SpacecraftName(wmoID int) (string, error) {
	for _, s := range spacecrafts {
		if s.wmoID == wmoID {
			return s.name, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownSpacecraft, "WMO spacecraft id %v", wmoID)
}

// SpacecraftFromName - WMO id for a name like "MSG2"
func SpacecraftFromName(name string) (int, error) {
	for _, s := range spacecrafts {
		if s.name == name {
			return s.wmoID, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownSpacecraft, "spacecraft name %v", name)
}

// Planck - coefficients to go from IR radiance to brightness temperature:
// T = (C2*vc / ln(1 + C1*vc^3/R) - Beta) / Alpha
type Planck struct {
	WaveNumber float64 // central wave number, cm-1
	Alpha      float64
	Beta       float64
}

const (
	PlanckC1 = 1.19104e-5 // mW m-2 sr-1 (cm-1)-4
	PlanckC2 = 1.43877    // K cm
)

// Indexed by WMO spacecraft id, then channel id - ChannelIR039
var planckCoefficients = map[int][8]Planck{
	SpacecraftMSG1: {
		{2567.330, 0.9956, 3.410},
		{1598.103, 0.9962, 2.218},
		{1362.081, 0.9991, 0.478},
		{1149.069, 0.9996, 0.179},
		{1034.343, 0.9999, 0.060},
		{930.647, 0.9983, 0.625},
		{839.660, 0.9988, 0.397},
		{752.387, 0.9981, 0.578},
	},
	SpacecraftMSG2: {
		{2568.832, 0.9954, 3.438},
		{1600.548, 0.9963, 2.185},
		{1360.330, 0.9991, 0.470},
		{1148.620, 0.9996, 0.179},
		{1035.289, 0.9999, 0.056},
		{931.700, 0.9983, 0.640},
		{836.445, 0.9988, 0.408},
		{751.792, 0.9981, 0.561},
	},
	SpacecraftMSG3: {
		{2547.771, 0.9915, 2.9002},
		{1595.621, 0.9960, 2.0337},
		{1360.337, 0.9991, 0.4340},
		{1148.130, 0.9996, 0.1714},
		{1034.715, 0.9999, 0.0527},
		{929.842, 0.9983, 0.6084},
		{838.659, 0.9988, 0.3882},
		{750.653, 0.9982, 0.5390},
	},
	SpacecraftMSG4: {
		{2555.280, 0.9916, 2.9438},
		{1596.080, 0.9959, 2.0780},
		{1361.748, 0.9990, 0.4929},
		{1147.433, 0.9996, 0.1731},
		{1034.851, 0.9998, 0.0597},
		{931.122, 0.9983, 0.6256},
		{839.113, 0.9988, 0.4002},
		{748.585, 0.9981, 0.5635},
	},
}

// PlanckCoefficients - for an IR channel of a spacecraft (WMO id)
func PlanckCoefficients(wmoID int, channelID int) (Planck, error) {
	coeffs, ok := planckCoefficients[wmoID]
	if !ok {
		return Planck{}, errors.Wrapf(ErrUnknownSpacecraft, "no IR calibration for WMO spacecraft id %v", wmoID)
	}
	if !IsIRChannel(channelID) {
		return Planck{}, errors.Wrapf(ErrUnknownChannel, "no IR calibration for channel id %v", channelID)
	}
	return coeffs[channelID-ChannelIR039], nil
}

// BrightnessTemperature - radiance to Kelvin. Radiance <= 0 has no temperature, returns NaN
func (p Planck) BrightnessTemperature(radiance float64) float64 {
	if radiance <= 0 {
		return math.NaN()
	}
	vc := p.WaveNumber
	return (PlanckC2*vc/math.Log(1+PlanckC1*vc*vc*vc/radiance) - p.Beta) / p.Alpha
}
