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

import "math"

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var daysBeforeMonth = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// JDay - day of the year, 1 based
func JDay(year int, month int, day int) int {
	if month < 1 || month > 12 {
		return 0
	}
	jday := daysBeforeMonth[month-1] + day
	if month > 2 && isLeapYear(year) {
		jday++
	}
	return jday
}

// CosSolZA - cosine of the solar zenith angle at lat/lon (degrees) for a day of year and
// fractional UTC hour. Low precision solar position (declination and equation of time as
// Fourier series of the day angle). Can be NaN for garbage inputs, callers clamp.
func CosSolZA(jday int, hour float64, lat float64, lon float64) float64 {
	x := 2 * math.Pi * float64(jday-1) / 365

	declination := 0.006918 -
		0.399912*math.Cos(x) + 0.070257*math.Sin(x) -
		0.006758*math.Cos(2*x) + 0.000907*math.Sin(2*x) -
		0.002697*math.Cos(3*x) + 0.00148*math.Sin(3*x)

	// minutes
	eqTime := (0.000075 + 0.001868*math.Cos(x) - 0.032077*math.Sin(x) -
		0.014615*math.Cos(2*x) - 0.040849*math.Sin(2*x)) * 229.18

	trueSolarTime := hour*60 + 4*lon + eqTime
	hourAngle := (trueSolarTime/4 - 180) * math.Pi / 180

	latR := lat * math.Pi / 180
	return math.Sin(latR)*math.Sin(declination) + math.Cos(latR)*math.Cos(declination)*math.Cos(hourAngle)
}

// SatZA - satellite zenith angle in radians seen from lat/lon (degrees) for a satellite at
// the default sub-satellite longitude
func SatZA(lat float64, lon float64) float64 {
	return SatZAWithSublon(lat, lon, DefaultSubLon)
}

// SatZAWithSublon - as SatZA, for a satellite parked at sublon
func SatZAWithSublon(lat float64, lon float64, sublon float64) float64 {
	latR := lat * math.Pi / 180
	dlonR := (lon - sublon) * math.Pi / 180

	cosg := math.Cos(latR) * math.Cos(dlonR)
	elevation := math.Atan((cosg - EarthRadius/OrbitRadius) / math.Sqrt(1-cosg*cosg))
	return math.Pi/2 - elevation
}

// EarthSunDistanceFactor - sun-earth distance in astronomical units, approximated from the
// day of year (perihelion on day 3)
func EarthSunDistanceFactor(jday int) float64 {
	return 1 - 0.0167*math.Cos(2*math.Pi*float64(jday-3)/365)
}
