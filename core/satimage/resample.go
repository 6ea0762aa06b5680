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

package satimage

// Resample - nearest neighbour resampling of d to columns x lines. Integer scaled data stays as
// raw samples (so slope/offset still apply), anything else is resampled as physical values.
// Scaling is carried over unchanged either way
func Resample(d ImageData, columns int, lines int) ImageData {
	srcColumns, srcLines := d.Size()
	scaling := d.Scaling()

	if scaling.ScalesToInt {
		result := NewPixelImageData[int32](columns, lines, false, scaling)
		for y := 0; y < lines; y++ {
			sy := y * srcLines / lines
			for x := 0; x < columns; x++ {
				result.Set(x, y, int32(d.Unscaled(x*srcColumns/columns, sy)))
			}
		}
		return result
	}

	result := NewPixelImageData[float32](columns, lines, true, scaling)
	for y := 0; y < lines; y++ {
		sy := y * srcLines / lines
		for x := 0; x < columns; x++ {
			result.Set(x, y, d.Scaled(x*srcColumns/columns, sy))
		}
	}
	return result
}
