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

package reflectance

import (
	"github.com/meteosatlib/msat/core/raster"
	"github.com/meteosatlib/msat/core/satimage"
)

// ToImage - computes all of band into an image placed, timed and labelled like template.
// The values are physical, so the image data does not scale to int
func ToImage(band raster.Band, template *satimage.Image, history string) (*satimage.Image, error) {
	columns, lines := band.Size()

	buf := make([]float64, columns*lines)
	if err := band.ReadBlock(0, 0, columns, lines, buf); err != nil {
		return nil, err
	}

	missing := satimage.DefaultMissingValue
	if noData, ok := band.NoDataValue(); ok {
		missing = float32(noData)
	}

	data := satimage.NewPixelImageData[float32](columns, lines, true, satimage.Scaling{
		Slope:        1,
		Offset:       0,
		MissingValue: missing,
		ScalesToInt:  false,
		Bpp:          32,
	})
	scale, offset := band.Scale(), band.Offset()
	for c, v := range buf {
		if v == float64(missing) {
			data.Pixels[c] = missing
		} else {
			data.Pixels[c] = float32(v*scale + offset)
		}
	}

	img := *template
	img.Data = nil
	img.SetData(data)
	img.AddToHistory(history)
	return &img, nil
}
