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

package export

import (
	"image"
	"image/color"
	"math"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/imageedit"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/satimage"
)

var markColour = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// QuicklookImage - 8 bit gray rendering of img, linearly stretched between its smallest and
// largest value. Missing pixels are black, data is 1-255
func QuicklookImage(img *satimage.Image) (*image.Gray, error) {
	if img.Data == nil {
		return nil, satimage.ErrNoData
	}

	columns, lines := img.Size()
	out := image.NewGray(image.Rect(0, 0, columns, lines))

	lo, hi, ok := satimage.MinMaxScaled(img.Data)
	if err := satimage.ReadError(img.Data); err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	span := float64(hi) - float64(lo)
	missing := img.Data.Scaling().MissingValue

	for y := 0; y < lines; y++ {
		for x := 0; x < columns; x++ {
			v := img.Data.Scaled(x, y)
			if v == missing || math.IsNaN(float64(v)) {
				continue
			}

			g := 1.0
			if span > 0 {
				g = 1 + math.Round((float64(v)-float64(lo))/span*254)
			}
			out.SetGray(x, y, color.Gray{Y: uint8(g)})
		}
	}
	return out, nil
}

// QuicklookBytes - PNG of the stretched image, at most maxWidth across, with marks drawn at the given
// locations. Locations outside the image are ignored
func QuicklookBytes(img *satimage.Image, maxWidth int, marks []projection.MapPoint) ([]byte, error) {
	gray, err := QuicklookImage(img)
	if err != nil {
		return nil, err
	}

	var out image.Image = gray
	if len(marks) > 0 {
		points := []image.Point{}
		for _, mark := range marks {
			x, y, err := img.CoordsToPixels(mark)
			if err != nil {
				// Not visible from the satellite
				continue
			}
			points = append(points, image.Point{X: x, Y: y})
		}
		out = imageedit.MarkLocations(gray, points, markColour)
	}

	out = imageedit.ScaleImage(out, maxWidth)
	return imageedit.GetImageBytes(out, "png")
}

// WriteQuicklook - writes QuicklookBytes to pngPath
func WriteQuicklook(fs fileaccess.FileAccess, bucket string, pngPath string, img *satimage.Image, maxWidth int, marks []projection.MapPoint) error {
	data, err := QuicklookBytes(img, maxWidth, marks)
	if err != nil {
		return err
	}
	return fs.WriteObject(bucket, pngPath, data)
}
