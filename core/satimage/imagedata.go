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

import (
	"image"
	"math"

	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

// Value we use for missing physical values unless told otherwise. All the quantities we
// calibrate to (radiance, temperature, reflectance, angles) are non-negative
const DefaultMissingValue float32 = -1

// Scaling - how raw samples relate to physical values. If ScalesToInt is set,
// physical = raw*Slope + Offset exactly, so raw values can be written out with slope/offset
// metadata and nothing is lost
type Scaling struct {
	Slope        float64
	Offset       float64
	MissingValue float32
	MissingRaw   int
	ScalesToInt  bool
	Bpp          int
}

// ImageData - a grid of samples, and how to turn them into physical values
type ImageData interface {
	Size() (int, int)
	Scaling() Scaling
	// Physical value at x, y. MissingValue if there's no data
	Scaled(x int, y int) float32
	// Raw sample at x, y. MissingRaw if there's no data
	Unscaled(x int, y int) int
	// Restricts the data to area, which must be inside the current size
	Crop(area image.Rectangle) error
}

// ReadError - first error hit while reading the samples of d. Data read lazily from storage
// reports failed reads this way, data held in memory never fails
func ReadError(d ImageData) error {
	if r, ok := d.(interface{ Err() error }); ok {
		if err := r.Err(); err != nil {
			return errors.Wrap(err, "failed to read image data")
		}
	}
	return nil
}

// Sample - types we keep pixel buffers in
type Sample interface {
	~uint8 | ~int16 | ~uint16 | ~int32 | ~float32 | ~float64
}

// PixelImageData - samples held in memory. If Prescaled the samples are physical values,
// otherwise they're raw and go through slope/offset
type PixelImageData[T Sample] struct {
	Columns   int
	Lines     int
	Pixels    []T
	Prescaled bool
	Scale     Scaling
}

func NewPixelImageData[T Sample](columns int, lines int, prescaled bool, scaling Scaling) *PixelImageData[T] {
	return &PixelImageData[T]{
		Columns:   columns,
		Lines:     lines,
		Pixels:    make([]T, columns*lines),
		Prescaled: prescaled,
		Scale:     scaling,
	}
}

func (d *PixelImageData[T]) Size() (int, int) {
	return d.Columns, d.Lines
}

func (d *PixelImageData[T]) Scaling() Scaling {
	return d.Scale
}

func (d *PixelImageData[T]) inBounds(x int, y int) bool {
	return x >= 0 && y >= 0 && x < d.Columns && y < d.Lines
}

func (d *PixelImageData[T]) At(x int, y int) T {
	return d.Pixels[y*d.Columns+x]
}

func (d *PixelImageData[T]) Set(x int, y int, v T) {
	d.Pixels[y*d.Columns+x] = v
}

func (d *PixelImageData[T]) Scaled(x int, y int) float32 {
	if !d.inBounds(x, y) {
		return d.Scale.MissingValue
	}

	v := d.At(x, y)
	if d.Prescaled {
		return float32(v)
	}

	if float64(v) == float64(d.Scale.MissingRaw) {
		return d.Scale.MissingValue
	}
	return float32(float64(v)*d.Scale.Slope + d.Scale.Offset)
}

func (d *PixelImageData[T]) Unscaled(x int, y int) int {
	if !d.inBounds(x, y) {
		return d.Scale.MissingRaw
	}

	v := float64(d.At(x, y))
	if !d.Prescaled {
		return int(math.Round(v))
	}

	if math.IsNaN(v) || float32(v) == d.Scale.MissingValue {
		return d.Scale.MissingRaw
	}
	if d.Scale.Slope != 0 {
		return int(math.Round((v - d.Scale.Offset) / d.Scale.Slope))
	}
	return int(math.Round(v))
}

// Crop - copies the area out into a new, smaller buffer
func (d *PixelImageData[T]) Crop(area image.Rectangle) error {
	if err := checkCropArea(area, d.Columns, d.Lines); err != nil {
		return err
	}

	w := area.Dx()
	h := area.Dy()
	pixels := make([]T, w*h)
	for y := 0; y < h; y++ {
		src := (area.Min.Y+y)*d.Columns + area.Min.X
		copy(pixels[y*w:(y+1)*w], d.Pixels[src:src+w])
	}

	d.Pixels = pixels
	d.Columns = w
	d.Lines = h
	return nil
}

func checkCropArea(area image.Rectangle, columns int, lines int) error {
	if area.Empty() || !area.In(image.Rect(0, 0, columns, lines)) {
		return errors.Wrapf(ErrBadCropArea, "%v not inside %vx%v image", area, columns, lines)
	}
	return nil
}

// CheckCropArea - for ImageData implementations outside this package
func CheckCropArea(area image.Rectangle, columns int, lines int) error {
	return checkCropArea(area, columns, lines)
}

// MinMaxScaled - range of the non-missing physical values, ok=false if everything is missing
func MinMaxScaled(d ImageData) (float32, float32, bool) {
	columns, lines := d.Size()
	missing := d.Scaling().MissingValue

	values := make([]float32, 0, columns*lines)
	for y := 0; y < lines; y++ {
		for x := 0; x < columns; x++ {
			v := d.Scaled(x, y)
			if v == missing || v != v {
				continue
			}
			values = append(values, v)
		}
	}
	return utils.MinMax(values)
}
