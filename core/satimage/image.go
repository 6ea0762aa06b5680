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

// In-memory image model passed from importers to exporters: a grid of samples with its
// calibration, plus where it sits on the earth and what took it
package satimage

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/pkg/errors"
)

var ErrDigitsUnknown = errors.New("cannot work out the number of significant digits")
var ErrBadCropArea = errors.New("bad crop area")
var ErrNoData = errors.New("image has no data")

type Image struct {
	// Acquisition time, UTC, minute resolution
	Time time.Time

	ChannelID    int
	SpacecraftID int // WMO C-5

	Proj projection.Projection

	// Pixels per projected unit
	ColumnRes float64
	LineRes   float64

	// Pixel of the full frame where the projection origin is
	ColumnOffset int
	LineOffset   int

	// Position of our top left pixel in the full frame
	X0 int
	Y0 int

	History string

	Data ImageData
}

// SetData - replaces the image data
func (img *Image) SetData(data ImageData) {
	img.Data = data
}

func (img *Image) Size() (int, int) {
	if img.Data == nil {
		return 0, 0
	}
	return img.Data.Size()
}

func (img *Image) Datetime() string {
	return img.Time.UTC().Format("2006-01-02 15:04:05")
}

func (img *Image) AddToHistory(event string) {
	if len(img.History) > 0 {
		img.History += ", "
	}
	img.History += event
}

func (img *Image) ChannelName() string {
	name, err := facts.ChannelName(img.ChannelID)
	if err != nil {
		return fmt.Sprintf("CH%v", img.ChannelID)
	}
	return name
}

func (img *Image) SpacecraftName() string {
	name, err := facts.SpacecraftName(img.SpacecraftID)
	if err != nil {
		return fmt.Sprintf("SAT%v", img.SpacecraftID)
	}
	return name
}

// DefaultFilename - eg MSG1_VIS006_200611141200
func (img *Image) DefaultFilename() string {
	return strings.Join([]string{img.SpacecraftName(), img.ChannelName(), img.Time.UTC().Format("200601021504")}, "_")
}

// Crop - restrict the image to area (in pixels of the current image)
func (img *Image) Crop(area image.Rectangle) error {
	if img.Data == nil {
		return ErrNoData
	}

	columns, lines := img.Data.Size()
	area = area.Intersect(image.Rect(0, 0, columns, lines))
	if area.Empty() {
		return errors.Wrapf(ErrBadCropArea, "crop area does not overlap %vx%v image", columns, lines)
	}

	if err := img.Data.Crop(area); err != nil {
		return err
	}

	img.X0 += area.Min.X
	img.Y0 += area.Min.Y
	img.AddToHistory(fmt.Sprintf("Cropped subarea %v,%v %vx%v", area.Min.X, area.Min.Y, area.Dx(), area.Dy()))
	return nil
}

// CropByCoords - crop to the smallest pixel area holding the lat/lon box between the two corners
func (img *Image) CropByCoords(corner1 projection.MapPoint, corner2 projection.MapPoint) error {
	corners := []projection.MapPoint{
		corner1,
		corner2,
		{Lat: corner1.Lat, Lon: corner2.Lon},
		{Lat: corner2.Lat, Lon: corner1.Lon},
	}

	area := image.Rectangle{}
	for c, corner := range corners {
		x, y, err := img.CoordsToPixels(corner)
		if err != nil {
			return err
		}
		if c == 0 {
			area = image.Rect(x, y, x+1, y+1)
		} else {
			area = area.Union(image.Rect(x, y, x+1, y+1))
		}
	}

	return img.Crop(area)
}

// Rescaled - new image of columns x lines resampled from this one. Resolution and offsets are
// adjusted so coordinates still land on the same place
func (img *Image) Rescaled(columns int, lines int) (*Image, error) {
	if img.Data == nil {
		return nil, ErrNoData
	}
	if columns <= 0 || lines <= 0 {
		return nil, fmt.Errorf("invalid rescale size %vx%v", columns, lines)
	}

	srcColumns, srcLines := img.Data.Size()
	fx := float64(columns) / float64(srcColumns)
	fy := float64(lines) / float64(srcLines)

	result := *img
	result.ColumnRes = img.ColumnRes * fx
	result.LineRes = img.LineRes * fy
	result.ColumnOffset = int(math.Round(float64(img.ColumnOffset) * fx))
	result.LineOffset = int(math.Round(float64(img.LineOffset) * fy))
	result.X0 = int(math.Round(float64(img.X0) * fx))
	result.Y0 = int(math.Round(float64(img.Y0) * fy))
	result.Data = Resample(img.Data, columns, lines)
	if err := ReadError(img.Data); err != nil {
		return nil, err
	}
	result.AddToHistory(fmt.Sprintf("Rescaled to %vx%v", columns, lines))
	return &result, nil
}

// DecimalDigitsOfScaledValues - significant decimal digits of the physical values. Known
// channels come from a table, otherwise it can be worked out from the slope if the values came
// from integers
func (img *Image) DecimalDigitsOfScaledValues() (int, error) {
	if digits, ok := facts.ChannelDigits(img.ChannelID); ok {
		return digits, nil
	}

	if img.Data != nil {
		scaling := img.Data.Scaling()
		if scaling.ScalesToInt && scaling.Slope > 0 {
			l := math.Log10(scaling.Slope)
			digits := -int(math.Round(l))
			if math.Abs(l-math.Round(l)) > 1e-9 {
				digits++
			}
			return digits, nil
		}
	}

	return 0, errors.Wrapf(ErrDigitsUnknown, "channel %v", img.ChannelID)
}

// CoordsToPixels - pixel of this image holding the point, rounded to the nearest pixel
func (img *Image) CoordsToPixels(pt projection.MapPoint) (int, int, error) {
	p, err := projection.ToProjected(img.Proj, pt)
	if err != nil {
		return 0, 0, err
	}

	x := int(math.RoundToEven(p.X*img.ColumnRes)) + img.ColumnOffset - img.X0
	y := int(math.RoundToEven(-p.Y*img.LineRes)) + img.LineOffset - img.Y0
	return x, y, nil
}

// PixelsToCoords - location of a (possibly fractional) pixel position
func (img *Image) PixelsToCoords(x float64, y float64) (projection.MapPoint, error) {
	px := (x + float64(img.X0) - float64(img.ColumnOffset)) / img.ColumnRes
	py := -(y + float64(img.Y0) - float64(img.LineOffset)) / img.LineRes
	return projection.ToMap(img.Proj, projection.ProjectedPoint{X: px, Y: py})
}

func (img *Image) PixelHSize() float64 {
	return facts.PixelHSizeFromCFAC(img.ColumnRes)
}

func (img *Image) PixelVSize() float64 {
	return facts.PixelVSizeFromLFAC(img.LineRes)
}

func (img *Image) SeviriDX() int {
	return facts.SeviriDXFromColumnRes(img.ColumnRes)
}

func (img *Image) SeviriDY() int {
	return facts.SeviriDYFromLineRes(img.LineRes)
}

// GeoTransform - affine pixel to projected transform as [x origin, x step, 0, y origin, 0, y step].
// Metres for geostationary images, degrees for lat/lon ones
func (img *Image) GeoTransform() [6]float64 {
	var psx, psy float64
	switch img.Proj.(type) {
	case projection.Latlon, *projection.Latlon:
		psx = 1 / img.ColumnRes
		psy = 1 / img.LineRes
	default:
		psx = img.PixelHSize()
		psy = img.PixelVSize()
	}

	return [6]float64{
		float64(img.X0-img.ColumnOffset) * psx,
		psx,
		0,
		-float64(img.Y0-img.LineOffset) * psy,
		0,
		-psy,
	}
}

func (img *Image) ProjectionRef() string {
	if img.Proj == nil {
		return ""
	}
	return projection.Format(img.Proj)
}
