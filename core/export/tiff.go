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
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// Raw values available to data when re-encoding floats, 0 is missing
const maxEncodedRaw = 65535

// Decimal digits kept for floats of channels we know nothing about
const defaultDigits = 4

var ErrRawOutOfRange = errors.New("raw sample does not fit 16 bits")

// encodingFor - slope/offset to store the physical values of img as 16 bit raw values.
// Integer scaled data keeps its own encoding. Floats are stored with as many decimal digits as
// the channel needs, fewer if the value range would not fit
func encodingFor(img *satimage.Image) (float64, float64, int, error) {
	scaling := img.Data.Scaling()
	if scaling.ScalesToInt {
		if scaling.Bpp > 16 {
			return 0, 0, 0, errors.Wrapf(ErrRawOutOfRange, "%v bits per sample", scaling.Bpp)
		}
		return scaling.Slope, scaling.Offset, scaling.MissingRaw, nil
	}

	lo, hi, ok := satimage.MinMaxScaled(img.Data)
	if !ok {
		// Nothing but missing values
		return 1, 0, 0, nil
	}

	digits, err := img.DecimalDigitsOfScaledValues()
	if err != nil {
		if errors.Cause(err) != satimage.ErrDigitsUnknown {
			return 0, 0, 0, err
		}
		digits = defaultDigits
	}

	slope := math.Pow(10, float64(-digits))
	for math.Ceil((float64(hi)-float64(lo))/slope) >= maxEncodedRaw {
		digits--
		slope = math.Pow(10, float64(-digits))
	}

	// Raw 1 is lo
	return slope, float64(lo) - slope, 0, nil
}

// EncodeTIFF - img as a 16 bit gray TIFF, and the metadata needed to get physical values back
func EncodeTIFF(img *satimage.Image) ([]byte, Metadata, error) {
	meta := MetadataFromImage(img)
	if img.Data == nil {
		return nil, meta, satimage.ErrNoData
	}

	slope, offset, missingRaw, err := encodingFor(img)
	if err != nil {
		return nil, meta, err
	}
	meta.Slope = slope
	meta.Offset = offset
	meta.MissingRaw = missingRaw

	columns, lines := img.Size()
	scaling := img.Data.Scaling()
	out := image.NewGray16(image.Rect(0, 0, columns, lines))

	for y := 0; y < lines; y++ {
		for x := 0; x < columns; x++ {
			v := img.Data.Scaled(x, y)

			raw := missingRaw
			if v != scaling.MissingValue && !math.IsNaN(float64(v)) {
				if scaling.ScalesToInt {
					raw = img.Data.Unscaled(x, y)
				} else {
					raw = int(math.Round((float64(v)-offset)/slope))
				}
			}

			if raw < 0 || raw > maxEncodedRaw {
				return nil, meta, errors.Wrapf(ErrRawOutOfRange, "%v at %v,%v", raw, x, y)
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(raw)})
		}
	}
	if err := satimage.ReadError(img.Data); err != nil {
		return nil, meta, err
	}

	var b bytes.Buffer
	if err := tiff.Encode(&b, out, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return nil, meta, err
	}
	return b.Bytes(), meta, nil
}

// DecodeTIFF - samples of a gray TIFF, row by row
func DecodeTIFF(data []byte) (int, int, []uint16, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, nil, err
	}

	bounds := img.Bounds()
	columns, lines := bounds.Dx(), bounds.Dy()
	samples := make([]uint16, columns*lines)

	for y := 0; y < lines; y++ {
		for x := 0; x < columns; x++ {
			samples[y*columns+x] = color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16).Y
		}
	}
	return columns, lines, samples, nil
}

// ImageFromTIFF - image read back from an exported TIFF and its metadata
func ImageFromTIFF(data []byte, meta Metadata) (*satimage.Image, error) {
	columns, lines, samples, err := DecodeTIFF(data)
	if err != nil {
		return nil, err
	}
	if columns != meta.Columns || lines != meta.Lines {
		return nil, errors.Errorf("TIFF is %vx%v, metadata says %vx%v", columns, lines, meta.Columns, meta.Lines)
	}

	pixels := satimage.NewPixelImageData[uint16](columns, lines, false, satimage.Scaling{
		Slope:        meta.Slope,
		Offset:       meta.Offset,
		MissingValue: satimage.DefaultMissingValue,
		MissingRaw:   meta.MissingRaw,
		ScalesToInt:  true,
		Bpp:          16,
	})
	copy(pixels.Pixels, samples)

	return meta.Image(pixels)
}

// WriteTIFF - encodes img and writes it to tiffPath, returns the metadata for its sidecar
func WriteTIFF(fs fileaccess.FileAccess, bucket string, tiffPath string, img *satimage.Image) (Metadata, error) {
	data, meta, err := EncodeTIFF(img)
	if err != nil {
		return meta, err
	}
	return meta, fs.WriteObject(bucket, tiffPath, data)
}
