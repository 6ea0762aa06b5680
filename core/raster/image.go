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

package raster

import (
	"fmt"

	"github.com/meteosatlib/msat/core/satimage"
)

// ImageDataset - an image seen as a one band dataset
type ImageDataset struct {
	Image *satimage.Image
	meta  map[string]string
	band  *ImageBand
}

// ImageBand - samples of an image. Integer scaled data is read raw with slope/offset as
// scale/offset, anything else is read as physical values
type ImageBand struct {
	data satimage.ImageData
	meta map[string]string
}

// NewImageDataset - institution and product go in the metadata if not empty
func NewImageDataset(img *satimage.Image, institution string, product string) *ImageDataset {
	meta := map[string]string{
		MetaDatetime:     img.Datetime(),
		MetaSpacecraft:   img.SpacecraftName(),
		MetaSpacecraftID: fmt.Sprintf("%v", img.SpacecraftID),
	}
	if len(institution) > 0 {
		meta[MetaInstitution] = institution
	}
	if len(product) > 0 {
		meta[MetaProduct] = product
	}

	return &ImageDataset{
		Image: img,
		meta:  meta,
		band: &ImageBand{
			data: img.Data,
			meta: map[string]string{
				MetaChannel:   img.ChannelName(),
				MetaChannelID: fmt.Sprintf("%v", img.ChannelID),
			},
		},
	}
}

func (d *ImageDataset) Size() (int, int) {
	return d.Image.Size()
}

func (d *ImageDataset) Bands() []Band {
	return []Band{d.band}
}

func (d *ImageDataset) ProjectionRef() string {
	return d.Image.ProjectionRef()
}

func (d *ImageDataset) GeoTransform() [6]float64 {
	return d.Image.GeoTransform()
}

func (d *ImageDataset) Metadata() map[string]string {
	return d.meta
}

func (d *ImageDataset) Close() error {
	return nil
}

func (b *ImageBand) Size() (int, int) {
	return b.data.Size()
}

func (b *ImageBand) ReadBlock(x int, y int, w int, h int, buf []float64) error {
	columns, lines := b.data.Size()
	if err := CheckBlock(columns, lines, x, y, w, h, buf); err != nil {
		return err
	}

	raw := b.data.Scaling().ScalesToInt
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if raw {
				buf[row*w+col] = float64(b.data.Unscaled(x+col, y+row))
			} else {
				buf[row*w+col] = float64(b.data.Scaled(x+col, y+row))
			}
		}
	}
	return satimage.ReadError(b.data)
}

func (b *ImageBand) Scale() float64 {
	s := b.data.Scaling()
	if s.ScalesToInt {
		return s.Slope
	}
	return 1
}

func (b *ImageBand) Offset() float64 {
	s := b.data.Scaling()
	if s.ScalesToInt {
		return s.Offset
	}
	return 0
}

func (b *ImageBand) NoDataValue() (float64, bool) {
	s := b.data.Scaling()
	if s.ScalesToInt {
		return float64(s.MissingRaw), true
	}
	return float64(s.MissingValue), true
}

func (b *ImageBand) Metadata() map[string]string {
	return b.meta
}

func (b *ImageBand) SetMetadataItem(key string, value string) {
	b.meta[key] = value
}
