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

// MemBand - band held in memory
type MemBand struct {
	Columns     int
	Lines       int
	Data        []float64
	ScaleValue  float64
	OffsetValue float64
	NoData      float64
	HasNoData   bool
	Meta        map[string]string
}

func NewMemBand(columns int, lines int) *MemBand {
	return &MemBand{
		Columns:    columns,
		Lines:      lines,
		Data:       make([]float64, columns*lines),
		ScaleValue: 1,
		Meta:       map[string]string{},
	}
}

func (b *MemBand) Size() (int, int) {
	return b.Columns, b.Lines
}

func (b *MemBand) At(x int, y int) float64 {
	return b.Data[y*b.Columns+x]
}

func (b *MemBand) Set(x int, y int, v float64) {
	b.Data[y*b.Columns+x] = v
}

func (b *MemBand) ReadBlock(x int, y int, w int, h int, buf []float64) error {
	if err := CheckBlock(b.Columns, b.Lines, x, y, w, h, buf); err != nil {
		return err
	}
	for row := 0; row < h; row++ {
		start := (y+row)*b.Columns + x
		copy(buf[row*w:(row+1)*w], b.Data[start:start+w])
	}
	return nil
}

func (b *MemBand) Scale() float64 {
	return b.ScaleValue
}

func (b *MemBand) Offset() float64 {
	return b.OffsetValue
}

func (b *MemBand) NoDataValue() (float64, bool) {
	return b.NoData, b.HasNoData
}

func (b *MemBand) Metadata() map[string]string {
	return b.Meta
}

func (b *MemBand) SetMetadataItem(key string, value string) {
	if b.Meta == nil {
		b.Meta = map[string]string{}
	}
	b.Meta[key] = value
}

// MemDataset - dataset of bands held in memory
type MemDataset struct {
	Columns   int
	Lines     int
	ProjRef   string
	Transform [6]float64
	Meta      map[string]string
	BandList  []Band
	Closed    bool
}

func (d *MemDataset) Size() (int, int) {
	return d.Columns, d.Lines
}

func (d *MemDataset) Bands() []Band {
	return d.BandList
}

func (d *MemDataset) ProjectionRef() string {
	return d.ProjRef
}

func (d *MemDataset) GeoTransform() [6]float64 {
	return d.Transform
}

func (d *MemDataset) Metadata() map[string]string {
	if d.Meta == nil {
		d.Meta = map[string]string{}
	}
	return d.Meta
}

func (d *MemDataset) Close() error {
	if d.Closed {
		return ErrClosed
	}
	d.Closed = true
	return nil
}
