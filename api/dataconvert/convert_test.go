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

package dataconvert

import (
	"fmt"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/meteosatlib/msat/api/config"
	"github.com/meteosatlib/msat/api/dataconvert/internal/importer"
	"github.com/meteosatlib/msat/core/catalog"
	"github.com/meteosatlib/msat/core/export"
	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/hrit"
	"github.com/meteosatlib/msat/core/idgen"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/meteosatlib/msat/core/timestamper"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cycleStart = time.Date(2006, 11, 14, 12, 0, 9, 0, time.UTC)

// Writes a 4x4 product (2 segments of 4x2 lines) around the sub-satellite point
func writeHRITProduct(t *testing.T, fs fileaccess.FileAccess, bucket string, channel string, channelID int) {
	key := hrit.SegmentKey{Dir: "in", Resolution: "H", ProductID1: "MSG1", ProductID2: channel, Timestamp: "200611141200"}

	prologue := hrit.Prologue{SatelliteID: 321, RepeatCycleStart: cycleStart, TypeOfProjection: 1}
	prologue.Calibration[facts.ChannelVIS006-1] = hrit.ChannelCalibration{Slope: 0.0201355, Offset: -1.02691}
	prologue.Calibration[facts.ChannelIR108-1] = hrit.ChannelCalibration{Slope: 0.2, Offset: -10}

	epilogue := hrit.Epilogue{
		SatelliteID:      321,
		ForwardScanStart: cycleStart,
		ForwardScanEnd:   cycleStart.Add(12 * time.Minute),
		VISIRCoverage:    hrit.Coverage{SouthLine: 0, NorthLine: 3711, EastColumn: 0, WestColumn: 3711},
	}

	product := hrit.Product{Prologue: prologue, Epilogue: epilogue}
	for seq := 1; seq <= 2; seq++ {
		samples := make([]uint16, 8)
		for i := range samples {
			samples[i] = uint16(300 + seq*10 + i)
		}
		product.Segments = append(product.Segments, hrit.ProductSegment{
			Spec: hrit.SegmentSpec{
				SpacecraftID:        321,
				ChannelID:           channelID,
				SeqNo:               seq,
				PlannedStartSegment: 1,
				PlannedEndSegment:   2,
				BitsPerPixel:        10,
				Columns:             4,
				Lines:               2,
				CFAC:                13642337,
				LFAC:                13642337,
				COFF:                2,
				LOFF:                2,
				Time:                cycleStart,
			},
			Samples: samples,
		})
	}

	require.NoError(t, hrit.WriteProduct(fs, bucket, key, product))
}

func makeDeps(t *testing.T) Deps {
	fs := &fileaccess.FSAccess{}
	bucket := t.TempDir()
	writeHRITProduct(t, fs, bucket, "VIS006", facts.ChannelVIS006)
	writeHRITProduct(t, fs, bucket, "IR_108", facts.ChannelIR108)

	cat, err := catalog.NewBoltCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	return Deps{
		InputFS:      fs,
		InputBucket:  bucket,
		OutputFS:     fs,
		OutputBucket: bucket,
		Catalog:      cat,
		Log:          &logger.NullLogger{},
	}
}

func Example_wanted() {
	vis := importer.Product{Key: "H:MSG1:VIS006:200611141200", Channel: "VIS006", Timestamp: "200611141200"}
	ir := importer.Product{Key: "H:MSG1:IR_108:200611141200", Channel: "IR_108", Timestamp: "200611141200"}

	req := ConvertRequest{}
	fmt.Println(wanted(req, vis), wanted(req, ir))

	req.Channels = []string{"ir108"}
	fmt.Println(wanted(req, vis), wanted(req, ir))

	req.Channels = nil
	req.Timestamp = "200611141215"
	fmt.Println(wanted(req, vis), wanted(req, ir))

	// Output:
	// true true
	// false true
	// false false
}

func TestConvertHRIT(t *testing.T) {
	deps := makeDeps(t)
	deps.IDs = &idgen.MockIDGenerator{IDs: []string{"conv-1", "conv-2"}}
	deps.Clock = &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1163506800, 1163506810}}

	req := ConvertRequest{
		InputRoot:    "in",
		OutputRoot:   "out",
		DerivedBands: []string{config.DerivedReflectance, config.DerivedJDay},
		Formats:      []string{export.FormatTIFF},
	}

	result, err := ConvertProduct(req, deps)
	require.NoError(t, err)
	assert.Equal(t, "HRIT", result.Importer)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Converted, 2)

	// No reflectance for IR
	ir := result.Converted[0]
	assert.Equal(t, "H:MSG1:IR_108:200611141200", ir.ProductKey)
	assert.Equal(t, []string{
		"out/MSG1_IR_108_200611141200.tif",
		"out/MSG1_IR_108_200611141200.json",
		"out/MSG1_IR_108_200611141200_jday.tif",
		"out/MSG1_IR_108_200611141200_jday.json",
	}, ir.Outputs)

	vis := result.Converted[1]
	assert.Equal(t, "H:MSG1:VIS006:200611141200", vis.ProductKey)
	assert.Len(t, vis.Outputs, 6)
	assert.Equal(t, "out/MSG1_VIS006_200611141200_reflectance.tif", vis.Outputs[2])

	rec, ok, err := deps.Catalog.Lookup(vis.ProductKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "conv-2", rec.ID)
	assert.Equal(t, int64(1163506810), rec.ConvertedAt.Unix())

	// Calibrated values made it through
	meta, err := export.ReadMetadata(deps.OutputFS, deps.OutputBucket, "out/MSG1_VIS006_200611141200.json")
	require.NoError(t, err)
	assert.Equal(t, 4, meta.Columns)
	assert.Equal(t, 4, meta.Lines)
	assert.InDelta(t, 0.0201355, meta.Slope, 1e-7)

	data, err := deps.OutputFS.ReadObject(deps.OutputBucket, "out/MSG1_VIS006_200611141200.tif")
	require.NoError(t, err)
	img, err := export.ImageFromTIFF(data, meta)
	require.NoError(t, err)

	imported, err := ImportProducts(deps.InputFS, deps.InputBucket, "in", deps.Log)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.InDelta(t, imported[1].Data.Scaled(x, y), img.Data.Scaled(x, y), 1e-5, "%v,%v", x, y)
			assert.Greater(t, img.Data.Scaled(x, y), float32(5))
		}
	}

	// Reflectances are percentages
	meta, err = export.ReadMetadata(deps.OutputFS, deps.OutputBucket, "out/MSG1_VIS006_200611141200_reflectance.json")
	require.NoError(t, err)
	data, err = deps.OutputFS.ReadObject(deps.OutputBucket, "out/MSG1_VIS006_200611141200_reflectance.tif")
	require.NoError(t, err)
	img, err = export.ImageFromTIFF(data, meta)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := img.Data.Scaled(x, y)
			assert.True(t, v >= 0 && v <= 100, "%v at %v,%v", v, x, y)
		}
	}

	// Again, with skipping
	req.SkipConverted = true
	result, err = ConvertProduct(req, deps)
	require.NoError(t, err)
	assert.Empty(t, result.Converted)
	assert.Equal(t, []string{"H:MSG1:IR_108:200611141200", "H:MSG1:VIS006:200611141200"}, result.Skipped)
}

func TestConvertCropAndRescale(t *testing.T) {
	deps := makeDeps(t)
	deps.Catalog = nil

	crop := image.Rect(1, 1, 3, 3)
	req := ConvertRequest{
		InputRoot:      "in",
		OutputRoot:     "small",
		Channels:       []string{"VIS006"},
		Crop:           &crop,
		Columns:        1,
		Lines:          1,
		Formats:        []string{export.FormatTIFF, export.FormatPNG},
		MetadataFormat: config.MetadataFormatProto,
	}

	result, err := ConvertProduct(req, deps)
	require.NoError(t, err)
	require.Len(t, result.Converted, 1)
	assert.Equal(t, []string{
		"small/MSG1_VIS006_200611141200.tif",
		"small/MSG1_VIS006_200611141200.pb",
		"small/MSG1_VIS006_200611141200.png",
	}, result.Converted[0].Outputs)

	meta, err := export.ReadMetadata(deps.OutputFS, deps.OutputBucket, "small/MSG1_VIS006_200611141200.pb")
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Columns)
	assert.Equal(t, 1, meta.Lines)
}

func TestConvertReimportsTIFF(t *testing.T) {
	deps := makeDeps(t)

	_, err := ConvertProduct(ConvertRequest{InputRoot: "in", OutputRoot: "out", Formats: []string{export.FormatTIFF}, DerivedBands: []string{config.DerivedSatZA}}, deps)
	require.NoError(t, err)

	result, err := ConvertProduct(ConvertRequest{InputRoot: "out", OutputRoot: "png", Formats: []string{export.FormatPNG}}, deps)
	require.NoError(t, err)
	assert.Equal(t, "TIFF", result.Importer)
	require.Len(t, result.Converted, 4)
	assert.Equal(t, "MSG1_IR_108_200611141200.tif", result.Converted[0].ProductKey)
	assert.Equal(t, []string{"png/MSG1_IR_108_200611141200.png"}, result.Converted[0].Outputs)
	assert.Equal(t, []string{"png/MSG1_IR_108_200611141200_satza.png"}, result.Converted[1].Outputs)

	channels, err := Channels(deps.InputFS, deps.InputBucket, "out", deps.Log)
	require.NoError(t, err)
	assert.Equal(t, []string{"IR_108", "VIS006"}, channels)
}

func TestImportProducts(t *testing.T) {
	deps := makeDeps(t)

	imgs, err := ImportProducts(deps.InputFS, deps.InputBucket, "in", deps.Log)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, facts.ChannelIR108, imgs[0].ChannelID)
	assert.Equal(t, facts.ChannelVIS006, imgs[1].ChannelID)
	assert.True(t, imgs[1].Time.Equal(time.Date(2006, 11, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Imported from HRIT H:MSG1:VIS006:200611141200", imgs[1].History)
}

func TestConvertUnknownInput(t *testing.T) {
	deps := makeDeps(t)
	require.NoError(t, deps.InputFS.WriteObject(deps.InputBucket, "junk/readme.txt", []byte("hello")))

	_, err := ConvertProduct(ConvertRequest{InputRoot: "junk", Formats: []string{export.FormatTIFF}}, deps)
	assert.Error(t, err)
}

func TestConvertTruncatedSegment(t *testing.T) {
	deps := makeDeps(t)
	key := hrit.SegmentKey{Dir: "in", Resolution: "H", ProductID1: "MSG1", ProductID2: "VIS006", Timestamp: "200611141200"}

	segPath := "in/" + key.SegmentFileName(2)
	data, err := deps.InputFS.ReadObject(deps.InputBucket, segPath)
	require.NoError(t, err)
	require.NoError(t, deps.InputFS.WriteObject(deps.InputBucket, segPath, data[:len(data)-8]))

	result, err := ConvertProduct(ConvertRequest{InputRoot: "in", OutputRoot: "out", Channels: []string{"VIS006"}, Formats: []string{export.FormatTIFF, export.FormatPNG}}, deps)
	require.Error(t, err)
	assert.Empty(t, result.Converted)

	_, found, err := deps.Catalog.Lookup(key.String())
	require.NoError(t, err)
	assert.False(t, found)

	for _, name := range []string{"out/MSG1_VIS006_200611141200.tif", "out/MSG1_VIS006_200611141200.json", "out/MSG1_VIS006_200611141200.png"} {
		exists, err := deps.OutputFS.ObjectExists(deps.OutputBucket, name)
		require.NoError(t, err)
		assert.False(t, exists, name)
	}

	// The other channel is untouched
	result, err = ConvertProduct(ConvertRequest{InputRoot: "in", OutputRoot: "out", Channels: []string{"IR_108"}, Formats: []string{export.FormatTIFF}}, deps)
	require.NoError(t, err)
	assert.Len(t, result.Converted, 1)
}

func TestDeriveImage(t *testing.T) {
	deps := makeDeps(t)
	imgs, err := ImportProducts(deps.InputFS, deps.InputBucket, "in", deps.Log)
	require.NoError(t, err)

	_, err = DeriveImage(imgs[0], config.DerivedReflectance, deps.Log)
	assert.True(t, IsNotDerivable(err))

	_, err = DeriveImage(imgs[0], "ndvi", deps.Log)
	assert.Equal(t, ErrUnknownDerivedBand, errors.Cause(err))

	jday, err := DeriveImage(imgs[1], config.DerivedJDay, deps.Log)
	require.NoError(t, err)
	assert.Equal(t, float32(318), jday.Data.Scaled(2, 2))
	assert.False(t, jday.Data.Scaling().ScalesToInt)
	var _ satimage.ImageData = jday.Data
}
