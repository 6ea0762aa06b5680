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

// Converts satellite products (HRIT segment sets, or our own TIFF exports) into TIFF/PNG
// outputs, optionally cropped, rescaled and with derived bands, recording what was done in a
// conversion catalogue
package dataconvert

import (
	"fmt"
	"image"
	"strings"

	"github.com/meteosatlib/msat/api/dataconvert/internal/importer"
	"github.com/meteosatlib/msat/api/dataconvert/internal/importerSelector"
	"github.com/meteosatlib/msat/core/catalog"
	"github.com/meteosatlib/msat/core/export"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/idgen"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/metrics"
	"github.com/meteosatlib/msat/core/progress"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/meteosatlib/msat/core/timestamper"
	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

// LatLonArea - crop box given by two opposite corners
type LatLonArea struct {
	Corner1 projection.MapPoint
	Corner2 projection.MapPoint
}

type ConvertRequest struct {
	InputRoot  string
	OutputRoot string

	// Only convert these channels (eg VIS006, IR_108), all if empty
	Channels []string
	// Only convert products of this time (YYYYMMDDhhmm), all if empty
	Timestamp string

	// Pixel crop, ignored if LatLonCrop is set
	Crop       *image.Rectangle
	LatLonCrop *LatLonArea

	// Rescale to this size after cropping, if both are set
	Columns int
	Lines   int

	DerivedBands []string

	Formats           []string
	MetadataFormat    string
	QuicklookMaxWidth int
	Marks             []projection.MapPoint

	SkipConverted bool
}

// Deps - where things come from and go to
type Deps struct {
	InputFS      fileaccess.FileAccess
	InputBucket  string
	OutputFS     fileaccess.FileAccess
	OutputBucket string

	// Can be nil, then nothing is skipped or recorded
	Catalog catalog.Catalog
	// Record ids and times, random and now if nil
	IDs     idgen.IDGenerator
	Clock   timestamper.ITimeStamper

	Log      logger.ILogger
	Progress progress.Reporter
}

type ConvertResult struct {
	Importer  string
	Converted []catalog.Record
	// Product keys already in the catalogue
	Skipped []string
}

func normaliseChannel(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "_", ""))
}

func wanted(req ConvertRequest, p importer.Product) bool {
	if len(req.Timestamp) > 0 && req.Timestamp != p.Timestamp {
		return false
	}
	if len(req.Channels) <= 0 {
		return true
	}
	for _, ch := range req.Channels {
		if normaliseChannel(ch) == normaliseChannel(p.Channel) {
			return true
		}
	}
	return false
}

// ConvertProduct - converts every wanted product found in the input root
func ConvertProduct(req ConvertRequest, deps Deps) (ConvertResult, error) {
	result := ConvertResult{Converted: []catalog.Record{}, Skipped: []string{}}

	log := deps.Log
	if log == nil {
		log = &logger.NullLogger{}
	}
	prog := deps.Progress
	if prog == nil {
		prog = progress.NullReporter{}
	}
	ids := deps.IDs
	if ids == nil {
		ids = idgen.UUIDGen{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = &timestamper.UnixTimeNowStamper{}
	}

	imp, err := importerSelector.SelectImporter(deps.InputFS, deps.InputBucket, req.InputRoot, log)
	if err != nil {
		return result, err
	}
	result.Importer = imp.Name()

	products, err := imp.Products(deps.InputFS, deps.InputBucket, req.InputRoot)
	if err != nil {
		return result, err
	}

	todo := []importer.Product{}
	for _, p := range products {
		if wanted(req, p) {
			todo = append(todo, p)
		}
	}
	log.Infof("%v input: %v products, %v to convert", imp.Name(), len(products), len(todo))

	exporter := export.Exporter{FS: deps.OutputFS, Bucket: deps.OutputBucket, Root: req.OutputRoot, Log: log}

	prog.Start("Convert "+req.InputRoot, len(todo))
	defer prog.Done()

	for _, p := range todo {
		if req.SkipConverted && deps.Catalog != nil {
			_, done, err := deps.Catalog.Lookup(p.Key)
			if err != nil {
				return result, errors.Wrapf(err, "catalogue lookup of %v", p.Key)
			}
			if done {
				log.Infof("Skipping %v, already converted", p.Key)
				metrics.Conversions.WithLabelValues(metrics.StatusSkipped).Inc()
				result.Skipped = append(result.Skipped, p.Key)
				prog.Step(p.Key + " skipped")
				continue
			}
		}

		outputs, err := convertOne(imp, p, req, deps, exporter, log)
		if err != nil {
			log.Errorf("Failed to convert %v: %v", p.Key, err)
			metrics.Conversions.WithLabelValues(metrics.StatusFailed).Inc()
			return result, errors.Wrapf(err, "failed to convert %v", p.Key)
		}

		rec := catalog.NewRecord(p.Key, outputs, ids, clock)
		if deps.Catalog != nil {
			if err := deps.Catalog.Put(rec); err != nil {
				return result, errors.Wrapf(err, "failed to record conversion of %v", p.Key)
			}
		}

		metrics.Conversions.WithLabelValues(metrics.StatusOK).Inc()
		result.Converted = append(result.Converted, rec)
		prog.Step(p.Key)
	}

	return result, nil
}

func convertOne(imp importer.Importer, p importer.Product, req ConvertRequest, deps Deps, exporter export.Exporter, log logger.ILogger) ([]string, error) {
	log.Infof("Converting %v", p.Key)

	img, err := imp.Import(deps.InputFS, deps.InputBucket, req.InputRoot, p, importer.Options{Log: log, Progress: deps.Progress})
	if err != nil {
		return nil, err
	}

	if req.LatLonCrop != nil {
		if err := img.CropByCoords(req.LatLonCrop.Corner1, req.LatLonCrop.Corner2); err != nil {
			return nil, err
		}
	} else if req.Crop != nil {
		if err := img.Crop(*req.Crop); err != nil {
			return nil, err
		}
	}

	if req.Columns > 0 && req.Lines > 0 {
		img, err = img.Rescaled(req.Columns, req.Lines)
		if err != nil {
			return nil, err
		}
	}

	opts := export.Options{
		Formats:           req.Formats,
		MetadataFormat:    req.MetadataFormat,
		QuicklookMaxWidth: req.QuicklookMaxWidth,
		Marks:             req.Marks,
	}

	name := p.Name
	if len(name) <= 0 {
		name = img.DefaultFilename()
	}
	outputs, err := exporter.Export(img, name, opts)
	if err != nil {
		return outputs, err
	}

	for _, derivedName := range req.DerivedBands {
		derived, err := DeriveImage(img, derivedName, log)
		if err != nil {
			if IsNotDerivable(err) {
				log.Infof("Not deriving %v of %v: %v", derivedName, p.Key, err)
				continue
			}
			return outputs, err
		}

		written, err := exporter.Export(derived, fmt.Sprintf("%v_%v", name, derivedName), opts)
		outputs = append(outputs, written...)
		if err != nil {
			return outputs, err
		}
	}

	log.Infof("Converted %v to %v files", p.Key, len(outputs))
	return outputs, nil
}

// Channels - names of the channels with a product in root, for listing
func Channels(fs fileaccess.FileAccess, bucket string, root string, log logger.ILogger) ([]string, error) {
	imp, err := importerSelector.SelectImporter(fs, bucket, root, log)
	if err != nil {
		return nil, err
	}
	products, err := imp.Products(fs, bucket, root)
	if err != nil {
		return nil, err
	}

	names := map[string]bool{}
	for _, p := range products {
		names[p.Channel] = true
	}
	return utils.GetSortedMapKeys(names), nil
}

// ImportProducts - every product in root as an image, for inspecting
func ImportProducts(fs fileaccess.FileAccess, bucket string, root string, log logger.ILogger) ([]*satimage.Image, error) {
	imp, err := importerSelector.SelectImporter(fs, bucket, root, log)
	if err != nil {
		return nil, err
	}
	products, err := imp.Products(fs, bucket, root)
	if err != nil {
		return nil, err
	}

	result := []*satimage.Image{}
	for _, p := range products {
		img, err := imp.Import(fs, bucket, root, p, importer.Options{Log: log})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to import %v", p.Key)
		}
		result = append(result, img)
	}
	return result, nil
}
