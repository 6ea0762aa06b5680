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

// Writes converted images out as 16 bit TIFFs with a metadata sidecar, and/or PNG quicklooks,
// to local disk or S3 through fileaccess
package export

import (
	"path"
	"time"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/metrics"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

// Output formats
const (
	FormatTIFF = "tiff"
	FormatPNG  = "png"
)

const (
	tiffExt = ".tif"
	pngExt  = ".png"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Options struct {
	Formats []string
	// json or proto, json if empty
	MetadataFormat    string
	QuicklookMaxWidth int
	// Drawn on quicklooks
	Marks []projection.MapPoint
}

// Exporter - writes images under Root in Bucket
type Exporter struct {
	FS     fileaccess.FileAccess
	Bucket string
	Root   string
	Log    logger.ILogger
}

// BasePath - where an image called name goes, without extension
func (e Exporter) BasePath(name string) string {
	return path.Join(e.Root, utils.MakeSaveableFileName(name))
}

// Export - writes img in each of the formats. name defaults to img.DefaultFilename(). Returns
// the paths written, sidecars included
func (e Exporter) Export(img *satimage.Image, name string, opts Options) ([]string, error) {
	if len(name) <= 0 {
		name = img.DefaultFilename()
	}
	base := e.BasePath(name)
	written := []string{}

	for _, format := range opts.Formats {
		start := time.Now()
		e.Log.Infof("Exporting %v as %v to %v", name, format, base)

		switch format {
		case FormatTIFF:
			meta, err := WriteTIFF(e.FS, e.Bucket, base+tiffExt, img)
			if err != nil {
				return written, errors.Wrapf(err, "failed to write %v", base+tiffExt)
			}
			written = append(written, base+tiffExt)

			metaPath, err := WriteMetadata(e.FS, e.Bucket, base, meta, opts.MetadataFormat)
			if err != nil {
				return written, errors.Wrapf(err, "failed to write metadata for %v", base+tiffExt)
			}
			written = append(written, metaPath)
		case FormatPNG:
			if err := WriteQuicklook(e.FS, e.Bucket, base+pngExt, img, opts.QuicklookMaxWidth, opts.Marks); err != nil {
				return written, errors.Wrapf(err, "failed to write %v", base+pngExt)
			}
			written = append(written, base+pngExt)
		default:
			return written, errors.Wrap(ErrUnknownFormat, format)
		}

		metrics.ObserveConversion(format, start)
		e.Log.Debugf("Wrote %v in %v", format, time.Since(start))
	}

	return written, nil
}
