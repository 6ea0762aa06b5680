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

// Imports rasters written by our own exporter: a 16 bit TIFF with a JSON or protobuf metadata
// sidecar of the same name
package tiffimport

import (
	"path"
	"strings"

	"github.com/meteosatlib/msat/api/dataconvert/internal/importer"
	"github.com/meteosatlib/msat/core/export"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/hrit"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
)

const suffixTIFF = ".tif"

type TIFF struct {
}

func (t TIFF) Name() string {
	return "TIFF"
}

// sidecar - metadata file next to tiffPath, "" if there is none
func sidecar(fs fileaccess.FileAccess, bucket string, tiffPath string) (string, error) {
	base := strings.TrimSuffix(tiffPath, suffixTIFF)
	for _, ext := range []string{export.MetadataExtJSON, export.MetadataExtProto} {
		exists, err := fs.ObjectExists(bucket, base+ext)
		if err != nil {
			return "", err
		}
		if exists {
			return base + ext, nil
		}
	}
	return "", nil
}

// exported - TIFFs directly in root that have a sidecar, as tiff path => sidecar path
func exported(fs fileaccess.FileAccess, bucket string, root string) ([]string, map[string]string, error) {
	tiffs, err := fileaccess.MatchObjects(fs, bucket, root, "*"+suffixTIFF)
	if err != nil {
		return nil, nil, err
	}

	paths := []string{}
	sidecars := map[string]string{}
	for _, p := range tiffs {
		meta, err := sidecar(fs, bucket, p)
		if err != nil {
			return nil, nil, err
		}
		if len(meta) > 0 {
			paths = append(paths, p)
			sidecars[p] = meta
		}
	}
	return paths, sidecars, nil
}

// Detect - true if root has at least one TIFF with a sidecar
func Detect(fs fileaccess.FileAccess, bucket string, root string) (bool, error) {
	paths, _, err := exported(fs, bucket, root)
	return len(paths) > 0, err
}

func (t TIFF) Products(fs fileaccess.FileAccess, bucket string, root string) ([]importer.Product, error) {
	paths, sidecars, err := exported(fs, bucket, root)
	if err != nil {
		return nil, err
	}

	result := []importer.Product{}
	for _, p := range paths {
		meta, err := export.ReadMetadata(fs, bucket, sidecars[p])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read metadata of %v", p)
		}
		_, name := path.Split(p)
		result = append(result, importer.Product{
			Key:       name,
			Channel:   meta.Channel,
			Timestamp: meta.Time.UTC().Format(hrit.TimestampFormat),
			Name:      strings.TrimSuffix(name, suffixTIFF),
		})
	}
	return result, nil
}

func (t TIFF) Import(fs fileaccess.FileAccess, bucket string, root string, product importer.Product, opts importer.Options) (*satimage.Image, error) {
	tiffPath := path.Join(root, product.Key)

	metaPath, err := sidecar(fs, bucket, tiffPath)
	if err != nil {
		return nil, err
	}
	if len(metaPath) <= 0 {
		return nil, errors.Errorf("no metadata for %v", tiffPath)
	}

	meta, err := export.ReadMetadata(fs, bucket, metaPath)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadObject(bucket, tiffPath)
	if err != nil {
		return nil, err
	}

	img, err := export.ImageFromTIFF(data, meta)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %v", tiffPath)
	}
	img.AddToHistory("Imported from TIFF " + product.Key)

	if opts.Log != nil {
		opts.Log.Infof("Imported %v: %vx%v", tiffPath, meta.Columns, meta.Lines)
	}
	return img, nil
}
