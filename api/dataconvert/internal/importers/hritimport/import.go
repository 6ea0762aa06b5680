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

// Imports HRIT products: every channel with segments in the input directory is a product
package hritimport

import (
	"path"

	"github.com/meteosatlib/msat/api/dataconvert/internal/importer"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/hrit"
	"github.com/meteosatlib/msat/core/satimage"
)

type HRIT struct {
}

func (h HRIT) Name() string {
	return "HRIT"
}

// Detect - true if there's at least one HRIT segment directly in root
func Detect(fs fileaccess.FileAccess, bucket string, root string) (bool, error) {
	keys, err := hrit.FindProducts(fs, bucket, root)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

func (h HRIT) Products(fs fileaccess.FileAccess, bucket string, root string) ([]importer.Product, error) {
	keys, err := hrit.FindProducts(fs, bucket, root)
	if err != nil {
		return nil, err
	}

	result := []importer.Product{}
	for _, k := range keys {
		result = append(result, importer.Product{Key: k.String(), Channel: k.ProductID2, Timestamp: k.Timestamp})
	}
	return result, nil
}

func (h HRIT) Import(fs fileaccess.FileAccess, bucket string, root string, product importer.Product, opts importer.Options) (*satimage.Image, error) {
	key, err := hrit.ParseSegmentKey(path.Join(root, product.Key))
	if err != nil {
		return nil, err
	}
	return hrit.Import(fs, bucket, key, hrit.ImportOptions{Log: opts.Log, Progress: opts.Progress})
}
