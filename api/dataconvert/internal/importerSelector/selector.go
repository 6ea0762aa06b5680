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

package importerSelector

import (
	"fmt"

	"github.com/meteosatlib/msat/api/dataconvert/internal/importer"
	"github.com/meteosatlib/msat/api/dataconvert/internal/importers/hritimport"
	"github.com/meteosatlib/msat/api/dataconvert/internal/importers/tiffimport"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/pkg/errors"
)

var ErrUnknownInput = errors.New("failed to determine input type")

// SelectImporter - Looks in root and determines what importer to use
func SelectImporter(fs fileaccess.FileAccess, bucket string, root string, log logger.ILogger) (importer.Importer, error) {
	log.Infof("Checking \"%v\" for HRIT segments...", root)
	isHRIT, err := hritimport.Detect(fs, bucket, root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input files")
	}
	if isHRIT {
		return hritimport.HRIT{}, nil
	}

	log.Infof("Checking \"%v\" for exported TIFFs...", root)
	isTIFF, err := tiffimport.Detect(fs, bucket, root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input files")
	}
	if isTIFF {
		return tiffimport.TIFF{}, nil
	}

	// Log the paths to help us diagnose issues...
	items, err := fs.ListObjects(bucket, root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input files")
	}

	logMsg := "SelectImporter path listing:\n"
	for c, item := range items {
		logMsg += fmt.Sprintf("  %v. %v\n", c+1, item)
	}
	log.Infof(logMsg)

	return nil, errors.Wrapf(ErrUnknownInput, "%v (%v files)", root, len(items))
}
