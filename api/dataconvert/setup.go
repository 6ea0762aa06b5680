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
	"github.com/meteosatlib/msat/api/config"
	"github.com/meteosatlib/msat/core/awsutil"
	"github.com/meteosatlib/msat/core/catalog"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/progress"
	"github.com/pkg/errors"
)

// OpenLocation - file access, bucket and root for a local directory or s3://bucket/prefix
func OpenLocation(location string, region string) (fileaccess.FileAccess, string, string, error) {
	bucket, root, isS3 := fileaccess.SplitLocation(location)
	if !isS3 {
		return &fileaccess.FSAccess{}, bucket, root, nil
	}

	sess, err := awsutil.GetSessionWithRegion(region)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "AWS GetSession failed")
	}
	svc, err := awsutil.GetS3(sess)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "AWS GetS3 failed")
	}
	return fileaccess.MakeS3Access(svc), bucket, root, nil
}

// RequestFromConfig - request for converting everything under the configured input path
func RequestFromConfig(cfg config.ConverterConfig) ConvertRequest {
	_, inputRoot, _ := fileaccess.SplitLocation(cfg.InputPath)
	_, outputRoot, _ := fileaccess.SplitLocation(cfg.OutputPath)

	return ConvertRequest{
		InputRoot:         inputRoot,
		OutputRoot:        outputRoot,
		DerivedBands:      cfg.DerivedBands,
		Formats:           cfg.OutputFormats,
		MetadataFormat:    cfg.MetadataFormat,
		QuicklookMaxWidth: int(cfg.QuicklookMaxWidth),
		SkipConverted:     cfg.SkipConverted,
	}
}

// DepsFromConfig - opens the input and output locations and the catalogue. The caller closes
// the catalogue if there is one
func DepsFromConfig(cfg config.ConverterConfig, log logger.ILogger) (Deps, error) {
	deps := Deps{Log: log, Progress: progress.NewLogReporter(log)}

	var err error
	deps.InputFS, deps.InputBucket, _, err = OpenLocation(cfg.InputPath, cfg.AWSRegion)
	if err != nil {
		return deps, err
	}
	deps.OutputFS, deps.OutputBucket, _, err = OpenLocation(cfg.OutputPath, cfg.AWSRegion)
	if err != nil {
		return deps, err
	}

	deps.Catalog, err = catalog.Open(cfg.CatalogPath, cfg.MongoURI, cfg.MongoDatabase, log)
	return deps, err
}
