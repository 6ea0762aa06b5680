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

package importer

import (
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/progress"
	"github.com/meteosatlib/msat/core/satimage"
)

// Product - something an importer can turn into an image
type Product struct {
	// Catalogue key, unique within the input location
	Key string
	// Channel name as used in HRIT file names, eg IR_108
	Channel string
	// YYYYMMDDhhmm
	Timestamp string
	// Base name of the outputs, the image's default file name if empty
	Name string
}

type Options struct {
	Log      logger.ILogger
	Progress progress.Reporter
}

// Importer - reads products found under root in bucket
type Importer interface {
	Name() string
	Products(fs fileaccess.FileAccess, bucket string, root string) ([]Product, error)
	Import(fs fileaccess.FileAccess, bucket string, root string, product Product, opts Options) (*satimage.Image, error)
}
