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

// Record of which products have been converted and where the outputs went, so reruns over the
// same input can skip work. Kept in a local bbolt file or a Mongo collection
package catalog

import (
	"time"

	"github.com/meteosatlib/msat/core/idgen"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/timestamper"
)

type Record struct {
	// Stays the same when a product is converted again
	ID          string    `json:"id" bson:"id"`
	ProductKey  string    `json:"productKey" bson:"productKey"`
	Outputs     []string  `json:"outputs" bson:"outputs"`
	ConvertedAt time.Time `json:"convertedAt" bson:"convertedAt"`
}

type Catalog interface {
	// ok is false if the product has never been converted
	Lookup(productKey string) (Record, bool, error)
	// Adds or replaces the record for rec.ProductKey
	Put(rec Record) error
	Close() error
}

// NewRecord - record for a conversion done now
func NewRecord(productKey string, outputs []string, ids idgen.IDGenerator, clock timestamper.ITimeStamper) Record {
	return Record{
		ID:          ids.GenObjectID(),
		ProductKey:  productKey,
		Outputs:     outputs,
		ConvertedAt: clock.GetTimeNow(),
	}
}

// Open - bolt catalogue if boltPath is set, otherwise Mongo if mongoURI is set, otherwise nil
func Open(boltPath string, mongoURI string, mongoDatabase string, log logger.ILogger) (Catalog, error) {
	if len(boltPath) > 0 {
		log.Infof("Using conversion catalogue file %v", boltPath)
		c, err := NewBoltCatalog(boltPath)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	if len(mongoURI) > 0 {
		client, err := ConnectMongo(mongoURI, log)
		if err != nil {
			return nil, err
		}
		return NewMongoCatalog(client, mongoDatabase, true), nil
	}
	return nil, nil
}
