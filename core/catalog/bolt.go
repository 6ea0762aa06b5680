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

package catalog

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var conversionsBucket = []byte("conversions")

// BoltCatalog - records as JSON values keyed by product key
type BoltCatalog struct {
	db *bolt.DB
}

func NewBoltCatalog(path string) (*BoltCatalog, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open catalogue %v", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCatalog{db: db}, nil
}

func (c *BoltCatalog) Lookup(productKey string) (Record, bool, error) {
	var rec Record
	found := false

	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(conversionsBucket).Get([]byte(productKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})

	return rec, found, err
}

func (c *BoltCatalog) Put(rec Record) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(conversionsBucket)
		key := []byte(rec.ProductKey)

		if existing := b.Get(key); existing != nil {
			var prev Record
			if err := json.Unmarshal(existing, &prev); err != nil {
				return err
			}
			rec.ID = prev.ID
		}

		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key, encoded)
	})
}

// Keys - all catalogued product keys, sorted
func (c *BoltCatalog) Keys() ([]string, error) {
	keys := []string{}
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(conversionsBucket).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (c *BoltCatalog) Close() error {
	return c.db.Close()
}
