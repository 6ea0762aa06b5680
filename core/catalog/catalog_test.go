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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/meteosatlib/msat/core/idgen"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/timestamper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testProduct = "H:MSG1:VIS006:200611141200"

func testRecord(productKey string, id string, unixSec int64, outputs ...string) Record {
	return NewRecord(productKey, outputs, &idgen.MockIDGenerator{IDs: []string{id}}, &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{unixSec}})
}

func Example_open() {
	c, err := Open("", "", "msat", &logger.NullLogger{})
	fmt.Println(c, err)

	// Output:
	// <nil> <nil>
}

func TestBoltCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := NewBoltCatalog(path)
	require.NoError(t, err)

	_, ok, err := c.Lookup(testProduct)
	require.NoError(t, err)
	assert.False(t, ok)

	first := testRecord(testProduct, "id-1", 1163506800, "out/a.tif", "out/a.json")
	require.NoError(t, c.Put(first))
	require.NoError(t, c.Put(testRecord("H:MSG1:IR108:200611141200", "id-2", 1163506800, "out/b.tif")))

	rec, ok, err := c.Lookup(testProduct)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, rec.ID)
	assert.Equal(t, first.Outputs, rec.Outputs)
	assert.True(t, first.ConvertedAt.Equal(rec.ConvertedAt))

	// Converting again keeps the id
	again := testRecord(testProduct, "id-3", 1163507700, "out/a.png")
	require.NoError(t, c.Put(again))

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"H:MSG1:IR108:200611141200", testProduct}, keys)
	require.NoError(t, c.Close())

	// Still there after reopening
	c, err = NewBoltCatalog(path)
	require.NoError(t, err)
	defer c.Close()

	rec, ok, err = c.Lookup(testProduct)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, []string{"out/a.png"}, rec.Outputs)
	assert.Equal(t, int64(1163507700), rec.ConvertedAt.Unix())
}

func TestMongoCatalog(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lookup missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "msat.conversions", mtest.FirstBatch))

		c := NewMongoCatalog(mt.Client, "msat", false)
		_, ok, err := c.Lookup(testProduct)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	mt.Run("lookup found", func(mt *mtest.T) {
		at := time.Date(2006, 11, 14, 12, 20, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(
			0,
			"msat.conversions",
			mtest.FirstBatch,
			bson.D{
				{Key: "id", Value: "a1b2"},
				{Key: "productKey", Value: testProduct},
				{Key: "outputs", Value: bson.A{"out/a.tif"}},
				{Key: "convertedAt", Value: primitive.NewDateTimeFromTime(at)},
			},
		))

		c := NewMongoCatalog(mt.Client, "msat", false)
		rec, ok, err := c.Lookup(testProduct)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a1b2", rec.ID)
		assert.Equal(t, []string{"out/a.tif"}, rec.Outputs)
		assert.True(t, at.Equal(rec.ConvertedAt))
	})

	mt.Run("put", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		c := NewMongoCatalog(mt.Client, "msat", false)
		require.NoError(t, c.Put(NewRecord(testProduct, []string{"out/a.tif"}, idgen.UUIDGen{}, &timestamper.UnixTimeNowStamper{})))
		require.NoError(t, c.Close())
	})
}
