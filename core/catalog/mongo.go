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
	"context"
	"time"

	"github.com/meteosatlib/msat/core/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "conversions"

const mongoTimeout = 30 * time.Second

// MongoCatalog - one document per product, upserted by product key
type MongoCatalog struct {
	client     *mongo.Client
	coll       *mongo.Collection
	disconnect bool
}

// NewMongoCatalog - if ownsClient, Close disconnects the client
func NewMongoCatalog(client *mongo.Client, database string, ownsClient bool) *MongoCatalog {
	return &MongoCatalog{
		client:     client,
		coll:       client.Database(database).Collection(CollectionName),
		disconnect: ownsClient,
	}
}

func makeMongoCommandMonitor(log logger.ILogger) *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, evt *event.CommandStartedEvent) {
			log.Debugf("Mongo request:\n%v", evt.Command)
		},
		Failed: func(_ context.Context, evt *event.CommandFailedEvent) {
			log.Errorf("Mongo FAIL:\n%v", evt.Failure)
		},
	}
}

// ConnectMongo - connects and pings
func ConnectMongo(uri string, log logger.ILogger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	log.Infof("Connecting to mongo db...")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMonitor(makeMongoCommandMonitor(log)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mongo DB connection")
	}

	var result bson.M
	err = client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Decode(&result)
	if err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "failed to ping mongo DB")
	}

	log.Infof("Connected to mongo db")
	return client, nil
}

func (c *MongoCatalog) Lookup(productKey string) (Record, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	var rec Record
	err := c.coll.FindOne(ctx, bson.D{{Key: "productKey", Value: productKey}}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return rec, false, nil
		}
		return rec, false, err
	}
	return rec, true, nil
}

func (c *MongoCatalog) Put(rec Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "productKey", Value: rec.ProductKey},
			{Key: "outputs", Value: rec.Outputs},
			{Key: "convertedAt", Value: rec.ConvertedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "id", Value: rec.ID}}},
	}

	opt := options.Update().SetUpsert(true)
	_, err := c.coll.UpdateOne(ctx, bson.D{{Key: "productKey", Value: rec.ProductKey}}, update, opt)
	return err
}

func (c *MongoCatalog) Close() error {
	if !c.disconnect {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}
