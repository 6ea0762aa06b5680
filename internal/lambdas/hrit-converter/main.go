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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/getsentry/sentry-go"
	"github.com/meteosatlib/msat/api/config"
	"github.com/meteosatlib/msat/api/dataconvert"
	"github.com/meteosatlib/msat/core/awsutil"
	"github.com/meteosatlib/msat/core/hrit"
	"github.com/meteosatlib/msat/core/logger"
)

// Epilogues arrive last, so each one we're told about means a complete repeat cycle to convert

// requestsForEvent - one conversion per epilogue in the event, everything else is ignored
func requestsForEvent(event awsutil.Event, cfg config.ConverterConfig) ([]dataconvert.ConvertRequest, []string, error) {
	reqs := []dataconvert.ConvertRequest{}
	buckets := []string{}

	for _, obj := range event.Objects {
		if !hrit.IsEpilogueFileName(obj.Key) {
			continue
		}

		key, err := hrit.KeyFromFileName(obj.Key)
		if err != nil {
			return nil, nil, err
		}

		req := dataconvert.RequestFromConfig(cfg)
		req.InputRoot = key.Dir
		req.Timestamp = key.Timestamp
		reqs = append(reqs, req)
		buckets = append(buckets, obj.Bucket)
	}
	return reqs, buckets, nil
}

func HandleRequest(ctx context.Context, event awsutil.Event) (string, error) {
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		return "", err
	}

	log := &logger.StdOutLogger{}
	log.SetLogLevel(cfg.GetLogLevel())
	defer logger.HandlePanicWithLog(log)

	reqs, buckets, err := requestsForEvent(event, cfg)
	if err != nil {
		return "", err
	}
	if len(reqs) <= 0 {
		log.Infof("No epilogues in event with %v objects, nothing to do", len(event.Objects))
		return "", nil
	}

	deps, err := dataconvert.DepsFromConfig(cfg, log)
	if err != nil {
		return "", err
	}
	if deps.Catalog != nil {
		defer deps.Catalog.Close()
	}

	converted := 0
	for c, req := range reqs {
		// Inputs come from whichever bucket the event was for
		deps.InputBucket = buckets[c]

		result, err := dataconvert.ConvertProduct(req, deps)
		if err != nil {
			sentry.CaptureException(err)
			return "", err
		}
		converted += len(result.Converted)
	}

	return fmt.Sprintf("Converted %v products", converted), nil
}

func main() {
	if dsn := os.Getenv(config.EnvPrefix + "SentryDSN"); len(dsn) > 0 {
		err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: "hrit-converter"})
		if err != nil {
			fmt.Printf("Sentry init failed: %v\n", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	lambda.Start(HandleRequest)
}
