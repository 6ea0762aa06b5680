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

// Prometheus collectors shared by the decoder and the conversion pipeline
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SegmentReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msat_segment_reads_total",
		Help: "Number of HRIT segment data fields decoded from storage.",
	}, []string{"channel"})

	SegmentCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msat_segment_cache_hits_total",
		Help: "Number of segment lookups served from the decoded segment cache.",
	}, []string{"channel"})

	SegmentCacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msat_segment_cache_evictions_total",
		Help: "Number of decoded segments dropped from the cache.",
	}, []string{"channel"})

	conversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msat_conversion_seconds",
		Help:    "Duration of writing one output format.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"format"})

	Conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msat_conversions_total",
		Help: "Number of product conversions by outcome.",
	}, []string{"status"})
)

// Conversion outcomes
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ObserveConversion - call with the start time of writing an output format
func ObserveConversion(format string, start time.Time) {
	conversionDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}

// Serve - exposes the default registry on addr at /metrics. Blocks, so run it in a goroutine
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
