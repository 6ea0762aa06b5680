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
	"image"
	"strconv"
	"strings"

	"github.com/meteosatlib/msat/api/dataconvert"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/pkg/errors"
)

func parseNumbers(s string, count int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != count {
		return nil, errors.Errorf("expected %v comma separated numbers, got \"%v\"", count, s)
	}

	result := []float64{}
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad number in \"%v\"", s)
		}
		result = append(result, v)
	}
	return result, nil
}

// parseCrop - x,y,width,height
func parseCrop(s string) (*image.Rectangle, error) {
	v, err := parseNumbers(s, 4)
	if err != nil {
		return nil, err
	}
	if v[2] <= 0 || v[3] <= 0 {
		return nil, errors.Errorf("crop area %v is empty", s)
	}
	r := image.Rect(int(v[0]), int(v[1]), int(v[0]+v[2]), int(v[1]+v[3]))
	return &r, nil
}

// parseArea - lat1,lon1,lat2,lon2
func parseArea(s string) (*dataconvert.LatLonArea, error) {
	v, err := parseNumbers(s, 4)
	if err != nil {
		return nil, err
	}
	return &dataconvert.LatLonArea{
		Corner1: projection.MapPoint{Lat: v[0], Lon: v[1]},
		Corner2: projection.MapPoint{Lat: v[2], Lon: v[3]},
	}, nil
}

// parseSize - WIDTHxHEIGHT
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.Errorf("size \"%v\" is not like 640x480", s)
	}
	columns, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "bad width in \"%v\"", s)
	}
	lines, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "bad height in \"%v\"", s)
	}
	if columns <= 0 || lines <= 0 {
		return 0, 0, errors.Errorf("size \"%v\" is empty", s)
	}
	return columns, lines, nil
}

// parseMarks - lat,lon;lat,lon...
func parseMarks(s string) ([]projection.MapPoint, error) {
	result := []projection.MapPoint{}
	for _, item := range strings.Split(s, ";") {
		if len(strings.TrimSpace(item)) <= 0 {
			continue
		}
		v, err := parseNumbers(item, 2)
		if err != nil {
			return nil, err
		}
		result = append(result, projection.MapPoint{Lat: v[0], Lon: v[1]})
	}
	return result, nil
}
