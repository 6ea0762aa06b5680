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

package utils

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

func ItemInSlice[T comparable](a T, list []T) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// GetSortedMapKeys - map keys in ascending order, so output built from maps is stable
func GetSortedMapKeys[K constraints.Ordered, V any](theMap map[K]V) []K {
	result := make([]K, 0, len(theMap))

	for key := range theMap {
		result = append(result, key)
	}

	slices.Sort(result)
	return result
}

// Clamp - v limited to [lo, hi]
func Clamp[T constraints.Ordered](v T, lo T, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MinMax - smallest and largest value in a slice, ok=false if empty
func MinMax[T constraints.Integer | constraints.Float](values []T) (T, T, bool) {
	var lo, hi T
	if len(values) <= 0 {
		return lo, hi, false
	}

	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}
