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

package hrit

import (
	"github.com/pkg/errors"
)

// UnpackSamples - reads count samples of bpp bits each, packed most significant bit first with
// no padding between samples
func UnpackSamples(data []byte, bpp int, count int) ([]uint16, error) {
	if bpp <= 0 || bpp > 16 {
		return nil, errors.Errorf("unsupported bits per sample: %v", bpp)
	}

	needBits := uint64(bpp) * uint64(count)
	if uint64(len(data))*8 < needBits {
		return nil, errors.Errorf("data field has %v bits, need %v for %v samples of %v bits", len(data)*8, needBits, count, bpp)
	}

	result := make([]uint16, count)

	switch bpp {
	case 8:
		for c := range result {
			result[c] = uint16(data[c])
		}
	case 16:
		for c := range result {
			result[c] = uint16(data[c*2])<<8 | uint16(data[c*2+1])
		}
	default:
		// Keep a bit accumulator topped up a byte at a time, peel samples off the top
		var acc uint32
		accBits := 0
		pos := 0
		mask := uint32(1)<<bpp - 1
		for c := range result {
			for accBits < bpp {
				acc = acc<<8 | uint32(data[pos])
				pos++
				accBits += 8
			}
			accBits -= bpp
			result[c] = uint16((acc >> accBits) & mask)
		}
	}

	return result, nil
}

// PackSamples - reverse of UnpackSamples. Sample values wider than bpp are truncated. The last
// byte is zero padded
func PackSamples(samples []uint16, bpp int) ([]byte, error) {
	if bpp <= 0 || bpp > 16 {
		return nil, errors.Errorf("unsupported bits per sample: %v", bpp)
	}

	result := make([]byte, 0, (len(samples)*bpp+7)/8)
	var acc uint32
	accBits := 0
	mask := uint32(1)<<bpp - 1
	for _, s := range samples {
		acc = acc<<bpp | (uint32(s) & mask)
		accBits += bpp
		for accBits >= 8 {
			accBits -= 8
			result = append(result, byte(acc>>accBits))
		}
	}
	if accBits > 0 {
		result = append(result, byte(acc<<(8-accBits)))
	}
	return result, nil
}
