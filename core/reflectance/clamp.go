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

package reflectance

import (
	"math"

	"github.com/meteosatlib/msat/core/utils"
)

// normalize - NaN, subnormal and zero values become 0, everything else is clamped to [lo, hi]
func normalize(v float64, lo float64, hi float64) float64 {
	if math.IsNaN(v) || v == 0 || (math.Abs(v) < 0x1p-1022 && !math.IsInf(v, 0)) {
		return 0
	}
	return utils.Clamp(v, lo, hi)
}

func clampReflectance(v float64) float64 {
	return normalize(v, 0, 100)
}
