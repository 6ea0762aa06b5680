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

package timestamper

import "time"

// ITimeStamper - where conversion times come from
type ITimeStamper interface {
	GetTimeNow() time.Time
}

type UnixTimeNowStamper struct {
}

// GetTimeNow - UTC now, to the second
func (ts *UnixTimeNowStamper) GetTimeNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// MockTimeNowStamper - returns queued unix times in order
type MockTimeNowStamper struct {
	QueuedTimeStamps []int64
}

func (ts *MockTimeNowStamper) GetTimeNow() time.Time {
	val := ts.QueuedTimeStamps[0]
	ts.QueuedTimeStamps = ts.QueuedTimeStamps[1:]
	return time.Unix(val, 0).UTC()
}
