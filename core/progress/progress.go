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

// Progress reporting for long running imports and conversions. A Reporter is passed in by
// whoever starts the work, there is no process-wide instance.
package progress

import (
	"sync"

	"github.com/meteosatlib/msat/core/logger"
)

type Reporter interface {
	Start(task string, total int)
	Step(msg string)
	Done()
}

// NullReporter - ignores everything
type NullReporter struct {
}

func (r NullReporter) Start(task string, total int) {}
func (r NullReporter) Step(msg string)               {}
func (r NullReporter) Done()                         {}

// LogReporter - writes progress lines to a logger at Info level
type LogReporter struct {
	Log logger.ILogger

	mutex sync.Mutex
	task  string
	total int
	done  int
}

func NewLogReporter(log logger.ILogger) *LogReporter {
	return &LogReporter{Log: log}
}

func (r *LogReporter) Start(task string, total int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.task = task
	r.total = total
	r.done = 0
	r.Log.Infof("%v: started (%v steps)", task, total)
}

func (r *LogReporter) Step(msg string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.done++
	if r.total > 0 {
		r.Log.Infof("%v: %v/%v %v", r.task, r.done, r.total, msg)
	} else {
		r.Log.Infof("%v: %v", r.task, msg)
	}
}

func (r *LogReporter) Done() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Log.Infof("%v: done", r.task)
}
