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

package logger

import (
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
)

// HandlePanicWithLog - to be deferred at the top of a tool/lambda. Writes the panic and stack
// to the log, forwards it to Sentry (a no-op if sentry.Init was never called) then panics again
// so the process still exits non-zero.
func HandlePanicWithLog(log ILogger) {
	if r := recover(); r != nil {
		log.Errorf("PANIC: %v", r)
		log.Errorf("%s", debug.Stack())

		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)

		log.Close()
		panic(r)
	}
}
