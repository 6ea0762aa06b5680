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
	"fmt"
	"io"
	"log"
	"os"
)

// StdErrLogger - writes to Out, or stderr if none is set, so stdout stays free for
// command output. Lines are tagged with Component when it's non-empty
type StdErrLogger struct {
	Out       io.Writer
	Component string
	logLevel  LogLevel
	logger    *log.Logger
}

func (l *StdErrLogger) Printf(level LogLevel, format string, a ...interface{}) {
	if l.logLevel > level {
		return
	}
	if l.logger == nil {
		out := l.Out
		if out == nil {
			out = os.Stderr
		}
		l.logger = log.New(out, "", log.LstdFlags|log.LUTC)
	}

	txt := logLevelPrefix[level] + ": "
	if len(l.Component) > 0 {
		txt += "[" + l.Component + "] "
	}
	l.logger.Println(txt + fmt.Sprintf(format, a...))
}
func (l *StdErrLogger) Debugf(format string, a ...interface{}) {
	l.Printf(LogDebug, format, a...)
}
func (l *StdErrLogger) Infof(format string, a ...interface{}) {
	l.Printf(LogInfo, format, a...)
}
func (l *StdErrLogger) Errorf(format string, a ...interface{}) {
	l.Printf(LogError, format, a...)
}

func (l *StdErrLogger) SetLogLevel(level LogLevel) {
	l.logLevel = level
}
func (l *StdErrLogger) GetLogLevel() LogLevel {
	return l.logLevel
}
func (l *StdErrLogger) Close() {
	if f, ok := l.Out.(*os.File); ok && f != os.Stderr && f != os.Stdout {
		f.Close()
	}
}
