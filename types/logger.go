/*
 * Copyright 2024 The jtx Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package types holds the shared configuration, logging, and error
// contracts used by every subsystem of the engine: the expression
// compiler, the reactive core, state and source definitions, the list
// engine, and the attribute bindings.
package types

import (
	"log"
	"os"
)

// Logger is the logger every subsystem writes through: a struct
// holding one Printf function, so a host application plugs in its own
// logger by supplying that function. A nil Printf discards output.
type Logger struct {
	Printf func(format string, v ...interface{})
}

// NewDefaultLogger wraps the standard library logger. It is the
// zero-configuration default; production embedders are expected to
// call WithLogger with their own adapter.
func NewDefaultLogger() Logger {
	std := log.New(os.Stderr, "[jtx] ", log.LstdFlags)
	return Logger{Printf: std.Printf}
}

func (l Logger) logf(format string, v ...interface{}) {
	if l.Printf == nil {
		return
	}
	l.Printf(format, v...)
}

// Warnf logs a recoverable condition: a reference to an unknown name,
// a malformed persisted value, a dropped list batch.
func (l Logger) Warnf(format string, v ...interface{}) {
	l.logf("WARN "+format, v...)
}

// Errorf logs a condition that was caught and turned into an error
// event rather than allowed to escape the scheduler.
func (l Logger) Errorf(format string, v ...interface{}) {
	l.logf("ERROR "+format, v...)
}

// Debugf logs verbose tracing. Logger has no level filtering, so
// Debugf output is printed by the default logger; a host that wants it
// quiet supplies a filtering Printf via WithLogger.
func (l Logger) Debugf(format string, v ...interface{}) {
	l.logf("DEBUG "+format, v...)
}
