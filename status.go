// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ninja

import "go.uber.org/zap"

// Status reports build progress the way the teacher's StatusPrinter
// does (edge started/finished counts, the current "[N/M] description"
// line) but through structured logging rather than an ANSI progress
// bar, since this spec has no terminal-width/line-overwrite model
// (spec §4.H, §6).
type Status struct {
	log     *zap.Logger
	total   int
	started int
	done    int
}

// NewStatus wraps log, scoped for one build's lifetime.
func NewStatus(log *zap.Logger, total int) *Status {
	return &Status{log: log.With(zap.Int("total", total)), total: total}
}

// EdgeStarted logs a command about to run.
func (s *Status) EdgeStarted(description, command string) {
	s.started++
	msg := description
	if msg == "" {
		msg = command
	}
	s.log.Info(msg,
		zap.Int("started", s.started),
		zap.Int("total", s.total),
	)
}

// EdgeFinished logs a command's outcome. output is only logged at
// Error level, and only when the command failed, so a clean build stays
// quiet the way -v off does for the teacher.
func (s *Status) EdgeFinished(description, command string, disposition Disposition, err error, output []byte) {
	s.done++
	fields := []zap.Field{
		zap.Int("done", s.done),
		zap.Int("total", s.total),
		zap.String("disposition", disposition.String()),
	}
	if err != nil {
		s.log.Error(command, append(fields, zap.Error(err), zap.ByteString("output", output))...)
		return
	}
	msg := description
	if msg == "" {
		msg = command
	}
	s.log.Debug(msg, fields...)
}

// Skipped logs that a node required no work (spec §4.E Clean
// disposition).
func (s *Status) Skipped(key Key) {
	s.log.Debug("up to date", zap.Stringer("key", key))
}
