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

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// CommandResult is what running one edge's command produced (spec
// §4.G, grounded on the teacher's subprocess_posix.go Subprocess,
// minus the non-blocking fd-juggling that file does for its own
// reasons — os/exec's CombinedOutput already gives us a blocking
// equivalent).
type CommandResult struct {
	ExitCode int
	Output   []byte // combined stdout+stderr, interleaved as produced
}

// EnsureOutputDirs creates the parent directory of every output, the
// way the teacher's DiskInterface.MakeDirs does before a command runs,
// so a rule never has to mkdir its own output directory (spec §5).
func EnsureOutputDirs(outputs []string) error {
	for _, o := range outputs {
		dir := filepath.Dir(o)
		if dir == "." || dir == "/" {
			continue
		}
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}
	return nil
}

// RunCommand executes command through the platform shell, the way
// ninja always has ("/bin/sh -c <command>"), capturing combined
// output and the exit code (spec §4.G). A context cancellation kills
// the child process.
func RunCommand(ctx context.Context, command string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := CommandResult{Output: buf.Bytes()}
	if err == nil {
		res.ExitCode = 0
		return res, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}
