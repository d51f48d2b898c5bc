// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ninja "github.com/nburns/nbuild"
)

func main() {
	os.Exit(Main())
}

// fatalf mirrors the teacher's "nin: fatal: " convention, kept for the
// handful of errors that happen before the zap logger is constructed
// (flag parsing failures).
func fatalf(msg string, s ...interface{}) int {
	fmt.Fprintf(os.Stderr, "nbuild: fatal: "+msg+"\n", s...)
	return 1
}

func guessParallelism() int {
	n := runtime.NumCPU()
	switch {
	case n < 2:
		return 2
	case n == 2:
		return 3
	default:
		return n + 2
	}
}

// Main builds the cobra command tree and runs it, returning the process
// exit code the way the teacher's Main() does.
func Main() int {
	var (
		inputFile string
		chdir     string
		jobs      int
		verbose   bool
	)

	code := 0
	cmd := &cobra.Command{
		Use:   "nbuild [targets...]",
		Short: "a small incremental, parallel build tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			code = run(inputFile, chdir, jobs, verbose, args)
			if code != 0 {
				return fmt.Errorf("build failed")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&inputFile, "file", "f", "build.ninja", "specify input build file")
	cmd.Flags().StringVarP(&chdir, "directory", "C", "", "change to DIR before doing anything else")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", guessParallelism(), "run N jobs in parallel")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show all command lines while building")

	if err := cmd.Execute(); err != nil {
		if code == 0 {
			code = fatalf("%v", err)
		}
	}
	return code
}

func run(inputFile, chdir string, jobs int, verbose bool, targets []string) int {
	var log *zap.Logger
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = ""
		log, err = cfg.Build()
	}
	if err != nil {
		return fatalf("building logger: %v", err)
	}
	defer log.Sync()

	if chdir != "" {
		if err := os.Chdir(chdir); err != nil {
			log.Error("changing directory", zap.String("dir", chdir), zap.Error(err))
			return 1
		}
	}

	desc, err := ninja.ParseManifest(ninja.OSFileLoader{}, inputFile)
	if err != nil {
		log.Error("loading manifest", zap.Error(err))
		return 1
	}

	canon, err := ninja.Canonicalize(desc)
	if err != nil {
		log.Error("resolving manifest", zap.Error(err))
		return 1
	}

	tm, err := ninja.BuildTaskMap(canon)
	if err != nil {
		log.Error("building task graph", zap.Error(err))
		return 1
	}

	var roots []ninja.Key
	if len(targets) == 0 {
		roots = ninja.ComputeRoots(canon)
	} else {
		for _, t := range targets {
			roots = append(roots, ninja.SingleKey(t))
		}
	}
	if len(roots) == 0 {
		log.Info("nothing to do")
		return 0
	}

	bs, err := ninja.NewBuildState(tm, roots)
	if err != nil {
		log.Error("building schedule", zap.Error(err))
		return 1
	}

	ctx := context.Background()
	status := ninja.NewStatus(log, len(tm))
	sched := ninja.NewScheduler(ctx, bs, ninja.DiskOracle{}, status, jobs)
	if err := sched.Run(ctx); err != nil {
		log.Error("build failed", zap.Error(err))
		return 1
	}
	return 0
}
