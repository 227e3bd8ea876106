// Copyright 2026 hipacc-go Authors
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

// hipaccgen turns a Go host program embedding the hipacc image
// processing DSL into target kernel files plus a rewritten host that
// drives them through the hipaccrt runtime.
//
// Typical usage:
//
//	hipaccgen -input examples/gaussian/main.go -output gen -target cuda -device kepler
//
// The kernel files land next to the rewritten host in the output
// directory, one file per kernel instance.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

var (
	flagInput  = flag.String("input", "", "host program to translate (required)")
	flagOutput = flag.String("output", ".", "directory for the kernel files and the rewritten host")
	flagTarget = flag.String("target", "cpu",
		fmt.Sprintf("code generation target, one of %s", strings.Join(AvailableTargets(), ", ")))
	flagDevice = flag.String("device", "kepler",
		fmt.Sprintf("compilation device, one of %s", strings.Join(AvailableDevices(), ", ")))
	flagPPT        = flag.Int("ppt", 0, "pixels per thread, 0 for the device default")
	flagUseConfig  = flag.String("use-config", "", "pin the kernel launch configuration, e.g. 128x2")
	flagEstimate   = flag.Bool("use-estimate", false, "probe kernel resource usage to size thread blocks")
	flagCompileCmd = flag.String("compile-cmd", "", "native compiler invocation for -use-estimate, e.g. \"nvcc --ptxas-options=-v -c\"")
	flagIITarget   = flag.Int("ii-target", 1, "initiation interval target for FPGA pipelines")
	flagVector     = flag.Int("vector-width", 0, "vectorization factor for FPGA pipelines, 0 for the device default")
	flagVerbose    = flag.Bool("v", false, "print progress to stderr")
)

func main() {
	flag.Parse()
	if *flagInput == "" {
		fmt.Fprintln(os.Stderr, "hipaccgen: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	target, err := LookupTarget(*flagTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hipaccgen: %v\n", err)
		os.Exit(1)
	}
	device, err := LookupDevice(*flagDevice, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hipaccgen: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*flagOutput, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "hipaccgen: %v\n", err)
		os.Exit(1)
	}

	opts := Options{
		InputFile:       *flagInput,
		OutputDir:       *flagOutput,
		Target:          target,
		Device:          device,
		PixelsPerThread: *flagPPT,
		UseConfig:       *flagUseConfig,
		UseEstimate:     *flagEstimate,
		CompileCommand:  *flagCompileCmd,
		IITarget:        *flagIITarget,
		VectorWidth:     *flagVector,
		Verbose:         *flagVerbose,
	}
	if err := opts.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "hipaccgen: %v\n", err)
		os.Exit(1)
	}
}
