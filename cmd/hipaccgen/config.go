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

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// selectConfiguration picks the launch configuration of k: an explicit
// -use-config pin wins, then the resource probe when requested, then
// the device default.
func (p *Pass) selectConfiguration(k *entity.Kernel) error {
	if p.opts.UseConfig != "" {
		var bx, by int
		if n, err := fmt.Sscanf(p.opts.UseConfig, "%dx%d", &bx, &by); n != 2 || err != nil {
			return p.rep.Errorf(k.Class.KernelBody.Pos(),
				"invalid launch configuration %q, expected WxH", p.opts.UseConfig)
		}
		k.Config = entity.Config{BlockX: bx, BlockY: by}
		return nil
	}

	dev := p.opts.Device
	k.Config = entity.Config{BlockX: dev.BlockX, BlockY: dev.BlockY, Default: true}

	if !p.opts.UseEstimate || dev.ARM {
		return nil
	}
	switch p.opts.Target.Lang {
	case LangCUDA, LangOpenCLGPU:
	default:
		return nil
	}
	return p.probeConfiguration(k)
}

// probeConfiguration compiles the kernel with the default configuration
// through the native compiler and derives the block shape from the
// reported register usage.
func (p *Pass) probeConfiguration(k *entity.Kernel) error {
	if p.opts.CompileCommand == "" {
		return p.rep.Errorf(k.Class.KernelBody.Pos(),
			"resource estimation requires -compile-cmd")
	}
	if err := p.printKernelFunction(k); err != nil {
		return err
	}

	file := filepath.Join(p.opts.OutputDir, k.FileName()+p.opts.Target.Ext)
	parts := strings.Fields(p.opts.CompileCommand)
	cmd := exec.Command(parts[0], append(parts[1:], file)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// The compiler did not even start; nothing to fall back on.
			return p.rep.Errorf(k.Class.KernelBody.Pos(),
				"couldn't execute %s: %v", parts[0], err)
		}
	}

	usage := parsePtxasUsage(string(out))
	if usage.Registers == 0 {
		usage = parseISAUsage(string(out))
	}
	if usage.Registers == 0 {
		p.rep.Warnf(k.Class.KernelBody.Pos(),
			"couldn't determine resource usage of kernel %s, using default configuration:\n%s",
			k.KernelName(p.opts.Target.Prefix), string(out))
		return nil
	}
	k.Config = deriveConfig(p.opts.Device, usage)
	if p.opts.Verbose {
		fmt.Printf("hipaccgen: kernel %s uses %d registers, %d bytes shared memory -> %dx%d\n",
			k.KernelName(p.opts.Target.Prefix), usage.Registers, usage.SharedMem,
			k.Config.BlockX, k.Config.BlockY)
	}
	return nil
}

// Usage is the resource footprint one compiled kernel reports.
type Usage struct {
	Registers int
	SharedMem int
	ConstMem  int
	LocalMem  int
	Spills    int
}

// parsePtxasUsage extracts the resource report ptxas prints with
// --ptxas-options=-v:
//
//	ptxas info    : Used 13 registers, 2084 bytes smem, 48 bytes cmem[0]
//	ptxas info    : 8 bytes stack frame, 4 bytes spill stores, 4 bytes spill loads
func parsePtxasUsage(out string) Usage {
	var u Usage
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "ptxas info") {
			continue
		}
		if idx := strings.Index(line, "Used "); idx >= 0 {
			for _, field := range strings.Split(line[idx+len("Used "):], ",") {
				field = strings.TrimSpace(field)
				switch {
				case strings.HasSuffix(field, "registers"):
					fmt.Sscanf(field, "%d registers", &u.Registers)
				case strings.Contains(field, "bytes smem"):
					fmt.Sscanf(field, "%d bytes smem", &u.SharedMem)
				case strings.Contains(field, "bytes cmem"):
					fmt.Sscanf(field, "%d bytes cmem", &u.ConstMem)
				case strings.Contains(field, "bytes lmem"):
					var extra int
					if n, _ := fmt.Sscanf(field, "%d+%d bytes lmem", &u.LocalMem, &extra); n < 1 {
						fmt.Sscanf(field, "%d bytes lmem", &u.LocalMem)
					}
					u.LocalMem += extra
				}
			}
		}
		if strings.Contains(line, "spill stores") {
			var frame, stores, loads int
			fmt.Sscanf(strings.TrimSpace(line[strings.Index(line, ":")+1:]),
				"%d bytes stack frame, %d bytes spill stores, %d bytes spill loads",
				&frame, &stores, &loads)
			u.Spills = stores + loads
		}
	}
	return u
}

// parseISAUsage extracts the resource report of the AMD ISA dump:
//
//	isa info : Used 24 gprs, 1024 bytes lds, stack size: 0
func parseISAUsage(out string) Usage {
	var u Usage
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "isa info") {
			continue
		}
		if idx := strings.Index(line, "Used "); idx >= 0 {
			for _, field := range strings.Split(line[idx+len("Used "):], ",") {
				field = strings.TrimSpace(field)
				switch {
				case strings.HasSuffix(field, "gprs"):
					fmt.Sscanf(field, "%d gprs", &u.Registers)
				case strings.Contains(field, "bytes lds"):
					fmt.Sscanf(field, "%d bytes lds", &u.SharedMem)
				}
			}
		}
	}
	return u
}

// deriveConfig sizes the thread block so that register pressure still
// allows full occupancy: threads = registers per block / registers per
// thread, rounded down to a whole number of warps and capped by the
// device limit.
func deriveConfig(dev Device, u Usage) entity.Config {
	threads := dev.MaxThreadsPerBlock
	if u.Registers > 0 {
		if t := dev.RegistersPerBlock / u.Registers; t < threads {
			threads = t
		}
	}
	threads = threads / dev.WarpSize * dev.WarpSize
	if threads < dev.WarpSize {
		threads = dev.WarpSize
	}

	cfg := entity.Config{
		BlockX:    dev.WarpSize,
		BlockY:    threads / dev.WarpSize,
		Registers: u.Registers,
		SharedMem: u.SharedMem,
	}
	// Tall blocks beyond the device default shape gain nothing.
	if cfg.BlockY > dev.BlockY {
		cfg.BlockY = dev.BlockY
	}
	if cfg.BlockY < 1 {
		cfg.BlockY = 1
	}
	return cfg
}
