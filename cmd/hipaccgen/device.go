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
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

// Device describes the compilation device: default launch
// configuration, resource limits, and memory alignment.
type Device struct {
	Name               string
	BlockX, BlockY     int // default launch configuration
	MaxThreadsPerBlock int
	RegistersPerBlock  int
	SharedMemPerBlock  int
	WarpSize           int
	Alignment          int // row alignment in bytes
	ARM                bool
	PPT                int // pixels per thread
	VectorWidth        int // FPGA vectorization factor
}

var deviceTable = map[string]Device{
	"fermi": {
		Name: "Fermi", BlockX: 32, BlockY: 4,
		MaxThreadsPerBlock: 1024, RegistersPerBlock: 32768,
		SharedMemPerBlock: 49152, WarpSize: 32, Alignment: 256, PPT: 1,
	},
	"kepler": {
		Name: "Kepler", BlockX: 32, BlockY: 4,
		MaxThreadsPerBlock: 1024, RegistersPerBlock: 65536,
		SharedMemPerBlock: 49152, WarpSize: 32, Alignment: 256, PPT: 1,
	},
	"maxwell": {
		Name: "Maxwell", BlockX: 32, BlockY: 4,
		MaxThreadsPerBlock: 1024, RegistersPerBlock: 65536,
		SharedMemPerBlock: 65536, WarpSize: 32, Alignment: 256, PPT: 1,
	},
	"evergreen": {
		Name: "Evergreen", BlockX: 16, BlockY: 16,
		MaxThreadsPerBlock: 256, RegistersPerBlock: 16384,
		SharedMemPerBlock: 32768, WarpSize: 64, Alignment: 1024, PPT: 4,
	},
	"southern-islands": {
		Name: "SouthernIslands", BlockX: 16, BlockY: 16,
		MaxThreadsPerBlock: 256, RegistersPerBlock: 65536,
		SharedMemPerBlock: 32768, WarpSize: 64, Alignment: 1024, PPT: 4,
	},
	"midgard": {
		Name: "Midgard", BlockX: 4, BlockY: 4,
		MaxThreadsPerBlock: 256, RegistersPerBlock: 32768,
		SharedMemPerBlock: 32768, WarpSize: 4, Alignment: 512,
		ARM: true, PPT: 1,
	},
	"fpga": {
		Name: "FPGA", BlockX: 1, BlockY: 1,
		MaxThreadsPerBlock: 1, WarpSize: 1, Alignment: 64,
		PPT: 1, VectorWidth: 1,
	},
}

// LookupDevice resolves a device flag spelling. CPU-class targets take
// the host device regardless of the flag.
func LookupDevice(name string, target Target) (Device, error) {
	if target.IsCPU() {
		return hostDevice(), nil
	}
	if target.IsFPGA() {
		return deviceTable["fpga"], nil
	}
	d, ok := deviceTable[name]
	if !ok {
		return Device{}, fmt.Errorf("unknown device %q (available: %v)", name, AvailableDevices())
	}
	return d, nil
}

// AvailableDevices returns the device flag spellings, sorted.
func AvailableDevices() []string {
	names := make([]string, 0, len(deviceTable))
	for name := range deviceTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hostDevice describes the machine running the generator. The block
// width follows the widest SIMD extension of the host so CPU kernels
// default to full vector rows.
func hostDevice() Device {
	d := Device{
		Name: "CPU", BlockX: 4, BlockY: 1,
		MaxThreadsPerBlock: 1, WarpSize: 1, Alignment: 64, PPT: 1,
		ARM: runtime.GOARCH == "arm" || runtime.GOARCH == "arm64",
	}
	switch {
	case cpu.X86.HasAVX512F:
		d.BlockX = 16
	case cpu.X86.HasAVX2:
		d.BlockX = 8
	case cpu.X86.HasSSE42, cpu.ARM64.HasASIMD:
		d.BlockX = 4
	}
	return d
}
