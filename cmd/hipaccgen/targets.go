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
	"sort"
)

// Language identifies a kernel dialect.
type Language int

const (
	LangC99 Language = iota
	LangCUDA
	LangOpenCLACC
	LangOpenCLCPU
	LangOpenCLGPU
	LangOpenCLFPGA
	LangRenderscript
	LangFilterscript
	LangVivado
)

// Target describes a code generation target: its dialect, the kernel
// file naming scheme, and how Go pixel types spell in kernel code.
type Target struct {
	Name        string // flag spelling, e.g. "cuda", "opencl-gpu"
	Lang        Language
	Ext         string // kernel file extension, e.g. ".cu"
	GuardSuffix string // include guard suffix, e.g. "CU"
	Prefix      string // two-letter kernel name prefix, e.g. "cu"
	TypeMap     map[string]string
}

// commonTypeMap spells Go pixel types in kernel code. Every dialect
// sees the short forms: OpenCL defines them natively, the others pull
// them in through hipacc_types.hpp.
var commonTypeMap = map[string]string{
	"int8":    "char",
	"int16":   "short",
	"int32":   "int",
	"int64":   "long",
	"uint8":   "uchar",
	"uint16":  "ushort",
	"uint32":  "uint",
	"uint64":  "ulong",
	"float32": "float",
	"float64": "double",
	"int":     "int",
	"uint":    "uint",
	"bool":    "char",
}

var targetTable = map[string]Target{
	"cpu":          {Name: "cpu", Lang: LangC99, Ext: ".cc", GuardSuffix: "CC", Prefix: "cc", TypeMap: commonTypeMap},
	"cuda":         {Name: "cuda", Lang: LangCUDA, Ext: ".cu", GuardSuffix: "CU", Prefix: "cu", TypeMap: commonTypeMap},
	"opencl-acc":   {Name: "opencl-acc", Lang: LangOpenCLACC, Ext: ".cl", GuardSuffix: "CL", Prefix: "cl", TypeMap: commonTypeMap},
	"opencl-cpu":   {Name: "opencl-cpu", Lang: LangOpenCLCPU, Ext: ".cl", GuardSuffix: "CL", Prefix: "cl", TypeMap: commonTypeMap},
	"opencl-gpu":   {Name: "opencl-gpu", Lang: LangOpenCLGPU, Ext: ".cl", GuardSuffix: "CL", Prefix: "cl", TypeMap: commonTypeMap},
	"opencl-fpga":  {Name: "opencl-fpga", Lang: LangOpenCLFPGA, Ext: ".cl", GuardSuffix: "CL", Prefix: "cl", TypeMap: commonTypeMap},
	"renderscript": {Name: "renderscript", Lang: LangRenderscript, Ext: ".rs", GuardSuffix: "RS", Prefix: "rs", TypeMap: commonTypeMap},
	"filterscript": {Name: "filterscript", Lang: LangFilterscript, Ext: ".fs", GuardSuffix: "FS", Prefix: "fs", TypeMap: commonTypeMap},
	"vivado":       {Name: "vivado", Lang: LangVivado, Ext: ".cc", GuardSuffix: "CC", Prefix: "cc", TypeMap: commonTypeMap},
}

// LookupTarget resolves a target flag spelling.
func LookupTarget(name string) (Target, error) {
	t, ok := targetTable[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (available: %v)", name, AvailableTargets())
	}
	return t, nil
}

// AvailableTargets returns the target flag spellings, sorted.
func AvailableTargets() []string {
	names := make([]string, 0, len(targetTable))
	for name := range targetTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsOpenCL reports whether the target emits OpenCL C.
func (t Target) IsOpenCL() bool {
	switch t.Lang {
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU, LangOpenCLFPGA:
		return true
	}
	return false
}

// IsFPGA reports whether the target drives a streaming FPGA pipeline.
func (t Target) IsFPGA() bool {
	return t.Lang == LangOpenCLFPGA || t.Lang == LangVivado
}

// IsScript reports whether the target is Renderscript or Filterscript.
func (t Target) IsScript() bool {
	return t.Lang == LangRenderscript || t.Lang == LangFilterscript
}

// IsCPU reports whether the target runs kernels on the host CPU.
func (t Target) IsCPU() bool {
	return t.Lang == LangC99 || t.Lang == LangOpenCLCPU
}

// RequiresConstantExtents reports whether image extents must be
// compile-time constants for this target.
func (t Target) RequiresConstantExtents() bool {
	return t.Lang == LangC99 || t.IsFPGA()
}

// KernelType spells a Go pixel or scalar type in this target's
// dialect.
func (t Target) KernelType(goType string) string {
	if c, ok := t.TypeMap[goType]; ok {
		return c
	}
	return goType
}
