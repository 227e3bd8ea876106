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

package entity

import (
	"go/ast"
	"go/token"
	"strings"
)

// ArgKind classifies a kernel class constructor parameter.
type ArgKind int

const (
	// ArgImage is a parameter initializing an Accessor field.
	ArgImage ArgKind = iota
	// ArgMask is a parameter initializing a Mask or Domain field.
	ArgMask
	// ArgIterationSpace is the parameter initializing the embedded
	// kernel base.
	ArgIterationSpace
	// ArgScalar is every remaining parameter, passed by value. A
	// parameter whose initialized field cannot be identified also
	// lands here, so partial constructor matches degrade to scalar
	// passing instead of failing the build.
	ArgScalar
)

// Arg is one kernel argument in constructor parameter order.
type Arg struct {
	Kind     ArgKind
	Name     string // field name in the kernel struct
	Type     string // Go pixel or scalar type
	IsDomain bool   // ArgMask only: Domain rather than coefficient Mask
	Access   Access
	// Used reports whether the kernel body references the field. Unused
	// arguments are dropped from kernel signatures and calls on all
	// targets except the FPGA ones.
	Used bool
}

// KernelClass is a recognized kernel struct type: its classified
// constructor arguments and its method bodies.
type KernelClass struct {
	Name      string
	PixelType string // P of Kernel[P]
	BinType   string // B of BinningKernel[P, B], "" otherwise

	// Args lists the constructor parameters in declaration order; the
	// iteration space argument comes from the embedded base binding.
	Args []*Arg

	KernelBody  *ast.FuncDecl
	ReduceBody  *ast.FuncDecl
	BinningBody *ast.FuncDecl

	Pos token.Position
}

// ImageArgs returns the accessor-backed arguments in order.
func (kc *KernelClass) ImageArgs() []*Arg { return kc.argsOf(ArgImage) }

// MaskArgs returns the mask and domain arguments in order.
func (kc *KernelClass) MaskArgs() []*Arg { return kc.argsOf(ArgMask) }

// ScalarArgs returns the by-value arguments in order.
func (kc *KernelClass) ScalarArgs() []*Arg { return kc.argsOf(ArgScalar) }

func (kc *KernelClass) argsOf(kind ArgKind) []*Arg {
	var out []*Arg
	for _, a := range kc.Args {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Config is a kernel launch configuration plus the resource usage that
// justified it.
type Config struct {
	BlockX, BlockY int
	Registers      int
	SharedMem      int
	Default        bool // no probe data, device default applied
}

// Kernel is a kernel instantiation: a kernel class bound to concrete
// host entities.
type Kernel struct {
	InstanceName string
	Class        *KernelClass

	IterationSpace *IterationSpace
	// ImgBindings and MaskBindings pair the class arguments with the
	// host entities passed at the instantiation site, in argument
	// order.
	ImgBindings  map[*Arg]*Accessor
	MaskBindings map[*Arg]*Mask
	// ScalarExprs holds the host expression text per scalar argument.
	ScalarExprs map[*Arg]string

	Config Config

	Pos token.Position
}

// NewKernel binds a kernel class instantiation.
func NewKernel(name string, class *KernelClass, pos token.Position) *Kernel {
	return &Kernel{
		InstanceName: name,
		Class:        class,
		ImgBindings:  make(map[*Arg]*Accessor),
		MaskBindings: make(map[*Arg]*Mask),
		ScalarExprs:  make(map[*Arg]string),
		Pos:          pos,
	}
}

// FileName returns the kernel file base name, extension excluded.
func (k *Kernel) FileName() string { return k.InstanceName + "Kernel" }

// KernelName returns the emitted kernel function name for the given
// two-letter target prefix: prefix + TitledInstance + "Kernel". The
// FPGA host glue recovers the instance part by stripping the first two
// and last six characters.
func (k *Kernel) KernelName(prefix string) string {
	return prefix + titled(k.InstanceName) + "Kernel"
}

// ReduceName returns the emitted reduction function name.
func (k *Kernel) ReduceName(prefix string) string {
	return prefix + titled(k.InstanceName) + "Reduce"
}

// BinningName returns the emitted binning function name.
func (k *Kernel) BinningName(prefix string) string {
	return prefix + titled(k.InstanceName) + "Binning"
}

func titled(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
