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

// Package hipacc is the DSL vocabulary for image-processing kernels.
//
// Host programs import this package and declare Images, Accessors,
// BoundaryConditions, Masks, Domains, Pyramids, IterationSpaces and
// kernel structs embedding Kernel or BinningKernel. The hipaccgen tool
// recognizes these declarations, removes them from the host source and
// lowers them to backend kernel files plus runtime calls. Without the
// tool, the package runs kernels through a sequential reference
// implementation so DSL programs stay plain, executable Go.
package hipacc

// Pixel constrains the element types an Image may carry.
type Pixel interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Boundary selects the policy for out-of-range reads.
type Boundary int

const (
	Undefined Boundary = iota
	Clamp
	Mirror
	Constant
)

// String returns the boundary mode name as used in diagnostics.
func (b Boundary) String() string {
	switch b {
	case Undefined:
		return "UNDEFINED"
	case Clamp:
		return "CLAMP"
	case Mirror:
		return "MIRROR"
	case Constant:
		return "CONSTANT"
	}
	return "invalid"
}

// Interpolate selects the filtering applied to non-integral accessor reads.
type Interpolate int

const (
	NoInterpolation Interpolate = iota
	Nearest
	Linear
	Cubic
	Lanczos
)

// String returns the interpolation mode name as used in generated code.
func (i Interpolate) String() string {
	switch i {
	case NoInterpolation:
		return "NO"
	case Nearest:
		return "NN"
	case Linear:
		return "LF"
	case Cubic:
		return "CF"
	case Lanczos:
		return "L3"
	}
	return "invalid"
}

// Reduce names the combine operation of a Convolve call.
type Reduce int

const (
	Sum Reduce = iota
	Min
	Max
	Prod
	Median
)

// Traverse recursively processes the levels of one or more pyramids.
// The hipaccgen tool renames this call to the runtime trampoline; the
// reference implementation simply invokes fn depth times.
func Traverse(depth int, fn func(level int)) {
	for l := 0; l < depth; l++ {
		fn(l)
	}
}
