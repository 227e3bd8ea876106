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

// Package entity is the data model of the hipaccgen pass: one record
// per DSL object declared in the host program, held in tables keyed by
// the front end's declaration objects and iterated in declaration
// order.
package entity

import (
	"go/ast"
	"go/token"
)

// Key identifies a host-program declaration. The front end assigns one
// object per declared name, so shadowed names in nested scopes get
// distinct keys.
type Key = *ast.Object

// Boundary is the out-of-range read policy of a boundary condition.
type Boundary int

const (
	BoundaryUndefined Boundary = iota
	BoundaryClamp
	BoundaryMirror
	BoundaryConstant
)

// String returns the mode name as spelled in generated kernel code.
func (b Boundary) String() string {
	switch b {
	case BoundaryClamp:
		return "CLAMP"
	case BoundaryMirror:
		return "MIRROR"
	case BoundaryConstant:
		return "CONSTANT"
	}
	return "UNDEFINED"
}

// Interpolate is the filtering mode of an accessor.
type Interpolate int

const (
	InterpolateNone Interpolate = iota
	InterpolateNearest
	InterpolateLinear
	InterpolateCubic
	InterpolateLanczos
)

// Suffix returns the interpolation tag used in generated helper names.
func (i Interpolate) Suffix() string {
	switch i {
	case InterpolateNearest:
		return "nn"
	case InterpolateLinear:
		return "lf"
	case InterpolateCubic:
		return "cf"
	case InterpolateLanczos:
		return "l3"
	}
	return ""
}

// Access is the memory access of a kernel argument, derived from the
// kernel body.
type Access int

const (
	AccessUndefined Access = iota
	AccessReadOnly
	AccessWriteOnly
	AccessReadWrite
)

// Image is a device image declaration.
type Image struct {
	Name      string
	PixelType string // Go pixel type, e.g. "uint8"
	// Width and Height are the constant-evaluated extents, or -1 when
	// the host expression is not a compile-time constant.
	Width, Height         int
	WidthExpr, HeightExpr string
	HostDataExpr          string // init data host expression, "" if none
	Pos                   token.Position
}

// Pyramid is an image pyramid declaration.
type Pyramid struct {
	Name      string
	PixelType string
	Img       *Image
	DepthExpr string
	Pos       token.Position
}

// BoundaryCondition pairs an image with a window extent and boundary
// mode. Accessors built directly from an image carry an implicit 1x1
// undefined boundary condition.
type BoundaryCondition struct {
	Name         string
	Img          *Image
	Pyramid      *Pyramid
	LevelExpr    string // pyramid level host expression, "" for plain images
	SizeX, SizeY int
	Mode         Boundary
	ConstExpr    string // fill value host expression for BoundaryConstant
	Pos          token.Position
}

// Accessor is a kernel input view: a boundary condition plus an
// optional region of interest and interpolation mode.
type Accessor struct {
	Name   string
	BC     *BoundaryCondition
	Interp Interpolate
	// Crop is set when the accessor restricts the image to a region of
	// interest; the four expressions then hold width, height, offsetX,
	// offsetY in host syntax.
	Crop                                            bool
	WidthExpr, HeightExpr, OffsetXExpr, OffsetYExpr string
	Pos                                             token.Position
}

// Image returns the image the accessor ultimately reads.
func (a *Accessor) Image() *Image { return a.BC.Img }

// IterationSpace is the output region a kernel instance writes.
type IterationSpace struct {
	Name                                            string
	Img                                             *Image
	Pyramid                                         *Pyramid
	LevelExpr                                       string
	Crop                                            bool
	WidthExpr, HeightExpr, OffsetXExpr, OffsetYExpr string
	Pos                                             token.Position
}

// MaskKind distinguishes coefficient masks from iteration domains.
type MaskKind int

const (
	KindMask MaskKind = iota
	KindDomain
)

// Mask is a stencil declaration: a coefficient mask or an iteration
// domain. Domains carry pixel type uint8 and cells "0"/"1".
type Mask struct {
	Kind         MaskKind
	Name         string
	PixelType    string
	SizeX, SizeY int
	// Constant marks masks whose every coefficient is a compile-time
	// constant; only those are baked into kernel code. Cells holds the
	// row-major literal texts for constant masks.
	Constant bool
	Cells    []string
	// CopyFrom is set on a domain derived from a non-constant mask; the
	// active pattern is then computed at run time from the mask data.
	CopyFrom *Mask
	// HostExpr is the host expression holding the stencil data of a
	// non-constant mask, uploaded at run time.
	HostExpr string
	// PrintedIn is the emit-once latch for the constant definition
	// shared by all kernels of a translation unit: the kernel file
	// carrying it, "" until first emission. Re-printing that same file
	// keeps its definition.
	PrintedIn string
	Pos       token.Position
}

// Cell returns the literal text at (x, y) relative to the mask center.
func (m *Mask) Cell(x, y int) string {
	return m.Cells[(y+m.SizeY/2)*m.SizeX+(x+m.SizeX/2)]
}

// SetCell overwrites the literal at (x, y) relative to the mask center.
func (m *Mask) SetCell(x, y int, lit string) {
	m.Cells[(y+m.SizeY/2)*m.SizeX+(x+m.SizeX/2)] = lit
}
