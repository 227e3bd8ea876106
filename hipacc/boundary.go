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

package hipacc

import (
	"fmt"
	"math"
)

// BoundaryCondition wraps an image with a window extent and a policy
// for reads outside the image.
type BoundaryCondition[T Pixel] struct {
	img          *Image[T]
	sizeX, sizeY int
	mode         Boundary
	constVal     T
	hasConstVal  bool
}

// NewBoundaryCondition builds a boundary handler for img. The window
// arguments follow one of three shapes, optionally followed by a
// constant fill value when mode is Constant:
//
//	NewBoundaryCondition(img, sizeX, sizeY, mode [, constVal])
//	NewBoundaryCondition(img, size, mode [, constVal])
//	NewBoundaryCondition(img, mask, mode [, constVal])
func NewBoundaryCondition[T Pixel](img *Image[T], args ...any) *BoundaryCondition[T] {
	bc := &BoundaryCondition[T]{img: img}
	i := 0
	switch a := args[i].(type) {
	case int:
		if i+1 < len(args) {
			if sy, ok := args[i+1].(int); ok {
				bc.sizeX, bc.sizeY = a, sy
				i += 2
				break
			}
		}
		bc.sizeX, bc.sizeY = a, a
		i++
	case interface{ extent() (int, int) }:
		bc.sizeX, bc.sizeY = a.extent()
		i++
	default:
		panic(fmt.Sprintf("hipacc: boundary condition window argument %T", args[i]))
	}
	mode, ok := args[i].(Boundary)
	if !ok {
		panic(fmt.Sprintf("hipacc: boundary condition mode argument %T", args[i]))
	}
	bc.mode = mode
	i++
	if i < len(args) {
		if mode != Constant {
			panic("hipacc: constant fill value requires Constant boundary mode")
		}
		cv, ok := args[i].(T)
		if !ok {
			panic(fmt.Sprintf("hipacc: constant fill value %T does not match pixel type", args[i]))
		}
		bc.constVal = cv
		bc.hasConstVal = true
	} else if mode == Constant {
		panic("hipacc: Constant boundary mode requires a fill value")
	}
	return bc
}

// SizeX returns the horizontal window extent.
func (bc *BoundaryCondition[T]) SizeX() int { return bc.sizeX }

// SizeY returns the vertical window extent.
func (bc *BoundaryCondition[T]) SizeY() int { return bc.sizeY }

// Mode returns the boundary policy.
func (bc *BoundaryCondition[T]) Mode() Boundary { return bc.mode }

// at resolves a possibly out-of-range coordinate per the boundary mode.
// Undefined reads clamp, matching the reference behavior of reading
// whatever the hardware would without a guarantee.
func (bc *BoundaryCondition[T]) at(x, y int) T {
	w, h := bc.img.width, bc.img.height
	switch bc.mode {
	case Constant:
		if x < 0 || x >= w || y < 0 || y >= h {
			return bc.constVal
		}
	case Clamp, Undefined:
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	case Mirror:
		x = mirror(x, w)
		y = mirror(y, h)
	}
	return bc.img.Pixel(x, y)
}

func mirror(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// Accessor reads a region of interest of an image, applying boundary
// handling and interpolation.
type Accessor[T Pixel] struct {
	bc               *BoundaryCondition[T]
	width, height    int
	offsetX, offsetY int
	interp           Interpolate
}

// NewAccessor builds an accessor over a boundary condition, an image,
// or a pyramid level. An image or pyramid-level source gets an implicit
// 1x1 Undefined boundary condition. Optional arguments are a region of
// interest (width, height, offsetX, offsetY as ints or float ratios)
// and an interpolation mode.
func NewAccessor[T Pixel](src any, args ...any) *Accessor[T] {
	var bc *BoundaryCondition[T]
	switch s := src.(type) {
	case *BoundaryCondition[T]:
		bc = s
	case *Image[T]:
		bc = &BoundaryCondition[T]{img: s, sizeX: 1, sizeY: 1, mode: Undefined}
	default:
		panic(fmt.Sprintf("hipacc: accessor source %T", src))
	}
	acc := &Accessor[T]{
		bc:     bc,
		width:  bc.img.width,
		height: bc.img.height,
	}
	rest := args
	if len(rest) >= 4 {
		acc.width = roiDim(rest[0], bc.img.width)
		acc.height = roiDim(rest[1], bc.img.height)
		acc.offsetX = roiDim(rest[2], bc.img.width)
		acc.offsetY = roiDim(rest[3], bc.img.height)
		rest = rest[4:]
	}
	if len(rest) > 0 {
		ip, ok := rest[0].(Interpolate)
		if !ok {
			panic(fmt.Sprintf("hipacc: accessor interpolation argument %T", rest[0]))
		}
		acc.interp = ip
		rest = rest[1:]
	}
	if len(rest) > 0 {
		panic(fmt.Sprintf("hipacc: %d extra accessor arguments", len(rest)))
	}
	return acc
}

func roiDim(v any, full int) int {
	switch d := v.(type) {
	case int:
		return d
	case float64:
		return int(d * float64(full))
	}
	panic(fmt.Sprintf("hipacc: region-of-interest argument %T", v))
}

// Width returns the region-of-interest width.
func (a *Accessor[T]) Width() int { return a.width }

// Height returns the region-of-interest height.
func (a *Accessor[T]) Height() int { return a.height }

// Pixel reads the pixel at (x, y) relative to the region of interest.
func (a *Accessor[T]) Pixel(x, y int) T {
	return a.bc.at(x+a.offsetX, y+a.offsetY)
}

// PixelAt reads with fractional coordinates, applying the accessor's
// interpolation mode. Modes beyond Linear fall back to Linear in the
// reference path.
func (a *Accessor[T]) PixelAt(x, y float64) T {
	switch a.interp {
	case NoInterpolation, Nearest:
		return a.Pixel(int(math.Round(x)), int(math.Round(y)))
	default:
		x0, y0 := int(math.Floor(x)), int(math.Floor(y))
		fx, fy := x-float64(x0), y-float64(y0)
		p00 := float64(a.Pixel(x0, y0))
		p10 := float64(a.Pixel(x0+1, y0))
		p01 := float64(a.Pixel(x0, y0+1))
		p11 := float64(a.Pixel(x0+1, y0+1))
		v := p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
		return T(v)
	}
}

// IterationSpace defines the output region a kernel writes.
type IterationSpace[T Pixel] struct {
	img              *Image[T]
	width, height    int
	offsetX, offsetY int
}

// NewIterationSpace builds an iteration space covering img, optionally
// restricted to width x height at (offsetX, offsetY).
func NewIterationSpace[T Pixel](img *Image[T], args ...int) *IterationSpace[T] {
	is := &IterationSpace[T]{img: img, width: img.width, height: img.height}
	switch len(args) {
	case 0:
	case 2:
		is.width, is.height = args[0], args[1]
	case 4:
		is.width, is.height = args[0], args[1]
		is.offsetX, is.offsetY = args[2], args[3]
	default:
		panic(fmt.Sprintf("hipacc: %d iteration space arguments", len(args)))
	}
	return is
}

// Width returns the iteration space width.
func (is *IterationSpace[T]) Width() int { return is.width }

// Height returns the iteration space height.
func (is *IterationSpace[T]) Height() int { return is.height }
