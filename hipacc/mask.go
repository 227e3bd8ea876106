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
	"reflect"
)

// Mask is a small read-only stencil of filter coefficients indexed
// relative to its center.
type Mask[T Pixel] struct {
	sizeX, sizeY int
	coeffs       []T
}

// NewMask builds a mask from a [sy][sx]T array (or a slice of slices
// with uniform row length). The grid is captured by value.
func NewMask[T Pixel](grid any) *Mask[T] {
	sx, sy, coeffs := flattenGrid[T](grid)
	return &Mask[T]{sizeX: sx, sizeY: sy, coeffs: coeffs}
}

// SizeX returns the mask width.
func (m *Mask[T]) SizeX() int { return m.sizeX }

// SizeY returns the mask height.
func (m *Mask[T]) SizeY() int { return m.sizeY }

func (m *Mask[T]) extent() (int, int) { return m.sizeX, m.sizeY }

// At returns the coefficient at (x, y) relative to the mask center.
func (m *Mask[T]) At(x, y int) T {
	return m.coeffs[(y+m.sizeY/2)*m.sizeX+(x+m.sizeX/2)]
}

// Domain is the set of active stencil offsets a kernel iterates over.
// A cell is active when nonzero.
type Domain struct {
	sizeX, sizeY int
	active       []bool
}

// NewDomain builds a domain from a mask (active where the coefficient
// is nonzero), from a [sy][sx] integer grid, or dense from extents
// (sizeX, sizeY).
func NewDomain(args ...any) *Domain {
	if len(args) == 2 {
		sx, okx := args[0].(int)
		sy, oky := args[1].(int)
		if okx && oky {
			d := &Domain{sizeX: sx, sizeY: sy, active: make([]bool, sx*sy)}
			for i := range d.active {
				d.active[i] = true
			}
			return d
		}
	}
	if len(args) != 1 {
		panic(fmt.Sprintf("hipacc: %d domain arguments", len(args)))
	}
	if src, ok := args[0].(interface{ domainPattern() (int, int, []bool) }); ok {
		d := &Domain{}
		d.sizeX, d.sizeY, d.active = src.domainPattern()
		return d
	}
	sx, sy, coeffs := flattenGrid[uint8](args[0])
	d := &Domain{sizeX: sx, sizeY: sy, active: make([]bool, sx*sy)}
	for i, c := range coeffs {
		d.active[i] = c != 0
	}
	return d
}

// domainPattern reports the nonzero pattern of the mask coefficients.
// Integer coefficients are active when != 0; floating-point ones when
// not exactly zero, so negative zero is inactive and NaN is active.
func (m *Mask[T]) domainPattern() (int, int, []bool) {
	active := make([]bool, len(m.coeffs))
	for i, c := range m.coeffs {
		active[i] = c != 0
	}
	return m.sizeX, m.sizeY, active
}

// SizeX returns the domain width.
func (d *Domain) SizeX() int { return d.sizeX }

// SizeY returns the domain height.
func (d *Domain) SizeY() int { return d.sizeY }

// Active reports whether the cell at (x, y) relative to the domain
// center is iterated.
func (d *Domain) Active(x, y int) bool {
	return d.active[(y+d.sizeY/2)*d.sizeX+(x+d.sizeX/2)]
}

// Set activates (nonzero v) or deactivates (v == 0) the cell at (x, y)
// relative to the domain center.
func (d *Domain) Set(x, y, v int) {
	d.active[(y+d.sizeY/2)*d.sizeX+(x+d.sizeX/2)] = v != 0
}

// flattenGrid accepts a [sy][sx]E array or [][]E slice and returns its
// extents plus a row-major copy converted to T.
func flattenGrid[T Pixel](grid any) (sx, sy int, coeffs []T) {
	v := reflect.ValueOf(grid)
	if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
		panic(fmt.Sprintf("hipacc: stencil grid %T is not a 2-D array", grid))
	}
	sy = v.Len()
	if sy == 0 {
		panic("hipacc: empty stencil grid")
	}
	sx = v.Index(0).Len()
	coeffs = make([]T, 0, sx*sy)
	for y := 0; y < sy; y++ {
		row := v.Index(y)
		if row.Len() != sx {
			panic(fmt.Sprintf("hipacc: ragged stencil grid row %d", y))
		}
		for x := 0; x < sx; x++ {
			c := row.Index(x)
			switch c.Kind() {
			case reflect.Float32, reflect.Float64:
				coeffs = append(coeffs, T(c.Float()))
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				coeffs = append(coeffs, T(c.Int()))
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				coeffs = append(coeffs, T(c.Uint()))
			default:
				panic(fmt.Sprintf("hipacc: stencil coefficient kind %s", c.Kind()))
			}
		}
	}
	return sx, sy, coeffs
}
