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

// Package hipaccrt is the runtime the rewritten host programs call
// into. The hipaccgen tool replaces DSL declarations and statements
// with calls to this package: memory creation, transfers, kernel
// builds and launches. This implementation keeps device buffers as
// host slices and dispatches launches to registered Go functions, so
// rewritten programs run in-process; device back ends plug in behind
// the same surface.
package hipaccrt

import (
	"fmt"
	"os"
	"reflect"
	"sync"
)

// Image is a device buffer with a 2-D layout. Stride is the padded
// row length in elements.
type Image[T any] struct {
	Width, Height int
	Stride        int
	data          []T
}

// Accessor is a region-of-interest view of an Image.
type Accessor[T any] struct {
	Img              *Image[T]
	Width, Height    int
	OffsetX, OffsetY int
}

// Pyramid is a stack of device images halving in extent per level.
type Pyramid[T any] struct {
	levels []*Image[T]
}

// Dim is a launch extent in work items.
type Dim struct {
	X, Y int
}

// Init prepares the runtime for the named target. The in-process
// implementation only records it for diagnostics.
func Init(target string) {
	if os.Getenv("HIPACC_VERBOSE") != "" {
		fmt.Fprintf(os.Stderr, "hipaccrt: initialized for target %s\n", target)
	}
}

// CreateMemory allocates a device image of the given extent, padded to
// the optional row alignment, and uploads host when non-nil.
func CreateMemory[T any](host []T, width, height int, alignment ...int) *Image[T] {
	stride := width
	if len(alignment) > 0 && alignment[0] > 1 {
		a := alignment[0]
		stride = (width + a - 1) / a * a
	}
	img := &Image[T]{
		Width:  width,
		Height: height,
		Stride: stride,
		data:   make([]T, stride*height),
	}
	if host != nil {
		WriteMemory(img, host)
	}
	return img
}

// CreatePyramid builds a device pyramid of the given depth over img.
func CreatePyramid[T any](img *Image[T], depth int) *Pyramid[T] {
	p := &Pyramid[T]{levels: make([]*Image[T], depth)}
	p.levels[0] = img
	w, h := img.Width, img.Height
	for l := 1; l < depth; l++ {
		w, h = max(w/2, 1), max(h/2, 1)
		p.levels[l] = CreateMemory[T](nil, w, h)
	}
	return p
}

// Level returns the device image at pyramid level l.
func (p *Pyramid[T]) Level(l int) *Image[T] { return p.levels[l] }

// Depth returns the number of pyramid levels.
func (p *Pyramid[T]) Depth() int { return len(p.levels) }

// NewAccessor views the whole of img.
func NewAccessor[T any](img *Image[T]) Accessor[T] {
	return Accessor[T]{Img: img, Width: img.Width, Height: img.Height}
}

// NewAccessorRegion views width x height of img at (offsetX, offsetY).
func NewAccessorRegion[T any](img *Image[T], width, height, offsetX, offsetY int) Accessor[T] {
	return Accessor[T]{Img: img, Width: width, Height: height, OffsetX: offsetX, OffsetY: offsetY}
}

// WriteMemory uploads host pixels (row-major, unpadded) to img.
func WriteMemory[T any](img *Image[T], host []T) {
	if len(host) != img.Width*img.Height {
		panic(fmt.Sprintf("hipaccrt: host buffer has %d elements, image wants %d",
			len(host), img.Width*img.Height))
	}
	for y := 0; y < img.Height; y++ {
		copy(img.data[y*img.Stride:y*img.Stride+img.Width], host[y*img.Width:])
	}
}

// ReadMemory downloads the pixels of img into a fresh host slice.
func ReadMemory[T any](img *Image[T]) []T {
	host := make([]T, img.Width*img.Height)
	for y := 0; y < img.Height; y++ {
		copy(host[y*img.Width:], img.data[y*img.Stride:y*img.Stride+img.Width])
	}
	return host
}

// CopyMemory copies src to dst on the device. Extents must match.
func CopyMemory[T any](src, dst *Image[T]) {
	if src.Width != dst.Width || src.Height != dst.Height {
		panic(fmt.Sprintf("hipaccrt: device copy %dx%d -> %dx%d",
			src.Width, src.Height, dst.Width, dst.Height))
	}
	for y := 0; y < src.Height; y++ {
		copy(dst.data[y*dst.Stride:y*dst.Stride+dst.Width],
			src.data[y*src.Stride:y*src.Stride+src.Width])
	}
}

// CopyMemoryRegion copies the src region into the dst region. Regions
// must have equal extents.
func CopyMemoryRegion[T any](src, dst Accessor[T]) {
	if src.Width != dst.Width || src.Height != dst.Height {
		panic(fmt.Sprintf("hipaccrt: device region copy %dx%d -> %dx%d",
			src.Width, src.Height, dst.Width, dst.Height))
	}
	for y := 0; y < src.Height; y++ {
		srow := (y + src.OffsetY) * src.Img.Stride
		drow := (y + dst.OffsetY) * dst.Img.Stride
		copy(dst.Img.data[drow+dst.OffsetX:drow+dst.OffsetX+dst.Width],
			src.Img.data[srow+src.OffsetX:srow+src.OffsetX+src.Width])
	}
}

// Pixel reads the device pixel at (x, y). Launch functions of the
// in-process back end use it.
func (img *Image[T]) Pixel(x, y int) T { return img.data[y*img.Stride+x] }

// SetPixel writes the device pixel at (x, y).
func (img *Image[T]) SetPixel(x, y int, v T) { img.data[y*img.Stride+x] = v }

var (
	symbolsMu sync.Mutex
	symbols   = map[string]any{}
)

// WriteSymbol uploads data to the named constant-memory symbol.
func WriteSymbol[T any](name string, data []T) {
	symbolsMu.Lock()
	defer symbolsMu.Unlock()
	symbols[name] = data
}

// ReadSymbol returns the constant-memory symbol uploaded under name.
func ReadSymbol[T any](name string) []T {
	symbolsMu.Lock()
	defer symbolsMu.Unlock()
	data, _ := symbols[name].([]T)
	return data
}

// WriteDomainFromMask derives the active-cell pattern of a mask and
// uploads it to the named domain symbol. A cell is active when its
// coefficient is nonzero.
func WriteDomainFromMask[T comparable](name string, coeffs []T) {
	var zero T
	dom := make([]uint8, len(coeffs))
	for i, c := range coeffs {
		if c != zero {
			dom[i] = 1
		}
	}
	WriteSymbol(name, dom)
}

// WriteSymbolGrid uploads a [sy][sx]T stencil grid, row-major, to the
// named constant-memory symbol. Rewritten host code passes the grid
// variable it found in the original program.
func WriteSymbolGrid(name string, grid any) {
	symbolsMu.Lock()
	defer symbolsMu.Unlock()
	symbols[name] = flattenGrid(grid)
}

// WriteDomainFromMaskGrid derives the active-cell pattern of a stencil
// grid and uploads it to the named domain symbol.
func WriteDomainFromMaskGrid(name string, grid any) {
	flat := flattenGrid(grid)
	dom := make([]uint8, len(flat))
	for i, c := range flat {
		if c != 0 {
			dom[i] = 1
		}
	}
	WriteSymbol(name, dom)
}

// flattenGrid copies a 2-D array or slice of numeric cells row-major
// into a float64 slice.
func flattenGrid(grid any) []float64 {
	v := reflect.ValueOf(grid)
	if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
		panic(fmt.Sprintf("hipaccrt: stencil grid %T is not a 2-D array", grid))
	}
	var flat []float64
	for y := 0; y < v.Len(); y++ {
		row := v.Index(y)
		for x := 0; x < row.Len(); x++ {
			c := row.Index(x)
			switch c.Kind() {
			case reflect.Float32, reflect.Float64:
				flat = append(flat, c.Float())
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				flat = append(flat, float64(c.Int()))
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				flat = append(flat, float64(c.Uint()))
			default:
				panic(fmt.Sprintf("hipaccrt: stencil cell kind %s", c.Kind()))
			}
		}
	}
	return flat
}

// Kernel is a built kernel handle.
type Kernel struct {
	File string
	Name string
	fn   LaunchFunc
}

// LaunchFunc is the in-process form of a kernel: it receives the grid
// extent and the kernel arguments in declaration order.
type LaunchFunc func(grid Dim, args []any)

var (
	registryMu sync.Mutex
	registry   = map[string]LaunchFunc{}
)

// RegisterKernel installs the in-process implementation of the named
// kernel. Generated code registers its reference kernels at init time.
func RegisterKernel(name string, fn LaunchFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// BuildProgramAndKernel resolves the named kernel from file. The
// in-process back end looks the name up in the registry; missing
// kernels fail at launch, not at build, matching deferred compilation.
func BuildProgramAndKernel(file, name string) *Kernel {
	registryMu.Lock()
	defer registryMu.Unlock()
	return &Kernel{File: file, Name: name, fn: registry[name]}
}

// ComputeGrid rounds the iteration extent up to whole blocks.
func ComputeGrid(block Dim, width, height int) Dim {
	return Dim{
		X: (width + block.X - 1) / block.X,
		Y: (height + block.Y - 1) / block.Y,
	}
}

// LaunchKernel runs k over grid x block work items.
func LaunchKernel(k *Kernel, grid, block Dim, args ...any) {
	if k.fn == nil {
		panic(fmt.Sprintf("hipaccrt: kernel %q not registered", k.Name))
	}
	k.fn(Dim{X: grid.X * block.X, Y: grid.Y * block.Y}, args)
}

// ApplyReduction folds the region of img seen by acc with the
// registered reduction kernel and returns the result.
func ApplyReduction[T any](k *Kernel, acc Accessor[T]) T {
	if k.fn == nil {
		panic(fmt.Sprintf("hipaccrt: reduction kernel %q not registered", k.Name))
	}
	out := make([]T, 1)
	k.fn(Dim{X: acc.Width, Y: acc.Height}, []any{acc, out})
	return out[0]
}

// ApplyBinning runs the registered binning kernel over the region of
// img seen by acc and returns numBins bins.
func ApplyBinning[T, B any](k *Kernel, acc Accessor[T], numBins int) []B {
	if k.fn == nil {
		panic(fmt.Sprintf("hipaccrt: binning kernel %q not registered", k.Name))
	}
	bins := make([]B, numBins)
	k.fn(Dim{X: acc.Width, Y: acc.Height}, []any{acc, bins, numBins})
	return bins
}

// Traverse processes pyramid levels recursively: fn is invoked once
// per level with the level index.
func Traverse(depth int, fn func(level int)) {
	for l := 0; l < depth; l++ {
		fn(l)
	}
}
