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

import "fmt"

// Image is a 2-D pixel buffer. Assigning one image variable to
// another is what the generated code turns into a device memory
// transfer; the reference path offers CopyFrom for the same effect.
type Image[T Pixel] struct {
	width, height int
	pixels        []T
}

// NewImage allocates a width x height image. The optional data slice
// initializes the pixels row-major and must hold width*height elements.
func NewImage[T Pixel](width, height int, data ...[]T) *Image[T] {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("hipacc: invalid image extent %dx%d", width, height))
	}
	img := &Image[T]{
		width:  width,
		height: height,
		pixels: make([]T, width*height),
	}
	if len(data) > 0 {
		if len(data[0]) != width*height {
			panic(fmt.Sprintf("hipacc: image init data has %d elements, want %d",
				len(data[0]), width*height))
		}
		copy(img.pixels, data[0])
	}
	return img
}

// Width returns the image width in pixels.
func (img *Image[T]) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image[T]) Height() int { return img.height }

// Data returns the pixel buffer row-major. The generated code turns
// this call into a device-to-host transfer.
func (img *Image[T]) Data() []T { return img.pixels }

// Pixel returns the pixel at (x, y) without boundary handling.
func (img *Image[T]) Pixel(x, y int) T { return img.pixels[y*img.width+x] }

// SetPixel writes the pixel at (x, y).
func (img *Image[T]) SetPixel(x, y int, v T) { img.pixels[y*img.width+x] = v }

// CopyFrom copies the pixels of src into img. Both images must have
// the same extent.
func (img *Image[T]) CopyFrom(src *Image[T]) {
	if src.width != img.width || src.height != img.height {
		panic(fmt.Sprintf("hipacc: image copy %dx%d -> %dx%d", src.width, src.height,
			img.width, img.height))
	}
	copy(img.pixels, src.pixels)
}

// Pyramid is a stack of images halving in extent per level. Level 0
// aliases the base image.
type Pyramid[T Pixel] struct {
	depth  int
	levels []*Image[T]
}

// NewPyramid builds a pyramid of the given depth over img.
func NewPyramid[T Pixel](img *Image[T], depth int) *Pyramid[T] {
	if depth <= 0 {
		panic(fmt.Sprintf("hipacc: invalid pyramid depth %d", depth))
	}
	p := &Pyramid[T]{depth: depth, levels: make([]*Image[T], depth)}
	p.levels[0] = img
	w, h := img.width, img.height
	for l := 1; l < depth; l++ {
		w, h = max(w/2, 1), max(h/2, 1)
		p.levels[l] = NewImage[T](w, h)
	}
	return p
}

// Depth returns the number of pyramid levels.
func (p *Pyramid[T]) Depth() int { return p.depth }

// Level returns the image at level l.
func (p *Pyramid[T]) Level(l int) *Image[T] {
	if l < 0 || l >= p.depth {
		panic(fmt.Sprintf("hipacc: pyramid level %d out of range [0,%d)", l, p.depth))
	}
	return p.levels[l]
}
