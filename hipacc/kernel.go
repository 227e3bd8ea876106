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

// Kernel is the base of user kernel structs. A kernel struct embeds
// Kernel[P] (P being the output pixel type), binds its inputs as
// fields, and provides an unexported method named kernel holding the
// per-pixel body. The constructor registers the body with Init so the
// reference path can run it:
//
//	type Blur struct {
//		hipacc.Kernel[uint8]
//		in *hipacc.Accessor[uint8]
//	}
//
//	func NewBlur(is *hipacc.IterationSpace[uint8], in *hipacc.Accessor[uint8]) *Blur {
//		k := &Blur{Kernel: hipacc.MakeKernel(is), in: in}
//		k.Init(k.kernel)
//		return k
//	}
//
// A method named reduce (registered with InitReduce) enables
// ReducedData; a method named binning on a BinningKernel enables
// BinnedData.
type Kernel[P Pixel] struct {
	is       *IterationSpace[P]
	fn       func()
	reduceFn func(P, P) P
	x, y     int
}

// MakeKernel binds a kernel base to its iteration space.
func MakeKernel[P Pixel](is *IterationSpace[P]) Kernel[P] {
	return Kernel[P]{is: is}
}

// Init registers the per-pixel kernel body.
func (k *Kernel[P]) Init(fn func()) { k.fn = fn }

// InitReduce registers the reduction combine function.
func (k *Kernel[P]) InitReduce(fn func(P, P) P) { k.reduceFn = fn }

// X returns the x coordinate of the pixel being computed.
func (k *Kernel[P]) X() int { return k.x }

// Y returns the y coordinate of the pixel being computed.
func (k *Kernel[P]) Y() int { return k.y }

// Output writes the output pixel at the current iteration point.
func (k *Kernel[P]) Output(v P) {
	k.is.img.SetPixel(k.x+k.is.offsetX, k.y+k.is.offsetY, v)
}

// Execute runs the kernel body once per iteration space point. The
// reference path is sequential; parallel and device execution belong
// to the generated code.
func (k *Kernel[P]) Execute() {
	if k.fn == nil {
		panic("hipacc: kernel body not registered, call Init in the constructor")
	}
	for y := 0; y < k.is.height; y++ {
		for x := 0; x < k.is.width; x++ {
			k.x, k.y = x, y
			k.fn()
		}
	}
}

// ReducedData folds the iteration space region of the output image
// with the registered reduction function and returns the result.
func (k *Kernel[P]) ReducedData() P {
	if k.reduceFn == nil {
		panic("hipacc: reduction not registered, call InitReduce in the constructor")
	}
	acc := k.is.img.Pixel(k.is.offsetX, k.is.offsetY)
	first := true
	for y := 0; y < k.is.height; y++ {
		for x := 0; x < k.is.width; x++ {
			if first {
				first = false
				continue
			}
			acc = k.reduceFn(acc, k.is.img.Pixel(x+k.is.offsetX, y+k.is.offsetY))
		}
	}
	return acc
}

// BinningKernel extends Kernel with histogram binning. B is the bin
// type; the binning method distributes pixels into bins with Bin and
// the reduce method (registered with InitReduce) merges colliding
// values.
type BinningKernel[P, B Pixel] struct {
	Kernel[P]
	binFn       func(x, y, numBins int, pixel P)
	binReduceFn func(B, B) B
	bins        []B
	binSet      []bool
}

// MakeBinningKernel binds a binning kernel base to its iteration space.
func MakeBinningKernel[P, B Pixel](is *IterationSpace[P]) BinningKernel[P, B] {
	return BinningKernel[P, B]{Kernel: MakeKernel(is)}
}

// InitBinning registers the per-pixel binning body.
func (k *BinningKernel[P, B]) InitBinning(fn func(x, y, numBins int, pixel P)) {
	k.binFn = fn
}

// InitReduce registers the bin merge function.
func (k *BinningKernel[P, B]) InitReduce(fn func(B, B) B) { k.binReduceFn = fn }

// Bin merges v into the bin at idx.
func (k *BinningKernel[P, B]) Bin(idx int, v B) {
	if idx < 0 || idx >= len(k.bins) {
		return
	}
	if !k.binSet[idx] {
		k.bins[idx] = v
		k.binSet[idx] = true
		return
	}
	k.bins[idx] = k.binReduceFn(k.bins[idx], v)
}

// BinnedData runs the binning body over the iteration space region and
// returns the resulting bins.
func (k *BinningKernel[P, B]) BinnedData(numBins int) []B {
	if k.binFn == nil {
		panic("hipacc: binning body not registered, call InitBinning in the constructor")
	}
	if k.binReduceFn == nil {
		panic("hipacc: reduction not registered, call InitReduce in the constructor")
	}
	k.bins = make([]B, numBins)
	k.binSet = make([]bool, numBins)
	for y := 0; y < k.is.height; y++ {
		for x := 0; x < k.is.width; x++ {
			pix := k.is.img.Pixel(x+k.is.offsetX, y+k.is.offsetY)
			k.binFn(x, y, numBins, pix)
		}
	}
	return k.bins
}

// Convolve folds fn over the cells of mask with the given combine
// operation. fn receives mask-relative coordinates.
func Convolve[A Pixel, M Pixel](mask *Mask[M], op Reduce, fn func(x, y int) A) A {
	var acc A
	first := true
	for y := -mask.sizeY / 2; y <= mask.sizeY/2; y++ {
		for x := -mask.sizeX / 2; x <= mask.sizeX/2; x++ {
			v := fn(x, y)
			if first {
				acc, first = v, false
				continue
			}
			acc = combine(op, acc, v)
		}
	}
	return acc
}

// Iterate calls fn for every active cell of dom.
func Iterate(dom *Domain, fn func(x, y int)) {
	for y := -dom.sizeY / 2; y <= dom.sizeY/2; y++ {
		for x := -dom.sizeX / 2; x <= dom.sizeX/2; x++ {
			if dom.Active(x, y) {
				fn(x, y)
			}
		}
	}
}

// ReduceDomain folds fn over the active cells of dom with the given
// combine operation.
func ReduceDomain[A Pixel](dom *Domain, op Reduce, fn func(x, y int) A) A {
	var acc A
	first := true
	Iterate(dom, func(x, y int) {
		v := fn(x, y)
		if first {
			acc, first = v, false
			return
		}
		acc = combine(op, acc, v)
	})
	return acc
}

func combine[A Pixel](op Reduce, a, b A) A {
	switch op {
	case Sum:
		return a + b
	case Min:
		return min(a, b)
	case Max:
		return max(a, b)
	case Prod:
		return a * b
	}
	// Median needs the full sample set and is resolved by the code
	// generator; the reference path approximates it with Sum.
	return a + b
}
