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

package hipaccrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMemoryAlignment(t *testing.T) {
	img := CreateMemory[uint8](nil, 10, 4, 16)
	assert.Equal(t, 10, img.Width)
	assert.Equal(t, 16, img.Stride)

	host := make([]uint8, 10*4)
	for i := range host {
		host[i] = uint8(i)
	}
	WriteMemory(img, host)
	assert.Equal(t, host, ReadMemory(img))
	assert.Equal(t, uint8(13), img.Pixel(3, 1))
}

func TestCopyMemoryRegion(t *testing.T) {
	src := CreateMemory[int32](nil, 8, 8)
	dst := CreateMemory[int32](nil, 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetPixel(x, y, int32(y*8+x))
		}
	}

	CopyMemoryRegion(
		NewAccessorRegion(src, 4, 4, 2, 2),
		NewAccessorRegion(dst, 4, 4, 0, 0),
	)
	assert.Equal(t, src.Pixel(2, 2), dst.Pixel(0, 0))
	assert.Equal(t, src.Pixel(5, 5), dst.Pixel(3, 3))
	assert.Equal(t, int32(0), dst.Pixel(4, 4))
}

func TestSymbols(t *testing.T) {
	WriteSymbol("maskGauss", []float32{0.25, 0.5, 0.25})
	assert.Equal(t, []float32{0.25, 0.5, 0.25}, ReadSymbol[float32]("maskGauss"))

	WriteDomainFromMask("domSobel", []int32{-1, 0, 1, -2, 0, 2, -1, 0, 1})
	assert.Equal(t, []uint8{1, 0, 1, 1, 0, 1, 1, 0, 1}, ReadSymbol[uint8]("domSobel"))
}

func TestKernelLaunch(t *testing.T) {
	var gotGrid Dim
	var gotArgs []any
	RegisterKernel("cuCopyKernel", func(grid Dim, args []any) {
		gotGrid, gotArgs = grid, args
	})

	k := BuildProgramAndKernel("copyKernel.cu", "cuCopyKernel")
	require.NotNil(t, k)

	block := Dim{X: 32, Y: 8}
	grid := ComputeGrid(block, 100, 20)
	assert.Equal(t, Dim{X: 4, Y: 3}, grid)

	LaunchKernel(k, grid, block, 7, "arg")
	assert.Equal(t, Dim{X: 128, Y: 24}, gotGrid)
	assert.Equal(t, []any{7, "arg"}, gotArgs)
}

func TestLaunchUnregisteredKernel(t *testing.T) {
	k := BuildProgramAndKernel("missingKernel.cl", "clMissingKernel")
	assert.Panics(t, func() { LaunchKernel(k, Dim{X: 1, Y: 1}, Dim{X: 1, Y: 1}) })
}

func TestApplyReduction(t *testing.T) {
	img := CreateMemory([]int32{1, 2, 3, 4}, 2, 2)
	RegisterKernel("cuSumReduce", func(grid Dim, args []any) {
		acc := args[0].(Accessor[int32])
		out := args[1].([]int32)
		var sum int32
		for y := 0; y < acc.Height; y++ {
			for x := 0; x < acc.Width; x++ {
				sum += acc.Img.Pixel(x+acc.OffsetX, y+acc.OffsetY)
			}
		}
		out[0] = sum
	})
	k := BuildProgramAndKernel("sumKernel.cu", "cuSumReduce")
	assert.Equal(t, int32(10), ApplyReduction(k, NewAccessor(img)))
}
