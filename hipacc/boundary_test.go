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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *Image[int32] {
	img := NewImage[int32](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetPixel(x, y, int32(y*w+x))
		}
	}
	return img
}

func TestBoundaryConditionWindowShapes(t *testing.T) {
	img := gradientImage(8, 8)

	bc := NewBoundaryCondition(img, 5, 3, Clamp)
	assert.Equal(t, 5, bc.SizeX())
	assert.Equal(t, 3, bc.SizeY())

	bc = NewBoundaryCondition(img, 5, Mirror)
	assert.Equal(t, 5, bc.SizeX())
	assert.Equal(t, 5, bc.SizeY())

	// The window of a mask-shaped boundary condition is the mask extent.
	m := NewMask[int32]([3][5]int32{})
	bc = NewBoundaryCondition(img, m, Clamp)
	assert.Equal(t, 5, bc.SizeX())
	assert.Equal(t, 3, bc.SizeY())
}

func TestBoundaryConditionConstantRequiresFill(t *testing.T) {
	img := gradientImage(4, 4)
	assert.Panics(t, func() { NewBoundaryCondition(img, 3, Constant) })
	assert.NotPanics(t, func() { NewBoundaryCondition(img, 3, Constant, int32(0)) })
	assert.Panics(t, func() { NewBoundaryCondition(img, 3, Clamp, int32(0)) })
}

func TestBoundaryModes(t *testing.T) {
	img := gradientImage(4, 4)
	tests := []struct {
		name string
		bc   *BoundaryCondition[int32]
		x, y int
		want int32
	}{
		{"clamp left", NewBoundaryCondition(img, 3, Clamp), -2, 0, 0},
		{"clamp right", NewBoundaryCondition(img, 3, Clamp), 5, 0, 3},
		{"clamp bottom", NewBoundaryCondition(img, 3, Clamp), 0, 6, 12},
		{"mirror left", NewBoundaryCondition(img, 3, Mirror), -1, 0, 0},
		{"mirror left two", NewBoundaryCondition(img, 3, Mirror), -2, 0, 1},
		{"mirror right", NewBoundaryCondition(img, 3, Mirror), 4, 0, 3},
		{"constant outside", NewBoundaryCondition(img, 3, Constant, int32(-7)), -1, -1, -7},
		{"constant inside", NewBoundaryCondition(img, 3, Constant, int32(-7)), 1, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bc.at(tt.x, tt.y))
		})
	}
}

func TestAccessorImplicitBoundary(t *testing.T) {
	img := gradientImage(4, 4)
	acc := NewAccessor[int32](img)
	assert.Equal(t, 4, acc.Width())
	assert.Equal(t, 4, acc.Height())
	assert.Equal(t, int32(5), acc.Pixel(1, 1))
}

func TestAccessorRegionOfInterest(t *testing.T) {
	img := gradientImage(8, 8)
	acc := NewAccessor[int32](img, 4, 4, 2, 2)
	require.Equal(t, 4, acc.Width())
	require.Equal(t, 4, acc.Height())
	assert.Equal(t, img.Pixel(2, 2), acc.Pixel(0, 0))
	assert.Equal(t, img.Pixel(5, 5), acc.Pixel(3, 3))
}

func TestAccessorInterpolation(t *testing.T) {
	img := NewImage[float32](2, 1, []float32{0, 10})
	nn := NewAccessor[float32](img, 2, 1, 0, 0, Nearest)
	assert.Equal(t, float32(10), nn.PixelAt(0.6, 0))

	lf := NewAccessor[float32](NewBoundaryCondition(img, 1, Clamp), 2, 1, 0, 0, Linear)
	assert.InDelta(t, 5.0, float64(lf.PixelAt(0.5, 0)), 1e-6)
}

func TestIterationSpaceShapes(t *testing.T) {
	img := gradientImage(8, 8)

	is := NewIterationSpace(img)
	assert.Equal(t, 8, is.Width())
	assert.Equal(t, 8, is.Height())

	is = NewIterationSpace(img, 4, 2)
	assert.Equal(t, 4, is.Width())
	assert.Equal(t, 2, is.Height())

	is = NewIterationSpace(img, 4, 2, 1, 1)
	assert.Equal(t, 1, is.offsetX)
	assert.Equal(t, 1, is.offsetY)
}

func TestPyramidLevels(t *testing.T) {
	img := gradientImage(16, 8)
	p := NewPyramid(img, 3)
	require.Equal(t, 3, p.Depth())
	assert.Same(t, img, p.Level(0))
	assert.Equal(t, 8, p.Level(1).Width())
	assert.Equal(t, 4, p.Level(1).Height())
	assert.Equal(t, 4, p.Level(2).Width())
	assert.Equal(t, 2, p.Level(2).Height())
}

func TestTraverse(t *testing.T) {
	var visited []int
	Traverse(3, func(level int) { visited = append(visited, level) })
	assert.Equal(t, []int{0, 1, 2}, visited)
}
