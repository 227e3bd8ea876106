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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskFromArray(t *testing.T) {
	stencil := [3][3]float32{
		{0.057, 0.125, 0.057},
		{0.125, 0.272, 0.125},
		{0.057, 0.125, 0.057},
	}
	m := NewMask[float32](stencil)
	assert.Equal(t, 3, m.SizeX())
	assert.Equal(t, 3, m.SizeY())
	assert.Equal(t, float32(0.272), m.At(0, 0))
	assert.Equal(t, float32(0.057), m.At(-1, -1))
	assert.Equal(t, float32(0.125), m.At(1, 0))
}

func TestMaskRectangular(t *testing.T) {
	m := NewMask[int32]([1][5]int32{{-2, -1, 0, 1, 2}})
	assert.Equal(t, 5, m.SizeX())
	assert.Equal(t, 1, m.SizeY())
	assert.Equal(t, int32(-2), m.At(-2, 0))
	assert.Equal(t, int32(2), m.At(2, 0))
}

func TestDomainFromMask(t *testing.T) {
	tests := []struct {
		name string
		grid [3][3]float32
		want [3][3]bool
	}{
		{
			name: "cross pattern",
			grid: [3][3]float32{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}},
			want: [3][3]bool{{false, true, false}, {true, true, true}, {false, true, false}},
		},
		{
			name: "negative zero is inactive",
			grid: [3][3]float32{
				{float32(math.Copysign(0, -1)), 0, 0},
				{0, 1, 0},
				{0, 0, 0},
			},
			want: [3][3]bool{{false, false, false}, {false, true, false}, {false, false, false}},
		},
		{
			name: "nan is active",
			grid: [3][3]float32{
				{float32(math.NaN()), 0, 0},
				{0, 1, 0},
				{0, 0, 0},
			},
			want: [3][3]bool{{true, false, false}, {false, true, false}, {false, false, false}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDomain(NewMask[float32](tt.grid))
			require.Equal(t, 3, d.SizeX())
			require.Equal(t, 3, d.SizeY())
			for y := -1; y <= 1; y++ {
				for x := -1; x <= 1; x++ {
					assert.Equal(t, tt.want[y+1][x+1], d.Active(x, y),
						"cell (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestDomainDense(t *testing.T) {
	d := NewDomain(3, 3)
	count := 0
	Iterate(d, func(x, y int) { count++ })
	assert.Equal(t, 9, count)
}

func TestDomainSet(t *testing.T) {
	d := NewDomain(3, 3)
	d.Set(0, 0, 0)
	assert.False(t, d.Active(0, 0))
	count := 0
	Iterate(d, func(x, y int) { count++ })
	assert.Equal(t, 8, count)

	d.Set(0, 0, 1)
	assert.True(t, d.Active(0, 0))
}

func TestDomainFromGrid(t *testing.T) {
	d := NewDomain([3][3]uint8{{1, 0, 1}, {0, 1, 0}, {1, 0, 1}})
	assert.True(t, d.Active(-1, -1))
	assert.False(t, d.Active(0, -1))
	assert.True(t, d.Active(0, 0))
}
