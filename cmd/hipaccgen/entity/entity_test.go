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

package entity

import (
	"go/ast"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableOrderAndIdentity(t *testing.T) {
	// Two distinct declaration objects with the same spelled name must
	// stay distinct entries.
	outer := ast.NewObj(ast.Var, "img")
	inner := ast.NewObj(ast.Var, "img")
	other := ast.NewObj(ast.Var, "out")

	var tbl Table[*Image]
	tbl.Add(outer, &Image{Name: "img", Width: 16})
	tbl.Add(other, &Image{Name: "out"})
	tbl.Add(inner, &Image{Name: "img", Width: 32})

	assert.Equal(t, 3, tbl.Len())
	got, ok := tbl.Get(outer)
	assert.True(t, ok)
	assert.Equal(t, 16, got.Width)
	got, _ = tbl.Get(inner)
	assert.Equal(t, 32, got.Width)

	var widths []int
	for _, img := range tbl.Values() {
		widths = append(widths, img.Width)
	}
	assert.Equal(t, []int{16, 0, 32}, widths)
}

func TestKernelNaming(t *testing.T) {
	k := NewKernel("gaussBlur", &KernelClass{Name: "GaussianBlur"}, token.Position{})
	assert.Equal(t, "gaussBlurKernel", k.FileName())
	assert.Equal(t, "cuGaussBlurKernel", k.KernelName("cu"))
	assert.Equal(t, "clGaussBlurKernel", k.KernelName("cl"))
	assert.Equal(t, "ccGaussBlurReduce", k.ReduceName("cc"))
	assert.Equal(t, "cuGaussBlurBinning", k.BinningName("cu"))

	// The FPGA host glue strips the prefix and the Kernel suffix.
	name := k.KernelName("cl")
	assert.Equal(t, "GaussBlur", name[2:len(name)-6])
}

func TestKernelClassArgFilters(t *testing.T) {
	kc := &KernelClass{
		Name: "Sobel",
		Args: []*Arg{
			{Kind: ArgIterationSpace, Name: "iter"},
			{Kind: ArgImage, Name: "input", Used: true},
			{Kind: ArgMask, Name: "coeff", Used: true},
			{Kind: ArgMask, Name: "dom", IsDomain: true, Used: true},
			{Kind: ArgScalar, Name: "threshold", Type: "float32"},
		},
	}
	assert.Len(t, kc.ImageArgs(), 1)
	assert.Len(t, kc.MaskArgs(), 2)
	assert.Len(t, kc.ScalarArgs(), 1)
}

func TestMaskCells(t *testing.T) {
	m := &Mask{
		Kind:      KindMask,
		PixelType: "int32",
		SizeX:     3,
		SizeY:     3,
		Constant:  true,
		Cells:     []string{"-1", "0", "1", "-2", "0", "2", "-1", "0", "1"},
	}
	assert.Equal(t, "0", m.Cell(0, 0))
	assert.Equal(t, "-1", m.Cell(-1, -1))
	assert.Equal(t, "2", m.Cell(1, 0))

	m.SetCell(1, 0, "4")
	assert.Equal(t, "4", m.Cell(1, 0))
}

func TestTrackImageExtent(t *testing.T) {
	m := NewModel()
	m.TrackImageExtent(512, 256)
	m.TrackImageExtent(256, 512)
	assert.Equal(t, 512, m.MaxImageWidth)
	assert.Equal(t, 512, m.MaxImageHeight)
}
