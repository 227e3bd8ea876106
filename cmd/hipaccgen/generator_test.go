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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGenerator translates src for the given target and returns the
// rewritten host text plus a reader for the emitted kernel files.
func runGenerator(t *testing.T, src, target string) (string, func(string) string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.go")
	require.NoError(t, os.WriteFile(input, []byte(src), 0o644))

	tgt, err := LookupTarget(target)
	require.NoError(t, err)
	dev, err := LookupDevice("kepler", tgt)
	require.NoError(t, err)

	outDir := filepath.Join(dir, "gen")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	opts := Options{InputFile: input, OutputDir: outDir, Target: tgt, Device: dev}
	require.NoError(t, opts.Run())

	host, err := os.ReadFile(filepath.Join(outDir, "input.go"))
	require.NoError(t, err)
	return string(host), func(name string) string {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		return string(data)
	}
}

const blurProgram = `package main

import (
	"fmt"

	"github.com/hipacc/hipacc-go/hipacc"
)

type Blur struct {
	hipacc.Kernel[float32]
	input *hipacc.Accessor[float32]
	cMask *hipacc.Mask[float32]
}

func NewBlur(is *hipacc.IterationSpace[float32], input *hipacc.Accessor[float32], cMask *hipacc.Mask[float32]) *Blur {
	k := &Blur{
		Kernel: hipacc.MakeKernel[float32](is),
		input:  input,
		cMask:  cMask,
	}
	k.Init(k.kernel)
	k.InitReduce(k.reduce)
	return k
}

func (b *Blur) kernel() {
	sum := hipacc.Convolve(b.cMask, hipacc.Sum, func(x, y int) float32 {
		return b.cMask.At(x, y) * b.input.Pixel(x, y)
	})
	b.Output(sum)
}

func (b *Blur) reduce(l, r float32) float32 {
	return l + r
}

func main() {
	data := make([]float32, 1024*512)
	in := hipacc.NewImage[float32](1024, 512, data)
	out := hipacc.NewImage[float32](1024, 512)

	mask := hipacc.NewMask[float32]([3][3]float32{
		{0.0571, 0.1248, 0.0571},
		{0.1248, 0.2725, 0.1248},
		{0.0571, 0.1248, 0.0571},
	})
	bound := hipacc.NewBoundaryCondition(in, mask, hipacc.Clamp)
	acc := hipacc.NewAccessor(bound)
	is := hipacc.NewIterationSpace(out)

	blur := NewBlur(is, acc, mask)
	blur.Execute()

	sum := blur.ReducedData()
	res := out.Data()
	fmt.Println(sum, len(res))
}
`

func TestGenerateBlurCPU(t *testing.T) {
	host, kernel := runGenerator(t, blurProgram, "cpu")

	// DSL import replaced, runtime initialized first.
	assert.Contains(t, host, `hipaccrt "github.com/hipacc/hipacc-go/runtime"`)
	assert.NotContains(t, host, `"github.com/hipacc/hipacc-go/hipacc"`)
	assert.Contains(t, host, `hipaccrt.Init("cpu")`)

	// Declarations rewritten to runtime calls; no alignment on CPU.
	assert.Contains(t, host, `in := hipaccrt.CreateMemory[float32](data, 1024, 512)`)
	assert.Contains(t, host, `out := hipaccrt.CreateMemory[float32](nil, 1024, 512)`)
	assert.Contains(t, host, `acc := hipaccrt.NewAccessor(in)`)
	assert.Contains(t, host, `is := hipaccrt.NewAccessor(out)`)
	assert.Contains(t, host, `blur := hipaccrt.BuildProgramAndKernel("blurKernel.cc", "ccBlurKernel")`)
	assert.Contains(t, host, `res := hipaccrt.ReadMemory(out)`)

	// Launch block: constant mask is baked, so only the output and the
	// accessor travel.
	assert.Contains(t, host, "hipaccrt.ComputeGrid(block0, is.Width, is.Height)")
	assert.Contains(t, host, "hipaccrt.LaunchKernel(blur, grid0, block0, is, acc)")

	// Reduction inserted before its consuming statement.
	assert.Contains(t, host,
		`blurRed0 := hipaccrt.ApplyReduction(hipaccrt.BuildProgramAndKernel("blurKernel.cc", "ccBlurReduce"), is)`)
	assert.Contains(t, host, "sum := blurRed0")

	// Kernel class declarations are gone from the host.
	assert.NotContains(t, host, "type Blur struct")
	assert.NotContains(t, host, "func NewBlur")
	assert.NotContains(t, host, "NewBoundaryCondition")
	assert.NotContains(t, host, "NewMask")

	cc := kernel("blurKernel.cc")
	assert.Contains(t, cc, "#ifndef _BLURKERNEL_CC_")
	assert.Contains(t, cc, `#include "hipacc_types.hpp"`)
	assert.Contains(t, cc, "#define _output(v) _iter[gy][gx] = (v)")
	assert.Contains(t, cc, "static const float mask[3][3] = {")
	assert.Contains(t, cc, "{ 0.1248, 0.2725, 0.1248 }")
	assert.Contains(t, cc, "_bh_clamp")
	assert.Contains(t, cc, "void ccBlurKernel(")
	assert.Contains(t, cc, "float _iter[512][1024]")
	assert.Contains(t, cc, "const float input[512][1024]")
	assert.Contains(t, cc, "for (int gy = 0; gy < _iter_height; ++gy)")
	assert.Contains(t, cc, "_stencil_mask(_sx, _sy)")
	assert.Contains(t, cc, "_read_input(_sx, _sy)")
	assert.Contains(t, cc, "_output(sum);")
	assert.Contains(t, cc, "REDUCTION_CPU_2D(ccBlurReduce2D, float, ccBlurReduce)")
	assert.Contains(t, cc, "return l + r;")
}

func TestGenerateBlurCUDA(t *testing.T) {
	host, kernel := runGenerator(t, blurProgram, "cuda")

	// Kepler pads rows to 256 bytes, 64 floats.
	assert.Contains(t, host, `in := hipaccrt.CreateMemory[float32](data, 1024, 512, 64)`)
	assert.Contains(t, host, `blur := hipaccrt.BuildProgramAndKernel("blurKernel.cu", "cuBlurKernel")`)
	assert.Contains(t, host,
		`blurRed0 := hipaccrt.ApplyReduction(hipaccrt.BuildProgramAndKernel("blurKernel.cu", "cuBlurReduce"), is)`)

	cu := kernel("blurKernel.cu")
	assert.Contains(t, cu, "#ifndef _BLURKERNEL_CU_")
	assert.Contains(t, cu, `extern "C" __global__ __launch_bounds__(32*4) void cuBlurKernel(`)
	assert.Contains(t, cu, "__device__ __constant__ float mask[3][3] = {")
	assert.Contains(t, cu, "int gx = blockIdx.x * blockDim.x + threadIdx.x;")
	assert.Contains(t, cu, "if (gx >= _iter_width || gy >= _iter_height) return;")
	assert.Contains(t, cu, "#define BS 128")
	assert.Contains(t, cu, "__device__ inline float cuBlurReduce(float l, float r)")
	assert.Contains(t, cu, "REDUCTION_CUDA_2D_THREAD_FENCE(cuBlurReduce2D, float, cuBlurReduce, cuBlurKernel)")
}

func TestReductionResultNamesUnique(t *testing.T) {
	// Two ReducedData consumers in one scope get distinct result
	// variables.
	src := strings.Replace(blurProgram,
		"sum := blur.ReducedData()",
		"sum := blur.ReducedData()\n\tsum2 := blur.ReducedData()", 1)
	src = strings.Replace(src,
		"fmt.Println(sum, len(res))",
		"fmt.Println(sum, sum2, len(res))", 1)

	host, _ := runGenerator(t, src, "cpu")
	assert.Contains(t, host, "blurRed0 := hipaccrt.ApplyReduction(")
	assert.Contains(t, host, "blurRed1 := hipaccrt.ApplyReduction(")
	assert.Contains(t, host, "sum := blurRed0")
	assert.Contains(t, host, "sum2 := blurRed1")
}

const histProgram = `package main

import (
	"fmt"

	"github.com/hipacc/hipacc-go/hipacc"
)

type Hist struct {
	hipacc.BinningKernel[uint8, uint32]
	input *hipacc.Accessor[uint8]
}

func NewHist(is *hipacc.IterationSpace[uint8], input *hipacc.Accessor[uint8]) *Hist {
	k := &Hist{
		BinningKernel: hipacc.MakeBinningKernel[uint8, uint32](is),
		input:         input,
	}
	k.Init(k.kernel)
	k.InitBinning(k.binning)
	k.InitReduce(k.reduce)
	return k
}

func (h *Hist) kernel() {
	h.Output(h.input.Pixel(0, 0))
}

func (h *Hist) binning(x, y, numBins int, pixel uint8) {
	h.Bin(int(pixel), 1)
}

func (h *Hist) reduce(l, r uint32) uint32 {
	return l + r
}

func main() {
	data := make([]uint8, 512*256)
	in := hipacc.NewImage[uint8](512, 256, data)
	out := hipacc.NewImage[uint8](512, 256)

	acc := hipacc.NewAccessor(in)
	is := hipacc.NewIterationSpace(out)

	hist := NewHist(is, acc)
	hist.Execute()

	bins := hist.BinnedData(256)
	fmt.Println(len(bins))
}
`

func TestGenerateHistogramOpenCL(t *testing.T) {
	host, kernel := runGenerator(t, histProgram, "opencl-gpu")

	assert.Contains(t, host, `hist := hipaccrt.BuildProgramAndKernel("histKernel.cl", "clHistKernel")`)
	assert.Contains(t, host, "hipaccrt.ApplyBinning[uint8, uint32](")
	assert.Contains(t, host, `"clHistBinning"`)
	assert.Contains(t, host, "bins := histBins0")

	cl := kernel("histKernel.cl")
	assert.Contains(t, cl, "__kernel __attribute__((reqd_work_group_size(32, 4, 1)))")
	assert.Contains(t, cl, "void clHistKernel(")
	assert.Contains(t, cl, "int gx = get_global_id(0);")
	assert.Contains(t, cl, "__global uchar *_iter")
	assert.Contains(t, cl, "_output(_read_input(0, 0));")
	assert.Contains(t, cl, "#define HISTPPT 1")
	assert.Contains(t, cl, "inline void clHistBinning(__local uint *_lmem, uint _offset, uint _num_bins, uint x, uint y, uint numBins, uchar pixel)")
	assert.Contains(t, cl, "_accumulate(_lmem, _offset, (int)(pixel), 1);")
	assert.Contains(t, cl,
		"BINNING_CL_2D_SEGMENTED(clHistBinning2D, uchar, uint, ACCU_INT, UNTAG_INT, clHistBinning, clHistReduce, HISTPPT)")

	// The standalone reduction instantiates alongside the binning; the
	// reduce function is defined exactly once.
	assert.Contains(t, cl, "REDUCTION_CL_2D(clHistReduce2D, uint, clHistReduce)")
	assert.Contains(t, cl, "REDUCTION_CL_1D(clHistReduce1D, uint, clHistReduce)")
	assert.Equal(t, 1, strings.Count(cl, "inline uint clHistReduce(uint l, uint r)"))
}

func TestBinningReductionCUDATypeGate(t *testing.T) {
	// uint8 pixels with uint32 bins: the CUDA thread-fence reduction
	// cannot read the output image as bins, so only the reduce function
	// is emitted for the binning macro to use.
	_, kernel := runGenerator(t, histProgram, "cuda")
	cu := kernel("histKernel.cu")
	assert.Contains(t, cu, "__device__ inline uint cuHistReduce(uint l, uint r)")
	assert.NotContains(t, cu, "REDUCTION_CUDA_2D_THREAD_FENCE")
	assert.Contains(t, cu,
		"BINNING_CUDA_2D_SEGMENTED(cuHistBinning2D, uchar, uint, ACCU_INT, UNTAG_INT, cuHistBinning, cuHistReduce, HISTPPT)")
}

// pipelineProgram runs the same filter twice, in -> mid -> out, with
// one shared coefficient mask.
const pipelineProgram = `package main

import "github.com/hipacc/hipacc-go/hipacc"

type Filter struct {
	hipacc.Kernel[float32]
	input *hipacc.Accessor[float32]
	coef  *hipacc.Mask[float32]
}

func NewFilter(is *hipacc.IterationSpace[float32], input *hipacc.Accessor[float32], coef *hipacc.Mask[float32]) *Filter {
	k := &Filter{
		Kernel: hipacc.MakeKernel[float32](is),
		input:  input,
		coef:   coef,
	}
	k.Init(k.kernel)
	return k
}

func (f *Filter) kernel() {
	sum := hipacc.Convolve(f.coef, hipacc.Sum, func(x, y int) float32 {
		return f.coef.At(x, y) * f.input.Pixel(x, y)
	})
	f.Output(sum)
}

func main() {
	in := hipacc.NewImage[float32](256, 256)
	mid := hipacc.NewImage[float32](256, 256)
	out := hipacc.NewImage[float32](256, 256)

	coef := hipacc.NewMask[float32]([3][3]float32{
		{0.0625, 0.125, 0.0625},
		{0.125, 0.25, 0.125},
		{0.0625, 0.125, 0.0625},
	})

	bcIn := hipacc.NewBoundaryCondition(in, coef, hipacc.Clamp)
	accIn := hipacc.NewAccessor(bcIn)
	isMid := hipacc.NewIterationSpace(mid)
	first := NewFilter(isMid, accIn, coef)
	first.Execute()

	bcMid := hipacc.NewBoundaryCondition(mid, coef, hipacc.Clamp)
	accMid := hipacc.NewAccessor(bcMid)
	isOut := hipacc.NewIterationSpace(out)
	second := NewFilter(isOut, accMid, coef)
	second.Execute()

	_ = out.Data()
}
`

func TestMaskEmittedOncePerRun(t *testing.T) {
	_, kernel := runGenerator(t, pipelineProgram, "cuda")

	first := kernel("firstKernel.cu")
	second := kernel("secondKernel.cu")

	// The shared mask is defined with the first kernel only; both files
	// keep their access macro.
	assert.Contains(t, first, "__device__ __constant__ float coef[3][3] = {")
	assert.NotContains(t, second, "float coef[3][3]")
	assert.Contains(t, first, "#define _stencil_coef(_x, _y) coef[(_y) + 1][(_x) + 1]")
	assert.Contains(t, second, "#define _stencil_coef(_x, _y) coef[(_y) + 1][(_x) + 1]")
}

func TestGenerateVivadoPipeline(t *testing.T) {
	host, kernel := runGenerator(t, pipelineProgram, "vivado")

	assert.Contains(t, host, `first := hipaccrt.BuildProgramAndKernel("firstKernel.cc", "ccFirstKernel")`)

	cc := kernel("firstKernel.cc")
	assert.Contains(t, cc, "#include <hls_stream.h>")
	assert.Contains(t, cc, "struct first_proc {")
	assert.Contains(t, cc, "#pragma HLS PIPELINE II=1")
	assert.Contains(t, cc, "#define _output(v) _iter << (v)")
	assert.Contains(t, cc, "#undef _output")

	run := kernel("hipacc_run.cc")
	assert.Contains(t, run, "#define HIPACC_MAX_WIDTH 256")
	assert.Contains(t, run, "#define HIPACC_MAX_HEIGHT 256")
	assert.Contains(t, run, "#define HIPACC_WINDOW_SIZE_X 3")
	assert.Contains(t, run, `#include "firstKernel.cc"`)
	assert.Contains(t, run, `#include "secondKernel.cc"`)

	// The entry wires the intermediate image through a FIFO and exposes
	// the pipeline ends as ports.
	assert.Contains(t, run, "void hipacc_run(hls::stream<float > &in, hls::stream<float > &out) {")
	assert.Contains(t, run, "#pragma HLS DATAFLOW")
	assert.Contains(t, run, "hls::stream<float > _fifo_mid;")
	assert.Contains(t, run, "#pragma HLS STREAM variable=_fifo_mid depth=256")
	assert.Contains(t, run, "ccFirstKernel(_fifo_mid, in);")
	assert.Contains(t, run, "ccSecondKernel(out, _fifo_mid);")
}

func TestGenerateAlteraChannels(t *testing.T) {
	_, kernel := runGenerator(t, pipelineProgram, "opencl-fpga")

	run := kernel("hipacc_run.cl")
	assert.Contains(t, run, `#include "hipacc_cl_altera.clh"`)
	assert.Contains(t, run, "channel float _fifo_mid __attribute__((depth(256)));")
	assert.Contains(t, run, `#include "firstKernel.cl"`)
	assert.Contains(t, run, `#include "secondKernel.cl"`)

	cl := kernel("firstKernel.cl")
	assert.Contains(t, cl, "__kernel void clFirstKernel(")
	assert.Contains(t, cl, "/* write_only pipe */")
}

func TestRewriteMemoryTransfers(t *testing.T) {
	src := `package main

import "github.com/hipacc/hipacc-go/hipacc"

func main() {
	host := make([]float32, 128*64)
	a := hipacc.NewImage[float32](128, 64, host)
	b := hipacc.NewImage[float32](128, 64)
	pyr := hipacc.NewPyramid(a, 2)
	roi := hipacc.NewAccessor(a, 32, 32, 4, 4)

	b = a
	b = a.Data()
	b = roi
	roi = b
	roi = pyr.Level(1)
	a = host
	res := b.Data()
	_ = res
	_ = a.Width()
}
`
	hostOut, _ := runGenerator(t, src, "cuda")

	// Image-to-image and Data()-to-image both collapse onto one device
	// copy; the nested Data() call must not turn into a host read.
	assert.Equal(t, 2, strings.Count(hostOut, "hipaccrt.CopyMemory(a, b)"))
	assert.NotContains(t, hostOut, "hipaccrt.ReadMemory(a)")
	assert.Contains(t, hostOut, "hipaccrt.WriteMemory(a, host)")
	assert.Contains(t, hostOut, "res := hipaccrt.ReadMemory(b)")
	assert.Contains(t, hostOut, "_ = a.Width")
	assert.NotContains(t, hostOut, "a.Width()")

	// Accessor endpoints become region copies, the image side wrapped
	// in an implicit full-image view. An accessor source is never
	// mistaken for host data.
	assert.Contains(t, hostOut, "hipaccrt.CopyMemoryRegion(roi, hipaccrt.NewAccessor(b))")
	assert.Contains(t, hostOut, "hipaccrt.CopyMemoryRegion(hipaccrt.NewAccessor(b), roi)")
	assert.Contains(t, hostOut, "hipaccrt.CopyMemoryRegion(hipaccrt.NewAccessor(pyr.Level(1)), roi)")
	assert.NotContains(t, hostOut, "hipaccrt.WriteMemory(b, roi)")
}

func TestAccessorAssignmentRequiresDeviceSource(t *testing.T) {
	src := `package main

import "github.com/hipacc/hipacc-go/hipacc"

func main() {
	host := make([]float32, 64*64)
	a := hipacc.NewImage[float32](64, 64, host)
	roi := hipacc.NewAccessor(a, 32, 32, 0, 0)

	roi = host
	_ = roi
}
`
	dir := t.TempDir()
	input := filepath.Join(dir, "input.go")
	require.NoError(t, os.WriteFile(input, []byte(src), 0o644))
	tgt, _ := LookupTarget("cuda")
	dev, _ := LookupDevice("kepler", tgt)
	opts := Options{InputFile: input, OutputDir: dir, Target: tgt, Device: dev}
	err := opts.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required to fill an Accessor region")
}

const gainProgram = `package main

import "github.com/hipacc/hipacc-go/hipacc"

type Scale struct {
	hipacc.Kernel[float32]
	input *hipacc.Accessor[float32]
	gain  float32
}

func NewScale(is *hipacc.IterationSpace[float32], input *hipacc.Accessor[float32], gain float32) *Scale {
	k := &Scale{
		Kernel: hipacc.MakeKernel[float32](is),
		input:  input,
		gain:   gain,
	}
	k.Init(k.kernel)
	return k
}

func (s *Scale) kernel() {
	s.Output(s.input.Pixel(0, 0))
}

func main() {
	in := hipacc.NewImage[float32](64, 64)
	out := hipacc.NewImage[float32](64, 64)
	acc := hipacc.NewAccessor(in)
	is := hipacc.NewIterationSpace(out)

	scale := NewScale(is, acc, 2.5)
	scale.Execute()
	_ = out.Data()
}
`

func TestUnusedArgumentOmitted(t *testing.T) {
	// gain never appears in the kernel body: it is dropped from the
	// signature and the launch on device targets.
	host, kernel := runGenerator(t, gainProgram, "cuda")
	cu := kernel("scaleKernel.cu")
	assert.NotContains(t, cu, "float gain")
	assert.NotContains(t, host, "_tmp0")
	assert.Contains(t, host, "hipaccrt.LaunchKernel(scale, grid0, block0, is, acc)")
}

func TestUnusedArgumentKeptOnFPGA(t *testing.T) {
	// The stream topology is part of the pipeline contract: FPGA
	// signatures keep every argument.
	_, kernel := runGenerator(t, gainProgram, "vivado")
	cc := kernel("scaleKernel.cc")
	assert.Contains(t, cc, "float gain")

	run := kernel("hipacc_run.cc")
	assert.Contains(t, run, "float scale_gain")
	assert.Contains(t, run, "ccScaleKernel(out, in, scale_gain);")
}

const wideBinProgram = `package main

import (
	"fmt"

	"github.com/hipacc/hipacc-go/hipacc"
)

type double4 = float64

type Hist struct {
	hipacc.BinningKernel[uint8, double4]
	input *hipacc.Accessor[uint8]
}

func NewHist(is *hipacc.IterationSpace[uint8], input *hipacc.Accessor[uint8]) *Hist {
	k := &Hist{
		BinningKernel: hipacc.MakeBinningKernel[uint8, double4](is),
		input:         input,
	}
	k.Init(k.kernel)
	k.InitBinning(k.binning)
	k.InitReduce(k.reduce)
	return k
}

func (h *Hist) kernel() {
	h.Output(h.input.Pixel(0, 0))
}

func (h *Hist) binning(x, y, numBins int, pixel uint8) {
	h.Bin(int(pixel), 1)
}

func (h *Hist) reduce(l, r double4) double4 {
	return l + r
}

func main() {
	data := make([]uint8, 512*256)
	in := hipacc.NewImage[uint8](512, 256, data)
	out := hipacc.NewImage[uint8](512, 256)

	acc := hipacc.NewAccessor(in)
	is := hipacc.NewIterationSpace(out)

	hist := NewHist(is, acc)
	hist.Execute()

	bins := hist.BinnedData(256)
	fmt.Println(len(bins))
}
`

func TestBinningWideAccumulator(t *testing.T) {
	// double4 has no known bit width: accumulation falls back to the
	// wide compare-and-swap loop.
	_, kernel := runGenerator(t, wideBinProgram, "opencl-gpu")
	cl := kernel("histKernel.cl")
	assert.Contains(t, cl, "inline double4 clHistReduce(double4 l, double4 r)")
	assert.Contains(t, cl,
		"BINNING_CL_2D_SEGMENTED(clHistBinning2D, uchar, double4, ACCU_CAS_GT64, UNTAG_NONE, clHistBinning, clHistReduce, HISTPPT)")
}

func TestBinningBitWidthPragma(t *testing.T) {
	// A bw annotation on the instantiation line overrides the
	// type-derived accumulator width.
	src := strings.Replace(wideBinProgram,
		"\thist := NewHist(is, acc)",
		"\t//#pragma hipacc bw(hist, 64)\n\thist := NewHist(is, acc)", 1)
	_, kernel := runGenerator(t, src, "opencl-gpu")
	cl := kernel("histKernel.cl")
	assert.Contains(t, cl,
		"BINNING_CL_2D_SEGMENTED(clHistBinning2D, uchar, double4, ACCU_CAS_64, UNTAG_NONE, clHistBinning, clHistReduce, HISTPPT)")
}

func TestMalformedPragmaDiagnostic(t *testing.T) {
	// A hipacc pragma that violates the grammar aborts the run with a
	// positioned error instead of being dropped as a comment.
	src := strings.Replace(wideBinProgram,
		"\thist := NewHist(is, acc)",
		"\t//#pragma hipacc bw(hist, 999)\n\thist := NewHist(is, acc)", 1)

	dir := t.TempDir()
	input := filepath.Join(dir, "input.go")
	require.NoError(t, os.WriteFile(input, []byte(src), 0o644))
	tgt, _ := LookupTarget("opencl-gpu")
	dev, _ := LookupDevice("kepler", tgt)
	opts := Options{InputFile: input, OutputDir: dir, Target: tgt, Device: dev}
	err := opts.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.go:")
	assert.Contains(t, err.Error(), "malformed hipacc pragma")
	assert.Contains(t, err.Error(), "out of range")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"constant boundary without fill value",
			`bc := hipacc.NewBoundaryCondition(in, 5, hipacc.Constant)
	_ = bc`,
			"no constant value specified",
		},
		{
			"fill value without constant boundary",
			`bc := hipacc.NewBoundaryCondition(in, 5, hipacc.Clamp, float32(0))
	_ = bc`,
			"boundary handling is not CONSTANT",
		},
		{
			"non-constant boundary size",
			`n := len(data)
	bc := hipacc.NewBoundaryCondition(in, n, hipacc.Clamp)
	_ = bc`,
			"constant expression or Mask required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `package main

import "github.com/hipacc/hipacc-go/hipacc"

func main() {
	data := make([]float32, 64*64)
	in := hipacc.NewImage[float32](64, 64, data)
	` + tt.body + `
}
`
			dir := t.TempDir()
			input := filepath.Join(dir, "input.go")
			require.NoError(t, os.WriteFile(input, []byte(src), 0o644))
			tgt, _ := LookupTarget("cuda")
			dev, _ := LookupDevice("kepler", tgt)
			opts := Options{InputFile: input, OutputDir: dir, Target: tgt, Device: dev}
			err := opts.Run()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerateRequiresConstantExtentsOnCPU(t *testing.T) {
	src := `package main

import "github.com/hipacc/hipacc-go/hipacc"

func main() {
	n := 64
	in := hipacc.NewImage[float32](n, n)
	_ = in
}
`
	dir := t.TempDir()
	input := filepath.Join(dir, "input.go")
	require.NoError(t, os.WriteFile(input, []byte(src), 0o644))
	tgt, _ := LookupTarget("cpu")
	dev, _ := LookupDevice("kepler", tgt)
	opts := Options{InputFile: input, OutputDir: dir, Target: tgt, Device: dev}
	err := opts.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constant image extents required")
}
