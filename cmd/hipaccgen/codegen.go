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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// interpDef is one interpolation helper emitted into a kernel file,
// deduplicated by name so shared weight functions appear once.
type interpDef struct {
	name string
	text string
}

// ppt returns the effective pixels-per-thread: the flag when set, the
// device default otherwise.
func (p *Pass) ppt() int {
	if p.opts.PixelsPerThread > 0 {
		return p.opts.PixelsPerThread
	}
	if p.opts.Device.PPT > 0 {
		return p.opts.Device.PPT
	}
	return 1
}

func typeBits(goType string) int {
	return pixelSize(goType) * 8
}

func isIntegerType(goType string) bool {
	switch goType {
	case "int8", "int16", "int32", "int64", "int",
		"uint8", "uint16", "uint32", "uint64", "uint":
		return true
	}
	return false
}

func roundUp(v, m int) int {
	if m <= 1 {
		return v
	}
	return (v + m - 1) / m * m
}

// printKernelFunction emits the kernel file of one kernel instance:
// include guard, preamble, stencil constants, boundary read macros,
// interpolation helpers, the kernel function, and the reduction and
// binning instantiations where the class defines them.
func (p *Pass) printKernelFunction(k *entity.Kernel) error {
	t := p.opts.Target
	var b strings.Builder

	guard := fmt.Sprintf("_%s_%s_", strings.ToUpper(k.FileName()), t.GuardSuffix)
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)

	p.interpDefs = nil
	if err := p.printPreamble(&b, k); err != nil {
		return err
	}
	if err := p.printStencilDefs(&b, k); err != nil {
		return err
	}
	if err := p.printReadMacros(&b, k); err != nil {
		return err
	}
	for _, d := range lo.UniqBy(p.interpDefs, func(d interpDef) string { return d.name }) {
		b.WriteString(d.text)
		b.WriteString("\n")
	}

	body, err := p.translator.TranslateKernel(k)
	if err != nil {
		return err
	}
	switch t.Lang {
	case LangVivado:
		p.printVivadoKernel(&b, k, body)
	default:
		p.printPlainKernel(&b, k, body)
	}

	if k.Class.ReduceBody != nil {
		if err := p.printReductionFunction(&b, k); err != nil {
			return err
		}
	}
	if k.Class.BinningBody != nil {
		if err := p.printBinningFunction(&b, k); err != nil {
			return err
		}
	}

	// FPGA entry files pull every kernel file into one translation
	// unit; per-file macros must not leak into the next kernel.
	if t.IsFPGA() {
		b.WriteString("#undef _output\n")
		for _, arg := range k.Class.ImageArgs() {
			fmt.Fprintf(&b, "#undef _read_%s\n", arg.Name)
			fmt.Fprintf(&b, "#undef _%s_width\n#undef _%s_height\n", arg.Name, arg.Name)
		}
		for _, arg := range k.Class.MaskArgs() {
			if m := k.MaskBindings[arg]; m != nil {
				fmt.Fprintf(&b, "#undef _stencil_%s\n", m.Name)
			}
		}
		b.WriteString("#undef _bh_clamp\n#undef _bh_mirror\n\n")
	}

	fmt.Fprintf(&b, "#endif // %s\n", guard)

	name := k.FileName() + t.Ext
	if err := writeFileSync(filepath.Join(p.opts.OutputDir, name), []byte(b.String())); err != nil {
		return fmt.Errorf("write kernel file: %w", err)
	}
	if !lo.Contains(p.kernelFiles, name) {
		p.kernelFiles = append(p.kernelFiles, name)
	}
	return nil
}

// printPreamble writes the dialect includes, the script globals, and
// the _output macro hiding where stores go.
func (p *Pass) printPreamble(b *strings.Builder, k *entity.Kernel) error {
	t := p.opts.Target

	switch t.Lang {
	case LangC99, LangCUDA:
		b.WriteString("#include \"hipacc_types.hpp\"\n")
		b.WriteString("#include \"hipacc_math_functions.hpp\"\n\n")
	case LangVivado:
		b.WriteString("#include <hls_stream.h>\n")
		b.WriteString("#include \"hipacc_types.hpp\"\n")
		b.WriteString("#include \"hipacc_math_functions.hpp\"\n\n")
	case LangRenderscript, LangFilterscript:
		b.WriteString("#pragma version(1)\n")
		b.WriteString("#pragma rs java_package_name(org.hipacc.generated)\n\n")
		for _, arg := range k.Class.ImageArgs() {
			if arg.Used {
				fmt.Fprintf(b, "rs_allocation %s;\n", arg.Name)
			}
		}
		for _, arg := range k.Class.ScalarArgs() {
			if arg.Used {
				fmt.Fprintf(b, "%s %s;\n", t.KernelType(arg.Type), arg.Name)
			}
		}
		b.WriteString("\n")
	}

	switch t.Lang {
	case LangC99:
		fmt.Fprintf(b, "#define _output(v) %s[gy][gx] = (v)\n\n", outputParamName)
	case LangCUDA, LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		fmt.Fprintf(b, "#define _output(v) %s[gy * _iter_stride + gx] = (v)\n\n", outputParamName)
	case LangOpenCLFPGA:
		fmt.Fprintf(b, "#define _output(v) %s[gy * %d + gx] = (v)\n\n",
			outputParamName, k.IterationSpace.Img.Width)
	case LangVivado:
		fmt.Fprintf(b, "#define _output(v) %s << (v)\n\n", outputParamName)
	case LangRenderscript, LangFilterscript:
		b.WriteString("#define _output(v) return (v)\n\n")
	}
	return nil
}

// printStencilDefs bakes constant masks and domains into the kernel
// file and defines the _stencil_ access macros for every bound mask.
// The constant definition of a mask shared by several kernels is
// emitted with the first kernel only; all kernel files of one run end
// up in the same translation unit, so a second definition would
// collide.
func (p *Pass) printStencilDefs(b *strings.Builder, k *entity.Kernel) error {
	t := p.opts.Target
	file := k.FileName() + t.Ext
	seen := make(map[*entity.Mask]bool)

	// defines reports whether this kernel file carries the one
	// definition of m. The resource probe prints a file ahead of the
	// final emission, so re-printing the owning file keeps it.
	defines := func(m *entity.Mask) bool {
		if m.PrintedIn != "" && m.PrintedIn != file {
			return false
		}
		m.PrintedIn = file
		return true
	}

	for _, arg := range k.Class.MaskArgs() {
		m := k.MaskBindings[arg]
		if m == nil || seen[m] {
			continue
		}
		seen[m] = true
		ct := t.KernelType(m.PixelType)

		switch {
		case m.Constant:
			if defines(m) {
				qual := "static const"
				switch t.Lang {
				case LangCUDA:
					qual = "__device__ __constant__"
				case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU, LangOpenCLFPGA:
					qual = "__constant"
				}
				fmt.Fprintf(b, "%s %s %s[%d][%d] = {\n", qual, ct, m.Name, m.SizeY, m.SizeX)
				for y := 0; y < m.SizeY; y++ {
					row := m.Cells[y*m.SizeX : (y+1)*m.SizeX]
					fmt.Fprintf(b, "    { %s }", strings.Join(row, ", "))
					if y < m.SizeY-1 {
						b.WriteString(",")
					}
					b.WriteString("\n")
				}
				b.WriteString("};\n")
			}
			p.stencilMacro2D(b, m)

		case t.Lang == LangCUDA:
			// Uploaded to a constant-memory symbol before each launch.
			if defines(m) {
				fmt.Fprintf(b, "__device__ __constant__ %s %s[%d][%d];\n", ct, m.Name, m.SizeY, m.SizeX)
			}
			p.stencilMacro2D(b, m)

		case t.IsScript():
			// Script globals, filled from the host before the launch.
			if defines(m) {
				fmt.Fprintf(b, "%s %s[%d][%d];\n", ct, m.Name, m.SizeY, m.SizeX)
			}
			p.stencilMacro2D(b, m)

		default:
			// Passed as a kernel argument.
			switch t.Lang {
			case LangC99, LangVivado:
				p.stencilMacro2D(b, m)
			case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU, LangOpenCLFPGA:
				fmt.Fprintf(b, "#define _stencil_%s(_x, _y) %s[((_y) + %d) * %d + (_x) + %d]\n",
					m.Name, m.Name, m.SizeY/2, m.SizeX, m.SizeX/2)
			default:
				return p.rep.Errorf(k.Class.KernelBody.Pos(),
					"non-constant stencil %s is not supported for target %s", m.Name, t.Name)
			}
		}
		b.WriteString("\n")
	}
	return nil
}

func (p *Pass) stencilMacro2D(b *strings.Builder, m *entity.Mask) {
	fmt.Fprintf(b, "#define _stencil_%s(_x, _y) %s[(_y) + %d][(_x) + %d]\n",
		m.Name, m.Name, m.SizeY/2, m.SizeX/2)
}

// printReadMacros defines one _read_<name> macro per accessor-backed
// argument, folding the boundary mode and interpolation of the bound
// accessor into the pixel fetch.
func (p *Pass) printReadMacros(b *strings.Builder, k *entity.Kernel) error {
	t := p.opts.Target
	needClamp, needMirror := false, false

	for _, arg := range k.Class.ImageArgs() {
		if !arg.Used && !t.IsFPGA() {
			continue
		}
		acc := k.ImgBindings[arg]
		bc := acc.BC
		switch bc.Mode {
		case entity.BoundaryClamp:
			needClamp = true
		case entity.BoundaryMirror:
			needMirror = true
		}
		if acc.Interp != entity.InterpolateNone {
			needClamp = true
		}
	}
	if needClamp {
		b.WriteString("#define _bh_clamp(i, n) ((i) < 0 ? 0 : ((i) >= (n) ? (n) - 1 : (i)))\n")
	}
	if needMirror {
		b.WriteString("#define _bh_mirror(i, n) ((i) < 0 ? -(i) - 1 : ((i) >= (n) ? 2 * (n) - (i) - 1 : (i)))\n")
	}
	if needClamp || needMirror {
		b.WriteString("\n")
	}

	for _, arg := range k.Class.ImageArgs() {
		if !arg.Used && !t.IsFPGA() {
			continue
		}
		acc := k.ImgBindings[arg]
		if err := p.printReadMacro(b, k, arg, acc); err != nil {
			return err
		}
	}
	b.WriteString("\n")
	return nil
}

func (p *Pass) printReadMacro(b *strings.Builder, k *entity.Kernel, arg *entity.Arg, acc *entity.Accessor) error {
	t := p.opts.Target
	bc := acc.BC
	ct := t.KernelType(arg.Type)

	// Input extents: baked constants where known, iteration extents or
	// allocation queries otherwise.
	w, h := fmt.Sprintf("_%s_width", arg.Name), fmt.Sprintf("_%s_height", arg.Name)
	switch {
	case acc.Image().Width >= 0 && acc.Image().Height >= 0:
		fmt.Fprintf(b, "#define %s %d\n#define %s %d\n", w, acc.Image().Width, h, acc.Image().Height)
	case t.IsScript():
		fmt.Fprintf(b, "#define %s rsAllocationGetDimX(%s)\n#define %s rsAllocationGetDimY(%s)\n",
			w, arg.Name, h, arg.Name)
	default:
		fmt.Fprintf(b, "#define %s _iter_width\n#define %s _iter_height\n", w, h)
	}

	// at renders the raw pixel fetch for index expressions.
	at := func(x, y string) string {
		switch t.Lang {
		case LangC99:
			return fmt.Sprintf("%s[%s][%s]", arg.Name, y, x)
		case LangVivado:
			return fmt.Sprintf("_buf_%s[%s][%s]", arg.Name, y, x)
		case LangOpenCLFPGA:
			return fmt.Sprintf("%s[(%s) * %d + (%s)]", arg.Name, y, acc.Image().Width, x)
		case LangRenderscript, LangFilterscript:
			return fmt.Sprintf("rsGetElementAt_%s(%s, %s, %s)", ct, arg.Name, x, y)
		default:
			return fmt.Sprintf("%s[(%s) * _iter_stride + (%s)]", arg.Name, y, x)
		}
	}

	if acc.Interp != entity.InterpolateNone {
		return p.printInterpRead(b, k, arg, acc, ct, w, h, at)
	}

	gx, gy := "gx + (dx)", "gy + (dy)"
	var body string
	switch bc.Mode {
	case entity.BoundaryUndefined:
		body = at(gx, gy)
	case entity.BoundaryClamp:
		body = at(fmt.Sprintf("_bh_clamp(%s, %s)", gx, w), fmt.Sprintf("_bh_clamp(%s, %s)", gy, h))
	case entity.BoundaryMirror:
		body = at(fmt.Sprintf("_bh_mirror(%s, %s)", gx, w), fmt.Sprintf("_bh_mirror(%s, %s)", gy, h))
	case entity.BoundaryConstant:
		body = fmt.Sprintf("(((%s) < 0 || (%s) >= %s || (%s) < 0 || (%s) >= %s) ? (%s)(%s) : %s)",
			gx, gx, w, gy, gy, h, ct, bc.ConstExpr, at(gx, gy))
	}
	fmt.Fprintf(b, "#define _read_%s(dx, dy) %s\n", arg.Name, body)
	return nil
}

// printInterpRead emits the interpolation helper of one accessor and
// the _read_ macro mapping iteration coordinates into the input.
func (p *Pass) printInterpRead(b *strings.Builder, k *entity.Kernel, arg *entity.Arg,
	acc *entity.Accessor, ct, w, h string, at func(x, y string) string) error {
	t := p.opts.Target
	if t.IsFPGA() {
		return p.rep.Errorf(k.Class.KernelBody.Pos(),
			"interpolation is not supported for target %s", t.Name)
	}

	fnQual := "static inline"
	if t.Lang == LangCUDA {
		fnQual = "__device__ static inline"
	}

	// The helpers receive the array through the same parameter shape
	// the kernel sees it with.
	var imgParam, imgArgs string
	switch t.Lang {
	case LangC99:
		imgParam = fmt.Sprintf("const %s %s[%s][%s], ", ct, arg.Name, h, w)
		imgArgs = arg.Name + ", "
	case LangCUDA:
		imgParam = fmt.Sprintf("const %s * __restrict__ %s, int _iter_stride, ", ct, arg.Name)
		imgArgs = fmt.Sprintf("%s, _iter_stride, ", arg.Name)
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		fnQual = "inline"
		imgParam = fmt.Sprintf("__global const %s *%s, int _iter_stride, ", ct, arg.Name)
		imgArgs = fmt.Sprintf("%s, _iter_stride, ", arg.Name)
	case LangRenderscript, LangFilterscript:
		// Allocations are globals; the helper reads them directly.
	}

	sample := func(x, y string) string {
		return at(fmt.Sprintf("_bh_clamp(%s, _w)", x), fmt.Sprintf("_bh_clamp(%s, _h)", y))
	}

	name := fmt.Sprintf("_interp_%s_%s", acc.Interp.Suffix(), arg.Name)
	var fn strings.Builder
	fmt.Fprintf(&fn, "%s %s %s(%sint _w, int _h, float x, float y) {\n", fnQual, ct, name, imgParam)
	switch acc.Interp {
	case entity.InterpolateNearest:
		fmt.Fprintf(&fn, "    return %s;\n", sample("(int)(x + 0.5f)", "(int)(y + 0.5f)"))
	case entity.InterpolateLinear:
		fn.WriteString("    int ix = (int)floorf(x), iy = (int)floorf(y);\n")
		fn.WriteString("    float fx = x - ix, fy = y - iy;\n")
		fmt.Fprintf(&fn, "    float v = (1.0f - fx) * (1.0f - fy) * (float)%s\n", sample("ix", "iy"))
		fmt.Fprintf(&fn, "            + fx * (1.0f - fy) * (float)%s\n", sample("ix + 1", "iy"))
		fmt.Fprintf(&fn, "            + (1.0f - fx) * fy * (float)%s\n", sample("ix", "iy + 1"))
		fmt.Fprintf(&fn, "            + fx * fy * (float)%s;\n", sample("ix + 1", "iy + 1"))
		fmt.Fprintf(&fn, "    return (%s)v;\n", ct)
	case entity.InterpolateCubic:
		p.addWeightDef(fnQual, "_w_cubic",
			"    float a = fabsf(t);\n"+
				"    if (a <= 1.0f) return (1.5f * a - 2.5f) * a * a + 1.0f;\n"+
				"    if (a < 2.0f) return ((-0.5f * a + 2.5f) * a - 4.0f) * a + 2.0f;\n"+
				"    return 0.0f;\n")
		fn.WriteString("    int ix = (int)floorf(x), iy = (int)floorf(y);\n")
		fn.WriteString("    float fx = x - ix, fy = y - iy;\n")
		fn.WriteString("    float v = 0.0f;\n")
		fn.WriteString("    for (int m = -1; m <= 2; ++m) {\n")
		fn.WriteString("        for (int n = -1; n <= 2; ++n) {\n")
		fmt.Fprintf(&fn, "            v += _w_cubic(m - fx) * _w_cubic(n - fy) * (float)%s;\n",
			sample("ix + m", "iy + n"))
		fn.WriteString("        }\n    }\n")
		fmt.Fprintf(&fn, "    return (%s)v;\n", ct)
	case entity.InterpolateLanczos:
		p.addWeightDef(fnQual, "_w_lanczos",
			"    float a = fabsf(t);\n"+
				"    if (a < 1e-5f) return 1.0f;\n"+
				"    if (a >= 3.0f) return 0.0f;\n"+
				"    float pt = 3.14159265358979f * t;\n"+
				"    return 3.0f * sinf(pt) * sinf(pt / 3.0f) / (pt * pt);\n")
		fn.WriteString("    int ix = (int)floorf(x), iy = (int)floorf(y);\n")
		fn.WriteString("    float fx = x - ix, fy = y - iy;\n")
		fn.WriteString("    float v = 0.0f;\n")
		fn.WriteString("    for (int m = -2; m <= 3; ++m) {\n")
		fn.WriteString("        for (int n = -2; n <= 3; ++n) {\n")
		fmt.Fprintf(&fn, "            v += _w_lanczos(m - fx) * _w_lanczos(n - fy) * (float)%s;\n",
			sample("ix + m", "iy + n"))
		fn.WriteString("        }\n    }\n")
		fmt.Fprintf(&fn, "    return (%s)v;\n", ct)
	}
	fn.WriteString("}\n")
	p.interpDefs = append(p.interpDefs, interpDef{name: name, text: fn.String()})

	// Map the iteration coordinate into the input extent.
	fmt.Fprintf(b, "#define _read_%s(dx, dy) %s(%s%s, %s, "+
		"((gx + (dx)) + 0.5f) * %s / _iter_width - 0.5f, "+
		"((gy + (dy)) + 0.5f) * %s / _iter_height - 0.5f)\n",
		arg.Name, name, imgArgs, w, h, w, h)
	return nil
}

func (p *Pass) addWeightDef(fnQual, name, body string) {
	p.interpDefs = append(p.interpDefs, interpDef{
		name: name,
		text: fmt.Sprintf("%s float %s(float t) {\n%s}\n", fnQual, name, body),
	})
}

// printPlainKernel writes the kernel function for every dialect except
// the Vivado pipeline.
func (p *Pass) printPlainKernel(b *strings.Builder, k *entity.Kernel, body string) {
	t := p.opts.Target
	params := p.kernelParams(k)
	name := k.KernelName(t.Prefix)

	switch t.Lang {
	case LangRenderscript, LangFilterscript:
		fmt.Fprintf(b, "%s __attribute__((kernel)) %s(uint32_t x, uint32_t y) {\n",
			t.KernelType(k.Class.PixelType), name)
		b.WriteString("    int gx = x;\n    int gy = y;\n")
		b.WriteString(body)
		b.WriteString("}\n\n")
		return

	case LangC99:
		fmt.Fprintf(b, "void %s(\n        %s) {\n", name, strings.Join(params, ",\n        "))
		if k.IterationSpace.Crop {
			b.WriteString("    for (int gy = _iter_offset_y; gy < _iter_offset_y + _iter_height; ++gy) {\n")
			b.WriteString("        for (int gx = _iter_offset_x; gx < _iter_offset_x + _iter_width; ++gx) {\n")
		} else {
			b.WriteString("    for (int gy = 0; gy < _iter_height; ++gy) {\n")
			b.WriteString("        for (int gx = 0; gx < _iter_width; ++gx) {\n")
		}
		b.WriteString(indentBlock(body, "        "))
		b.WriteString("        }\n    }\n}\n\n")
		return

	case LangOpenCLFPGA:
		wd, ht := k.IterationSpace.Img.Width, k.IterationSpace.Img.Height
		fmt.Fprintf(b, "%svoid %s(\n        %s) {\n",
			p.kernelLaunchAttr(k), name, strings.Join(params, ",\n        "))
		fmt.Fprintf(b, "    for (int gy = 0; gy < %d; ++gy) {\n", ht)
		fmt.Fprintf(b, "        for (int gx = 0; gx < %d; ++gx) {\n", wd)
		b.WriteString(indentBlock(body, "        "))
		b.WriteString("        }\n    }\n}\n\n")
		return
	}

	// CUDA and the OpenCL device targets.
	fmt.Fprintf(b, "%svoid %s(\n        %s) {\n",
		p.kernelLaunchAttr(k), name, strings.Join(params, ",\n        "))
	switch t.Lang {
	case LangCUDA:
		b.WriteString("    int gx = blockIdx.x * blockDim.x + threadIdx.x;\n")
		b.WriteString("    int gy = blockIdx.y * blockDim.y + threadIdx.y;\n")
	default:
		b.WriteString("    int gx = get_global_id(0);\n")
		b.WriteString("    int gy = get_global_id(1);\n")
	}
	b.WriteString("    if (gx >= _iter_width || gy >= _iter_height) return;\n")
	if k.IterationSpace.Crop {
		b.WriteString("    gx += _iter_offset_x;\n    gy += _iter_offset_y;\n")
	}
	b.WriteString(body)
	b.WriteString("}\n\n")
}

// printVivadoKernel writes the HLS pipeline form: a process struct
// carrying the scalar state, and a dataflow entry wiring the streams.
func (p *Pass) printVivadoKernel(b *strings.Builder, k *entity.Kernel, body string) {
	t := p.opts.Target
	kc := k.Class
	pixel := t.KernelType(kc.PixelType)
	wd, ht := k.IterationSpace.Img.Width, k.IterationSpace.Img.Height
	ii := p.opts.IITarget
	if ii < 1 {
		ii = 1
	}

	var scalarDecls, scalarParams, scalarInits, scalarNames []string
	for _, arg := range kc.ScalarArgs() {
		ct := t.KernelType(arg.Type)
		scalarDecls = append(scalarDecls, fmt.Sprintf("    %s %s;", ct, arg.Name))
		scalarParams = append(scalarParams, fmt.Sprintf("%s _%s", ct, arg.Name))
		scalarInits = append(scalarInits, fmt.Sprintf("%s(_%s)", arg.Name, arg.Name))
		scalarNames = append(scalarNames, arg.Name)
	}

	var procParams, procArgs []string
	procParams = append(procParams, fmt.Sprintf("hls::stream<%s > &%s", pixel, outputParamName))
	procArgs = append(procArgs, outputParamName)
	for _, arg := range kc.ImageArgs() {
		ct := t.KernelType(arg.Type)
		procParams = append(procParams, fmt.Sprintf("hls::stream<%s > &%s", ct, arg.Name))
		procArgs = append(procArgs, arg.Name)
	}
	for _, arg := range kc.MaskArgs() {
		m := k.MaskBindings[arg]
		if m.Constant || m.CopyFrom != nil {
			continue
		}
		ct := t.KernelType(arg.Type)
		procParams = append(procParams, fmt.Sprintf("const %s %s[%d][%d]", ct, m.Name, m.SizeY, m.SizeX))
		procArgs = append(procArgs, m.Name)
	}

	// One process struct per instance: the entry file includes every
	// kernel file into a single translation unit.
	proc := k.InstanceName + "_proc"
	fmt.Fprintf(b, "struct %s {\n", proc)
	for _, d := range scalarDecls {
		b.WriteString(d + "\n")
	}
	if len(scalarParams) > 0 {
		fmt.Fprintf(b, "    %s(%s) : %s {}\n",
			proc, strings.Join(scalarParams, ", "), strings.Join(scalarInits, ", "))
	} else {
		fmt.Fprintf(b, "    %s() {}\n", proc)
	}
	fmt.Fprintf(b, "    void operator()(%s) {\n", strings.Join(procParams, ", "))

	// Stream inputs buffer up front; stencil reads need random access.
	for _, arg := range kc.ImageArgs() {
		ct := t.KernelType(arg.Type)
		acc := k.ImgBindings[arg]
		aw, ah := acc.Image().Width, acc.Image().Height
		fmt.Fprintf(b, "        %s _buf_%s[%d][%d];\n", ct, arg.Name, ah, aw)
		fmt.Fprintf(b, "    _fill_%s:\n", arg.Name)
		fmt.Fprintf(b, "        for (int gy = 0; gy < %d; ++gy) {\n", ah)
		fmt.Fprintf(b, "            for (int gx = 0; gx < %d; ++gx) {\n", aw)
		b.WriteString("#pragma HLS PIPELINE II=1\n")
		fmt.Fprintf(b, "                %s >> _buf_%s[gy][gx];\n", arg.Name, arg.Name)
		b.WriteString("            }\n        }\n")
	}

	fmt.Fprintf(b, "    _rows:\n        for (int gy = 0; gy < %d; ++gy) {\n", ht)
	fmt.Fprintf(b, "    _cols:\n            for (int gx = 0; gx < %d; ++gx) {\n", wd)
	fmt.Fprintf(b, "#pragma HLS PIPELINE II=%d\n", ii)
	b.WriteString(indentBlock(body, "            "))
	b.WriteString("            }\n        }\n    }\n};\n\n")

	params := p.kernelParams(k)
	fmt.Fprintf(b, "void %s(\n        %s) {\n", k.KernelName(t.Prefix), strings.Join(params, ",\n        "))
	b.WriteString("#pragma HLS DATAFLOW\n")
	fmt.Fprintf(b, "    %s _proc(%s);\n", proc, strings.Join(scalarNames, ", "))
	fmt.Fprintf(b, "    _proc(%s);\n", strings.Join(procArgs, ", "))
	b.WriteString("}\n\n")
}

// printReductionFunction instantiates the 2-D (and where the dialect
// splits it, 1-D) reduction over the kernel's reduce method.
func (p *Pass) printReductionFunction(b *strings.Builder, k *entity.Kernel) error {
	t := p.opts.Target
	if t.IsFPGA() || t.Lang == LangFilterscript {
		p.rep.Warnf(k.Class.ReduceBody.Pos(),
			"reductions are not supported for target %s, skipping %s", t.Name, k.ReduceName(t.Prefix))
		return nil
	}

	body, err := p.translator.TranslateReduce(k)
	if err != nil {
		return err
	}
	elem := t.KernelType(k.Class.PixelType)
	if k.Class.BinType != "" {
		elem = t.KernelType(k.Class.BinType)
	}
	name := k.ReduceName(t.Prefix)
	var params []string
	for _, n := range paramNames(k.Class.ReduceBody) {
		params = append(params, fmt.Sprintf("%s %s", elem, n))
	}

	// On CUDA the thread-fence reduction reads the kernel's output
	// image directly, so it only instantiates when bins and pixels
	// share a type. The reduce function itself is always defined; the
	// binning instantiation reuses it.
	instantiate := t.Lang != LangCUDA ||
		k.Class.BinType == "" || k.Class.BinType == k.Class.PixelType

	fmt.Fprintf(b, "#define BS %d\n", k.Config.BlockX*k.Config.BlockY)
	fmt.Fprintf(b, "#define PPT %d\n", p.ppt())
	if k.IterationSpace.Crop {
		b.WriteString("#define USE_OFFSETS\n")
	}

	switch t.Lang {
	case LangC99:
		b.WriteString("#include \"hipacc_cpu_red.hpp\"\n\n")
		fmt.Fprintf(b, "static inline %s %s(%s) {\n%s}\n", elem, name, strings.Join(params, ", "), body)
		fmt.Fprintf(b, "REDUCTION_CPU_2D(%s2D, %s, %s)\n", name, elem, name)
	case LangCUDA:
		b.WriteString("#include \"hipacc_cu_red.hpp\"\n\n")
		fmt.Fprintf(b, "__device__ inline %s %s(%s) {\n%s}\n", elem, name, strings.Join(params, ", "), body)
		if instantiate {
			fmt.Fprintf(b, "REDUCTION_CUDA_2D_THREAD_FENCE(%s2D, %s, %s, %s)\n",
				name, elem, name, k.KernelName(t.Prefix))
		}
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		b.WriteString("#include \"hipacc_cl_red.hpp\"\n\n")
		fmt.Fprintf(b, "inline %s %s(%s) {\n%s}\n", elem, name, strings.Join(params, ", "), body)
		fmt.Fprintf(b, "REDUCTION_CL_2D(%s2D, %s, %s)\n", name, elem, name)
		fmt.Fprintf(b, "REDUCTION_CL_1D(%s1D, %s, %s)\n", name, elem, name)
	case LangRenderscript:
		b.WriteString("#include \"hipacc_rs_red.hpp\"\n\n")
		fmt.Fprintf(b, "static inline %s %s(%s) {\n%s}\n", elem, name, strings.Join(params, ", "), body)
		fmt.Fprintf(b, "REDUCTION_RS_2D(%s2D, %s, %s)\n", name, elem, name)
		fmt.Fprintf(b, "REDUCTION_RS_1D(%s1D, %s, %s)\n", name, elem, name)
	}
	b.WriteString("#include \"hipacc_undef.hpp\"\n\n")
	return nil
}

// printBinningFunction instantiates the segmented binning over the
// kernel's binning and reduce methods. The accumulation strategy
// depends on the bin bit width: small integer bins tag writes with the
// thread ID, wide bins fall back to a compare-and-swap loop.
func (p *Pass) printBinningFunction(b *strings.Builder, k *entity.Kernel) error {
	t := p.opts.Target
	switch t.Lang {
	case LangC99, LangCUDA, LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
	default:
		p.rep.Warnf(k.Class.BinningBody.Pos(),
			"binning is not supported for target %s, skipping %s", t.Name, k.BinningName(t.Prefix))
		return nil
	}
	if k.Class.ReduceBody == nil {
		return p.rep.Errorf(k.Class.BinningBody.Pos(),
			"binning kernel %s needs a reduce method to combine bins", k.Class.Name)
	}

	binBody, err := p.translator.TranslateBinning(k)
	if err != nil {
		return err
	}

	pixel := t.KernelType(k.Class.PixelType)
	bin := t.KernelType(k.Class.BinType)
	binName := k.BinningName(t.Prefix)
	redName := k.ReduceName(t.Prefix)
	pptMacro := strings.ToUpper(k.InstanceName) + "PPT"

	// Accumulation strategy from the bin bit width. A bw pragma on the
	// instantiation line overrides the type-derived width.
	bits := typeBits(k.Class.BinType)
	if bw, ok := p.pragmas[k.Pos.Line]; ok &&
		(bw.Name == k.InstanceName || bw.Name == k.Class.Name) {
		bits = bw.Bits
	}
	var accu, untag string
	switch {
	case bits == 0 || bits > 64:
		accu, untag = "ACCU_CAS_GT64", "UNTAG_NONE"
		if t.Lang != LangC99 {
			fmt.Fprintln(os.Stderr,
				"WARNING: Potential data race if first 64 bits of bin write are identical to current bin value!")
		}
	case isIntegerType(k.Class.BinType):
		accu, untag = "ACCU_INT", "UNTAG_INT"
		if t.Lang != LangC99 {
			fmt.Fprintln(os.Stderr,
				"WARNING: First 5 bits of bin value are used for thread ID tagging!")
		}
	default:
		accu, untag = fmt.Sprintf("ACCU_CAS_%d", bits), "UNTAG_NONE"
	}

	names := paramNames(k.Class.BinningBody)
	lmem := bin + " *_lmem"
	fnQual := "static inline"
	switch t.Lang {
	case LangCUDA:
		fnQual = "__device__ inline"
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		fnQual = "inline"
		lmem = "__local " + bin + " *_lmem"
	}

	var binParams []string
	binParams = append(binParams, lmem, "uint _offset", "uint _num_bins")
	for i, n := range names {
		ct := "uint"
		if i == len(names)-1 {
			ct = pixel
		}
		binParams = append(binParams, fmt.Sprintf("%s %s", ct, n))
	}

	fmt.Fprintf(b, "#define %s %d\n", pptMacro, p.ppt())
	switch t.Lang {
	case LangC99:
		b.WriteString("#include \"hipacc_cpu_red.hpp\"\n\n")
	case LangCUDA:
		b.WriteString("#define MAX_SEGMENTS 128\n")
		b.WriteString("#include \"hipacc_cu_red.hpp\"\n\n")
		fmt.Fprintf(b, "__device__ unsigned finished_blocks_%s2D[MAX_SEGMENTS] = {0};\n\n", binName)
	default:
		b.WriteString("#include \"hipacc_cl_red.hpp\"\n\n")
	}

	// The reduce function combining bins is already defined by the
	// standalone reduction section of this file.
	fmt.Fprintf(b, "%s void %s(%s) {\n%s}\n\n", fnQual, binName, strings.Join(binParams, ", "), binBody)

	switch t.Lang {
	case LangC99:
		fmt.Fprintf(b, "BINNING_CPU_2D(%s2D, %s, %s, %s, %s, %s)\n",
			binName, pixel, bin, binName, redName, pptMacro)
	case LangCUDA:
		fmt.Fprintf(b, "BINNING_CUDA_2D_SEGMENTED(%s2D, %s, %s, %s, %s, %s, %s, %s)\n",
			binName, pixel, bin, accu, untag, binName, redName, pptMacro)
	default:
		fmt.Fprintf(b, "BINNING_CL_2D_SEGMENTED(%s2D, %s, %s, %s, %s, %s, %s, %s)\n",
			binName, pixel, bin, accu, untag, binName, redName, pptMacro)
	}
	b.WriteString("#include \"hipacc_undef.hpp\"\n\n")
	return nil
}

// writeFPGAEntry emits the pipeline entry file: extent and window
// macros, FIFO declarations, and one include per kernel file.
func (p *Pass) writeFPGAEntry() error {
	t := p.opts.Target
	ppt := p.ppt()
	maxW := roundUp(p.model.MaxImageWidth, ppt)
	maxH := roundUp(p.model.MaxImageHeight, ppt)

	winX, winY := 1, 1
	for _, m := range p.model.Masks.Values() {
		winX = max(winX, m.SizeX)
		winY = max(winY, m.SizeY)
	}
	ii := p.opts.IITarget
	if ii < 1 {
		ii = 1
	}

	var b strings.Builder
	switch t.Lang {
	case LangVivado:
		b.WriteString("#ifndef _HIPACC_RUN_CC_\n#define _HIPACC_RUN_CC_\n\n")
		fmt.Fprintf(&b, "#define HIPACC_MAX_WIDTH %d\n", maxW)
		fmt.Fprintf(&b, "#define HIPACC_MAX_HEIGHT %d\n", maxH)
		fmt.Fprintf(&b, "#define HIPACC_WINDOW_SIZE_X %d\n", winX)
		fmt.Fprintf(&b, "#define HIPACC_WINDOW_SIZE_Y %d\n", winY)
		b.WriteString("#define HIPACC_BORDER_FILL_VALUE 0\n")
		fmt.Fprintf(&b, "#define HIPACC_II_TARGET %d\n", ii)
		fmt.Fprintf(&b, "#define HIPACC_PPT %d\n\n", ppt)
		b.WriteString("#include <hls_stream.h>\n")
		b.WriteString("#include \"hipacc_types.hpp\"\n\n")
		for _, f := range p.kernelFiles {
			fmt.Fprintf(&b, "#include \"%s\"\n", f)
		}
		b.WriteString("\n")
		b.WriteString(p.vivadoEntry())
		b.WriteString("\n#endif // _HIPACC_RUN_CC_\n")
		return writeFileSync(filepath.Join(p.opts.OutputDir, "hipacc_run.cc"), []byte(b.String()))

	case LangOpenCLFPGA:
		fmt.Fprintf(&b, "#define HIPACC_MAX_WIDTH %d\n", maxW)
		fmt.Fprintf(&b, "#define HIPACC_MAX_HEIGHT %d\n", maxH)
		fmt.Fprintf(&b, "#define HIPACC_II_TARGET %d\n", ii)
		fmt.Fprintf(&b, "#define HIPACC_PPT %d\n\n", ppt)
		b.WriteString("#include \"hipacc_cl_altera.clh\"\n\n")

		// One FIFO per image that flows between two kernels.
		md := newModelDeps(p.model)
		for _, img := range p.model.Images.Values() {
			prod := md.producer(img)
			if prod == nil || !md.consumed(img, prod) {
				continue
			}
			fmt.Fprintf(&b, "channel %s _fifo_%s __attribute__((depth(%d)));\n",
				t.KernelType(img.PixelType), img.Name, img.Width)
		}
		b.WriteString("\n")
		for _, f := range p.kernelFiles {
			fmt.Fprintf(&b, "#include \"%s\"\n", f)
		}
		return writeFileSync(filepath.Join(p.opts.OutputDir, "hipacc_run.cl"), []byte(b.String()))
	}
	return nil
}

// vivadoEntry renders the synthesized top function: one call per
// kernel in declaration order, images flowing between two kernels
// wired through local FIFOs, everything else exposed as a port. Port
// and call argument order mirror the kernel signatures.
func (p *Pass) vivadoEntry() string {
	t := p.opts.Target
	var ports, fifos, calls []string
	seen := make(map[string]bool)

	addPort := func(name, decl string) {
		if !seen[name] {
			seen[name] = true
			ports = append(ports, decl)
		}
	}
	addFifo := func(img *entity.Image) string {
		name := "_fifo_" + img.Name
		if !seen[name] {
			seen[name] = true
			fifos = append(fifos, fmt.Sprintf("    hls::stream<%s > %s;\n#pragma HLS STREAM variable=%s depth=%d",
				t.KernelType(img.PixelType), name, name, img.Width))
		}
		return name
	}

	for _, k := range p.model.Kernels.Values() {
		var args []string

		out := k.IterationSpace.Img
		if p.deps.IsOutputProcess(k) {
			addPort(out.Name, fmt.Sprintf("hls::stream<%s > &%s", t.KernelType(out.PixelType), out.Name))
			args = append(args, out.Name)
		} else {
			args = append(args, addFifo(out))
		}

		for _, arg := range k.Class.Args {
			switch arg.Kind {
			case entity.ArgImage:
				img := k.ImgBindings[arg].Image()
				if p.deps.IsStream(k, arg.Name) {
					args = append(args, addFifo(img))
				} else {
					addPort(img.Name, fmt.Sprintf("hls::stream<%s > &%s", t.KernelType(img.PixelType), img.Name))
					args = append(args, img.Name)
				}
			case entity.ArgMask:
				m := k.MaskBindings[arg]
				if m.Constant {
					continue
				}
				addPort(m.Name, fmt.Sprintf("const %s %s[%d][%d]", t.KernelType(arg.Type), m.Name, m.SizeY, m.SizeX))
				args = append(args, m.Name)
			case entity.ArgScalar:
				name := k.InstanceName + "_" + arg.Name
				addPort(name, fmt.Sprintf("%s %s", t.KernelType(arg.Type), name))
				args = append(args, name)
			}
		}
		calls = append(calls, fmt.Sprintf("    %s(%s);", k.KernelName(t.Prefix), strings.Join(args, ", ")))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "void hipacc_run(%s) {\n", strings.Join(ports, ", "))
	b.WriteString("#pragma HLS DATAFLOW\n")
	for _, f := range fifos {
		b.WriteString(f + "\n")
	}
	for _, c := range calls {
		b.WriteString(c + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// indentBlock prefixes every populated line of s.
func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
