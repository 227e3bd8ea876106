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
	"go/token"
	"strconv"
	"strings"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// Host text emission: every DSL declaration and statement the rewriter
// removes is replaced by calls into the hipaccrt runtime package.

func (p *Pass) hostCreateMemory(img *entity.Image) string {
	data := img.HostDataExpr
	if data == "" {
		data = "nil"
	}
	call := fmt.Sprintf("%s := hipaccrt.CreateMemory[%s](%s, %s, %s",
		img.Name, img.PixelType, data, img.WidthExpr, img.HeightExpr)
	if align := p.alignmentElems(img.PixelType); align > 1 {
		call += fmt.Sprintf(", %d", align)
	}
	return call + ")"
}

// alignmentElems converts the device row alignment from bytes to
// pixels. CPU targets skip padding.
func (p *Pass) alignmentElems(pixelType string) int {
	if p.opts.Target.IsCPU() {
		return 1
	}
	size := pixelSize(pixelType)
	if size == 0 {
		return 1
	}
	return p.opts.Device.Alignment / size
}

func pixelSize(goType string) int {
	switch goType {
	case "int8", "uint8", "bool":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float32", "int", "uint":
		return 4
	case "int64", "uint64", "float64":
		return 8
	}
	return 0
}

func (p *Pass) hostCreatePyramid(pyr *entity.Pyramid) string {
	return fmt.Sprintf("%s := hipaccrt.CreatePyramid(%s, %s)", pyr.Name, pyr.Img.Name, pyr.DepthExpr)
}

// hostImageRef spells the runtime image behind a boundary condition:
// the image variable or a pyramid level.
func hostImageRef(img *entity.Image, pyr *entity.Pyramid, level string) string {
	if pyr != nil {
		return fmt.Sprintf("%s.Level(%s)", pyr.Name, level)
	}
	return img.Name
}

func (p *Pass) hostAccessor(acc *entity.Accessor) string {
	ref := hostImageRef(acc.BC.Img, acc.BC.Pyramid, acc.BC.LevelExpr)
	if acc.Crop {
		return fmt.Sprintf("%s := hipaccrt.NewAccessorRegion(%s, %s, %s, %s, %s)",
			acc.Name, ref, acc.WidthExpr, acc.HeightExpr, acc.OffsetXExpr, acc.OffsetYExpr)
	}
	return fmt.Sprintf("%s := hipaccrt.NewAccessor(%s)", acc.Name, ref)
}

func (p *Pass) hostIterationSpace(is *entity.IterationSpace) string {
	ref := hostImageRef(is.Img, is.Pyramid, is.LevelExpr)
	if is.Crop {
		return fmt.Sprintf("%s := hipaccrt.NewAccessorRegion(%s, %s, %s, %s, %s)",
			is.Name, ref, is.WidthExpr, is.HeightExpr, is.OffsetXExpr, is.OffsetYExpr)
	}
	return fmt.Sprintf("%s := hipaccrt.NewAccessor(%s)", is.Name, ref)
}

// hostBuildKernel replaces a kernel instantiation: the instance name
// becomes the built kernel handle.
func (p *Pass) hostBuildKernel(k *entity.Kernel) string {
	t := p.opts.Target
	return fmt.Sprintf("%s := hipaccrt.BuildProgramAndKernel(%q, %q)",
		k.InstanceName, k.FileName()+t.Ext, p.hostKernelName(k))
}

// hostKernelName is the emitted kernel function name the host refers
// to. FPGA pipelines call the entry process by the bare instance name.
func (p *Pass) hostKernelName(k *entity.Kernel) string {
	t := p.opts.Target
	name := k.KernelName(t.Prefix)
	if t.Lang == LangOpenCLFPGA {
		return name[2 : len(name)-6]
	}
	return name
}

// hostKernelLaunch renders the launch block of one Execute call:
// literal arguments captured to temporaries, pending stencil uploads,
// launch geometry, and the kernel call itself.
func (p *Pass) hostKernelLaunch(k *entity.Kernel) (string, error) {
	var b strings.Builder
	n := p.launchCount
	p.launchCount++

	// Literal scalar arguments cannot be passed by reference to the
	// runtime; capture them once per launch.
	args, err := p.hostCallArgs(k, &b)
	if err != nil {
		return "", err
	}

	// Non-constant stencils live in constant memory on CUDA and in
	// script globals on Renderscript; both are uploaded before each
	// launch. Other targets pass them as arguments.
	if p.opts.Target.Lang == LangCUDA || p.opts.Target.IsScript() {
		for _, arg := range k.Class.MaskArgs() {
			m := k.MaskBindings[arg]
			if m == nil || m.Constant {
				continue
			}
			if m.CopyFrom != nil {
				fmt.Fprintf(&b, "hipaccrt.WriteDomainFromMaskGrid(%q, %s)\n", m.Name, m.CopyFrom.HostExpr)
			} else {
				fmt.Fprintf(&b, "hipaccrt.WriteSymbolGrid(%q, %s)\n", m.Name, m.HostExpr)
			}
		}
	}

	fmt.Fprintf(&b, "block%d := hipaccrt.Dim{X: %d, Y: %d}\n", n, k.Config.BlockX, k.Config.BlockY)
	fmt.Fprintf(&b, "grid%d := hipaccrt.ComputeGrid(block%d, %s.Width, %s.Height)\n",
		n, n, k.IterationSpace.Name, k.IterationSpace.Name)
	fmt.Fprintf(&b, "hipaccrt.LaunchKernel(%s, grid%d, block%d%s)",
		k.InstanceName, n, n, joinArgs(args))
	return b.String(), nil
}

// hostCallArgs collects the launch arguments in kernel signature
// order, writing literal-capture lines to pre as needed.
func (p *Pass) hostCallArgs(k *entity.Kernel, pre *strings.Builder) ([]string, error) {
	fpga := p.opts.Target.IsFPGA()
	var args []string

	// Output first, then the constructor order.
	args = append(args, k.IterationSpace.Name)
	for _, arg := range k.Class.Args {
		switch arg.Kind {
		case entity.ArgIterationSpace:
			// already placed
		case entity.ArgImage:
			if !arg.Used && !fpga {
				continue
			}
			args = append(args, k.ImgBindings[arg].Name)
		case entity.ArgMask:
			m := k.MaskBindings[arg]
			if m.Constant {
				continue // baked into the kernel file
			}
			if p.opts.Target.Lang == LangCUDA || p.opts.Target.IsScript() {
				continue // uploaded to constant memory or script globals
			}
			if m.CopyFrom != nil {
				args = append(args, m.CopyFrom.HostExpr)
			} else {
				args = append(args, m.HostExpr)
			}
		case entity.ArgScalar:
			if !arg.Used && !fpga {
				continue
			}
			expr := k.ScalarExprs[arg]
			if isLiteralText(expr) {
				tmp := fmt.Sprintf("_tmp%d", p.literalCount)
				p.literalCount++
				fmt.Fprintf(pre, "%s := %s(%s)\n", tmp, arg.Type, expr)
				expr = tmp
			}
			args = append(args, expr)
		}
	}
	return args, nil
}

func joinArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return ", " + strings.Join(args, ", ")
}

// isLiteralText reports whether a host argument is a bare literal.
func isLiteralText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s == "true" || s == "false" {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// hostReductionCall builds the reduction launch inserted before the
// statement consuming the result.
func (p *Pass) hostReductionCall(k *entity.Kernel, result string) string {
	t := p.opts.Target
	return fmt.Sprintf("%s := hipaccrt.ApplyReduction(hipaccrt.BuildProgramAndKernel(%q, %q), %s)\n",
		result, k.FileName()+t.Ext, k.ReduceName(t.Prefix), k.IterationSpace.Name)
}

// hostBinningCall builds the binning launch inserted before the
// statement consuming the bins.
func (p *Pass) hostBinningCall(k *entity.Kernel, result, numBins string) string {
	t := p.opts.Target
	return fmt.Sprintf("%s := hipaccrt.ApplyBinning[%s, %s](hipaccrt.BuildProgramAndKernel(%q, %q), %s, %s)\n",
		result, k.Class.PixelType, k.Class.BinType,
		k.FileName()+t.Ext, k.BinningName(t.Prefix), k.IterationSpace.Name, numBins)
}

// indentAt returns the whitespace prefix of the line holding pos, so
// multi-line replacements stay aligned.
func (p *Pass) indentAt(pos token.Pos) string {
	off := p.offset(pos)
	start := off
	for start > 0 && p.src[start-1] != '\n' {
		start--
	}
	i := start
	for i < off && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	return string(p.src[start:i])
}
