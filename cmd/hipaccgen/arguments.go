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

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// Kernel signatures print their parameters in a fixed order: the
// output image first, then the constructor arguments in declaration
// order, then the iteration extents. Arguments the kernel body never
// touches are omitted, except on the FPGA targets where the stream
// topology is part of the pipeline contract.

const outputParamName = "_iter"

// kernelParams renders the parameter declarations of the emitted
// kernel function for the current target.
func (p *Pass) kernelParams(k *entity.Kernel) []string {
	t := p.opts.Target
	fpga := t.IsFPGA()
	pixel := t.KernelType(k.Class.PixelType)
	var params []string

	// Output image.
	switch t.Lang {
	case LangC99:
		params = append(params, fmt.Sprintf("%s %s[%d][%d]",
			pixel, outputParamName, k.IterationSpace.Img.Height, k.IterationSpace.Img.Width))
	case LangCUDA:
		params = append(params, fmt.Sprintf("%s * __restrict__ %s", pixel, outputParamName))
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		params = append(params, fmt.Sprintf("__global %s *%s", pixel, outputParamName))
	case LangOpenCLFPGA, LangVivado:
		params = append(params, p.streamParam(k, outputParamName, pixel, false))
	case LangRenderscript, LangFilterscript:
		// Script outputs bind to a global allocation, not a parameter.
	}

	for _, arg := range k.Class.Args {
		switch arg.Kind {
		case entity.ArgIterationSpace:
			// covered by the output parameter
		case entity.ArgImage:
			if !arg.Used && !fpga {
				continue
			}
			acc := k.ImgBindings[arg]
			argPixel := t.KernelType(arg.Type)
			switch t.Lang {
			case LangC99:
				params = append(params, fmt.Sprintf("const %s %s[%d][%d]",
					argPixel, arg.Name, acc.Image().Height, acc.Image().Width))
			case LangCUDA:
				params = append(params, fmt.Sprintf("const %s * __restrict__ %s", argPixel, arg.Name))
			case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
				params = append(params, fmt.Sprintf("__global const %s * restrict %s", argPixel, arg.Name))
			case LangOpenCLFPGA, LangVivado:
				params = append(params, p.streamParam(k, arg.Name, argPixel, true))
			case LangRenderscript, LangFilterscript:
				// rs_allocation globals, declared in the preamble
			}
		case entity.ArgMask:
			m := k.MaskBindings[arg]
			if m.Constant {
				continue // baked into the kernel file
			}
			mPixel := t.KernelType(arg.Type)
			switch t.Lang {
			case LangC99, LangVivado:
				params = append(params, fmt.Sprintf("const %s %s[%d][%d]", mPixel, m.Name, m.SizeY, m.SizeX))
			case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU, LangOpenCLFPGA:
				params = append(params, fmt.Sprintf("__constant %s *%s", mPixel, m.Name))
			case LangCUDA, LangRenderscript, LangFilterscript:
				// constant memory / allocation globals
			}
		case entity.ArgScalar:
			if !arg.Used && !fpga {
				continue
			}
			params = append(params, fmt.Sprintf("%s %s", t.KernelType(arg.Type), arg.Name))
		}
	}

	if !fpga && !t.IsScript() {
		params = append(params,
			"const int _iter_width",
			"const int _iter_height",
		)
		if t.Lang != LangC99 {
			params = append(params, "const int _iter_stride")
		}
		if k.IterationSpace.Crop {
			params = append(params, "const int _iter_offset_x", "const int _iter_offset_y")
		}
	}
	return params
}

// streamParam renders an FPGA kernel parameter: a FIFO stream when the
// dataflow analyzer routes the image through the pipeline, a plain
// array port otherwise.
func (p *Pass) streamParam(k *entity.Kernel, name, pixel string, input bool) string {
	if p.opts.Target.Lang == LangVivado {
		return fmt.Sprintf("hls::stream<%s > &%s", pixel, name)
	}
	if p.deps.IsStream(k, name) {
		dir := "write_only"
		if input {
			dir = "read_only"
		}
		return fmt.Sprintf("__global %s *%s /* %s pipe */", pixel, name, dir)
	}
	qual := "__global %s *%s"
	if input {
		qual = "__global const %s *%s"
	}
	return fmt.Sprintf(qual, pixel, name)
}

// kernelLaunchAttr renders the per-dialect launch attribute pinning
// the selected block configuration into the kernel file.
func (p *Pass) kernelLaunchAttr(k *entity.Kernel) string {
	switch p.opts.Target.Lang {
	case LangCUDA:
		return fmt.Sprintf("extern \"C\" __global__ __launch_bounds__(%d*%d) ",
			k.Config.BlockX, k.Config.BlockY)
	case LangOpenCLACC, LangOpenCLCPU, LangOpenCLGPU:
		return fmt.Sprintf("__kernel __attribute__((reqd_work_group_size(%d, %d, 1))) ",
			k.Config.BlockX, k.Config.BlockY)
	case LangOpenCLFPGA:
		return "__kernel "
	}
	return ""
}
