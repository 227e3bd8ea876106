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

import "github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"

// HostDataDeps answers stream-topology questions for the FPGA
// pipelines: which kernel ports are FIFO streams between processes and
// which kernels write the pipeline output.
type HostDataDeps interface {
	// IsStream reports whether the named kernel argument (or the
	// output parameter) is a pipe between two kernels rather than a
	// memory port.
	IsStream(k *entity.Kernel, argName string) bool
	// IsOutputProcess reports whether the kernel writes data that
	// leaves the pipeline.
	IsOutputProcess(k *entity.Kernel) bool
}

// modelDeps derives the stream topology from the entity model: an
// image produced by one kernel and consumed by another flows through a
// FIFO; everything else is a memory port. A full dataflow analysis
// across control flow is not attempted.
type modelDeps struct {
	model *entity.Model
}

func newModelDeps(m *entity.Model) *modelDeps {
	return &modelDeps{model: m}
}

// producer returns the kernel writing img, nil when the host fills it.
func (d *modelDeps) producer(img *entity.Image) *entity.Kernel {
	for _, k := range d.model.Kernels.Values() {
		if k.IterationSpace != nil && k.IterationSpace.Img == img {
			return k
		}
	}
	return nil
}

// consumed reports whether another kernel reads img.
func (d *modelDeps) consumed(img *entity.Image, self *entity.Kernel) bool {
	for _, k := range d.model.Kernels.Values() {
		if k == self {
			continue
		}
		for _, acc := range k.ImgBindings {
			if acc.Image() == img {
				return true
			}
		}
	}
	return false
}

func (d *modelDeps) IsStream(k *entity.Kernel, argName string) bool {
	if argName == outputParamName {
		return d.consumed(k.IterationSpace.Img, k)
	}
	for _, arg := range k.Class.ImageArgs() {
		if arg.Name != argName {
			continue
		}
		acc := k.ImgBindings[arg]
		if acc == nil {
			return false
		}
		prod := d.producer(acc.Image())
		return prod != nil && prod != k
	}
	return false
}

func (d *modelDeps) IsOutputProcess(k *entity.Kernel) bool {
	return !d.consumed(k.IterationSpace.Img, k)
}
