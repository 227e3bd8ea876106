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
	"go/ast"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

func TestParsePtxasUsage(t *testing.T) {
	out := `ptxas info    : Compiling entry function 'cuBlurKernel' for 'sm_35'
ptxas info    : Function properties for cuBlurKernel
ptxas info    : Used 13 registers, 2084 bytes smem, 48 bytes cmem[0]
ptxas info    : 8 bytes stack frame, 4 bytes spill stores, 4 bytes spill loads
`
	want := Usage{Registers: 13, SharedMem: 2084, ConstMem: 48, Spills: 8}
	if diff := cmp.Diff(want, parsePtxasUsage(out)); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePtxasUsageLocalMem(t *testing.T) {
	out := "ptxas info    : Used 32 registers, 16+0 bytes lmem, 1024 bytes smem\n"
	want := Usage{Registers: 32, SharedMem: 1024, LocalMem: 16}
	if diff := cmp.Diff(want, parsePtxasUsage(out)); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
}

func TestParseISAUsage(t *testing.T) {
	out := "isa info : Used 24 gprs, 1024 bytes lds, stack size: 0\n"
	want := Usage{Registers: 24, SharedMem: 1024}
	if diff := cmp.Diff(want, parseISAUsage(out)); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUsageGarbage(t *testing.T) {
	assert.Zero(t, parsePtxasUsage("nvcc fatal   : Unknown option"))
	assert.Zero(t, parseISAUsage(""))
}

func TestDeriveConfig(t *testing.T) {
	kepler := deviceTable["kepler"]

	tests := []struct {
		name  string
		usage Usage
		want  entity.Config
	}{
		{
			// Light register pressure: full blocks, capped to the
			// default block height.
			"light", Usage{Registers: 40, SharedMem: 2048},
			entity.Config{BlockX: 32, BlockY: 4, Registers: 40, SharedMem: 2048},
		},
		{
			// Heavy register pressure: a single warp still fits.
			"heavy", Usage{Registers: 4000},
			entity.Config{BlockX: 32, BlockY: 1, Registers: 4000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, deriveConfig(kepler, tt.usage)); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func configPass(t *testing.T, opts Options) *Pass {
	t.Helper()
	return &Pass{opts: opts, rep: NewReporter(token.NewFileSet())}
}

func configKernel() *entity.Kernel {
	class := &entity.KernelClass{
		Name:       "Blur",
		KernelBody: &ast.FuncDecl{Type: &ast.FuncType{}},
	}
	return entity.NewKernel("blur", class, token.Position{})
}

func TestSelectConfigurationPin(t *testing.T) {
	tgt, err := LookupTarget("cuda")
	require.NoError(t, err)
	dev, err := LookupDevice("kepler", tgt)
	require.NoError(t, err)

	p := configPass(t, Options{Target: tgt, Device: dev, UseConfig: "128x2"})
	k := configKernel()
	require.NoError(t, p.selectConfiguration(k))
	assert.Equal(t, entity.Config{BlockX: 128, BlockY: 2}, k.Config)
	assert.False(t, k.Config.Default)
}

func TestSelectConfigurationInvalidPin(t *testing.T) {
	tgt, _ := LookupTarget("cuda")
	dev, _ := LookupDevice("kepler", tgt)

	p := configPass(t, Options{Target: tgt, Device: dev, UseConfig: "huge"})
	err := p.selectConfiguration(configKernel())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid launch configuration")
}

func TestSelectConfigurationDefault(t *testing.T) {
	tgt, _ := LookupTarget("cuda")
	dev, _ := LookupDevice("kepler", tgt)

	p := configPass(t, Options{Target: tgt, Device: dev})
	k := configKernel()
	require.NoError(t, p.selectConfiguration(k))
	assert.Equal(t, entity.Config{BlockX: 32, BlockY: 4, Default: true}, k.Config)
}

func TestSelectConfigurationEstimateNeedsCompiler(t *testing.T) {
	tgt, _ := LookupTarget("cuda")
	dev, _ := LookupDevice("kepler", tgt)

	p := configPass(t, Options{Target: tgt, Device: dev, UseEstimate: true})
	err := p.selectConfiguration(configKernel())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-compile-cmd")
}
