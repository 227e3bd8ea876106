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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPragmas(t *testing.T) {
	src := []byte(`package main

//#pragma hipacc bw(coeff, 9)
var coeff int

// #pragma hipacc bw( gain , 4 )
var gain int
`)
	got, bad := ScanPragmas(src)
	assert.Empty(t, bad)
	assert.Len(t, got, 2)
	assert.Equal(t, BitWidth{Name: "coeff", Bits: 9, Mask: 0x1ff}, got[4])
	assert.Equal(t, BitWidth{Name: "gain", Bits: 4, Mask: 0xf}, got[7])
}

func TestScanPragmasFullWidth(t *testing.T) {
	got, bad := ScanPragmas([]byte("//#pragma hipacc bw(acc, 64)\nvar acc uint64\n"))
	assert.Empty(t, bad)
	assert.Equal(t, ^uint64(0), got[2].Mask)
}

func TestScanPragmasRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"missing bits", "//#pragma hipacc bw(x)", "expected bw(<name>, <bits>)"},
		{"zero bits", "//#pragma hipacc bw(x, 0)", "out of range"},
		{"too wide", "//#pragma hipacc bw(x, 65)", "out of range"},
		{"wrong keyword", "//#pragma hipacc bitwidth(x, 8)", `unknown hipacc pragma "bitwidth"`},
		{"trailing text", "//#pragma hipacc bw(x, 8) extra", "trailing"},
		{"digit-led name", "//#pragma hipacc bw(8x, 8)", "variable name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bad := ScanPragmas([]byte("package main\n" + tt.line + "\n"))
			assert.Empty(t, got)
			require.Len(t, bad, 1)
			assert.Equal(t, 2, bad[0].Line)
			assert.Contains(t, bad[0].Msg, tt.want)
		})
	}
}

func TestScanPragmasIgnoresOrdinaryComments(t *testing.T) {
	lines := []string{
		"// a plain comment",
		"// #pragma once",
		"#pragma hipacc bw(x, 8)", // not a comment line
	}
	for _, line := range lines {
		got, bad := ScanPragmas([]byte(line + "\n"))
		assert.Empty(t, got, line)
		assert.Empty(t, bad, line)
	}
}
