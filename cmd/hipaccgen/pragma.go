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
	"strings"
)

// BitWidth is a bit-width annotation: the named variable carries only
// Bits significant bits, letting the FPGA back ends narrow data paths.
type BitWidth struct {
	Name string
	Bits int
	Mask uint64 // Bits one-bits
}

// PragmaError is a comment line that spells a hipacc pragma but
// violates the grammar. Line is 1-based.
type PragmaError struct {
	Line int
	Msg  string
}

// ScanPragmas collects //#pragma hipacc bw(<name>, <bits>) comment
// lines, keyed by the line number following the pragma (the annotated
// declaration). Comments that never reach the hipacc prefix are left
// alone; once the prefix matches, grammar violations are returned as
// errors.
func ScanPragmas(src []byte) (map[int]BitWidth, []PragmaError) {
	out := make(map[int]BitWidth)
	var bad []PragmaError
	for i, line := range strings.Split(string(src), "\n") {
		bw, ok, msg := matchPragma(line)
		switch {
		case ok:
			out[i+2] = bw // line numbers are 1-based, pragma binds the next line
		case msg != "":
			bad = append(bad, PragmaError{Line: i + 1, Msg: msg})
		}
	}
	return out, bad
}

// matchPragma tokenizes one line against the pragma grammar. The
// returned message is empty for ordinary comments and names the
// violation for malformed pragmas.
func matchPragma(line string) (BitWidth, bool, string) {
	s := pragmaScanner{rest: line}
	s.skipSpace()
	if !s.literal("//") {
		return BitWidth{}, false, ""
	}
	s.skipSpace()
	if !s.literal("#pragma") || !s.space() {
		return BitWidth{}, false, ""
	}
	if !s.literal("hipacc") || !s.space() {
		return BitWidth{}, false, ""
	}
	if kw := s.identifier(); kw != "bw" {
		return BitWidth{}, false, fmt.Sprintf("unknown hipacc pragma %q", kw)
	}
	s.skipSpace()
	if !s.literal("(") {
		return BitWidth{}, false, "expected ( after bw"
	}
	s.skipSpace()
	name := s.identifier()
	if name == "" {
		return BitWidth{}, false, "expected a variable name in bw(<name>, <bits>)"
	}
	s.skipSpace()
	if !s.literal(",") {
		return BitWidth{}, false, "expected bw(<name>, <bits>)"
	}
	s.skipSpace()
	bits, ok := s.digits()
	if !ok {
		return BitWidth{}, false, "expected bw(<name>, <bits>)"
	}
	if bits == 0 || bits > 64 {
		return BitWidth{}, false, fmt.Sprintf("bit width %d out of range [1, 64]", bits)
	}
	s.skipSpace()
	if !s.literal(")") {
		return BitWidth{}, false, "expected ) closing the bw pragma"
	}
	s.skipSpace()
	if s.rest != "" {
		return BitWidth{}, false, fmt.Sprintf("trailing %q after the bw pragma", s.rest)
	}
	mask := ^uint64(0)
	if bits < 64 {
		mask = 1<<uint(bits) - 1
	}
	return BitWidth{Name: name, Bits: bits, Mask: mask}, true, ""
}

type pragmaScanner struct {
	rest string
}

func (s *pragmaScanner) literal(lit string) bool {
	if strings.HasPrefix(s.rest, lit) {
		s.rest = s.rest[len(lit):]
		return true
	}
	return false
}

func (s *pragmaScanner) skipSpace() {
	s.rest = strings.TrimLeft(s.rest, " \t")
}

// space consumes at least one blank.
func (s *pragmaScanner) space() bool {
	trimmed := strings.TrimLeft(s.rest, " \t")
	if len(trimmed) == len(s.rest) {
		return false
	}
	s.rest = trimmed
	return true
}

func (s *pragmaScanner) identifier() string {
	i := 0
	for i < len(s.rest) && isIdentChar(s.rest[i], i == 0) {
		i++
	}
	id := s.rest[:i]
	s.rest = s.rest[i:]
	return id
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func (s *pragmaScanner) digits() (int, bool) {
	i, n := 0, 0
	for i < len(s.rest) && s.rest[i] >= '0' && s.rest[i] <= '9' {
		n = n*10 + int(s.rest[i]-'0')
		i++
	}
	if i == 0 {
		return 0, false
	}
	s.rest = s.rest[i:]
	return n, true
}
