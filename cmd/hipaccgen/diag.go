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
	"os"
)

// Diagnostic is a positioned message about a DSL construct.
type Diagnostic struct {
	Pos     token.Position
	Warning bool
	Message string
}

func (d Diagnostic) String() string {
	kind := "error"
	if d.Warning {
		kind = "warning"
	}
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", kind, d.Message)
}

// Reporter collects diagnostics during a pass. Errors stop the pass at
// the failing construct; everything reported up to that point is still
// printed.
type Reporter struct {
	fset  *token.FileSet
	diags []Diagnostic
	errs  int
}

// NewReporter returns a reporter resolving positions against fset.
func NewReporter(fset *token.FileSet) *Reporter {
	return &Reporter{fset: fset}
}

// Errorf records an error at pos and returns it for early exit.
func (r *Reporter) Errorf(pos token.Pos, format string, args ...any) error {
	d := Diagnostic{Pos: r.fset.Position(pos), Message: fmt.Sprintf(format, args...)}
	r.diags = append(r.diags, d)
	r.errs++
	return fmt.Errorf("%s", d)
}

// Warnf records a warning at pos and prints it immediately.
func (r *Reporter) Warnf(pos token.Pos, format string, args ...any) {
	d := Diagnostic{
		Pos:     r.fset.Position(pos),
		Warning: true,
		Message: fmt.Sprintf(format, args...),
	}
	r.diags = append(r.diags, d)
	fmt.Fprintf(os.Stderr, "%s\n", d)
}

// Errors returns the number of errors recorded.
func (r *Reporter) Errors() int { return r.errs }

// Flush prints every recorded error to stderr.
func (r *Reporter) Flush() {
	for _, d := range r.diags {
		if !d.Warning {
			fmt.Fprintf(os.Stderr, "%s\n", d)
		}
	}
}
