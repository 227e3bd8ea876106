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
	"strconv"
)

// assemble finalizes the rewritten translation unit: the DSL import
// becomes the runtime import, the runtime initialization lands at the
// top of main, and the edit buffer is applied to the source text.
func (p *Pass) assemble() ([]byte, error) {
	if err := p.rewriteImport(); err != nil {
		return nil, err
	}
	if err := p.insertInit(); err != nil {
		return nil, err
	}

	if !p.edits.Changed() {
		p.rep.Warnf(p.file.Pos(), "No changes to input file, something went wrong!")
	}
	return p.edits.Apply()
}

// rewriteImport swaps the DSL import spec for the runtime import the
// generated host calls resolve against.
func (p *Pass) rewriteImport() error {
	for _, imp := range p.file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != dslImportPath {
			continue
		}
		p.edits.Replace(p.offset(imp.Pos()), p.offset(imp.End()),
			fmt.Sprintf("hipaccrt %q", runtimeImportPath))
		return nil
	}
	return p.rep.Errorf(p.file.Pos(), "input does not import %s", dslImportPath)
}

// insertInit places the runtime initialization at the start of the
// main function body.
func (p *Pass) insertInit() error {
	if p.mainFunc == nil || p.mainFunc.Body == nil {
		return p.rep.Errorf(p.file.Pos(), "input has no main function to initialize the runtime in")
	}
	body := p.mainFunc.Body
	if len(body.List) == 0 {
		return p.rep.Errorf(body.Pos(), "main function is empty")
	}

	// The insertion lands at the first statement's own position, so the
	// trailing indent re-indents the statement it displaces.
	first := body.List[0]
	indent := p.indentAt(first.Pos())
	text := fmt.Sprintf("hipaccrt.Init(%q)\n%s", p.opts.Target.Name, indent)

	p.edits.Insert(p.offset(first.Pos()), text)
	return nil
}
