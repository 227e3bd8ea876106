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
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// dslImportPath is the DSL vocabulary package host programs import.
const dslImportPath = "github.com/hipacc/hipacc-go/hipacc"

// runtimeImportPath is the package the rewritten host calls into.
const runtimeImportPath = "github.com/hipacc/hipacc-go/runtime"

// Options configures one generator run.
type Options struct {
	InputFile string
	OutputDir string
	Target    Target
	Device    Device

	// PixelsPerThread overrides the device default when positive.
	PixelsPerThread int
	// UseConfig pins the launch configuration to "XxY" instead of the
	// device default or probed configuration.
	UseConfig string
	// UseEstimate probes kernel resource usage through the native
	// compiler before selecting a configuration.
	UseEstimate bool
	// CompileCommand invokes the native compiler for -use-estimate,
	// e.g. "nvcc --ptxas-options=-v -c".
	CompileCommand string

	// IITarget and VectorWidth parameterize the FPGA pipelines.
	IITarget    int
	VectorWidth int

	Verbose bool
}

// Pass carries the state of one translation unit through the
// pipeline: classification, host rewriting, kernel emission, assembly.
type Pass struct {
	opts  Options
	fset  *token.FileSet
	file  *ast.File
	src   []byte
	edits *EditBuffer
	model *entity.Model
	rep   *Reporter

	// dslName is the local name the host file imports the DSL under.
	dslName string
	// pragmas maps annotated line numbers to bit-width requests.
	pragmas map[int]BitWidth

	translator KernelBodyTranslator
	deps       HostDataDeps

	// ctors maps constructor declaration objects to their kernel class;
	// ctorList keeps them in declaration order.
	ctors    map[entity.Key]*kernelClassInfo
	ctorList []*kernelClassInfo

	// skipCalls marks nested call nodes whose rewrite is subsumed by an
	// enclosing statement rewrite, by node identity.
	skipCalls map[ast.Node]bool
	// literalCount numbers the temporaries capturing literal kernel
	// arguments; launchCount numbers the launch geometry variables;
	// resultCount numbers reduction and binning result variables.
	literalCount int
	launchCount  int
	resultCount  int

	// kernelFiles lists emitted kernel file names for the FPGA entry.
	kernelFiles []string
	// interpDefs collects the interpolation helpers of the kernel file
	// being emitted, deduplicated by name before printing.
	interpDefs []interpDef

	mainFunc *ast.FuncDecl
}

// Run executes the full pipeline on one input file.
func (o Options) Run() error {
	src, err := os.ReadFile(o.InputFile)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, o.InputFile, src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	pragmas, badPragmas := ScanPragmas(src)
	p := &Pass{
		opts:      o,
		fset:      fset,
		file:      file,
		src:       src,
		edits:     NewEditBuffer(src),
		model:     entity.NewModel(),
		rep:       NewReporter(fset),
		pragmas:   pragmas,
		skipCalls: make(map[ast.Node]bool),
	}
	p.translator = newSimpleTranslator(p)
	p.deps = newModelDeps(p.model)

	if len(badPragmas) > 0 {
		tf := fset.File(file.Pos())
		var perr error
		for _, bp := range badPragmas {
			perr = p.rep.Errorf(tf.LineStart(bp.Line), "malformed hipacc pragma: %s", bp.Msg)
		}
		p.rep.Flush()
		return perr
	}

	p.dslName = dslImportName(file)
	if p.dslName == "" {
		return fmt.Errorf("input does not import %s", dslImportPath)
	}

	if err := p.classifyKernelClasses(); err != nil {
		p.rep.Flush()
		return err
	}
	if err := p.rewriteHost(); err != nil {
		p.rep.Flush()
		return err
	}
	if p.opts.Target.IsFPGA() {
		if err := p.writeFPGAEntry(); err != nil {
			return err
		}
	}
	out, err := p.assemble()
	if err != nil {
		return err
	}

	outFile := filepath.Join(o.OutputDir, filepath.Base(o.InputFile))
	if err := writeFileSync(outFile, out); err != nil {
		return fmt.Errorf("write host output: %w", err)
	}
	if o.Verbose {
		fmt.Fprintf(os.Stderr, "hipaccgen: %d kernels, host written to %s\n",
			p.model.Kernels.Len(), outFile)
	}
	return nil
}

// dslImportName returns the local name of the DSL import, "" if the
// file does not import it.
func dslImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != dslImportPath {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "hipacc"
	}
	return ""
}

// offset converts a token position to a byte offset in the source.
func (p *Pass) offset(pos token.Pos) int {
	return p.fset.Position(pos).Offset
}

// nodeText returns the source text of node n verbatim.
func (p *Pass) nodeText(n ast.Node) string {
	return string(p.src[p.offset(n.Pos()):p.offset(n.End())])
}

// writeFileSync writes data and forces it to stable storage before
// closing, on every path.
func writeFileSync(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// constEvalInt evaluates an integer constant expression: literals,
// unary minus, the four arithmetic operators, parentheses, and
// references to constant declarations.
func constEvalInt(expr ast.Expr) (int, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return 0, false
		}
		v, err := strconv.Atoi(e.Value)
		if err != nil {
			return 0, false
		}
		return v, true
	case *ast.ParenExpr:
		return constEvalInt(e.X)
	case *ast.UnaryExpr:
		v, ok := constEvalInt(e.X)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case token.SUB:
			return -v, true
		case token.ADD:
			return v, true
		}
		return 0, false
	case *ast.BinaryExpr:
		l, lok := constEvalInt(e.X)
		r, rok := constEvalInt(e.Y)
		if !lok || !rok {
			return 0, false
		}
		switch e.Op {
		case token.ADD:
			return l + r, true
		case token.SUB:
			return l - r, true
		case token.MUL:
			return l * r, true
		case token.QUO:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		}
		return 0, false
	case *ast.Ident:
		if e.Obj == nil || e.Obj.Kind != ast.Con {
			return 0, false
		}
		spec, ok := e.Obj.Decl.(*ast.ValueSpec)
		if !ok {
			return 0, false
		}
		for i, name := range spec.Names {
			if name.Name == e.Name && i < len(spec.Values) {
				return constEvalInt(spec.Values[i])
			}
		}
	}
	return 0, false
}

// goPixelType renders a type expression like "uint8" or "float32",
// stripping a pointer and the DSL package qualifier.
func (p *Pass) goPixelType(expr ast.Expr) string {
	s := p.nodeText(expr)
	s = strings.TrimPrefix(s, "*")
	s = strings.TrimPrefix(s, p.dslName+".")
	return s
}
