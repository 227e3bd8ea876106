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
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// KernelBodyTranslator lowers the methods of a kernel class into the
// target dialect. The interface keeps the body translation pluggable:
// the built-in translator covers straight-line image code, a richer
// translator can drop in behind the same three calls.
type KernelBodyTranslator interface {
	TranslateKernel(k *entity.Kernel) (string, error)
	TranslateReduce(k *entity.Kernel) (string, error)
	TranslateBinning(k *entity.Kernel) (string, error)
}

// simpleTranslator translates kernel method bodies statement by
// statement, tracking local variable types as it goes. Stencil folds
// (Convolve, ReduceDomain, Iterate) unroll into loops over the baked
// stencil extents.
type simpleTranslator struct {
	pass *Pass

	buf    *bytes.Buffer
	indent int

	kernel *entity.Kernel
	recv   string
	// vars maps local names to their dialect type.
	vars map[string]string
	// subst rewrites identifiers, used to bind lambda parameters to
	// loop variables during stencil unrolling.
	subst map[string]string
}

func newSimpleTranslator(p *Pass) *simpleTranslator {
	return &simpleTranslator{pass: p}
}

func (t *simpleTranslator) reset(k *entity.Kernel, fd *ast.FuncDecl) {
	t.buf = &bytes.Buffer{}
	t.indent = 1
	t.kernel = k
	t.recv = recvIdent(fd)
	t.vars = make(map[string]string)
	t.subst = make(map[string]string)
}

func (t *simpleTranslator) TranslateKernel(k *entity.Kernel) (string, error) {
	t.reset(k, k.Class.KernelBody)
	if err := t.block(k.Class.KernelBody.Body); err != nil {
		return "", err
	}
	return t.buf.String(), nil
}

// TranslateReduce lowers reduce(l, r) into the combine expression the
// reduction macros instantiate.
func (t *simpleTranslator) TranslateReduce(k *entity.Kernel) (string, error) {
	t.reset(k, k.Class.ReduceBody)
	fd := k.Class.ReduceBody
	// Binning kernels reduce bins, plain kernels reduce pixels.
	elem := k.Class.PixelType
	if k.Class.BinType != "" {
		elem = k.Class.BinType
	}
	for _, f := range fd.Type.Params.List {
		for _, n := range f.Names {
			t.vars[n.Name] = t.ctype(elem)
		}
	}
	if err := t.block(fd.Body); err != nil {
		return "", err
	}
	return t.buf.String(), nil
}

func (t *simpleTranslator) TranslateBinning(k *entity.Kernel) (string, error) {
	t.reset(k, k.Class.BinningBody)
	fd := k.Class.BinningBody
	names := paramNames(fd)
	// binning(x, y, numBins, pixel)
	for i, ty := range []string{"uint", "uint", "uint", t.ctype(k.Class.PixelType)} {
		if i < len(names) {
			t.vars[names[i]] = ty
		}
	}
	if err := t.block(fd.Body); err != nil {
		return "", err
	}
	return t.buf.String(), nil
}

func paramNames(fd *ast.FuncDecl) []string {
	var names []string
	for _, f := range fd.Type.Params.List {
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

func (t *simpleTranslator) ctype(goType string) string {
	return t.pass.opts.Target.KernelType(goType)
}

func (t *simpleTranslator) writef(format string, args ...any) {
	fmt.Fprintf(t.buf, "%s", strings.Repeat("    ", t.indent))
	fmt.Fprintf(t.buf, format, args...)
}

func (t *simpleTranslator) errf(pos token.Pos, format string, args ...any) error {
	return t.pass.rep.Errorf(pos, format, args...)
}

func (t *simpleTranslator) block(b *ast.BlockStmt) error {
	for _, stmt := range b.List {
		if err := t.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (t *simpleTranslator) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return t.assignStmt(s)
	case *ast.ExprStmt:
		return t.exprStmt(s)
	case *ast.IfStmt:
		return t.ifStmt(s)
	case *ast.ForStmt:
		return t.forStmt(s)
	case *ast.ReturnStmt:
		return t.returnStmt(s)
	case *ast.BlockStmt:
		t.writef("{\n")
		t.indent++
		if err := t.block(s); err != nil {
			return err
		}
		t.indent--
		t.writef("}\n")
		return nil
	case *ast.IncDecStmt:
		x, err := t.expr(s.X)
		if err != nil {
			return err
		}
		op := "++"
		if s.Tok == token.DEC {
			op = "--"
		}
		t.writef("%s%s;\n", x, op)
		return nil
	case *ast.DeclStmt:
		return t.declStmt(s)
	}
	return t.errf(stmt.Pos(), "unsupported statement in kernel body")
}

func (t *simpleTranslator) assignStmt(s *ast.AssignStmt) error {
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		return t.errf(s.Pos(), "multi-assignment is not supported in kernel bodies")
	}
	lhs, rhs := s.Lhs[0], s.Rhs[0]

	if s.Tok == token.DEFINE {
		name := lhs.(*ast.Ident).Name
		// A stencil fold on the right unrolls into a loop block
		// accumulating into the declared variable.
		if fold, ok := t.matchStencilFold(rhs); ok {
			cType := t.inferType(rhs)
			t.vars[name] = cType
			return t.emitStencilFold(name, cType, fold, true)
		}
		cType := t.inferType(rhs)
		t.vars[name] = cType
		rhsStr, err := t.expr(rhs)
		if err != nil {
			return err
		}
		t.writef("%s %s = %s;\n", cType, name, rhsStr)
		return nil
	}

	lhsStr, err := t.expr(lhs)
	if err != nil {
		return err
	}
	if fold, ok := t.matchStencilFold(rhs); ok && s.Tok == token.ASSIGN {
		return t.emitStencilFold(lhsStr, t.inferType(rhs), fold, false)
	}
	rhsStr, err := t.expr(rhs)
	if err != nil {
		return err
	}
	op := map[token.Token]string{
		token.ASSIGN:     "=",
		token.ADD_ASSIGN: "+=",
		token.SUB_ASSIGN: "-=",
		token.MUL_ASSIGN: "*=",
		token.QUO_ASSIGN: "/=",
	}[s.Tok]
	if op == "" {
		return t.errf(s.Pos(), "unsupported assignment operator %s", s.Tok)
	}
	t.writef("%s %s %s;\n", lhsStr, op, rhsStr)
	return nil
}

func (t *simpleTranslator) declStmt(s *ast.DeclStmt) error {
	gd, ok := s.Decl.(*ast.GenDecl)
	if !ok || gd.Tok != token.VAR {
		return t.errf(s.Pos(), "unsupported declaration in kernel body")
	}
	for _, spec := range gd.Specs {
		vs := spec.(*ast.ValueSpec)
		cType := ""
		if vs.Type != nil {
			cType = t.ctype(t.pass.nodeText(vs.Type))
		}
		for i, n := range vs.Names {
			if i < len(vs.Values) {
				if cType == "" {
					cType = t.inferType(vs.Values[i])
				}
				v, err := t.expr(vs.Values[i])
				if err != nil {
					return err
				}
				t.vars[n.Name] = cType
				t.writef("%s %s = %s;\n", cType, n.Name, v)
			} else {
				if cType == "" {
					cType = t.ctype(t.kernel.Class.PixelType)
				}
				t.vars[n.Name] = cType
				t.writef("%s %s = 0;\n", cType, n.Name)
			}
		}
	}
	return nil
}

func (t *simpleTranslator) exprStmt(s *ast.ExprStmt) error {
	call, ok := unparen(s.X).(*ast.CallExpr)
	if !ok {
		return t.errf(s.Pos(), "unsupported expression statement in kernel body")
	}
	// k.Output(v) stores the output pixel.
	if sel, ok := call.Fun.(*ast.SelectorExpr); ok && identNamed(sel.X, t.recv) {
		switch sel.Sel.Name {
		case "Output":
			v, err := t.expr(call.Args[0])
			if err != nil {
				return err
			}
			// _output is a per-dialect macro from the kernel preamble:
			// array store, stream write, or allocation setter.
			t.writef("_output(%s);\n", v)
			return nil
		case "Bin":
			idx, err := t.expr(call.Args[0])
			if err != nil {
				return err
			}
			v, err := t.expr(call.Args[1])
			if err != nil {
				return err
			}
			t.writef("_accumulate(_lmem, _offset, %s, %s);\n", idx, v)
			return nil
		}
	}
	// hipacc.Iterate(dom, func(x, y) { ... })
	if name, _, ok := t.pass.dslType(call.Fun); ok && name == "Iterate" {
		fold, ok := t.matchStencilFoldCall(call, true)
		if !ok {
			return t.errf(call.Pos(), "Iterate requires a domain and an inline body")
		}
		return t.emitStencilLoop(fold, func() error {
			return t.block(fold.body)
		})
	}
	expr, err := t.expr(call)
	if err != nil {
		return err
	}
	t.writef("%s;\n", expr)
	return nil
}

func (t *simpleTranslator) ifStmt(s *ast.IfStmt) error {
	if s.Init != nil {
		return t.errf(s.Pos(), "if statements with initializers are not supported in kernel bodies")
	}
	cond, err := t.expr(s.Cond)
	if err != nil {
		return err
	}
	t.writef("if (%s) {\n", cond)
	t.indent++
	if err := t.block(s.Body); err != nil {
		return err
	}
	t.indent--
	if s.Else == nil {
		t.writef("}\n")
		return nil
	}
	t.writef("} else {\n")
	t.indent++
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		if err := t.block(e); err != nil {
			return err
		}
	default:
		if err := t.stmt(e); err != nil {
			return err
		}
	}
	t.indent--
	t.writef("}\n")
	return nil
}

func (t *simpleTranslator) forStmt(s *ast.ForStmt) error {
	init, cond, post := "", "", ""
	var err error
	if s.Init != nil {
		as, ok := s.Init.(*ast.AssignStmt)
		if !ok || as.Tok != token.DEFINE || len(as.Lhs) != 1 {
			return t.errf(s.Pos(), "unsupported for-loop initializer in kernel body")
		}
		name := as.Lhs[0].(*ast.Ident).Name
		t.vars[name] = "int"
		v, verr := t.expr(as.Rhs[0])
		if verr != nil {
			return verr
		}
		init = fmt.Sprintf("int %s = %s", name, v)
	}
	if s.Cond != nil {
		if cond, err = t.expr(s.Cond); err != nil {
			return err
		}
	}
	if s.Post != nil {
		switch ps := s.Post.(type) {
		case *ast.IncDecStmt:
			x, xerr := t.expr(ps.X)
			if xerr != nil {
				return xerr
			}
			if ps.Tok == token.INC {
				post = x + "++"
			} else {
				post = x + "--"
			}
		case *ast.AssignStmt:
			lhs, lerr := t.expr(ps.Lhs[0])
			rhs, rerr := t.expr(ps.Rhs[0])
			if lerr != nil || rerr != nil {
				return fmt.Errorf("for-loop post statement: %v, %v", lerr, rerr)
			}
			post = fmt.Sprintf("%s += %s", lhs, rhs)
		}
	}
	t.writef("for (%s; %s; %s) {\n", init, cond, post)
	t.indent++
	if err := t.block(s.Body); err != nil {
		return err
	}
	t.indent--
	t.writef("}\n")
	return nil
}

func (t *simpleTranslator) returnStmt(s *ast.ReturnStmt) error {
	if len(s.Results) == 0 {
		t.writef("return;\n")
		return nil
	}
	v, err := t.expr(s.Results[0])
	if err != nil {
		return err
	}
	t.writef("return %s;\n", v)
	return nil
}

// expr renders an expression in the target dialect.
func (t *simpleTranslator) expr(expr ast.Expr) (string, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.FLOAT && t.pass.opts.Target.Lang != LangC99 {
			return e.Value + "f", nil
		}
		return e.Value, nil
	case *ast.Ident:
		if s, ok := t.subst[e.Name]; ok {
			return s, nil
		}
		return e.Name, nil
	case *ast.ParenExpr:
		inner, err := t.expr(e.X)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *ast.BinaryExpr:
		l, err := t.expr(e.X)
		if err != nil {
			return "", err
		}
		r, err := t.expr(e.Y)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, e.Op, r), nil
	case *ast.UnaryExpr:
		x, err := t.expr(e.X)
		if err != nil {
			return "", err
		}
		return e.Op.String() + x, nil
	case *ast.SelectorExpr:
		return t.selectorExpr(e)
	case *ast.CallExpr:
		return t.callExpr(e)
	case *ast.IndexExpr:
		x, err := t.expr(e.X)
		if err != nil {
			return "", err
		}
		idx, err := t.expr(e.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", x, idx), nil
	}
	return "", t.errf(expr.Pos(), "unsupported expression in kernel body")
}

// selectorExpr resolves member references: kernel fields become their
// argument names.
func (t *simpleTranslator) selectorExpr(e *ast.SelectorExpr) (string, error) {
	if identNamed(e.X, t.recv) {
		return e.Sel.Name, nil
	}
	x, err := t.expr(e.X)
	if err != nil {
		return "", err
	}
	return x + "." + e.Sel.Name, nil
}

// mathFuncs maps Go math calls to their dialect spellings.
var mathFuncs = map[string]string{
	"math.Sqrt":  "sqrtf",
	"math.Exp":   "expf",
	"math.Log":   "logf",
	"math.Pow":   "powf",
	"math.Abs":   "fabsf",
	"math.Floor": "floorf",
	"math.Ceil":  "ceilf",
	"math.Min":   "fminf",
	"math.Max":   "fmaxf",
	"min":        "min",
	"max":        "max",
}

func (t *simpleTranslator) callExpr(e *ast.CallExpr) (string, error) {
	// Method calls on the kernel receiver or its fields.
	if sel, ok := e.Fun.(*ast.SelectorExpr); ok {
		if identNamed(sel.X, t.recv) {
			switch sel.Sel.Name {
			case "X":
				return "gx", nil
			case "Y":
				return "gy", nil
			}
			// field method: accessor or mask access
			return "", t.errf(e.Pos(), "unsupported kernel method %s", sel.Sel.Name)
		}
		if inner, ok := sel.X.(*ast.SelectorExpr); ok && identNamed(inner.X, t.recv) {
			return t.fieldCall(inner.Sel.Name, sel.Sel.Name, e)
		}
		// Plain package call like math.Sqrt.
		if fn, ok := mathFuncs[t.pass.nodeText(sel)]; ok {
			return t.plainCall(fn, e.Args)
		}
	}
	// Type conversions: float32(x) and friends become casts.
	if id, ok := unparen(e.Fun).(*ast.Ident); ok {
		if _, isPixel := commonTypeMap[id.Name]; isPixel && len(e.Args) == 1 {
			arg, err := t.expr(e.Args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s)(%s)", t.ctype(id.Name), arg), nil
		}
		if fn, ok := mathFuncs[id.Name]; ok {
			return t.plainCall(fn, e.Args)
		}
	}
	// Expression-position stencil folds are unsupported; they only
	// unroll at statement level where a loop block fits.
	if name, _, ok := t.pass.dslType(e.Fun); ok {
		return "", t.errf(e.Pos(), "%s is only supported as the right-hand side of an assignment", name)
	}
	return "", t.errf(e.Pos(), "unsupported call in kernel body")
}

func (t *simpleTranslator) plainCall(fn string, args []ast.Expr) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		v, err := t.expr(a)
		if err != nil {
			return "", err
		}
		parts[i] = v
	}
	return fmt.Sprintf("%s(%s)", fn, strings.Join(parts, ", ")), nil
}

// fieldCall lowers a method call on a kernel field: accessor reads and
// mask coefficient lookups.
func (t *simpleTranslator) fieldCall(field, method string, e *ast.CallExpr) (string, error) {
	arg := t.argByName(field)
	if arg == nil {
		return "", t.errf(e.Pos(), "unknown kernel member %s", field)
	}
	switch {
	case arg.Kind == entity.ArgImage && (method == "Pixel" || method == "PixelAt"):
		x, err := t.expr(e.Args[0])
		if err != nil {
			return "", err
		}
		y, err := t.expr(e.Args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("_read_%s(%s, %s)", field, x, y), nil
	case arg.Kind == entity.ArgImage && method == "Width":
		return fmt.Sprintf("%d", t.kernel.ImgBindings[arg].Image().Width), nil
	case arg.Kind == entity.ArgImage && method == "Height":
		return fmt.Sprintf("%d", t.kernel.ImgBindings[arg].Image().Height), nil
	case arg.Kind == entity.ArgMask && method == "At":
		m := t.kernel.MaskBindings[arg]
		x, err := t.expr(e.Args[0])
		if err != nil {
			return "", err
		}
		y, err := t.expr(e.Args[1])
		if err != nil {
			return "", err
		}
		// _stencil_<name> is a per-file macro hiding the storage layout:
		// baked 2-D array, constant-memory symbol, or flat pointer.
		return fmt.Sprintf("_stencil_%s(%s, %s)", m.Name, x, y), nil
	case arg.Kind == entity.ArgMask && method == "SizeX":
		return fmt.Sprintf("%d", t.kernel.MaskBindings[arg].SizeX), nil
	case arg.Kind == entity.ArgMask && method == "SizeY":
		return fmt.Sprintf("%d", t.kernel.MaskBindings[arg].SizeY), nil
	}
	return "", t.errf(e.Pos(), "unsupported method %s on kernel member %s", method, field)
}

func (t *simpleTranslator) argByName(name string) *entity.Arg {
	for _, a := range t.kernel.Class.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// stencilFold captures a Convolve / ReduceDomain / Iterate call: the
// stencil, combine operation and inline body.
type stencilFold struct {
	mask   *entity.Mask
	op     string // "+", "min", "max", "*"
	xn, yn string // lambda parameter names
	body   *ast.BlockStmt
	// value is the lambda result expression for folds.
	value ast.Expr
}

// matchStencilFold matches a fold call in expression position.
func (t *simpleTranslator) matchStencilFold(expr ast.Expr) (*stencilFold, bool) {
	call, ok := unparen(expr).(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	return t.matchStencilFoldCall(call, false)
}

func (t *simpleTranslator) matchStencilFoldCall(call *ast.CallExpr, iterate bool) (*stencilFold, bool) {
	name, _, ok := t.pass.dslType(call.Fun)
	if !ok {
		return nil, false
	}
	f := &stencilFold{}
	var fnExpr ast.Expr
	switch {
	case !iterate && (name == "Convolve" || name == "ReduceDomain") && len(call.Args) == 3:
		f.mask = t.stencilOf(call.Args[0])
		if opName, _, ok := t.pass.dslType(call.Args[1]); ok {
			f.op = map[string]string{"Sum": "+", "Min": "min", "Max": "max", "Prod": "*"}[opName]
		}
		fnExpr = call.Args[2]
	case iterate && name == "Iterate" && len(call.Args) == 2:
		f.mask = t.stencilOf(call.Args[0])
		fnExpr = call.Args[1]
	default:
		return nil, false
	}
	if f.mask == nil || (f.op == "" && !iterate) {
		return nil, false
	}
	fn, ok := fnExpr.(*ast.FuncLit)
	if !ok {
		return nil, false
	}
	names := fnLitParams(fn)
	if len(names) != 2 {
		return nil, false
	}
	f.xn, f.yn = names[0], names[1]
	f.body = fn.Body
	if !iterate {
		// The fold body must produce a value; a single return keeps the
		// unrolled loop an expression per cell.
		if len(fn.Body.List) != 1 {
			return nil, false
		}
		ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
		if !ok || len(ret.Results) != 1 {
			return nil, false
		}
		f.value = ret.Results[0]
	}
	return f, true
}

func fnLitParams(fn *ast.FuncLit) []string {
	var names []string
	for _, p := range fn.Type.Params.List {
		for _, n := range p.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

// stencilOf resolves the mask or domain behind a fold argument: a
// kernel field reference or a bound entity.
func (t *simpleTranslator) stencilOf(expr ast.Expr) *entity.Mask {
	if sel, ok := unparen(expr).(*ast.SelectorExpr); ok && identNamed(sel.X, t.recv) {
		if arg := t.argByName(sel.Sel.Name); arg != nil && arg.Kind == entity.ArgMask {
			return t.kernel.MaskBindings[arg]
		}
	}
	return t.pass.lookupMask(expr)
}

// emitStencilFold unrolls a fold into a loop accumulating into target.
func (t *simpleTranslator) emitStencilFold(target, cType string, f *stencilFold, declare bool) error {
	if declare {
		t.writef("%s %s;\n", cType, target)
	}
	t.writef("{\n")
	t.indent++
	t.writef("int _first = 1;\n")
	err := t.emitStencilLoop(f, func() error {
		v, err := t.foldValue(f)
		if err != nil {
			return err
		}
		t.writef("if (_first) { %s = %s; _first = 0; }\n", target, v)
		switch f.op {
		case "+", "*":
			t.writef("else %s = %s %s (%s);\n", target, target, f.op, v)
		default:
			t.writef("else %s = %s(%s, %s);\n", target, f.op, target, v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.indent--
	t.writef("}\n")
	return nil
}

// emitStencilLoop runs body once per stencil cell, with the lambda
// parameters bound to the loop variables. Domains guard each cell on
// the baked activity pattern.
func (t *simpleTranslator) emitStencilLoop(f *stencilFold, body func() error) error {
	m := f.mask
	t.writef("for (int _sy = -%d; _sy <= %d; ++_sy) {\n", m.SizeY/2, m.SizeY/2)
	t.indent++
	t.writef("for (int _sx = -%d; _sx <= %d; ++_sx) {\n", m.SizeX/2, m.SizeX/2)
	t.indent++
	if m.Kind == entity.KindDomain {
		t.writef("if (!_stencil_%s(_sx, _sy)) continue;\n", m.Name)
	}
	oldX, hadX := t.subst[f.xn]
	oldY, hadY := t.subst[f.yn]
	t.subst[f.xn], t.subst[f.yn] = "_sx", "_sy"
	err := body()
	if hadX {
		t.subst[f.xn] = oldX
	} else {
		delete(t.subst, f.xn)
	}
	if hadY {
		t.subst[f.yn] = oldY
	} else {
		delete(t.subst, f.yn)
	}
	if err != nil {
		return err
	}
	t.indent--
	t.writef("}\n")
	t.indent--
	t.writef("}\n")
	return nil
}

func (t *simpleTranslator) foldValue(f *stencilFold) (string, error) {
	return t.expr(f.value)
}

// inferType guesses the dialect type of an expression, defaulting to
// the kernel pixel type.
func (t *simpleTranslator) inferType(expr ast.Expr) string {
	switch e := unparen(expr).(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			return "int"
		case token.FLOAT:
			return "float"
		}
	case *ast.Ident:
		if ty, ok := t.vars[e.Name]; ok {
			return ty
		}
	case *ast.CallExpr:
		if id, ok := unparen(e.Fun).(*ast.Ident); ok {
			if c, ok := commonTypeMap[id.Name]; ok {
				return c
			}
		}
		if name, typeArgs, ok := t.pass.dslType(e.Fun); ok && name == "Convolve" && len(typeArgs) > 0 {
			return t.ctype(t.pass.goPixelType(typeArgs[0]))
		}
		if sel, ok := e.Fun.(*ast.SelectorExpr); ok {
			if inner, ok := sel.X.(*ast.SelectorExpr); ok && identNamed(inner.X, t.recv) {
				if arg := t.argByName(inner.Sel.Name); arg != nil {
					return t.ctype(arg.Type)
				}
			}
		}
	case *ast.BinaryExpr:
		l := t.inferType(e.X)
		if l != "" {
			return l
		}
		return t.inferType(e.Y)
	case *ast.UnaryExpr:
		return t.inferType(e.X)
	case *ast.SelectorExpr:
		if identNamed(e.X, t.recv) {
			if arg := t.argByName(e.Sel.Name); arg != nil {
				return t.ctype(arg.Type)
			}
		}
	}
	return t.ctype(t.kernel.Class.PixelType)
}
