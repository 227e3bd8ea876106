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
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

func unparen(expr ast.Expr) ast.Expr { return astutil.Unparen(expr) }

// rewriteHost walks the host statements: DSL declarations become
// entity records plus runtime calls, DSL statements become transfers
// and launches. Declaration order is visit order, so later statements
// can rely on every earlier entity being recorded.
func (p *Pass) rewriteHost() error {
	removed := make(map[ast.Node]bool)
	for _, info := range p.ctorList {
		for _, d := range info.decls {
			removed[d] = true
		}
	}

	var firstErr error
	fail := func(err error) bool {
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return err == nil
	}

	var curStmt ast.Stmt

	astutil.Apply(p.file, func(c *astutil.Cursor) bool {
		if firstErr != nil {
			return false
		}
		switch n := c.Node().(type) {
		case *ast.FuncDecl:
			if removed[n] {
				return false
			}
			if n.Name.Name == "main" && n.Recv == nil {
				p.mainFunc = n
			}
			return true

		case *ast.GenDecl:
			if removed[n] {
				return false
			}
			return true

		case *ast.AssignStmt:
			curStmt = n
			if n.Tok == token.DEFINE && len(n.Lhs) == 1 && len(n.Rhs) == 1 {
				if name, ok := n.Lhs[0].(*ast.Ident); ok {
					if call, ok := unparen(n.Rhs[0]).(*ast.CallExpr); ok {
						handled, err := p.handleDSLDecl(name, call, n)
						if !fail(err) || handled {
							return false
						}
					}
				}
			}
			if n.Tok == token.ASSIGN && len(n.Lhs) == 1 && len(n.Rhs) == 1 {
				handled, err := p.handleAssignment(n.Lhs[0], n.Rhs[0], n)
				if !fail(err) || handled {
					return false
				}
			}
			return true

		case *ast.DeclStmt:
			curStmt = n
			// var name = hipacc.NewX(...) declares entities too.
			gd, ok := n.Decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR || len(gd.Specs) != 1 {
				return true
			}
			spec := gd.Specs[0].(*ast.ValueSpec)
			if len(spec.Names) != 1 || len(spec.Values) != 1 {
				return true
			}
			if call, ok := unparen(spec.Values[0]).(*ast.CallExpr); ok {
				handled, err := p.handleDSLDecl(spec.Names[0], call, n)
				if !fail(err) || handled {
					return false
				}
			}
			return true

		case ast.Stmt:
			curStmt = n
			if es, ok := n.(*ast.ExprStmt); ok {
				if call, ok := unparen(es.X).(*ast.CallExpr); ok {
					handled, err := p.handleCallStmt(call, es)
					if !fail(err) || handled {
						return false
					}
				}
			}
			return true

		case *ast.CallExpr:
			if p.skipCalls[n] {
				return false
			}
			if !fail(p.rewriteCallExpr(n, curStmt)) {
				return false
			}
			return true
		}
		return true
	}, nil)

	if firstErr != nil {
		return firstErr
	}
	return nil
}

// handleAssignment rewrites DSL-to-DSL assignments into memory
// transfers. The twelve source/destination pairings collapse onto
// three runtime calls: device copy, region copy, and host upload.
func (p *Pass) handleAssignment(lhs, rhs ast.Expr, stmt ast.Stmt) (bool, error) {
	replace := func(text string) {
		p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), text)
	}

	if dst, _, _ := p.resolveImageSource(lhs); dst != nil {
		dstRef := p.nodeText(lhs)

		// B.Data() on the right of an image assignment is a plain
		// device copy; the nested call must not also become a
		// device-to-host read.
		if call, ok := unparen(rhs).(*ast.CallExpr); ok {
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Data" && len(call.Args) == 0 {
				if src, _, _ := p.resolveImageSource(sel.X); src != nil {
					p.skipCalls[call] = true
					replace(fmt.Sprintf("hipaccrt.CopyMemory(%s, %s)", p.nodeText(sel.X), dstRef))
					return true, nil
				}
			}
		}
		if src, _, _ := p.resolveImageSource(rhs); src != nil {
			replace(fmt.Sprintf("hipaccrt.CopyMemory(%s, %s)", p.nodeText(rhs), dstRef))
			return true, nil
		}
		// An accessor source is a region copy into an implicit
		// full-image view of the destination.
		if src := p.lookupAccessor(rhs); src != nil {
			replace(fmt.Sprintf("hipaccrt.CopyMemoryRegion(%s, hipaccrt.NewAccessor(%s))", src.Name, dstRef))
			return true, nil
		}
		// Anything else is host data.
		replace(fmt.Sprintf("hipaccrt.WriteMemory(%s, %s)", dstRef, p.nodeText(rhs)))
		return true, nil
	}

	if dst := p.lookupAccessor(lhs); dst != nil {
		if src := p.lookupAccessor(rhs); src != nil {
			replace(fmt.Sprintf("hipaccrt.CopyMemoryRegion(%s, %s)", src.Name, dst.Name))
			return true, nil
		}
		// Image and pyramid-level sources get the implicit full-image
		// view on their side.
		if src, _, _ := p.resolveImageSource(rhs); src != nil {
			replace(fmt.Sprintf("hipaccrt.CopyMemoryRegion(hipaccrt.NewAccessor(%s), %s)", p.nodeText(rhs), dst.Name))
			return true, nil
		}
		return true, p.rep.Errorf(rhs.Pos(), "an Image, pyramid level or Accessor is required to fill an Accessor region")
	}
	return false, nil
}

// handleCallStmt rewrites statement-level DSL calls: kernel execution,
// domain updates, and pyramid traversal.
func (p *Pass) handleCallStmt(call *ast.CallExpr, stmt ast.Stmt) (bool, error) {
	if name, _, ok := p.dslType(call.Fun); ok && name == "Traverse" {
		sel := call.Fun.(*ast.SelectorExpr)
		p.edits.Replace(p.offset(sel.Pos()), p.offset(sel.End()), "hipaccrt.Traverse")
		return false, nil // arguments still get visited
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false, nil
	}
	switch sel.Sel.Name {
	case "Execute":
		k := p.lookupKernel(sel.X)
		if k == nil {
			return false, nil
		}
		text, err := p.hostKernelLaunch(k)
		if err != nil {
			return true, err
		}
		text = strings.ReplaceAll(text, "\n", "\n"+p.indentAt(stmt.Pos()))
		p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), text)
		return true, nil

	case "Set":
		d := p.lookupMask(sel.X)
		if d == nil {
			return false, nil
		}
		return true, p.handleDomainSet(d, call, stmt)
	}
	return false, nil
}

// handleDomainSet folds dom.Set(x, y, v) into the baked domain
// pattern and drops the statement.
func (p *Pass) handleDomainSet(d *entity.Mask, call *ast.CallExpr, stmt ast.Stmt) error {
	if d.Kind != entity.KindDomain {
		return p.rep.Errorf(call.Pos(), "Set is only supported on Domains")
	}
	if !d.Constant {
		return p.rep.Errorf(call.Pos(), "only constant Domains support Set")
	}
	if len(call.Args) != 3 {
		return p.rep.Errorf(call.Pos(), "Domain Set takes x, y and a value")
	}
	x, okx := constEvalInt(call.Args[0])
	y, oky := constEvalInt(call.Args[1])
	v, okv := constEvalInt(call.Args[2])
	if !okx || !oky || !okv {
		return p.rep.Errorf(call.Pos(), "constant coordinates and value required for Domain Set")
	}
	if x < -d.SizeX/2 || x > d.SizeX/2 || y < -d.SizeY/2 || y > d.SizeY/2 {
		return p.rep.Errorf(call.Pos(), "Domain cell (%d, %d) out of the %dx%d stencil", x, y, d.SizeX, d.SizeY)
	}
	if v != 0 {
		d.SetCell(x, y, "1")
	} else {
		d.SetCell(x, y, "0")
	}
	p.edits.Remove(p.offset(stmt.Pos()), p.offset(stmt.End()))
	return nil
}

// rewriteCallExpr rewrites DSL calls in expression position: memory
// reads, extent queries, and reduction results.
func (p *Pass) rewriteCallExpr(call *ast.CallExpr, curStmt ast.Stmt) error {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil
	}
	replace := func(text string) {
		p.edits.Replace(p.offset(call.Pos()), p.offset(call.End()), text)
	}

	switch sel.Sel.Name {
	case "Data":
		if len(call.Args) != 0 {
			return nil
		}
		if img, _, _ := p.resolveImageSource(sel.X); img != nil {
			replace(fmt.Sprintf("hipaccrt.ReadMemory(%s)", p.nodeText(sel.X)))
		}

	case "Width", "Height":
		if len(call.Args) != 0 {
			return nil
		}
		if img, _, _ := p.resolveImageSource(sel.X); img != nil {
			replace(fmt.Sprintf("%s.%s", p.nodeText(sel.X), sel.Sel.Name))
			return nil
		}
		if acc := p.lookupAccessor(sel.X); acc != nil {
			replace(fmt.Sprintf("%s.%s", acc.Name, sel.Sel.Name))
			return nil
		}
		if is := p.lookupIterationSpace(sel.X); is != nil {
			replace(fmt.Sprintf("%s.%s", is.Name, sel.Sel.Name))
		}

	case "ReducedData":
		k := p.lookupKernel(sel.X)
		if k == nil {
			return nil
		}
		if k.Class.ReduceBody == nil {
			return p.rep.Errorf(call.Pos(), "kernel %s has no reduce method", k.Class.Name)
		}
		result := fmt.Sprintf("%sRed%d", k.InstanceName, p.resultCount)
		p.resultCount++
		text := strings.TrimSuffix(p.hostReductionCall(k, result), "\n") + "\n" + p.indentAt(curStmt.Pos())
		p.edits.Insert(p.offset(curStmt.Pos()), text)
		replace(result)

	case "BinnedData":
		k := p.lookupKernel(sel.X)
		if k == nil {
			return nil
		}
		if k.Class.BinningBody == nil {
			return p.rep.Errorf(call.Pos(), "kernel %s has no binning method", k.Class.Name)
		}
		if len(call.Args) != 1 {
			return p.rep.Errorf(call.Pos(), "BinnedData takes the number of bins")
		}
		result := fmt.Sprintf("%sBins%d", k.InstanceName, p.resultCount)
		p.resultCount++
		text := strings.TrimSuffix(p.hostBinningCall(k, result, p.nodeText(call.Args[0])), "\n") + "\n" + p.indentAt(curStmt.Pos())
		p.edits.Insert(p.offset(curStmt.Pos()), text)
		replace(result)
	}
	return nil
}
