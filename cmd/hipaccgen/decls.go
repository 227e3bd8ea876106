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
	"strconv"

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// handleDSLDecl classifies a declaration statement binding name to a
// DSL constructor call. It records the entity, rewrites or removes the
// statement, and reports whether the call was a DSL construct.
func (p *Pass) handleDSLDecl(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) (bool, error) {
	if class := p.kernelClassFor(call); class != nil {
		return true, p.classifyKernelInstance(name, call, class, stmt)
	}
	ctor, typeArgs, ok := p.dslType(call.Fun)
	if !ok {
		return false, nil
	}
	switch ctor {
	case "NewImage":
		return true, p.classifyImage(name, call, typeArgs, stmt)
	case "NewPyramid":
		return true, p.classifyPyramid(name, call, stmt)
	case "NewBoundaryCondition":
		return true, p.classifyBoundaryCondition(name, call, stmt)
	case "NewAccessor":
		return true, p.classifyAccessor(name, call, stmt)
	case "NewIterationSpace":
		return true, p.classifyIterationSpace(name, call, stmt)
	case "NewMask":
		return true, p.classifyMask(name, call, typeArgs, stmt)
	case "NewDomain":
		return true, p.classifyDomain(name, call, stmt)
	}
	return false, nil
}

func (p *Pass) classifyImage(name *ast.Ident, call *ast.CallExpr, typeArgs []ast.Expr, stmt ast.Stmt) error {
	if len(typeArgs) != 1 {
		return p.rep.Errorf(call.Pos(), "NewImage requires an explicit pixel type")
	}
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return p.rep.Errorf(call.Pos(), "NewImage takes width, height and optional data, got %d arguments", len(call.Args))
	}
	img := &entity.Image{
		Name:       name.Name,
		PixelType:  p.goPixelType(typeArgs[0]),
		WidthExpr:  p.nodeText(call.Args[0]),
		HeightExpr: p.nodeText(call.Args[1]),
		Width:      -1,
		Height:     -1,
		Pos:        p.fset.Position(name.Pos()),
	}
	if w, ok := constEvalInt(call.Args[0]); ok {
		img.Width = w
	}
	if h, ok := constEvalInt(call.Args[1]); ok {
		img.Height = h
	}
	if p.opts.Target.RequiresConstantExtents() && (img.Width < 0 || img.Height < 0) {
		return p.rep.Errorf(call.Pos(),
			"constant image extents required for target %s", p.opts.Target.Name)
	}
	if img.Width > 0 && img.Height > 0 {
		p.model.TrackImageExtent(img.Width, img.Height)
	}
	if len(call.Args) == 3 {
		img.HostDataExpr = p.nodeText(call.Args[2])
	}
	p.model.Images.Add(name.Obj, img)
	p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), p.hostCreateMemory(img))
	return nil
}

func (p *Pass) classifyPyramid(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) error {
	if len(call.Args) != 2 {
		return p.rep.Errorf(call.Pos(), "NewPyramid takes an image and a depth")
	}
	img := p.lookupImage(call.Args[0])
	if img == nil {
		return p.rep.Errorf(call.Args[0].Pos(), "NewPyramid requires an Image")
	}
	pyr := &entity.Pyramid{
		Name:      name.Name,
		PixelType: img.PixelType,
		Img:       img,
		DepthExpr: p.nodeText(call.Args[1]),
		Pos:       p.fset.Position(name.Pos()),
	}
	p.model.Pyramids.Add(name.Obj, pyr)
	p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), p.hostCreatePyramid(pyr))
	return nil
}

func (p *Pass) classifyBoundaryCondition(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) error {
	if len(call.Args) < 2 {
		return p.rep.Errorf(call.Pos(), "NewBoundaryCondition takes a source, a window and a mode")
	}
	img, pyr, level := p.resolveImageSource(call.Args[0])
	if img == nil {
		return p.rep.Errorf(call.Args[0].Pos(), "NewBoundaryCondition requires an Image or pyramid level")
	}
	bc := &entity.BoundaryCondition{
		Name:      name.Name,
		Img:       img,
		Pyramid:   pyr,
		LevelExpr: level,
		Pos:       p.fset.Position(name.Pos()),
	}

	rest := call.Args[1:]
	if m := p.lookupMask(rest[0]); m != nil {
		bc.SizeX, bc.SizeY = m.SizeX, m.SizeY
		rest = rest[1:]
	} else if sx, ok := constEvalInt(rest[0]); ok {
		if len(rest) > 1 {
			if sy, ok := constEvalInt(rest[1]); ok {
				bc.SizeX, bc.SizeY = sx, sy
				rest = rest[2:]
			} else {
				bc.SizeX, bc.SizeY = sx, sx
				rest = rest[1:]
			}
		} else {
			bc.SizeX, bc.SizeY = sx, sx
			rest = rest[1:]
		}
	} else {
		return p.rep.Errorf(rest[0].Pos(),
			"constant expression or Mask required for the size of a BoundaryCondition")
	}

	if len(rest) == 0 {
		return p.rep.Errorf(call.Pos(), "NewBoundaryCondition is missing the boundary mode")
	}
	mode, ok := p.boundaryMode(rest[0])
	if !ok {
		return p.rep.Errorf(rest[0].Pos(), "expected a boundary mode, got %s", p.nodeText(rest[0]))
	}
	bc.Mode = mode
	rest = rest[1:]

	if len(rest) > 0 {
		if mode != entity.BoundaryConstant {
			return p.rep.Errorf(rest[0].Pos(),
				"constant value specified, but boundary handling is not CONSTANT")
		}
		bc.ConstExpr = p.nodeText(rest[0])
	} else if mode == entity.BoundaryConstant {
		return p.rep.Errorf(call.Pos(),
			"boundary handling set to CONSTANT, but no constant value specified")
	}

	p.model.BoundaryConditions.Add(name.Obj, bc)
	p.edits.Remove(p.offset(stmt.Pos()), p.offset(stmt.End()))
	return nil
}

// boundaryMode matches a hipacc.<Mode> selector.
func (p *Pass) boundaryMode(expr ast.Expr) (entity.Boundary, bool) {
	name, _, ok := p.dslType(expr)
	if !ok {
		return 0, false
	}
	switch name {
	case "Undefined":
		return entity.BoundaryUndefined, true
	case "Clamp":
		return entity.BoundaryClamp, true
	case "Mirror":
		return entity.BoundaryMirror, true
	case "Constant":
		return entity.BoundaryConstant, true
	}
	return 0, false
}

func (p *Pass) interpMode(expr ast.Expr) (entity.Interpolate, bool) {
	name, _, ok := p.dslType(expr)
	if !ok {
		return 0, false
	}
	switch name {
	case "NoInterpolation":
		return entity.InterpolateNone, true
	case "Nearest":
		return entity.InterpolateNearest, true
	case "Linear":
		return entity.InterpolateLinear, true
	case "Cubic":
		return entity.InterpolateCubic, true
	case "Lanczos":
		return entity.InterpolateLanczos, true
	}
	return 0, false
}

func (p *Pass) classifyAccessor(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) error {
	if len(call.Args) < 1 {
		return p.rep.Errorf(call.Pos(), "NewAccessor takes a source")
	}
	acc := &entity.Accessor{
		Name: name.Name,
		Pos:  p.fset.Position(name.Pos()),
	}
	if bc := p.lookupBoundaryCondition(call.Args[0]); bc != nil {
		acc.BC = bc
	} else if img, pyr, level := p.resolveImageSource(call.Args[0]); img != nil {
		// Accessors built straight from an image get the implicit 1x1
		// undefined boundary condition.
		acc.BC = &entity.BoundaryCondition{
			Name:      name.Name + "_bc",
			Img:       img,
			Pyramid:   pyr,
			LevelExpr: level,
			SizeX:     1,
			SizeY:     1,
			Mode:      entity.BoundaryUndefined,
			Pos:       acc.Pos,
		}
		p.model.BoundaryConditions.Add(name.Obj, acc.BC)
	} else {
		return p.rep.Errorf(call.Args[0].Pos(),
			"NewAccessor requires a BoundaryCondition, Image or pyramid level")
	}

	rest := call.Args[1:]
	if len(rest) >= 4 {
		acc.Crop = true
		acc.WidthExpr = p.nodeText(rest[0])
		acc.HeightExpr = p.nodeText(rest[1])
		acc.OffsetXExpr = p.nodeText(rest[2])
		acc.OffsetYExpr = p.nodeText(rest[3])
		rest = rest[4:]
	}
	if len(rest) > 0 {
		ip, ok := p.interpMode(rest[0])
		if !ok {
			return p.rep.Errorf(rest[0].Pos(), "expected an interpolation mode, got %s", p.nodeText(rest[0]))
		}
		acc.Interp = ip
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return p.rep.Errorf(rest[0].Pos(), "too many NewAccessor arguments")
	}

	p.model.Accessors.Add(name.Obj, acc)
	p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), p.hostAccessor(acc))
	return nil
}

func (p *Pass) classifyIterationSpace(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) error {
	if len(call.Args) < 1 {
		return p.rep.Errorf(call.Pos(), "NewIterationSpace takes an output image")
	}
	img, pyr, level := p.resolveImageSource(call.Args[0])
	if img == nil {
		return p.rep.Errorf(call.Args[0].Pos(), "NewIterationSpace requires an Image or pyramid level")
	}
	is := &entity.IterationSpace{
		Name:      name.Name,
		Img:       img,
		Pyramid:   pyr,
		LevelExpr: level,
		Pos:       p.fset.Position(name.Pos()),
	}
	switch len(call.Args) {
	case 1:
	case 3:
		is.Crop = true
		is.WidthExpr = p.nodeText(call.Args[1])
		is.HeightExpr = p.nodeText(call.Args[2])
		is.OffsetXExpr, is.OffsetYExpr = "0", "0"
	case 5:
		is.Crop = true
		is.WidthExpr = p.nodeText(call.Args[1])
		is.HeightExpr = p.nodeText(call.Args[2])
		is.OffsetXExpr = p.nodeText(call.Args[3])
		is.OffsetYExpr = p.nodeText(call.Args[4])
	default:
		return p.rep.Errorf(call.Pos(), "NewIterationSpace takes an image plus optional extents and offsets")
	}

	p.model.IterationSpaces.Add(name.Obj, is)
	p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), p.hostIterationSpace(is))
	return nil
}

func (p *Pass) classifyMask(name *ast.Ident, call *ast.CallExpr, typeArgs []ast.Expr, stmt ast.Stmt) error {
	if len(typeArgs) != 1 {
		return p.rep.Errorf(call.Pos(), "NewMask requires an explicit coefficient type")
	}
	if len(call.Args) != 1 {
		return p.rep.Errorf(call.Pos(), "NewMask takes a stencil grid")
	}
	m := &entity.Mask{
		Kind:      entity.KindMask,
		Name:      name.Name,
		PixelType: p.goPixelType(typeArgs[0]),
		Pos:       p.fset.Position(name.Pos()),
	}
	if err := p.fillMaskFromGrid(m, call.Args[0]); err != nil {
		return err
	}
	p.model.Masks.Add(name.Obj, m)
	p.edits.Remove(p.offset(stmt.Pos()), p.offset(stmt.End()))
	return nil
}

func (p *Pass) classifyDomain(name *ast.Ident, call *ast.CallExpr, stmt ast.Stmt) error {
	d := &entity.Mask{
		Kind:      entity.KindDomain,
		Name:      name.Name,
		PixelType: "uint8",
		Pos:       p.fset.Position(name.Pos()),
	}
	switch len(call.Args) {
	case 1:
		if src := p.lookupMask(call.Args[0]); src != nil && src.Kind == entity.KindMask {
			d.SizeX, d.SizeY = src.SizeX, src.SizeY
			if src.Constant {
				// Bake the nonzero pattern of the mask coefficients.
				d.Constant = true
				d.Cells = make([]string, len(src.Cells))
				for i, c := range src.Cells {
					if litIsZero(c) {
						d.Cells[i] = "0"
					} else {
						d.Cells[i] = "1"
					}
				}
			} else {
				d.CopyFrom = src
			}
			break
		}
		if err := p.fillMaskFromGrid(d, call.Args[0]); err != nil {
			return err
		}
		if d.Constant {
			for i, c := range d.Cells {
				if litIsZero(c) {
					d.Cells[i] = "0"
				} else {
					d.Cells[i] = "1"
				}
			}
		}
	case 2:
		sx, okx := constEvalInt(call.Args[0])
		sy, oky := constEvalInt(call.Args[1])
		if !okx || !oky {
			return p.rep.Errorf(call.Pos(), "constant extents required for a dense Domain")
		}
		d.SizeX, d.SizeY = sx, sy
		d.Constant = true
		d.Cells = make([]string, sx*sy)
		for i := range d.Cells {
			d.Cells[i] = "1"
		}
	default:
		return p.rep.Errorf(call.Pos(), "NewDomain takes a mask, a grid, or two extents")
	}

	p.model.Masks.Add(name.Obj, d)
	p.edits.Remove(p.offset(stmt.Pos()), p.offset(stmt.End()))
	return nil
}

// fillMaskFromGrid derives extents, constancy and cell literals from a
// stencil grid expression: an inline composite literal or a reference
// to a variable initialized with one.
func (p *Pass) fillMaskFromGrid(m *entity.Mask, expr ast.Expr) error {
	lit := p.gridLiteral(expr)
	if lit == nil {
		return p.rep.Errorf(expr.Pos(), "stencil grid of %s must be a 2-D array literal", m.Name)
	}
	rows := lit.Elts
	if len(rows) == 0 {
		return p.rep.Errorf(lit.Pos(), "empty stencil grid for %s", m.Name)
	}
	m.SizeY = len(rows)
	m.Constant = true
	for _, rowExpr := range rows {
		row, ok := rowExpr.(*ast.CompositeLit)
		if !ok {
			return p.rep.Errorf(rowExpr.Pos(), "stencil grid of %s must be a 2-D array literal", m.Name)
		}
		if m.SizeX == 0 {
			m.SizeX = len(row.Elts)
		} else if len(row.Elts) != m.SizeX {
			return p.rep.Errorf(rowExpr.Pos(), "ragged stencil grid for %s", m.Name)
		}
		for _, elt := range row.Elts {
			if !isConstCell(elt) {
				m.Constant = false
			}
			m.Cells = append(m.Cells, p.nodeText(elt))
		}
	}
	if !m.Constant {
		m.Cells = nil
		m.HostExpr = p.nodeText(expr)
	}
	return nil
}

// gridLiteral unwraps a grid expression to its composite literal,
// following a variable reference to its initializer.
func (p *Pass) gridLiteral(expr ast.Expr) *ast.CompositeLit {
	switch e := expr.(type) {
	case *ast.CompositeLit:
		return e
	case *ast.Ident:
		if e.Obj == nil {
			return nil
		}
		switch decl := e.Obj.Decl.(type) {
		case *ast.ValueSpec:
			for i, n := range decl.Names {
				if n.Name == e.Name && i < len(decl.Values) {
					if lit, ok := decl.Values[i].(*ast.CompositeLit); ok {
						return lit
					}
				}
			}
		case *ast.AssignStmt:
			for i, lhs := range decl.Lhs {
				if identNamed(lhs, e.Name) && i < len(decl.Rhs) {
					if lit, ok := decl.Rhs[i].(*ast.CompositeLit); ok {
						return lit
					}
				}
			}
		}
	}
	return nil
}

// isConstCell reports whether a stencil element is a compile-time
// constant literal.
func isConstCell(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return true
	case *ast.ParenExpr:
		return isConstCell(e.X)
	case *ast.UnaryExpr:
		return isConstCell(e.X)
	case *ast.Ident:
		return e.Obj != nil && e.Obj.Kind == ast.Con
	}
	return false
}

// litIsZero applies the domain zero test to a cell literal: integer
// and float cells are inactive exactly when their value is zero, so
// "-0.0" is inactive.
func litIsZero(lit string) bool {
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return false
	}
	return v == 0
}

// resolveImageSource resolves an image-valued expression: a plain
// image variable or a pyramid level call P.Level(l).
func (p *Pass) resolveImageSource(expr ast.Expr) (*entity.Image, *entity.Pyramid, string) {
	if img := p.lookupImage(expr); img != nil {
		return img, nil, ""
	}
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return nil, nil, ""
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Level" {
		return nil, nil, ""
	}
	pyr := p.lookupPyramid(sel.X)
	if pyr == nil {
		return nil, nil, ""
	}
	return pyr.Img, pyr, p.nodeText(call.Args[0])
}

func (p *Pass) lookupImage(expr ast.Expr) *entity.Image {
	if obj := identObj(expr); obj != nil {
		if img, ok := p.model.Images.Get(obj); ok {
			return img
		}
	}
	return nil
}

func (p *Pass) lookupPyramid(expr ast.Expr) *entity.Pyramid {
	if obj := identObj(expr); obj != nil {
		if pyr, ok := p.model.Pyramids.Get(obj); ok {
			return pyr
		}
	}
	return nil
}

func (p *Pass) lookupBoundaryCondition(expr ast.Expr) *entity.BoundaryCondition {
	if obj := identObj(expr); obj != nil {
		if bc, ok := p.model.BoundaryConditions.Get(obj); ok {
			return bc
		}
	}
	return nil
}

func (p *Pass) lookupAccessor(expr ast.Expr) *entity.Accessor {
	if obj := identObj(expr); obj != nil {
		if acc, ok := p.model.Accessors.Get(obj); ok {
			return acc
		}
	}
	return nil
}

func (p *Pass) lookupIterationSpace(expr ast.Expr) *entity.IterationSpace {
	if obj := identObj(expr); obj != nil {
		if is, ok := p.model.IterationSpaces.Get(obj); ok {
			return is
		}
	}
	return nil
}

func (p *Pass) lookupMask(expr ast.Expr) *entity.Mask {
	if obj := identObj(expr); obj != nil {
		if m, ok := p.model.Masks.Get(obj); ok {
			return m
		}
	}
	return nil
}

func (p *Pass) lookupKernel(expr ast.Expr) *entity.Kernel {
	if obj := identObj(expr); obj != nil {
		if k, ok := p.model.Kernels.Get(obj); ok {
			return k
		}
	}
	return nil
}

func identObj(expr ast.Expr) entity.Key {
	if id, ok := unparen(expr).(*ast.Ident); ok {
		return id.Obj
	}
	return nil
}
