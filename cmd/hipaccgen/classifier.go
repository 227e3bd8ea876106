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

	"github.com/hipacc/hipacc-go/cmd/hipaccgen/entity"
)

// kernelClassInfo pairs a recognized kernel class with the host
// declarations that make it up, so they can be removed together.
type kernelClassInfo struct {
	class *entity.KernelClass
	ctor  *ast.FuncDecl
	decls []ast.Node // type decl, ctor, methods
}

// classifyKernelClasses finds struct types embedding the DSL kernel
// base, classifies their constructor parameters, and removes the whole
// class from the host output. Kernel classes only exist in kernel
// files; the rewritten host refers to generated kernels by name.
func (p *Pass) classifyKernelClasses() error {
	p.ctors = make(map[entity.Key]*kernelClassInfo)

	for _, decl := range p.file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			base, typeArgs := p.kernelBase(st)
			if base == "" {
				continue
			}
			kc := &entity.KernelClass{
				Name: ts.Name.Name,
				Pos:  p.fset.Position(ts.Pos()),
			}
			kc.PixelType = p.goPixelType(typeArgs[0])
			if base == "BinningKernel" {
				kc.BinType = p.goPixelType(typeArgs[1])
			}
			info := &kernelClassInfo{class: kc, decls: []ast.Node{gd}}
			if err := p.classifyClassMembers(info, ts, st); err != nil {
				return err
			}
			p.model.KernelClasses.Add(ts.Name.Obj, kc)
		}
	}

	// Remove every kernel class declaration from the host text.
	for _, info := range p.ctorList {
		for _, n := range info.decls {
			p.removeDecl(n)
		}
	}
	return nil
}

// kernelBase returns "Kernel" or "BinningKernel" with the type
// arguments when the struct embeds the DSL kernel base.
func (p *Pass) kernelBase(st *ast.StructType) (string, []ast.Expr) {
	for _, f := range st.Fields.List {
		if len(f.Names) > 0 {
			continue
		}
		name, args, ok := p.dslType(f.Type)
		if ok && (name == "Kernel" || name == "BinningKernel") {
			return name, args
		}
	}
	return "", nil
}

// dslType matches a (possibly pointer or generic) reference to a DSL
// type and returns its name and type arguments.
func (p *Pass) dslType(expr ast.Expr) (string, []ast.Expr, bool) {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return p.dslType(e.X)
	case *ast.IndexExpr:
		name, _, ok := p.dslType(e.X)
		return name, []ast.Expr{e.Index}, ok
	case *ast.IndexListExpr:
		name, _, ok := p.dslType(e.X)
		return name, e.Indices, ok
	case *ast.SelectorExpr:
		if x, ok := e.X.(*ast.Ident); ok && x.Name == p.dslName {
			return e.Sel.Name, nil, true
		}
	}
	return "", nil, false
}

// classifyClassMembers locates the constructor and methods of the
// class, classifies the constructor parameters against the member
// initializers, and derives used flags from the method bodies.
func (p *Pass) classifyClassMembers(info *kernelClassInfo, ts *ast.TypeSpec, st *ast.StructType) error {
	kc := info.class
	className := ts.Name.Name
	for _, decl := range p.file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if recvName(fd) == className {
			info.decls = append(info.decls, fd)
			switch fd.Name.Name {
			case "kernel":
				kc.KernelBody = fd
			case "reduce":
				kc.ReduceBody = fd
			case "binning":
				kc.BinningBody = fd
			}
			continue
		}
		if info.ctor == nil && returnsPointerTo(fd, className) {
			info.ctor = fd
			info.decls = append(info.decls, fd)
		}
	}
	if info.ctor == nil {
		return p.rep.Errorf(ts.Pos(), "couldn't find kernel class constructor for %s", className)
	}
	if kc.KernelBody == nil {
		return p.rep.Errorf(info.ctor.Pos(), "kernel class %s has no kernel method", className)
	}

	lit := classCompositeLit(info.ctor, className)
	if lit == nil {
		return p.rep.Errorf(info.ctor.Pos(), "constructor of %s does not build a %s literal", className, className)
	}

	// Classify constructor parameters in declaration order.
	for _, field := range info.ctor.Type.Params.List {
		for _, name := range field.Names {
			arg := p.classifyCtorParam(name, field.Type, st, lit)
			kc.Args = append(kc.Args, arg)
		}
	}

	markUsedArgs(kc)
	p.ctors[info.ctor.Name.Obj] = info
	p.ctorList = append(p.ctorList, info)
	return nil
}

// classifyCtorParam maps one constructor parameter to the member it
// initializes and classifies it. Parameters that initialize no
// identifiable member degrade to scalar arguments.
func (p *Pass) classifyCtorParam(param *ast.Ident, paramType ast.Expr, st *ast.StructType, lit *ast.CompositeLit) *entity.Arg {
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key := kv.Key.(*ast.Ident).Name

		// The embedded base initializer wraps the iteration space.
		if call, ok := kv.Value.(*ast.CallExpr); ok {
			if name, _, ok := p.dslType(call.Fun); ok &&
				(name == "MakeKernel" || name == "MakeBinningKernel") &&
				len(call.Args) == 1 && identNamed(call.Args[0], param.Name) {
				return &entity.Arg{Kind: entity.ArgIterationSpace, Name: key, Used: true}
			}
		}
		if !identNamed(kv.Value, param.Name) {
			continue
		}
		ft := fieldType(st, key)
		if ft == nil {
			break
		}
		if name, typeArgs, ok := p.dslType(ft); ok {
			switch name {
			case "Accessor":
				return &entity.Arg{
					Kind:   entity.ArgImage,
					Name:   key,
					Type:   p.goPixelType(typeArgs[0]),
					Access: entity.AccessReadOnly,
				}
			case "Mask":
				return &entity.Arg{
					Kind: entity.ArgMask,
					Name: key,
					Type: p.goPixelType(typeArgs[0]),
				}
			case "Domain":
				return &entity.Arg{
					Kind:     entity.ArgMask,
					Name:     key,
					Type:     "uint8",
					IsDomain: true,
				}
			}
		}
		return &entity.Arg{Kind: entity.ArgScalar, Name: key, Type: p.nodeText(ft)}
	}
	return &entity.Arg{Kind: entity.ArgScalar, Name: param.Name, Type: p.nodeText(paramType)}
}

// markUsedArgs sets the used flag of each argument by scanning the
// method bodies for member references.
func markUsedArgs(kc *entity.KernelClass) {
	used := make(map[string]bool)
	for _, body := range []*ast.FuncDecl{kc.KernelBody, kc.ReduceBody, kc.BinningBody} {
		if body == nil {
			continue
		}
		recv := recvIdent(body)
		ast.Inspect(body.Body, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if x, ok := sel.X.(*ast.Ident); ok && x.Name == recv {
				used[sel.Sel.Name] = true
			}
			return true
		})
	}
	for _, a := range kc.Args {
		if a.Kind == entity.ArgIterationSpace {
			a.Used = true
			continue
		}
		a.Used = used[a.Name]
	}
}

func recvName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	t := fd.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if id, ok := t.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func recvIdent(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 || len(fd.Recv.List[0].Names) == 0 {
		return ""
	}
	return fd.Recv.List[0].Names[0].Name
}

// returnsPointerTo reports whether fd is a plain function returning
// *className.
func returnsPointerTo(fd *ast.FuncDecl, className string) bool {
	if fd.Recv != nil || fd.Type.Results == nil || len(fd.Type.Results.List) != 1 {
		return false
	}
	star, ok := fd.Type.Results.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	id, ok := star.X.(*ast.Ident)
	return ok && id.Name == className
}

// classCompositeLit finds the composite literal building the kernel
// struct inside the constructor body.
func classCompositeLit(ctor *ast.FuncDecl, className string) *ast.CompositeLit {
	var lit *ast.CompositeLit
	ast.Inspect(ctor.Body, func(n ast.Node) bool {
		cl, ok := n.(*ast.CompositeLit)
		if !ok || lit != nil {
			return true
		}
		if id, ok := cl.Type.(*ast.Ident); ok && id.Name == className {
			lit = cl
			return false
		}
		return true
	})
	return lit
}

func fieldType(st *ast.StructType, name string) ast.Expr {
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			if n.Name == name {
				return f.Type
			}
		}
	}
	return nil
}

func identNamed(expr ast.Expr, name string) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == name
}

// removeDecl deletes a top-level declaration, its doc comment
// included.
func (p *Pass) removeDecl(n ast.Node) {
	start := n.Pos()
	switch d := n.(type) {
	case *ast.GenDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	case *ast.FuncDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	}
	p.edits.Remove(p.offset(start), p.offset(n.End()))
}

// kernelClassFor resolves the callee of an instantiation to a kernel
// class, nil when the call is no kernel constructor.
func (p *Pass) kernelClassFor(call *ast.CallExpr) *entity.KernelClass {
	id, ok := call.Fun.(*ast.Ident)
	if !ok || id.Obj == nil {
		return nil
	}
	if info, ok := p.ctors[id.Obj]; ok {
		return info.class
	}
	return nil
}

// classifyKernelInstance binds a kernel instantiation to its class
// arguments, selects its configuration, and emits the kernel file.
func (p *Pass) classifyKernelInstance(name *ast.Ident, call *ast.CallExpr, class *entity.KernelClass, stmt ast.Stmt) error {
	if len(call.Args) != len(class.Args) {
		return p.rep.Errorf(call.Pos(), "kernel %s takes %d arguments, got %d",
			class.Name, len(class.Args), len(call.Args))
	}
	k := entity.NewKernel(name.Name, class, p.fset.Position(name.Pos()))

	for i, actual := range call.Args {
		arg := class.Args[i]
		switch arg.Kind {
		case entity.ArgIterationSpace:
			is := p.lookupIterationSpace(actual)
			if is == nil {
				return p.rep.Errorf(actual.Pos(), "argument %d of %s is not an IterationSpace", i+1, class.Name)
			}
			k.IterationSpace = is
		case entity.ArgImage:
			if img := p.lookupImage(actual); img != nil {
				return p.rep.Errorf(actual.Pos(),
					"Images are not supported within kernels, use Accessors instead: %s", img.Name)
			}
			acc := p.lookupAccessor(actual)
			if acc == nil {
				return p.rep.Errorf(actual.Pos(), "argument %d of %s is not an Accessor", i+1, class.Name)
			}
			k.ImgBindings[arg] = acc
		case entity.ArgMask:
			m := p.lookupMask(actual)
			if m == nil {
				return p.rep.Errorf(actual.Pos(), "argument %d of %s is not a %s", i+1, class.Name, maskOrDomain(arg))
			}
			k.MaskBindings[arg] = m
		default:
			k.ScalarExprs[arg] = p.nodeText(actual)
		}
	}
	if k.IterationSpace == nil {
		return p.rep.Errorf(call.Pos(), "kernel %s is bound to no IterationSpace", class.Name)
	}

	p.model.Kernels.Add(name.Obj, k)

	if err := p.selectConfiguration(k); err != nil {
		return err
	}
	if err := p.printKernelFunction(k); err != nil {
		return err
	}

	// The declaration becomes the kernel build call; launches go
	// through the handle it binds.
	p.edits.Replace(p.offset(stmt.Pos()), p.offset(stmt.End()), p.hostBuildKernel(k))
	return nil
}

func maskOrDomain(arg *entity.Arg) string {
	if arg.IsDomain {
		return "Domain"
	}
	return "Mask"
}
