// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Resolve is the semantic-checks collaborator that sits outside the core:
// it builds the Scope the core's lower step trusts and rejects undefined
// names and arity mismatches before they ever reach it.
package frontend

import (
	"corec/frontend/ast"
	"corec/internal/diag"
	"corec/ir"
)

// Resolve builds the function-signature Scope and checks every name
// reference and call arity in prog. It mirrors the flat, per-function
// variable map lowering itself uses (a `let` inside a nested block is
// visible for the remainder of the function, not just the block), so
// resolution and lowering never disagree about what is in scope.
func Resolve(prog *ast.Program) (ir.Scope, error) {
	scope := ir.Scope{}
	for _, fn := range prog.Funcs {
		if _, dup := scope[fn.Name]; dup {
			return nil, diag.New(diag.SyntaxError, "function %q redefined", fn.Name)
		}
		scope[fn.Name] = ir.FuncSig{ParamCount: len(fn.Params)}
	}
	if _, ok := scope["main"]; !ok {
		return nil, diag.New(diag.NoMainFunction, "no function named 'main'")
	}

	for _, fn := range prog.Funcs {
		r := &resolver{scope: scope, vars: map[string]bool{}}
		for _, p := range fn.Params {
			r.vars[p.Name] = true
		}
		if err := r.block(fn.Body); err != nil {
			return nil, err
		}
	}
	return scope, nil
}

type resolver struct {
	scope ir.Scope
	vars  map[string]bool
}

func (r *resolver) block(b *ast.Block) error {
	for _, stmt := range b.Stmts {
		if err := r.stmt(stmt); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		return r.expr(b.Tail)
	}
	return nil
}

func (r *resolver) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		if err := r.expr(s.Value); err != nil {
			return err
		}
		r.vars[s.Name] = true
		return nil
	case *ast.AssignStmt:
		if !r.vars[s.Name] {
			return diag.New(diag.UndefinedVariable, "assignment to undefined variable %q", s.Name)
		}
		return r.expr(s.Value)
	case *ast.ExprStmt:
		return r.expr(s.Value)
	default:
		return diag.New(diag.UnsupportedOperand, "unknown statement node")
	}
}

func (r *resolver) expr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.IntLit:
		return nil
	case *ast.Ident:
		if !r.vars[ex.Name] {
			return diag.New(diag.UndefinedVariable, "undefined variable %q", ex.Name)
		}
		return nil
	case *ast.Binary:
		if err := r.expr(ex.LHS); err != nil {
			return err
		}
		return r.expr(ex.RHS)
	case *ast.Call:
		sig, ok := r.scope[ex.Callee]
		if !ok {
			return diag.New(diag.UndefinedFunction, "undefined function %q", ex.Callee)
		}
		if len(ex.Args) > 4 {
			return diag.New(diag.TooManyArguments, "call to %q passes %d arguments, max 4", ex.Callee, len(ex.Args))
		}
		if len(ex.Args) != sig.ParamCount {
			return diag.New(diag.UndefinedFunction, "call to %q passes %d arguments, expected %d", ex.Callee, len(ex.Args), sig.ParamCount)
		}
		for _, a := range ex.Args {
			if err := r.expr(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		if err := r.expr(ex.Cond); err != nil {
			return err
		}
		if err := r.block(ex.Then); err != nil {
			return err
		}
		if ex.Else != nil {
			return r.block(ex.Else)
		}
		return nil
	case *ast.While:
		if err := r.expr(ex.Cond); err != nil {
			return err
		}
		return r.block(ex.Body)
	default:
		return diag.New(diag.UnsupportedOperand, "unknown expression node")
	}
}
