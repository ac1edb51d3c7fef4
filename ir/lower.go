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

package ir

import (
	"corec/frontend/ast"
	"corec/internal/diag"
)

// lowerer holds the mutable state of one Lower call: the growing
// instruction list, the counters that mint fresh VRegs/LabelIds, and the
// per-function variable map. A fresh lowerer is used per Lower invocation;
// nothing here survives across calls.
type lowerer struct {
	instrs    []Instruction
	nextVReg  VReg
	nextLabel LabelId
	labels    FunctionLabelMap
	scope     Scope
	vars      map[string]VReg
}

// Lower lowers main first and then the remaining functions of prog in
// source order, producing the flat IR sequence plus the function-label
// map, per §4.1. main must be present or lowering fails
// with NoMainFunction.
func Lower(prog *ast.Program, scope Scope) (*Program, error) {
	main := prog.FindFunc("main")
	if main == nil {
		return nil, diag.New(diag.NoMainFunction, "no function named 'main'")
	}

	lw := &lowerer{
		labels: FunctionLabelMap{},
		scope:  scope,
	}

	lw.emit(LabelAt(StartLabel))
	mainResult := lw.mintVReg()
	lw.emit(CallNamed(mainResult, true, "main", nil))
	discard := lw.mintVReg()
	lw.emit(SyscallOf(discard, Imm(60), []Value{VR(mainResult)}))

	if err := lw.lowerFunction(main); err != nil {
		return nil, err
	}
	for _, fn := range prog.Funcs {
		if fn.Name == "main" {
			continue
		}
		if err := lw.lowerFunction(fn); err != nil {
			return nil, err
		}
	}

	return &Program{Instrs: lw.instrs, Labels: lw.labels, NextVReg: lw.nextVReg}, nil
}

func (lw *lowerer) mintVReg() VReg {
	v := lw.nextVReg
	lw.nextVReg++
	return v
}

func (lw *lowerer) mintLabel() LabelId {
	l := lw.nextLabel
	lw.nextLabel++
	return l
}

func (lw *lowerer) emit(i Instruction) { lw.instrs = append(lw.instrs, i) }

func (lw *lowerer) lowerFunction(fn *ast.FuncDecl) error {
	label := lw.mintLabel()
	lw.labels[fn.Name] = label
	lw.emit(LabelAt(label))
	lw.vars = map[string]VReg{}

	if len(fn.Params) > 0 {
		p := lw.mintVReg()
		lw.emit(Copy(p, PR(RDI)))
		lw.vars[fn.Params[0].Name] = p
	}

	for _, stmt := range fn.Body.Stmts {
		if err := lw.lowerStmt(stmt); err != nil {
			return err
		}
	}

	if fn.Body.Tail != nil {
		v, err := lw.lowerExpr(fn.Body.Tail)
		if err != nil {
			return err
		}
		lw.emit(ReturnVal(VR(v)))
	} else {
		lw.emit(ReturnVoid())
	}
	return nil
}

func (lw *lowerer) lowerStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		v, err := lw.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		lw.vars[s.Name] = v
		return nil
	case *ast.AssignStmt:
		if _, ok := lw.vars[s.Name]; !ok {
			return diag.New(diag.UndefinedVariable, "assignment to undefined variable %q", s.Name)
		}
		v, err := lw.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		lw.vars[s.Name] = v
		return nil
	case *ast.ExprStmt:
		_, err := lw.lowerExpr(s.Value)
		return err
	default:
		return diag.New(diag.UnsupportedOperand, "unknown statement node")
	}
}

// lowerBlock lowers a block's statements followed by its trailing
// expression, defaulting to immediate 0 when there is none, and returns
// the VReg holding the block's value.
func (lw *lowerer) lowerBlock(b *ast.Block) (VReg, error) {
	for _, stmt := range b.Stmts {
		if err := lw.lowerStmt(stmt); err != nil {
			return 0, err
		}
	}
	if b.Tail != nil {
		return lw.lowerExpr(b.Tail)
	}
	dest := lw.mintVReg()
	lw.emit(Copy(dest, Imm(0)))
	return dest, nil
}

func (lw *lowerer) lowerExpr(e ast.Expr) (VReg, error) {
	switch ex := e.(type) {
	case *ast.IntLit:
		dest := lw.mintVReg()
		lw.emit(Copy(dest, Imm(ex.Value)))
		return dest, nil

	case *ast.Ident:
		bound, ok := lw.vars[ex.Name]
		if !ok {
			return 0, diag.New(diag.UndefinedVariable, "undefined variable %q", ex.Name)
		}
		dest := lw.mintVReg()
		lw.emit(Copy(dest, VR(bound)))
		return dest, nil

	case *ast.Binary:
		return lw.lowerBinary(ex)

	case *ast.Call:
		return lw.lowerCall(ex)

	case *ast.If:
		return lw.lowerIf(ex)

	case *ast.While:
		return lw.lowerWhile(ex)

	default:
		return 0, diag.New(diag.UnsupportedOperand, "unknown expression node")
	}
}

// lowerBinary implements the call-safety rule from §4.1: if the RHS
// subtree contains a Call, the LHS value is pushed before RHS is lowered
// and popped into a fresh VReg afterward, so a call inside RHS cannot
// clobber the physical register the trivial allocator later aliases onto
// the LHS.
func (lw *lowerer) lowerBinary(b *ast.Binary) (VReg, error) {
	lhs, err := lw.lowerExpr(b.LHS)
	if err != nil {
		return 0, err
	}

	var rhs VReg
	if exprContainsCall(b.RHS) {
		lw.emit(PushI(VR(lhs)))
		rhs, err = lw.lowerExpr(b.RHS)
		if err != nil {
			return 0, err
		}
		popped := lw.mintVReg()
		lw.emit(PopI(popped))
		lhs = popped
	} else {
		rhs, err = lw.lowerExpr(b.RHS)
		if err != nil {
			return 0, err
		}
	}

	op, err := lowerBinOp(b.Op)
	if err != nil {
		return 0, err
	}
	dest := lw.mintVReg()
	lw.emit(Bin(dest, VR(lhs), VR(rhs), op))
	return dest, nil
}

func lowerBinOp(op ast.BinOp) (BinOp, error) {
	switch op {
	case ast.Add:
		return Add, nil
	case ast.Sub:
		return Sub, nil
	case ast.Mul:
		return Mul, nil
	case ast.Div:
		return Div, nil
	case ast.Lt:
		return Lt, nil
	case ast.Le:
		return Le, nil
	case ast.Gt:
		return Gt, nil
	case ast.Ge:
		return Ge, nil
	case ast.Eq:
		return Eq, nil
	case ast.Ne:
		return Ne, nil
	default:
		return 0, diag.New(diag.UnsupportedOperator, "unknown operator %v", op)
	}
}

func (lw *lowerer) lowerCall(c *ast.Call) (VReg, error) {
	sig, ok := lw.scope[c.Callee]
	if !ok {
		return 0, diag.New(diag.UndefinedFunction, "undefined function %q", c.Callee)
	}
	if len(c.Args) > 4 {
		return 0, diag.New(diag.TooManyArguments, "call to %q passes %d arguments, max 4", c.Callee, len(c.Args))
	}
	if len(c.Args) != sig.ParamCount {
		return 0, diag.New(diag.UndefinedFunction, "call to %q passes %d arguments, expected %d", c.Callee, len(c.Args), sig.ParamCount)
	}

	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := lw.lowerExpr(a)
		if err != nil {
			return 0, err
		}
		args = append(args, VR(v))
	}

	dest := lw.mintVReg()
	lw.emit(CallNamed(dest, true, c.Callee, args))
	return dest, nil
}

func (lw *lowerer) lowerIf(ife *ast.If) (VReg, error) {
	lThen := lw.mintLabel()
	lElse := lw.mintLabel()
	lEnd := lw.mintLabel()
	result := lw.mintVReg()

	cond, err := lw.lowerExpr(ife.Cond)
	if err != nil {
		return 0, err
	}
	lw.emit(BranchOn(VR(cond), lThen, lElse))

	lw.emit(LabelAt(lThen))
	thenVal, err := lw.lowerBlock(ife.Then)
	if err != nil {
		return 0, err
	}
	lw.emit(Copy(result, VR(thenVal)))
	lw.emit(JumpTo(lEnd))

	lw.emit(LabelAt(lElse))
	var elseVal VReg
	if ife.Else != nil {
		elseVal, err = lw.lowerBlock(ife.Else)
		if err != nil {
			return 0, err
		}
	} else {
		elseVal = lw.mintVReg()
		lw.emit(Copy(elseVal, Imm(0)))
	}
	lw.emit(Copy(result, VR(elseVal)))

	lw.emit(LabelAt(lEnd))
	return result, nil
}

func (lw *lowerer) lowerWhile(w *ast.While) (VReg, error) {
	lHead := lw.mintLabel()
	lBody := lw.mintLabel()
	lExit := lw.mintLabel()

	lw.emit(LabelAt(lHead))
	cond, err := lw.lowerExpr(w.Cond)
	if err != nil {
		return 0, err
	}
	lw.emit(BranchOn(VR(cond), lBody, lExit))

	lw.emit(LabelAt(lBody))
	for _, stmt := range w.Body.Stmts {
		if err := lw.lowerStmt(stmt); err != nil {
			return 0, err
		}
	}
	if w.Body.Tail != nil {
		if _, err := lw.lowerExpr(w.Body.Tail); err != nil {
			return 0, err
		}
	}
	lw.emit(JumpTo(lHead))

	lw.emit(LabelAt(lExit))
	result := lw.mintVReg()
	lw.emit(Copy(result, Imm(0)))
	return result, nil
}

// exprContainsCall reports whether e contains a Call anywhere in its
// subtree, used only to decide whether the call-safety push/pop is needed
// for a binary expression's RHS.
func exprContainsCall(e ast.Expr) bool {
	switch ex := e.(type) {
	case *ast.Call:
		return true
	case *ast.Binary:
		return exprContainsCall(ex.LHS) || exprContainsCall(ex.RHS)
	case *ast.If:
		return exprContainsCall(ex.Cond) || blockContainsCall(ex.Then) ||
			(ex.Else != nil && blockContainsCall(ex.Else))
	case *ast.While:
		return exprContainsCall(ex.Cond) || blockContainsCall(ex.Body)
	default:
		return false
	}
}

func blockContainsCall(b *ast.Block) bool {
	for _, stmt := range b.Stmts {
		if stmtContainsCall(stmt) {
			return true
		}
	}
	return b.Tail != nil && exprContainsCall(b.Tail)
}

func stmtContainsCall(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return exprContainsCall(s.Value)
	case *ast.AssignStmt:
		return exprContainsCall(s.Value)
	case *ast.ExprStmt:
		return exprContainsCall(s.Value)
	default:
		return false
	}
}
