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

package frontend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"corec/frontend/ast"
)

func TestParseSimpleMain(t *testing.T) {
	prog, err := Parse("fn main() { 42 }")
	require.NoError(t, err)
	require.Len(t, prog.Funcs, 1)
	require.Equal(t, "main", prog.Funcs[0].Name)
	require.Empty(t, prog.Funcs[0].Params)
	tail, ok := prog.Funcs[0].Body.Tail.(*ast.IntLit)
	require.True(t, ok)
	require.EqualValues(t, 42, tail.Value)
}

func TestParseFunctionWithParameter(t *testing.T) {
	prog, err := Parse("fn id(x) { x }")
	require.NoError(t, err)
	require.Len(t, prog.Funcs[0].Params, 1)
	require.Equal(t, "x", prog.Funcs[0].Params[0].Name)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog, err := Parse("fn main() { 2 + 3 * 4 }")
	require.NoError(t, err)
	bin, ok := prog.Funcs[0].Body.Tail.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)
	rhs, ok := bin.RHS.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Mul, rhs.Op)
}

func TestParseIfElse(t *testing.T) {
	prog, err := Parse("fn main() { if 3 > 2 { 9 } else { 0 } }")
	require.NoError(t, err)
	ife, ok := prog.Funcs[0].Body.Tail.(*ast.If)
	require.True(t, ok)
	require.NotNil(t, ife.Then)
	require.NotNil(t, ife.Else)
}

func TestParseWhileStatement(t *testing.T) {
	prog, err := Parse("fn main() { let x = 0; while x <= 10 { x = x + 1; }; x }")
	require.NoError(t, err)
	require.Len(t, prog.Funcs[0].Body.Stmts, 2)
	exprStmt, ok := prog.Funcs[0].Body.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	_, ok = exprStmt.Value.(*ast.While)
	require.True(t, ok)
}

func TestParseLetAndAssign(t *testing.T) {
	prog, err := Parse("fn main() { let x = 10; x = x + 5; x }")
	require.NoError(t, err)
	require.Len(t, prog.Funcs[0].Body.Stmts, 2)
	_, ok := prog.Funcs[0].Body.Stmts[0].(*ast.LetStmt)
	require.True(t, ok)
	_, ok = prog.Funcs[0].Body.Stmts[1].(*ast.AssignStmt)
	require.True(t, ok)
}

func TestParseCall(t *testing.T) {
	prog, err := Parse("fn id(x) { x } fn main() { id(7) }")
	require.NoError(t, err)
	call, ok := prog.Funcs[1].Body.Tail.(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "id", call.Callee)
	require.Len(t, call.Args, 1)
}

func TestParseRejectsMissingClosingBrace(t *testing.T) {
	_, err := Parse("fn main() { 42")
	require.Error(t, err)
}
