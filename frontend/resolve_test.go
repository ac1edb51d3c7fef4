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

	"corec/internal/diag"
)

func TestResolveMissingMain(t *testing.T) {
	prog, err := Parse("fn foo() { 1 }")
	require.NoError(t, err)
	_, rerr := Resolve(prog)
	require.Error(t, rerr)
	ce := rerr.(*diag.CompileError)
	require.Equal(t, diag.NoMainFunction, ce.Category)
}

func TestResolveUndefinedVariable(t *testing.T) {
	prog, err := Parse("fn main() { x }")
	require.NoError(t, err)
	_, rerr := Resolve(prog)
	require.Error(t, rerr)
	ce := rerr.(*diag.CompileError)
	require.Equal(t, diag.UndefinedVariable, ce.Category)
}

func TestResolveUndefinedFunction(t *testing.T) {
	prog, err := Parse("fn main() { foo() }")
	require.NoError(t, err)
	_, rerr := Resolve(prog)
	require.Error(t, rerr)
	ce := rerr.(*diag.CompileError)
	require.Equal(t, diag.UndefinedFunction, ce.Category)
}

func TestResolveArityMismatch(t *testing.T) {
	prog, err := Parse("fn id(x) { x } fn main() { id(1, 2) }")
	require.NoError(t, err)
	_, rerr := Resolve(prog)
	require.Error(t, rerr)
}

func TestResolveValidProgram(t *testing.T) {
	prog, err := Parse("fn id(x) { x } fn main() { id(7) }")
	require.NoError(t, err)
	scope, rerr := Resolve(prog)
	require.NoError(t, rerr)
	require.Equal(t, 1, scope["id"].ParamCount)
	require.Equal(t, 0, scope["main"].ParamCount)
}

func TestResolveLetVisibleAfterNestedBlock(t *testing.T) {
	prog, err := Parse("fn main() { let x = 1; if x <= 1 { let y = 2; y } else { 0 }; x }")
	require.NoError(t, err)
	_, rerr := Resolve(prog)
	require.NoError(t, rerr)
}
