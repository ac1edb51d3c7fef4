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

package diag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"corec/internal/diag"
)

func TestNewFormatsMessage(t *testing.T) {
	err := diag.New(diag.UndefinedVariable, "undefined variable %q", "x")
	require.Equal(t, `UndefinedVariable: undefined variable "x"`, err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := diag.Wrap(diag.SyntaxError, cause, "failed to parse")
	require.Equal(t, cause, errors.Unwrap(diag.Cause(err)))
}
