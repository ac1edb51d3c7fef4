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
)

func TestLexerSimpleTokens(t *testing.T) {
	toks, err := NewLexer("+ - * / <= >= == != < >").Tokenize()
	require.NoError(t, err)
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []TokenKind{
		TK_PLUS, TK_MINUS, TK_STAR, TK_SLASH,
		TK_LESS_EQUAL, TK_GREATER_EQUAL, TK_EQUAL, TK_NOT_EQUAL,
		TK_LESS, TK_GREATER, TK_EOF,
	}, kinds)
}

func TestLexerFactorial(t *testing.T) {
	src := `
fn factorial(n) {
    if n <= 1 {
        1
    } else {
        n * factorial(n - 1)
    }
}
`
	toks, err := NewLexer(src).Tokenize()
	require.NoError(t, err)
	require.Equal(t, KW_FN, toks[0].Kind)
	require.Equal(t, TK_IDENT, toks[1].Kind)
	require.Equal(t, "factorial", toks[1].Text)
	require.Equal(t, TK_LPAREN, toks[2].Kind)
}

func TestLexerIntegerLiteral(t *testing.T) {
	toks, err := NewLexer("42").Tokenize()
	require.NoError(t, err)
	require.Equal(t, TK_INTEGER, toks[0].Kind)
	require.EqualValues(t, 42, toks[0].IVal)
}

func TestLexerRejectsBangWithoutEquals(t *testing.T) {
	_, err := NewLexer("!").Tokenize()
	require.Error(t, err)
}

func TestLexerRejectsUnknownCharacter(t *testing.T) {
	_, err := NewLexer("@").Tokenize()
	require.Error(t, err)
}
