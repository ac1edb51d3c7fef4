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
	"strconv"

	"corec/internal/diag"
	"corec/utils"
)

// Lexer scans UTF-8 source text byte by byte; the source language's
// lexical grammar (digits, ASCII identifiers, operators) never needs a
// full rune decode.
type Lexer struct {
	src []byte
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []byte(src)}
}

func (l *Lexer) current() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() { l.pos++ }

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && utils.Any(l.current(), ' ', '\t', '\n', '\r') {
		l.advance()
	}
}

// Tokenize scans the whole input and returns it as a token slice, the Eof
// token included, or the first lexical error encountered.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		l.skipWhitespace()
		if l.atEnd() {
			break
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	toks = append(toks, Token{Kind: TK_EOF, Start: l.pos, End: l.pos})
	return toks, nil
}

func (l *Lexer) make(kind TokenKind, start int) Token {
	l.advance()
	return Token{Kind: kind, Text: string(l.src[start:l.pos]), Start: start, End: l.pos}
}

func (l *Lexer) next() (Token, error) {
	start := l.pos
	c := l.current()

	switch c {
	case '+':
		return l.make(TK_PLUS, start), nil
	case '-':
		return l.make(TK_MINUS, start), nil
	case '*':
		return l.make(TK_STAR, start), nil
	case '/':
		return l.make(TK_SLASH, start), nil
	case '(':
		return l.make(TK_LPAREN, start), nil
	case ')':
		return l.make(TK_RPAREN, start), nil
	case '{':
		return l.make(TK_LBRACE, start), nil
	case '}':
		return l.make(TK_RBRACE, start), nil
	case ';':
		return l.make(TK_SEMICOLON, start), nil
	case ',':
		return l.make(TK_COMMA, start), nil
	case '=':
		l.advance()
		if l.current() == '=' {
			l.advance()
			return Token{Kind: TK_EQUAL, Text: "==", Start: start, End: l.pos}, nil
		}
		return Token{Kind: TK_ASSIGN, Text: "=", Start: start, End: l.pos}, nil
	case '<':
		l.advance()
		if l.current() == '=' {
			l.advance()
			return Token{Kind: TK_LESS_EQUAL, Text: "<=", Start: start, End: l.pos}, nil
		}
		return Token{Kind: TK_LESS, Text: "<", Start: start, End: l.pos}, nil
	case '>':
		l.advance()
		if l.current() == '=' {
			l.advance()
			return Token{Kind: TK_GREATER_EQUAL, Text: ">=", Start: start, End: l.pos}, nil
		}
		return Token{Kind: TK_GREATER, Text: ">", Start: start, End: l.pos}, nil
	case '!':
		l.advance()
		if l.current() == '=' {
			l.advance()
			return Token{Kind: TK_NOT_EQUAL, Text: "!=", Start: start, End: l.pos}, nil
		}
		return Token{}, diag.New(diag.SyntaxError, "unexpected character '!' at position %d", start)
	}

	if c >= '0' && c <= '9' {
		return l.lexNumber(start)
	}
	if isIdentStart(c) {
		return l.lexIdentOrKeyword(start)
	}
	return Token{}, diag.New(diag.SyntaxError, "unexpected character %q at position %d", string(c), start)
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *Lexer) lexNumber(start int) (Token, error) {
	for !l.atEnd() && l.current() >= '0' && l.current() <= '9' {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, diag.Wrap(diag.SyntaxError, err, "invalid integer literal %q", text)
	}
	return Token{Kind: TK_INTEGER, Text: text, IVal: v, Start: start, End: l.pos}, nil
}

func (l *Lexer) lexIdentOrKeyword(start int) (Token, error) {
	for !l.atEnd() && isIdentCont(l.current()) {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Text: text, Start: start, End: l.pos}, nil
	}
	return Token{Kind: TK_IDENT, Text: text, Start: start, End: l.pos}, nil
}
