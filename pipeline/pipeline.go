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

// Package pipeline wires the front end and the core stages together into
// the one call a driver needs: source text in, ELF64 bytes out.
package pipeline

import (
	"go.uber.org/zap"

	"corec/codegen"
	"corec/frontend"
	"corec/frontend/ast"
	"corec/internal/diag"
	"corec/ir"
	"corec/regalloc"
)

// CompileToExecutable runs the whole pipeline over source: parse, resolve,
// lower, allocate, assemble, wrap_elf. Each stage's entry is logged at
// Debug so a verbose CLI run can show where compilation stopped on
// failure.
func CompileToExecutable(source string, log *zap.Logger) ([]byte, *diag.CompileError) {
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("parse")
	prog, err := frontend.Parse(source)
	if err != nil {
		return nil, asCompileError(err)
	}

	log.Debug("resolve")
	scope, err := frontend.Resolve(prog)
	if err != nil {
		return nil, asCompileError(err)
	}

	return Compile(prog, scope, log)
}

// Compile runs the core pipeline stages directly:
// lower(ast) -> allocate(IR) -> assemble(IR, map, labels) -> wrap_elf.
// It is the entry point for callers that already hold a resolved
// (AST, Scope) pair; CompileToExecutable calls it after parse and resolve.
func Compile(prog *ast.Program, scope ir.Scope, log *zap.Logger) ([]byte, *diag.CompileError) {
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("lower")
	lowered, err := ir.Lower(prog, scope)
	if err != nil {
		return nil, asCompileError(err)
	}

	log.Debug("allocate")
	mapping := regalloc.Allocate(lowered)

	log.Debug("assemble")
	code, err := codegen.Assemble(lowered, mapping)
	if err != nil {
		return nil, asCompileError(err)
	}

	log.Debug("wrap_elf")
	return codegen.WrapELF(code), nil
}

func asCompileError(err error) *diag.CompileError {
	if ce, ok := err.(*diag.CompileError); ok {
		return ce
	}
	return diag.Wrap(diag.SyntaxError, err, "%v", err)
}
