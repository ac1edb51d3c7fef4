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

// Package diag is the core's single flat error kind. Every stage of the
// pipeline returns a *CompileError rather than a stage-specific type, so
// callers never need to switch on which package produced a failure.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category distinguishes the reason a compilation failed. The core never
// recovers from one; the first category reported aborts the pipeline.
type Category string

const (
	NoMainFunction        Category = "NoMainFunction"
	UndefinedVariable     Category = "UndefinedVariable"
	UndefinedFunction     Category = "UndefinedFunction"
	UnsupportedOperator   Category = "UnsupportedOperator"
	UnsupportedOperand    Category = "UnsupportedOperand"
	TooManyArguments      Category = "TooManyArguments"
	UndefinedLabel        Category = "UndefinedLabel"
	UndefinedSymbol       Category = "UndefinedSymbol"
	RelocationOutOfRange  Category = "RelocationOutOfRange"
	StackOffsetOutOfRange Category = "StackOffsetOutOfRange"
	SyntaxError           Category = "SyntaxError"
)

// CompileError is the flat error kind surfaced by every exported entry
// point in ir, codegen, frontend and pipeline that can fail (regalloc
// cannot fail and returns no error).
type CompileError struct {
	Category Category
	Message  string
	cause    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *CompileError) Unwrap() error { return e.cause }

// New builds a CompileError with no underlying cause.
func New(cat Category, format string, args ...interface{}) *CompileError {
	return &CompileError{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a stack trace to err (via pkg/errors) and tags it with cat,
// for failures that originate outside the core (I/O, front-end parsing).
func Wrap(cat Category, err error, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
		cause:    errors.WithStack(err),
	}
}

// Cause returns the wrapped error with its pkg/errors stack trace intact,
// or nil if this CompileError was built with New.
func Cause(err *CompileError) error {
	return err.cause
}
