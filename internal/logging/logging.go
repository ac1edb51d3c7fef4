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

// Package logging builds the zap logger shared by the CLI and the
// pipeline. There is exactly one construction path so phase tracing stays
// consistent whether corec is driven from the command line or embedded.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded zap.Logger. verbose raises the level to
// Debug, which is where pipeline phase transitions (lower/allocate/
// assemble/wrap_elf) are logged; otherwise only Info and above are shown.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		// zap's own config failing to build is not recoverable.
		panic(err)
	}
	return logger
}

// Noop returns a logger that discards everything, for use in tests and in
// library callers that do not want corec's output on their console.
func Noop() *zap.Logger {
	return zap.NewNop()
}
