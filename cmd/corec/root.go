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

// Package corec is the CLI driver: corec <input> [<output>], the thin
// boundary around the compilation core this repository implements.
package corec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"corec/internal/logging"
	"corec/pipeline"
)

var (
	verbose   bool
	cacheSize int
)

// Execute runs the corec root command; main.go's sole job is to call it.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set by RunE on every path: 0 on success, 1 when reading the
// input, compiling or writing the output failed and the diagnostic was
// already printed to stderr. RunE returns nil on those paths, so Cobra
// reports no error of its own.
var exitCode int

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "corec <input> [<output>]",
		Short:         "Compile a source file to a static x86-64 Linux executable",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompile,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each pipeline phase")
	cmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 64, "incremental compile cache size")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := defaultOutput(input)
	if len(args) == 2 {
		output = args[1]
	}

	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		return nil
	}

	log := logging.Noop()
	if verbose {
		log = logging.New(true)
	}

	cache, err := pipeline.NewCache(cacheSize, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		return nil
	}

	elf, cerr := cache.CompileCached(string(src))
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr.Error())
		exitCode = 1
		return nil
	}

	if err := os.WriteFile(output, elf, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		return nil
	}

	exitCode = 0
	return nil
}

// defaultOutput strips the input's extension when no output path is given.
func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}
