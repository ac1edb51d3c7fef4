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

package pipeline_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"corec/internal/diag"
	"corec/pipeline"
)

// execExpect compiles source, writes the ELF to a temp file, runs it, and
// asserts its exit code is want. This is the same compile-then-execute
// idiom the core's own acceptance scenarios are defined by: the exit code
// *is* the behavior under test, not the bytes that produced it.
func execExpect(t *testing.T, name, source string, want int) {
	t.Helper()
	elf, err := pipeline.CompileToExecutable(source, nil)
	require.Nil(t, err)

	dir := t.TempDir()
	app := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(app, elf, 0o755))

	cmd := exec.Command(app)
	if runErr := cmd.Run(); runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); !isExit {
			t.Fatalf("executing %s: %v", app, runErr)
		}
	}
	require.Equal(t, want, cmd.ProcessState.ExitCode())
}

// These are the end-to-end scenarios: literal source in, literal process
// exit code out, on Linux/x86-64 (the only platform this backend targets).
var endToEndScenarios = []struct {
	name string
	src  string
	want int
}{
	{"E1_literal", "fn main() { 42 }", 42},
	{"E2_arithmetic", "fn main() { 2 + 3 * 4 }", 14},
	{"E3_call", "fn id(x) { x } fn main() { id(7) }", 7},
	{"E4_factorial", "fn factorial(n) { if n <= 1 { 1 } else { n * factorial(n - 1) } } fn main() { factorial(5) }", 120},
	{"E5_assignment", "fn main() { let x = 10; x = x + 5; x }", 15},
	{"E6_comparison", "fn main() { if 3 > 2 { 9 } else { 0 } }", 9},
}

func TestEndToEndScenariosProduceValidELF(t *testing.T) {
	for _, tc := range endToEndScenarios {
		t.Run(tc.name, func(t *testing.T) {
			elf, err := pipeline.CompileToExecutable(tc.src, nil)
			require.Nil(t, err)
			require.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, elf[:4])
			require.Greater(t, len(elf), 0x78)
		})
	}
}

func TestEndToEndScenariosExitWithExpectedCode(t *testing.T) {
	for _, tc := range endToEndScenarios {
		t.Run(tc.name, func(t *testing.T) {
			execExpect(t, tc.name, tc.src, tc.want)
		})
	}
}

func TestEndToEndIdempotent(t *testing.T) {
	elf1, err1 := pipeline.CompileToExecutable(endToEndScenarios[3].src, nil)
	elf2, err2 := pipeline.CompileToExecutable(endToEndScenarios[3].src, nil)
	require.Nil(t, err1)
	require.Nil(t, err2)
	require.Equal(t, elf1, elf2)
}

func TestCompileToExecutableMissingMain(t *testing.T) {
	_, err := pipeline.CompileToExecutable("fn foo() { 1 }", nil)
	require.NotNil(t, err)
	require.Equal(t, diag.NoMainFunction, err.Category)
}

func TestCompileToExecutableWrongArgCountRejectedByFrontEnd(t *testing.T) {
	_, err := pipeline.CompileToExecutable("fn id(x) { x } fn main() { id(1, 2) }", nil)
	require.NotNil(t, err)
}

func TestCompileToExecutableWhileLoop(t *testing.T) {
	src := "fn main() { let x = 0; while x <= 5 { x = x + 1; }; x }"
	elf, err := pipeline.CompileToExecutable(src, nil)
	require.Nil(t, err)
	require.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, elf[:4])
	execExpect(t, "while_loop", src, 6)
}
