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

package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"corec/ir"
	"corec/regalloc"
)

func TestAllocateRoundRobin(t *testing.T) {
	prog := &ir.Program{
		Instrs: []ir.Instruction{
			ir.Copy(0, ir.Imm(1)),
			ir.Copy(1, ir.Imm(2)),
			ir.Copy(2, ir.Imm(3)),
			ir.Copy(3, ir.Imm(4)),
			ir.Copy(4, ir.Imm(5)),
			ir.Copy(5, ir.Imm(6)),
		},
		NextVReg: 6,
	}
	m := regalloc.Allocate(prog)
	require.Equal(t, ir.RBX, m.Get(0))
	require.Equal(t, ir.RCX, m.Get(1))
	require.Equal(t, ir.RDX, m.Get(2))
	require.Equal(t, ir.RSI, m.Get(3))
	require.Equal(t, ir.RDI, m.Get(4))
	require.Equal(t, ir.RBX, m.Get(5)) // wraps back around
}

func TestAllocateStableForRepeatedVReg(t *testing.T) {
	prog := &ir.Program{
		Instrs: []ir.Instruction{
			ir.Copy(0, ir.Imm(1)),
			ir.Bin(0, ir.VR(0), ir.Imm(1), ir.Add),
		},
		NextVReg: 1,
	}
	m := regalloc.Allocate(prog)
	first := m.Get(0)
	require.Equal(t, first, m.Get(0))
}

func TestAllocateNeverAssignsReservedRegisters(t *testing.T) {
	prog := &ir.Program{
		Instrs: []ir.Instruction{
			ir.Copy(0, ir.Imm(1)),
			ir.Copy(1, ir.Imm(2)),
			ir.Copy(2, ir.Imm(3)),
			ir.Copy(3, ir.Imm(4)),
			ir.Copy(4, ir.Imm(5)),
			ir.Copy(5, ir.Imm(6)),
			ir.Copy(6, ir.Imm(7)),
		},
		NextVReg: 7,
	}
	m := regalloc.Allocate(prog)
	for v := ir.VReg(0); v < 7; v++ {
		r := m.Get(v)
		require.NotEqual(t, ir.RAX, r)
		require.NotEqual(t, ir.RSP, r)
		require.NotEqual(t, ir.RBP, r)
	}
}
