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

// Package regalloc assigns each virtual register a physical register from
// a fixed caller-saved pool. It is deliberately not lifetime-aware: §4.1's
// push/pop call-safety discipline is what makes that safe.
package regalloc

import (
	"corec/ir"
	"corec/utils"
)

// pool is the fixed round-robin register pool. RAX is reserved for return
// values and implicit division results; RSP/RBP are reserved for the
// stack, so neither appears here.
var pool = [...]ir.PhysReg{ir.RBX, ir.RCX, ir.RDX, ir.RSI, ir.RDI}

// Mapping is the VReg→PhysReg result of Allocate, consumed read-only by
// codegen.
type Mapping struct {
	regs    map[ir.VReg]ir.PhysReg
	counter int
}

// Get returns the physical register assigned to v, assigning one from the
// pool on first sight. Allocate cannot fail: every call returns a valid
// register.
func (m *Mapping) Get(v ir.VReg) ir.PhysReg {
	utils.Assert(len(pool) > 0, "register pool must not be empty")
	if r, ok := m.regs[v]; ok {
		return r
	}
	r := pool[m.counter%len(pool)]
	m.counter++
	m.regs[v] = r
	return r
}

// Allocate walks prog once, assigning a physical register to every VReg
// that appears as a destination or operand anywhere in the instruction
// stream, in first-occurrence order.
func Allocate(prog *ir.Program) *Mapping {
	m := &Mapping{regs: make(map[ir.VReg]ir.PhysReg, prog.NextVReg)}
	for _, instr := range prog.Instrs {
		walkVRegs(instr, m.Get)
	}
	return m
}

// walkVRegs calls visit for every VReg of instr: the destination first,
// then Src, LHS, RHS, Cond, SyscallNum, the return value and the call or
// syscall arguments, in that order.
func walkVRegs(instr ir.Instruction, visit func(ir.VReg) ir.PhysReg) {
	if instr.HasDest {
		visit(instr.Dest)
	}
	visitValue(instr.Src, visit)
	visitValue(instr.LHS, visit)
	visitValue(instr.RHS, visit)
	visitValue(instr.Cond, visit)
	visitValue(instr.SyscallNum, visit)
	if instr.HasValue {
		visitValue(instr.Value, visit)
	}
	for _, a := range instr.Args {
		visitValue(a, visit)
	}
}

func visitValue(v ir.Value, visit func(ir.VReg) ir.PhysReg) {
	if v.Kind == ir.ValVReg {
		visit(v.VReg)
	}
}
