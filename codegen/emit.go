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

// Package codegen is the single forward pass over the IR that emits raw
// x86-64 machine code and wraps it in a minimal ELF64 image. There is no
// second pass over the instruction stream: branch and call targets are
// patched in place once every label position is known.
package codegen

import (
	"encoding/binary"
	"math"

	"corec/internal/diag"
	"corec/ir"
	"corec/regalloc"
	"corec/utils"
)

type forwardRef struct {
	offset int
	target ir.LabelId
}

type relocation struct {
	offset int
	name   string
}

// Assembler accumulates machine code for one compilation. A fresh
// Assembler is used per Assemble call; nothing survives across calls.
type Assembler struct {
	code           []byte
	labelPositions map[ir.LabelId]int
	forwardRefs    []forwardRef
	relocations    []relocation
	mapping        *regalloc.Mapping
}

// Assemble walks prog.Instrs once, emitting machine code under mapping,
// then resolves every branch fix-up and call relocation. The returned
// bytes are the function body that _start falls into; wrap in an ELF
// image with WrapELF to get a runnable file.
func Assemble(prog *ir.Program, mapping *regalloc.Mapping) ([]byte, error) {
	asm := &Assembler{
		labelPositions: make(map[ir.LabelId]int),
		mapping:        mapping,
	}

	for _, instr := range prog.Instrs {
		if err := asm.emit(instr); err != nil {
			return nil, err
		}
	}

	if err := asm.resolveForwardRefs(); err != nil {
		return nil, err
	}
	if err := asm.resolveRelocations(prog.Labels); err != nil {
		return nil, err
	}

	return asm.code, nil
}

func (a *Assembler) emitByte(b byte)    { a.code = append(a.code, b) }
func (a *Assembler) emitBytes(bs ...byte) { a.code = append(a.code, bs...) }

func (a *Assembler) emitImm64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	a.code = append(a.code, buf[:]...)
}

func (a *Assembler) emitImm32Placeholder() int {
	pos := len(a.code)
	a.code = append(a.code, 0, 0, 0, 0)
	return pos
}

func regCode(r ir.PhysReg) byte { return byte(r) }

func modrm(mod, reg, rm byte) byte { return (mod << 6) | ((reg & 7) << 3) | (rm & 7) }

func (a *Assembler) phys(v ir.Value) ir.PhysReg {
	switch v.Kind {
	case ir.ValVReg:
		return a.mapping.Get(v.VReg)
	case ir.ValPhysicalReg:
		return v.PReg
	default:
		// lowering never places an Immediate where a register operand is
		// required (Cond, RHS, call/syscall args past the immediate
		// fast path in movValueInto); reaching here means lowering built
		// a malformed instruction.
		utils.ShouldNotReachHere()
		return ir.RAX
	}
}

// movRR emits mov dst, src (48 89 /r): dst is Mod/RM r/m, src is reg.
func (a *Assembler) movRR(dst, src ir.PhysReg) {
	if dst == src {
		return
	}
	a.emitBytes(0x48, 0x89, modrm(3, regCode(src), regCode(dst)))
}

func (a *Assembler) movImm(dst ir.PhysReg, imm int64) {
	a.emitBytes(0x48, 0xB8+regCode(dst))
	a.emitImm64(imm)
}

func (a *Assembler) movValueInto(dst ir.PhysReg, v ir.Value) {
	if v.Kind == ir.ValImmediate {
		a.movImm(dst, v.Imm)
		return
	}
	a.movRR(dst, a.phys(v))
}

func (a *Assembler) emit(instr ir.Instruction) error {
	switch instr.Op {
	case ir.OpCopy:
		return a.emitCopy(instr)
	case ir.OpBinaryOp:
		return a.emitBinaryOp(instr)
	case ir.OpLoad:
		return a.emitLoad(instr)
	case ir.OpStore:
		return a.emitStore(instr)
	case ir.OpPush:
		a.emitBytes(0x50 + regCode(a.phys(instr.Src)))
		return nil
	case ir.OpPop:
		a.emitBytes(0x58 + regCode(a.mapping.Get(instr.Dest)))
		return nil
	case ir.OpLabel:
		a.labelPositions[instr.Label] = len(a.code)
		return nil
	case ir.OpJump:
		a.emitBytes(0xE9)
		pos := a.emitImm32Placeholder()
		a.forwardRefs = append(a.forwardRefs, forwardRef{offset: pos, target: instr.Label})
		return nil
	case ir.OpBranch:
		return a.emitBranch(instr)
	case ir.OpCall:
		return a.emitCall(instr)
	case ir.OpReturn:
		return a.emitReturn(instr)
	case ir.OpSyscall:
		return a.emitSyscall(instr)
	default:
		return diag.New(diag.UnsupportedOperand, "unknown instruction opcode %d", instr.Op)
	}
}

func (a *Assembler) emitCopy(instr ir.Instruction) error {
	dst := a.mapping.Get(instr.Dest)
	if instr.Src.Kind == ir.ValImmediate {
		a.movImm(dst, instr.Src.Imm)
		return nil
	}
	a.movRR(dst, a.phys(instr.Src))
	return nil
}

func (a *Assembler) emitBinaryOp(instr ir.Instruction) error {
	dst := a.mapping.Get(instr.Dest)
	a.movValueInto(dst, instr.LHS)
	rhs := a.phys(instr.RHS)

	switch instr.BinOp {
	case ir.Add:
		a.emitBytes(0x48, 0x01, modrm(3, regCode(rhs), regCode(dst)))
		return nil
	case ir.Sub:
		a.emitBytes(0x48, 0x29, modrm(3, regCode(rhs), regCode(dst)))
		return nil
	case ir.Mul:
		a.emitBytes(0x48, 0x0F, 0xAF, modrm(3, regCode(dst), regCode(rhs)))
		return nil
	case ir.Div:
		return diag.New(diag.UnsupportedOperator, "division is not encoded by this backend")
	case ir.Lt, ir.Le, ir.Gt, ir.Ge, ir.Eq, ir.Ne:
		return a.emitComparison(dst, rhs, instr.BinOp)
	default:
		return diag.New(diag.UnsupportedOperator, "unknown binary operator %v", instr.BinOp)
	}
}

// emitComparison emits cmp dst, rhs; setcc al; movzx dst, al, leaving 0 or
// 1 in dst. setle/setg (Le/Gt) are the pair named explicitly in the byte
// table this encoding follows; the rest follow the same Intel encoding
// family.
func (a *Assembler) emitComparison(dst, rhs ir.PhysReg, op ir.BinOp) error {
	a.emitBytes(0x48, 0x39, modrm(3, regCode(rhs), regCode(dst)))

	var setccOpcode byte
	switch op {
	case ir.Lt:
		setccOpcode = 0x9C // setl
	case ir.Le:
		setccOpcode = 0x9E // setle
	case ir.Gt:
		setccOpcode = 0x9F // setg
	case ir.Ge:
		setccOpcode = 0x9D // setge
	case ir.Eq:
		setccOpcode = 0x94 // sete
	case ir.Ne:
		setccOpcode = 0x95 // setne
	default:
		return diag.New(diag.UnsupportedOperator, "unknown comparison operator %v", op)
	}
	a.emitBytes(0x0F, setccOpcode, modrm(3, 0, regCode(ir.RAX))) // setcc al
	a.emitBytes(0x48, 0x0F, 0xB6, modrm(3, regCode(dst), regCode(ir.RAX)))
	return nil
}

func (a *Assembler) emitBranch(instr ir.Instruction) error {
	cond := a.phys(instr.Cond)
	// cmp cond, 0  (48 83 /7 ib)
	a.emitBytes(0x48, 0x83, modrm(3, 7, regCode(cond)), 0x00)

	// jne rel32 -> true label
	a.emitBytes(0x0F, 0x85)
	posT := a.emitImm32Placeholder()
	a.forwardRefs = append(a.forwardRefs, forwardRef{offset: posT, target: instr.TrueLabel})

	// jmp rel32 -> false label
	a.emitBytes(0xE9)
	posF := a.emitImm32Placeholder()
	a.forwardRefs = append(a.forwardRefs, forwardRef{offset: posF, target: instr.FalseLabel})
	return nil
}

func (a *Assembler) emitReturn(instr ir.Instruction) error {
	if instr.HasValue {
		if instr.Value.Kind == ir.ValImmediate || a.phys(instr.Value) != ir.RAX {
			a.movValueInto(ir.RAX, instr.Value)
		}
	}
	a.emitBytes(0xC3)
	return nil
}

var argRegs = [...]ir.PhysReg{ir.RDI, ir.RSI, ir.RDX, ir.RCX}

func (a *Assembler) emitCall(instr ir.Instruction) error {
	if len(instr.Args) > len(argRegs) {
		return diag.New(diag.TooManyArguments, "call to %q passes %d arguments, max %d", instr.FuncName, len(instr.Args), len(argRegs))
	}
	for i, arg := range instr.Args {
		a.movValueInto(argRegs[i], arg)
	}

	a.emitBytes(0xE8)
	pos := a.emitImm32Placeholder()
	a.relocations = append(a.relocations, relocation{offset: pos, name: instr.FuncName})

	if instr.HasDest {
		dst := a.mapping.Get(instr.Dest)
		if dst != ir.RAX {
			a.movRR(dst, ir.RAX)
		}
	}
	return nil
}

func (a *Assembler) emitSyscall(instr ir.Instruction) error {
	a.movValueInto(ir.RAX, instr.SyscallNum)
	if len(instr.Args) > 0 {
		a.movValueInto(ir.RDI, instr.Args[0])
	}
	if len(instr.Args) > 1 {
		a.movValueInto(ir.RSI, instr.Args[1])
	}
	if len(instr.Args) > 2 {
		a.movValueInto(ir.RDX, instr.Args[2])
	}
	a.emitBytes(0x0F, 0x05)

	dst := a.mapping.Get(instr.Dest)
	if dst != ir.RAX {
		a.movRR(dst, ir.RAX)
	}
	return nil
}

// emitLoad/emitStore address [rsp + offset] with a SIB byte (no index,
// base=RSP) and a 32-bit displacement. Lowering never currently produces
// Load/Store (stack spills go through Push/Pop instead), so these exist
// for completeness against the closed Instruction set the IR defines.
func (a *Assembler) emitLoad(instr ir.Instruction) error {
	dst := a.mapping.Get(instr.Dest)
	a.emitBytes(0x48, 0x8B, modrm(2, regCode(dst), 4), 0x24)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(instr.Offset))
	a.code = append(a.code, buf[:]...)
	return nil
}

func (a *Assembler) emitStore(instr ir.Instruction) error {
	src := a.phys(instr.Src)
	a.emitBytes(0x48, 0x89, modrm(2, regCode(src), 4), 0x24)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(instr.Offset))
	a.code = append(a.code, buf[:]...)
	return nil
}

func (a *Assembler) resolveForwardRefs() error {
	for _, ref := range a.forwardRefs {
		pos, ok := a.labelPositions[ref.target]
		if !ok {
			return diag.New(diag.UndefinedLabel, "label %d has no Label instruction in the emitted artifact", ref.target)
		}
		offset := int64(pos) - int64(ref.offset+4)
		if offset < math.MinInt32 || offset > math.MaxInt32 {
			return diag.New(diag.RelocationOutOfRange, "branch displacement %d out of range at offset %d", offset, ref.offset)
		}
		binary.LittleEndian.PutUint32(a.code[ref.offset:ref.offset+4], uint32(int32(offset)))
	}
	return nil
}

func (a *Assembler) resolveRelocations(labels ir.FunctionLabelMap) error {
	symtab := make(map[string]int, len(labels))
	for name, id := range labels {
		pos, ok := a.labelPositions[ir.LabelId(id)]
		if !ok {
			continue
		}
		symtab[name] = pos
	}

	for _, rel := range a.relocations {
		pos, ok := symtab[rel.name]
		if !ok {
			return diag.New(diag.UndefinedSymbol, "call to undefined function %q", rel.name)
		}
		offset := int64(pos) - int64(rel.offset+4)
		if offset < math.MinInt32 || offset > math.MaxInt32 {
			return diag.New(diag.RelocationOutOfRange, "call displacement %d out of range for %q", offset, rel.name)
		}
		binary.LittleEndian.PutUint32(a.code[rel.offset:rel.offset+4], uint32(int32(offset)))
	}
	return nil
}
