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

// Package ir is the virtual-register intermediate representation the
// backend lowers the AST to, and the closed instruction set emission
// walks. It is deliberately not SSA: a VReg may be written more than once.
package ir

import "fmt"

// VReg is a dense, monotonically increasing virtual register identifier.
// Each VReg holds one 64-bit integer value.
type VReg uint32

// LabelId names a code position. StartLabel is a reserved sentinel marking
// the program entry; every other LabelId is minted fresh by lowering.
type LabelId uint32

// StartLabel is the reserved LabelId for the program entry point (_start).
const StartLabel LabelId = 999

// PhysReg is one of the x86-64 general-purpose registers the allocator and
// the calling convention can name directly.
type PhysReg int

const (
	RAX PhysReg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
)

func (r PhysReg) String() string {
	switch r {
	case RAX:
		return "rax"
	case RCX:
		return "rcx"
	case RDX:
		return "rdx"
	case RBX:
		return "rbx"
	case RSP:
		return "rsp"
	case RBP:
		return "rbp"
	case RSI:
		return "rsi"
	case RDI:
		return "rdi"
	default:
		return fmt.Sprintf("r?(%d)", int(r))
	}
}

// ValueKind discriminates the three operand shapes an instruction can
// reference. Matched exhaustively everywhere; never express this as an
// interface with open-ended dispatch.
type ValueKind int

const (
	ValVReg ValueKind = iota
	ValImmediate
	ValPhysicalReg
)

// Value is an IR operand: a VReg, a 64-bit immediate, or a physical
// register named directly (used only for calling-convention plumbing).
type Value struct {
	Kind  ValueKind
	VReg  VReg
	Imm   int64
	PReg  PhysReg
}

func VR(v VReg) Value           { return Value{Kind: ValVReg, VReg: v} }
func Imm(i int64) Value         { return Value{Kind: ValImmediate, Imm: i} }
func PR(r PhysReg) Value        { return Value{Kind: ValPhysicalReg, PReg: r} }

func (v Value) String() string {
	switch v.Kind {
	case ValVReg:
		return fmt.Sprintf("v%d", v.VReg)
	case ValImmediate:
		return fmt.Sprintf("#%d", v.Imm)
	case ValPhysicalReg:
		return v.PReg.String()
	default:
		return "<bad value>"
	}
}

// BinOp is the closed set of binary operators the core lowers and emits.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Eq:
		return "=="
	case Ne:
		return "!="
	default:
		return "<bad op>"
	}
}

// OpCode discriminates the Instruction sum type. Every Instruction carries
// exactly the fields its OpCode needs; unused fields are zero.
type OpCode int

const (
	OpCopy OpCode = iota
	OpBinaryOp
	OpLoad
	OpStore
	OpPush
	OpPop
	OpLabel
	OpJump
	OpBranch
	OpCall
	OpReturn
	OpSyscall
)

// Instruction is one entry of the flat IR sequence. Only the fields
// relevant to Op are populated; HasDest/HasValue distinguish an absent
// optional operand (Return with no value, Call with a discarded result)
// from VReg 0.
type Instruction struct {
	Op OpCode

	Dest    VReg
	HasDest bool

	Src  Value
	LHS  Value
	RHS  Value
	BinOp BinOp

	Offset int32 // Load/Store: [rsp + Offset]

	Label      LabelId // Label/Jump target
	TrueLabel  LabelId // Branch
	FalseLabel LabelId // Branch
	Cond       Value   // Branch

	FuncName string  // Call
	Args     []Value // Call/Syscall

	Value    Value // Return
	HasValue bool

	SyscallNum Value // Syscall
}

// Copy builds dest ← src.
func Copy(dest VReg, src Value) Instruction {
	return Instruction{Op: OpCopy, Dest: dest, HasDest: true, Src: src}
}

// Bin builds dest ← lhs op rhs.
func Bin(dest VReg, lhs, rhs Value, op BinOp) Instruction {
	return Instruction{Op: OpBinaryOp, Dest: dest, HasDest: true, LHS: lhs, RHS: rhs, BinOp: op}
}

func LoadStack(dest VReg, offset int32) Instruction {
	return Instruction{Op: OpLoad, Dest: dest, HasDest: true, Offset: offset}
}

func StoreStack(src Value, offset int32) Instruction {
	return Instruction{Op: OpStore, Src: src, Offset: offset}
}

func PushI(src Value) Instruction { return Instruction{Op: OpPush, Src: src} }
func PopI(dest VReg) Instruction  { return Instruction{Op: OpPop, Dest: dest, HasDest: true} }

func LabelAt(id LabelId) Instruction { return Instruction{Op: OpLabel, Label: id} }
func JumpTo(id LabelId) Instruction  { return Instruction{Op: OpJump, Label: id} }

func BranchOn(cond Value, trueL, falseL LabelId) Instruction {
	return Instruction{Op: OpBranch, Cond: cond, TrueLabel: trueL, FalseLabel: falseL}
}

func CallNamed(dest VReg, hasDest bool, name string, args []Value) Instruction {
	return Instruction{Op: OpCall, Dest: dest, HasDest: hasDest, FuncName: name, Args: args}
}

func ReturnVal(v Value) Instruction { return Instruction{Op: OpReturn, Value: v, HasValue: true} }
func ReturnVoid() Instruction       { return Instruction{Op: OpReturn} }

func SyscallOf(result VReg, num Value, args []Value) Instruction {
	return Instruction{Op: OpSyscall, Dest: result, HasDest: true, SyscallNum: num, Args: args}
}

// Program is the complete lowered output: the flat IR sequence plus the
// function-name to entry-label mapping lowering populated along the way.
type Program struct {
	Instrs   []Instruction
	Labels   FunctionLabelMap
	NextVReg VReg
}

// FunctionLabelMap maps a function name to the LabelId of its entry,
// consumed by emission to attach symbol names to label positions for the
// call relocation pass.
type FunctionLabelMap map[string]LabelId

// FuncSig is the per-function signature the front end resolves and the
// lowerer and emitter both trust without re-checking.
type FuncSig struct {
	ParamCount int
}

// Scope is the name-resolution table handed to the core by the front end:
// function name to signature. Return type is always the 64-bit signed
// integer, so it is not modeled as a field.
type Scope map[string]FuncSig
