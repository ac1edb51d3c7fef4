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

package codegen

import "encoding/binary"

const (
	elfHeaderSize = 64
	phdrSize      = 56
	loadVAddr     = 0x400000
	// entryOffset is where the emitted code begins within the PT_LOAD
	// segment: immediately after the ELF and program headers. It is a
	// fixed constant only because those header sizes are fixed; if
	// either changes this must be recomputed from their actual sizes
	// rather than hardcoded again.
	entryOffset = elfHeaderSize + phdrSize
)

// WrapELF packages code (the _start-entry machine code Assemble produced)
// as a minimal, statically linked ELF64 executable: one ELF header, one
// PT_LOAD program header, no section headers.
func WrapELF(code []byte) []byte {
	total := entryOffset + len(code)
	buf := make([]byte, 0, total)

	// e_ident
	buf = append(buf,
		0x7F, 'E', 'L', 'F',
		2,    // ELFCLASS64
		1,    // ELFDATA2LSB
		1,    // EV_CURRENT
		0,    // ELFOSABI_SYSV
		0, 0, 0, 0, 0, 0, 0, 0, // padding
	)

	buf = appendU16(buf, 2)      // e_type = ET_EXEC
	buf = appendU16(buf, 0x3E)   // e_machine = EM_X86_64
	buf = appendU32(buf, 1)      // e_version = EV_CURRENT
	buf = appendU64(buf, loadVAddr+entryOffset) // e_entry
	buf = appendU64(buf, elfHeaderSize)         // e_phoff
	buf = appendU64(buf, 0)                     // e_shoff
	buf = appendU32(buf, 0)                     // e_flags
	buf = appendU16(buf, elfHeaderSize)         // e_ehsize
	buf = appendU16(buf, phdrSize)              // e_phentsize
	buf = appendU16(buf, 1)                     // e_phnum
	buf = appendU16(buf, 0)                     // e_shentsize
	buf = appendU16(buf, 0)                     // e_shnum
	buf = appendU16(buf, 0)                     // e_shstrndx

	// program header
	buf = appendU32(buf, 1)         // p_type = PT_LOAD
	buf = appendU32(buf, 5)         // p_flags = PF_R | PF_X
	buf = appendU64(buf, 0)         // p_offset
	buf = appendU64(buf, loadVAddr) // p_vaddr
	buf = appendU64(buf, loadVAddr) // p_paddr
	buf = appendU64(buf, uint64(total)) // p_filesz
	buf = appendU64(buf, uint64(total)) // p_memsz
	buf = appendU64(buf, 0x1000)        // p_align

	buf = append(buf, code...)
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
