package cr3

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func scanAll(t *testing.T, data []byte, order binary.ByteOrder) []Atom {
	atoms, err := ScanAtoms(bytes.NewReader(data), order)
	if err != nil {
		t.Fatalf("Error scanning atoms: %s", err)
	}
	return atoms
}

func checkAtom(t *testing.T, atom Atom, offset int64, name string, size int64) {
	if atom.Offset != offset {
		t.Fatalf("Expected atom offset %d, got %d", offset, atom.Offset)
	}
	if atom.Tag.String() != name {
		t.Fatalf("Expected atom tag %s, got %s", name, atom.Tag)
	}
	if atom.Size != size {
		t.Fatalf("Expected atom size %d, got %d", size, atom.Size)
	}
}

func TestAtomScanner_Standard(t *testing.T) {
	atoms := scanAll(t, standardStream(0, 0), binary.BigEndian)
	if len(atoms) != 3 {
		t.Fatalf("Expected 3 atoms, got %d", len(atoms))
	}
	checkAtom(t, atoms[0], 0, "ftyp", 24)
	checkAtom(t, atoms[1], 24, "moov", 100)
	checkAtom(t, atoms[2], 124, "mdat", 5000)
}

func TestAtomScanner_ZeroSizeStops(t *testing.T) {
	// A run of zero bytes after mdat decodes to size 0: hard stop, no error
	atoms := scanAll(t, standardStream(1000, 0), binary.BigEndian)
	if len(atoms) != 3 {
		t.Fatalf("Expected 3 atoms, got %d", len(atoms))
	}
}

func TestAtomScanner_GarbageYieldsBogusAtom(t *testing.T) {
	// Trailing garbage that happens to decode as a huge positive size is
	// still yielded; the walker trusts size fields and only the resolver's
	// termination rule keeps it out of the total
	atoms := scanAll(t, standardStream(1000, 0xEE), binary.BigEndian)
	if len(atoms) != 4 {
		t.Fatalf("Expected 4 atoms, got %d", len(atoms))
	}
	if atoms[3].Offset != standardStreamSize {
		t.Fatalf("Expected bogus atom at %d, got %d", standardStreamSize, atoms[3].Offset)
	}
	if atoms[3].Size != 0xEEEEEEEE {
		t.Fatalf("Expected bogus atom size %d, got %d", int64(0xEEEEEEEE), atoms[3].Size)
	}
}

func TestAtomScanner_ExtendedSize(t *testing.T) {
	data := make([]byte, 0)
	data = append(data, extendedAtomBytes("ftyp", 32, binary.BigEndian)...)
	data = append(data, atomBytes("mdat", 16, binary.BigEndian)...)
	atoms := scanAll(t, data, binary.BigEndian)
	if len(atoms) != 2 {
		t.Fatalf("Expected 2 atoms, got %d", len(atoms))
	}
	checkAtom(t, atoms[0], 0, "ftyp", 32)
	checkAtom(t, atoms[1], 32, "mdat", 16)
}

func TestAtomScanner_TruncatedHeader(t *testing.T) {
	data := atomBytes("ftyp", 24, binary.BigEndian)
	data = append(data, 0, 0, 0) // Not enough bytes for another header
	atoms := scanAll(t, data, binary.BigEndian)
	if len(atoms) != 1 {
		t.Fatalf("Expected 1 atom, got %d", len(atoms))
	}
}

func TestAtomScanner_TruncatedExtension(t *testing.T) {
	data := atomBytes("ftyp", 24, binary.BigEndian)
	// Sentinel size and tag, but only 4 of the 8 extension bytes
	data = append(data, 0, 0, 0, 1, 'm', 'd', 'a', 't', 0, 0, 0, 0)
	atoms := scanAll(t, data, binary.BigEndian)
	if len(atoms) != 1 {
		t.Fatalf("Expected 1 atom, got %d", len(atoms))
	}
}

func TestAtomScanner_StartsAtCurrentPosition(t *testing.T) {
	rs := bytes.NewReader(standardStream(0, 0))
	if _, err := rs.Seek(24, io.SeekStart); err != nil {
		t.Fatalf("Error seeking reader: %s", err)
	}
	scanner, err := NewAtomScanner(rs, binary.BigEndian)
	if err != nil {
		t.Fatalf("Error creating scanner: %s", err)
	}
	if !scanner.Next() {
		t.Fatalf("Expected an atom at offset 24")
	}
	checkAtom(t, scanner.Atom(), 24, "moov", 100)
}

func TestAtomScanner_LittleEndian(t *testing.T) {
	data := make([]byte, 0)
	data = append(data, atomBytes("ftyp", 24, binary.LittleEndian)...)
	data = append(data, atomBytes("mdat", 40, binary.LittleEndian)...)
	atoms := scanAll(t, data, binary.LittleEndian)
	if len(atoms) != 2 {
		t.Fatalf("Expected 2 atoms, got %d", len(atoms))
	}
	checkAtom(t, atoms[1], 24, "mdat", 40)
}

func TestAtomScanner_Empty(t *testing.T) {
	atoms := scanAll(t, []byte{}, binary.BigEndian)
	if len(atoms) != 0 {
		t.Fatalf("Expected no atoms, got %d", len(atoms))
	}
}
