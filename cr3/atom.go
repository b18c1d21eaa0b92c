package cr3

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	AtomHeaderLength         = 8  // Size field + tag
	AtomExtendedHeaderLength = 16 // Header with the 64-bit size extension
	AtomSizeExtensionMarker  = 1  // 32-bit size field value signalling a 64-bit size
)

// The 4-byte box type identifier. Compared by exact byte equality; only
// converted to text for display.
type Tag [4]byte

func MakeTag(name string) (Tag, error) {
	var tag Tag
	if len(name) != len(tag) {
		return tag, fmt.Errorf("Atom tag must be exactly %d bytes, got %d (%s)", len(tag), len(name), name)
	}
	copy(tag[:], name)
	return tag, nil
}

func (t Tag) String() string {
	return string(t[:])
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Well-known tags this tool cares about
var (
	TagFtyp = Tag{'f', 't', 'y', 'p'}
	TagMdat = Tag{'m', 'd', 'a', 't'}
)

// A single box/atom discovered in the stream. Size is the total size,
// header included: it is the number of bytes to advance to reach the
// next atom.
type Atom struct {
	Offset int64
	Tag    Tag
	Size   int64
}

// AtomScanner walks top-level atoms in a seekable stream by reading each
// header and jumping ahead by the declared size. Payloads are never read,
// so a scan is O(atom count) regardless of how large the mdat is.
//
// The scan starts at whatever position the stream is at when the scanner
// is created, and the stream position is left wherever the walk stopped.
type AtomScanner struct {
	rs    io.ReadSeeker
	order binary.ByteOrder
	hdr   [AtomExtendedHeaderLength]byte
	atom  Atom
	pos   int64
	err   error
	done  bool
}

func NewAtomScanner(rs io.ReadSeeker, order binary.ByteOrder) (*AtomScanner, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if order == nil {
		order = binary.BigEndian
	}
	return &AtomScanner{rs: rs, order: order, pos: pos}, nil
}

// Advance to the next atom. Returns false at the end of the parseable
// structure: running out of header bytes or hitting a nonsense size field
// both end the scan without being an error. Check Err() for real I/O
// failures afterwards.
func (s *AtomScanner) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	pos := s.pos

	// Size field + tag. A short read here is a normal end of sequence.
	if !s.readHeader(s.hdr[:AtomHeaderLength]) {
		return false
	}

	size := int64(s.order.Uint32(s.hdr[:4]))
	var tag Tag
	copy(tag[:], s.hdr[4:8])

	if size == AtomSizeExtensionMarker {
		// The 32-bit field is a sentinel; the real size follows the tag
		if !s.readHeader(s.hdr[AtomHeaderLength:AtomExtendedHeaderLength]) {
			return false
		}
		size = int64(s.order.Uint64(s.hdr[8:16]))
	}

	// A zero or negative-after-decode size can't advance the walk
	if size <= 0 {
		s.done = true
		return false
	}

	s.atom = Atom{Offset: pos, Tag: tag, Size: size}

	// Unconditional absolute jump to the next header. This self-corrects
	// no matter how many bytes the header reads above consumed.
	s.pos = pos + size
	if _, err := s.rs.Seek(s.pos, io.SeekStart); err != nil {
		s.err = err
	}
	return true
}

// Current atom. Only valid after Next returned true.
func (s *AtomScanner) Atom() Atom {
	return s.atom
}

// The first non-EOF error hit while scanning (truncated headers are not
// errors, they just end the scan).
func (s *AtomScanner) Err() error {
	return s.err
}

func (s *AtomScanner) readHeader(buf []byte) bool {
	_, err := io.ReadFull(s.rs, buf)
	if err != nil {
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			s.err = err
		}
		s.done = true
		return false
	}
	return true
}

// Collect every atom the scanner can reach from the stream's current
// position. Mostly useful for inspection commands and scripts; the
// resolver drives the scanner directly.
func ScanAtoms(rs io.ReadSeeker, order binary.ByteOrder) ([]Atom, error) {
	scanner, err := NewAtomScanner(rs, order)
	if err != nil {
		return nil, err
	}
	atoms := make([]Atom, 0)
	for scanner.Next() {
		atoms = append(atoms, scanner.Atom())
	}
	return atoms, scanner.Err()
}
