package cr3

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func streamPosition(t *testing.T, rs io.Seeker) int64 {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("Error reading stream position: %s", err)
	}
	return pos
}

func TestResolveSize_Standard(t *testing.T) {
	rs := bytes.NewReader(standardStream(1000, 0xEE))
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if !valid {
		t.Fatalf("Expected valid resolve")
	}
	if size != 5124 {
		t.Fatalf("Expected size 5124, got %d", size)
	}
	if pos := streamPosition(t, rs); pos != 0 {
		t.Fatalf("Expected stream position restored to 0, got %d", pos)
	}
}

func TestResolveSize_NotFtyp(t *testing.T) {
	data := make([]byte, 0)
	data = append(data, atomBytes("moov", 100, binary.BigEndian)...)
	data = append(data, atomBytes("mdat", 50, binary.BigEndian)...)
	rs := bytes.NewReader(data)
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if valid {
		t.Fatalf("Expected invalid resolve for non-ftyp start")
	}
	if size != 0 {
		t.Fatalf("Expected size 0, got %d", size)
	}
	if pos := streamPosition(t, rs); pos != 0 {
		t.Fatalf("Expected stream position restored to 0, got %d", pos)
	}
}

func TestResolveSize_NoTermination(t *testing.T) {
	// 50 bytes of valid small atoms, no mdat anywhere
	data := make([]byte, 0)
	data = append(data, atomBytes("ftyp", 24, binary.BigEndian)...)
	data = append(data, atomBytes("free", 16, binary.BigEndian)...)
	data = append(data, atomBytes("skip", 10, binary.BigEndian)...)
	rs := bytes.NewReader(data)
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if valid || size != 0 {
		t.Fatalf("Expected (0, false), got (%d, %v)", size, valid)
	}
	if pos := streamPosition(t, rs); pos != 0 {
		t.Fatalf("Expected stream position restored to 0, got %d", pos)
	}
}

func TestResolveSize_EntryPositionRestored(t *testing.T) {
	// Container starts partway into the stream; resolve from there
	prefix := 32
	data := make([]byte, prefix)
	data = append(data, standardStream(100, 0xEE)...)
	rs := bytes.NewReader(data)
	if _, err := rs.Seek(int64(prefix), io.SeekStart); err != nil {
		t.Fatalf("Error seeking reader: %s", err)
	}
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if !valid || size != 5124 {
		t.Fatalf("Expected (5124, true), got (%d, %v)", size, valid)
	}
	if pos := streamPosition(t, rs); pos != int64(prefix) {
		t.Fatalf("Expected stream position restored to %d, got %d", prefix, pos)
	}
}

func TestResolveSize_CustomTermination(t *testing.T) {
	rs := bytes.NewReader(standardStream(0, 0))
	last, err := MakeTag("moov")
	if err != nil {
		t.Fatalf("Error making tag: %s", err)
	}
	size, valid := ResolveSize(rs, last, binary.BigEndian, Discard())
	if !valid || size != 124 {
		t.Fatalf("Expected (124, true), got (%d, %v)", size, valid)
	}
}

func TestResolveSize_ExtendedSize(t *testing.T) {
	data := make([]byte, 0)
	data = append(data, extendedAtomBytes("ftyp", 32, binary.BigEndian)...)
	data = append(data, atomBytes("mdat", 16, binary.BigEndian)...)
	rs := bytes.NewReader(data)
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if !valid || size != 48 {
		t.Fatalf("Expected (48, true), got (%d, %v)", size, valid)
	}
}

func TestResolveSize_Empty(t *testing.T) {
	rs := bytes.NewReader([]byte{})
	size, valid := ResolveSize(rs, TagMdat, binary.BigEndian, Discard())
	if valid || size != 0 {
		t.Fatalf("Expected (0, false), got (%d, %v)", size, valid)
	}
}
