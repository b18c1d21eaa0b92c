package cr3

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// Build a single atom with a standard 8-byte header. Total is the full
// atom size including the header; the payload is an obvious increasing
// pattern so carve comparisons catch misaligned windows.
func atomBytes(name string, total int, order binary.ByteOrder) []byte {
	data := make([]byte, total)
	order.PutUint32(data[:4], uint32(total))
	copy(data[4:8], name)
	for i := AtomHeaderLength; i < total; i++ {
		data[i] = uint8(i & 0xFF)
	}
	return data
}

// Build an atom using the 64-bit size extension (16-byte header)
func extendedAtomBytes(name string, total int64, order binary.ByteOrder) []byte {
	data := make([]byte, total)
	order.PutUint32(data[:4], AtomSizeExtensionMarker)
	copy(data[4:8], name)
	order.PutUint64(data[8:16], uint64(total))
	for i := int64(AtomExtendedHeaderLength); i < total; i++ {
		data[i] = uint8(i & 0xFF)
	}
	return data
}

// The standard test stream: ftyp(24) + moov(100) + mdat(5000) and then
// the requested amount of trailing garbage. Logical size is 5124.
const standardStreamSize = 24 + 100 + 5000

func standardStream(garbage int, garbageByte byte) []byte {
	data := make([]byte, 0, standardStreamSize+garbage)
	data = append(data, atomBytes("ftyp", 24, binary.BigEndian)...)
	data = append(data, atomBytes("moov", 100, binary.BigEndian)...)
	data = append(data, atomBytes("mdat", 5000, binary.BigEndian)...)
	for i := 0; i < garbage; i++ {
		data = append(data, garbageByte)
	}
	return data
}

func newRandomFilepath(filename string) (string, error) {
	err := os.MkdirAll("ignore", 0770)
	if err != nil {
		return "", err
	}
	filename = time.Now().Format("20060102030405") + "_" + filename
	return filepath.Abs(filepath.Join("ignore", filename))
}
