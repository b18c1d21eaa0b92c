package cr3

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

// Produce an md5 string from given data (a simple shortcut)
func Md5String(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// Produce an md5 string from a whole stream without buffering it
func Md5Stream(r io.Reader) (string, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Turn a user-facing endianness name into a byte order for header decoding
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "", "big":
		return binary.BigEndian, nil
	case "little":
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("Unknown endianness: %s (expected 'big' or 'little')", name)
}

// Write a standard 8-byte atom header. Used by the test-file generator;
// real files come off a camera, not out of this tool.
func WriteAtomHeader(w io.Writer, tag Tag, size uint32, order binary.ByteOrder) error {
	var hdr [AtomHeaderLength]byte
	order.PutUint32(hdr[:4], size)
	copy(hdr[4:8], tag[:])
	_, err := w.Write(hdr[:])
	return err
}
