package cr3

import (
	"encoding/binary"
	"io"
)

// ResolveSize computes the true logical length of a CR3 (or other BMFF)
// stream by summing atom sizes from the stream's current position up to and
// including the atom whose tag matches last. Returns (0, false) if the
// structure is invalid: the first atom must be ftyp, and the terminating
// atom must actually appear before the parseable headers run out. Which of
// the two happened only shows up in the log; callers just get the collapsed
// signal.
//
// The stream position is restored to the entry position on every return
// path, so a failed resolve can be retried with different parameters
// without reopening the stream.
func ResolveSize(rs io.ReadSeeker, last Tag, order binary.ByteOrder, log Logger) (int64, bool) {
	entry, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		log.Errorf("Couldn't read stream position: %s", err)
		return 0, false
	}
	defer func() {
		// Rewind regardless of outcome; nothing to do if even this fails
		if _, err := rs.Seek(entry, io.SeekStart); err != nil {
			log.Errorf("Couldn't restore stream position: %s", err)
		}
	}()

	scanner, err := NewAtomScanner(rs, order)
	if err != nil {
		log.Errorf("Couldn't start atom scan: %s", err)
		return 0, false
	}

	var total int64
	index := 0
	for scanner.Next() {
		atom := scanner.Atom()
		if index == 0 && atom.Tag != TagFtyp {
			log.Errorf("Invalid start atom: %s. Expected %s", atom.Tag, TagFtyp)
			return 0, false
		}
		total += atom.Size
		log.Debugf("Atom index=%d, name=%s, size=%d", index, atom.Tag, atom.Size)
		if atom.Tag == last {
			log.Infof("Termination atom '%s' reached. Logical size found: %d B", atom.Tag, total)
			return total, true
		}
		index++
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("Atom scan failed: %s", err)
	} else {
		log.Warnf("Stream ended before reaching termination atom '%s'. Returning 0.", last)
	}
	return 0, false
}
