package cr3

import (
	"fmt"
	"io"
	"os"
)

const (
	MB = 1024 * 1024

	// Copy buffer for carving. Bounds memory use no matter how large the
	// computed size is.
	DefaultCarveBuffer = 8 * MB

	// Suffix for the temp file a carve writes before committing
	CarveTempSuffix = ".tmp"
)

// The source stream ran dry before the full carve size was copied. The
// temp file has already been discarded when this is returned.
type IncompleteCopyError struct {
	Expected int64
	Written  int64
}

func (e *IncompleteCopyError) Error() string {
	return fmt.Sprintf("Premature EOF: wrote %d of %d bytes", e.Written, e.Expected)
}

// Carve copies exactly size bytes from src starting at offset into a new
// file at dstPath. The bytes go to dstPath + ".tmp" first and are renamed
// into place only once the full size has been written, so dstPath is
// either absent or complete; there is no state in between. Returns the
// number of bytes actually written.
//
// The caller is expected to have checked that dstPath does not exist. The
// temp file itself is opened exclusively, so two carves racing on the same
// destination can't silently interleave.
func Carve(src io.ReadSeeker, dstPath string, offset int64, size int64, bufsize int, log Logger) (int64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("Carve size must be positive, got %d", size)
	}
	if bufsize <= 0 {
		bufsize = DefaultCarveBuffer
	}
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("Couldn't seek to carve offset %d: %w", offset, err)
	}

	tmpPath := dstPath + CarveTempSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("Couldn't create temp file: %w", err)
	}

	buf := make([]byte, bufsize)
	remaining := size
	var copyErr error
	for remaining > 0 {
		k := int64(len(buf))
		if remaining < k {
			k = remaining
		}
		n, err := src.Read(buf[:k])
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				copyErr = fmt.Errorf("Couldn't write temp file: %w", werr)
				break
			}
			remaining -= int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			copyErr = fmt.Errorf("Couldn't read source: %w", err)
			break
		}
		if n == 0 {
			// Read made no progress without an error; same as EOF here
			break
		}
	}

	written := size - remaining
	if cerr := tmp.Close(); cerr != nil && copyErr == nil {
		copyErr = fmt.Errorf("Couldn't close temp file: %w", cerr)
	}

	if copyErr == nil && remaining == 0 {
		// The single commit point: everything before this leaves dstPath alone
		if err := os.Rename(tmpPath, dstPath); err != nil {
			discardTemp(tmpPath, log)
			return written, fmt.Errorf("Couldn't rename temp file into place: %w", err)
		}
		return written, nil
	}

	discardTemp(tmpPath, log)
	if copyErr != nil {
		return written, copyErr
	}
	log.Errorf("Premature EOF encountered while reading %d B for %s", size, dstPath)
	return written, &IncompleteCopyError{Expected: size, Written: written}
}

// Best-effort temp cleanup; a failure here is logged but never allowed to
// mask whatever went wrong first
func discardTemp(tmpPath string, log Logger) {
	if err := os.Remove(tmpPath); err != nil {
		log.Errorf("Couldn't remove temp file %s: %s", tmpPath, err)
	}
}
