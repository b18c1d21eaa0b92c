package cr3

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Settings shared by batch processing and the single-file commands. Loaded
// from a toml file, with flags layered on top by the cli.
type BatchOptions struct {
	LastAtom   string `toml:"lastatom"`   // Name of the final atom to include (the termination tag)
	Endianness string `toml:"endianness"` // "big" or "little" for header size fields
	BufferSize int    `toml:"bufsize"`    // Carve copy buffer in bytes
	Checksum   bool   `toml:"checksum"`   // Compute an md5 of each carved output
}

func (o *BatchOptions) ReasonableDefaults() {
	if o.LastAtom == "" {
		o.LastAtom = TagMdat.String()
	}
	if o.Endianness == "" {
		o.Endianness = "big"
	}
	if o.BufferSize == 0 {
		o.BufferSize = DefaultCarveBuffer
	}
}

// The termination tag as actual bytes, validating its length
func (o *BatchOptions) LastTag() (Tag, error) {
	return MakeTag(o.LastAtom)
}

// Read batch options from a toml file. Missing fields keep their zero
// value so ReasonableDefaults and cli overrides still apply.
func LoadBatchOptions(path string) (*BatchOptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var options BatchOptions
	if err := toml.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("Couldn't parse config %s: %w", path, err)
	}
	return &options, nil
}
