package cr3

import (
	"os"
	"testing"
)

func TestLoadBatchOptions(t *testing.T) {
	raw := "lastatom = \"moov\"\nendianness = \"little\"\nbufsize = 4096\nchecksum = true\n"
	path, err := newRandomFilepath("options.toml")
	if err != nil {
		t.Fatalf("Error making config path: %s", err)
	}
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("Error writing config: %s", err)
	}
	opts, err := LoadBatchOptions(path)
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	if opts.LastAtom != "moov" {
		t.Fatalf("Expected lastatom moov, got %s", opts.LastAtom)
	}
	if opts.Endianness != "little" {
		t.Fatalf("Expected endianness little, got %s", opts.Endianness)
	}
	if opts.BufferSize != 4096 {
		t.Fatalf("Expected bufsize 4096, got %d", opts.BufferSize)
	}
	if !opts.Checksum {
		t.Fatalf("Expected checksum true")
	}
}

func TestLoadBatchOptions_PartialFile(t *testing.T) {
	raw := "lastatom = \"uuid\"\n"
	path, err := newRandomFilepath("options_partial.toml")
	if err != nil {
		t.Fatalf("Error making config path: %s", err)
	}
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("Error writing config: %s", err)
	}
	opts, err := LoadBatchOptions(path)
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	opts.ReasonableDefaults()
	if opts.LastAtom != "uuid" {
		t.Fatalf("Expected lastatom uuid, got %s", opts.LastAtom)
	}
	if opts.Endianness != "big" {
		t.Fatalf("Expected default endianness big, got %s", opts.Endianness)
	}
	if opts.BufferSize != DefaultCarveBuffer {
		t.Fatalf("Expected default buffer %d, got %d", DefaultCarveBuffer, opts.BufferSize)
	}
}

func TestLoadBatchOptions_Missing(t *testing.T) {
	_, err := LoadBatchOptions("this/does/not/exist.toml")
	if err == nil {
		t.Fatalf("Expected an error for a missing config file")
	}
}

func TestBatchOptions_LastTag(t *testing.T) {
	opts := BatchOptions{LastAtom: "mdat"}
	tag, err := opts.LastTag()
	if err != nil {
		t.Fatalf("Error making tag: %s", err)
	}
	if tag != TagMdat {
		t.Fatalf("Expected mdat tag, got %s", tag)
	}
	opts.LastAtom = "toolong"
	if _, err := opts.LastTag(); err == nil {
		t.Fatalf("Expected an error for an oversized tag")
	}
}
