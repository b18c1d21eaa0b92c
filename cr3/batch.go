package cr3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Per-file classification for batch processing. No outcome aborts the
// batch; every file gets exactly one of these.
const (
	OutcomeCarved        = "carved"
	OutcomeSkippedExists = "skipped-exists"
	OutcomeInvalid       = "invalid-structure"
	OutcomeIncomplete    = "incomplete-copy"
	OutcomeIOError       = "io-error"
)

type FileResult struct {
	Name    string
	Outcome string
	Size    int64  `json:",omitempty"` // Resolved logical size
	Written int64  `json:",omitempty"` // Bytes actually written
	MD5     string `json:",omitempty"`
	Error   string `json:",omitempty"`
}

type BatchResult struct {
	InputDir  string
	OutputDir string
	Carved    int
	Files     []FileResult
}

// ProcessDirectory runs the resolve+carve pipeline over every regular file
// in inDir, writing fixed files under outDir with the same base names.
// Files whose output already exists are skipped, so a rerun never
// overwrites earlier results. Per-file failures are recorded and the batch
// moves on; only environment problems (unreadable input dir, uncreatable
// output dir, bad options) return an error.
func ProcessDirectory(inDir string, outDir string, opts *BatchOptions, log Logger) (*BatchResult, error) {
	opts.ReasonableDefaults()
	last, err := opts.LastTag()
	if err != nil {
		return nil, err
	}
	order, err := ParseByteOrder(opts.Endianness)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read input directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("Couldn't create output directory: %w", err)
	}

	result := BatchResult{InputDir: inDir, OutputDir: outDir}
	log.Infof("Analyzing files in input directory: %s", inDir)

	for _, entry := range entries {
		name := entry.Name()
		info, err := entry.Info()
		if err != nil {
			result.Files = append(result.Files, FileResult{Name: name, Outcome: OutcomeIOError, Error: err.Error()})
			continue
		}
		if !info.Mode().IsRegular() {
			log.Debugf("Skipping non-file object: %s", name)
			continue
		}
		outPath := filepath.Join(outDir, name)
		if _, err := os.Lstat(outPath); err == nil {
			log.Warnf("Output file already exists: %s. Skipping.", name)
			result.Files = append(result.Files, FileResult{Name: name, Outcome: OutcomeSkippedExists})
			continue
		}

		log.Infof("--- Processing %s ---", name)
		fr := processFile(filepath.Join(inDir, name), outPath, last, order, opts, log)
		fr.Name = name
		if fr.Outcome == OutcomeCarved {
			result.Carved++
		}
		result.Files = append(result.Files, fr)
	}

	log.Infof("--- Batch Processing Complete. %d files successfully saved. ---", result.Carved)
	return &result, nil
}

func processFile(inPath string, outPath string, last Tag, order binary.ByteOrder, opts *BatchOptions, log Logger) FileResult {
	infile, err := os.Open(inPath)
	if err != nil {
		return FileResult{Outcome: OutcomeIOError, Error: err.Error()}
	}
	defer infile.Close()

	size, valid := ResolveSize(infile, last, order, log)
	if !valid {
		log.Errorf("Failed to determine a valid CR3 structure and size for %s. File not saved.", filepath.Base(inPath))
		return FileResult{Outcome: OutcomeInvalid}
	}

	log.Infof("Saving %s, calculated size %d B", filepath.Base(outPath), size)
	written, err := Carve(infile, outPath, 0, size, opts.BufferSize, log)
	if err != nil {
		var ice *IncompleteCopyError
		if errors.As(err, &ice) {
			log.Errorf("Incomplete save for %s. Saved only %d bytes.", filepath.Base(outPath), ice.Written)
			return FileResult{Outcome: OutcomeIncomplete, Size: size, Written: ice.Written, Error: err.Error()}
		}
		return FileResult{Outcome: OutcomeIOError, Size: size, Written: written, Error: err.Error()}
	}

	fr := FileResult{Outcome: OutcomeCarved, Size: size, Written: written}
	if opts.Checksum {
		if hash, err := checksumFile(outPath); err != nil {
			log.Warnf("Couldn't checksum %s: %s", outPath, err)
		} else {
			fr.MD5 = hash
		}
	}
	log.Infof("[SUCCESS] File successfully fixed and saved to %s", filepath.Base(outPath))
	return fr
}

func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return Md5Stream(file)
}
