package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/randomouscrap98/cr3gotools/cr3"
)

const (
	AppVersion = "0.1.0"
)

// Quick way to fail on error, since most commands are "doing" something on
// behalf of something else.
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}

func forceOpen(fp string) (*os.File, os.FileInfo) {
	f, err := os.Open(fp)
	fatalIfErr(fp, "open read file", err)
	fi, err := f.Stat()
	fatalIfErr(fp, "stat read file", err)
	return f, fi
}

// Turn the usual lastatom/endianness flags into domain values
func walkSettings(lastatom string, endianness string) (cr3.Tag, binary.ByteOrder, error) {
	last, err := cr3.MakeTag(lastatom)
	if err != nil {
		return last, nil, err
	}
	order, err := cr3.ParseByteOrder(endianness)
	return last, order, err
}

// **********************************
// *      INSPECTION COMMANDS       *
// **********************************

// Atoms command: list every parseable atom in a file
type AtomsCmd struct {
	Infile     string `arg:"" type:"existingfile" help:"The file to walk"`
	Endianness string `default:"big" enum:"big,little" help:"Byte order of atom size fields"`
}

func (c *AtomsCmd) Run(logger cr3.Logger) error {
	order, err := cr3.ParseByteOrder(c.Endianness)
	fatalIfErr(c.Infile, "parse endianness", err)
	file, fi := forceOpen(c.Infile)
	defer file.Close()
	atoms, err := cr3.ScanAtoms(file, order)
	fatalIfErr(c.Infile, "scan atoms", err)
	log.Printf("Found %d atoms in %s\n", len(atoms), c.Infile)
	result := make(map[string]interface{})
	result["Filename"] = c.Infile
	result["FileLength"] = fi.Size()
	result["Atoms"] = atoms
	PrintJson(result)
	return nil
}

// Resolve command: compute the logical size without writing anything
type ResolveCmd struct {
	Infile     string `arg:"" type:"existingfile" help:"The file to measure"`
	Lastatom   string `default:"mdat" help:"Name of the last atom to include"`
	Endianness string `default:"big" enum:"big,little" help:"Byte order of atom size fields"`
}

func (c *ResolveCmd) Run(logger cr3.Logger) error {
	last, order, err := walkSettings(c.Lastatom, c.Endianness)
	fatalIfErr(c.Infile, "parse walk settings", err)
	file, fi := forceOpen(c.Infile)
	defer file.Close()
	size, valid := cr3.ResolveSize(file, last, order, logger)
	result := make(map[string]interface{})
	result["Filename"] = c.Infile
	result["FileLength"] = fi.Size()
	result["Valid"] = valid
	result["Size"] = size
	if valid {
		result["Excess"] = fi.Size() - size
	}
	PrintJson(result)
	return nil
}

// **********************************
// *        CARVE COMMANDS          *
// **********************************

// Carve command: resolve + carve a single file
type CarveCmd struct {
	Infile     string `arg:"" type:"existingfile" help:"The damaged file to fix"`
	Outfile    string `arg:"" optional:"" type:"path" help:"Where to write the fixed file"`
	Lastatom   string `default:"mdat" help:"Name of the last atom to include"`
	Endianness string `default:"big" enum:"big,little" help:"Byte order of atom size fields"`
	Bufsize    int    `help:"Copy buffer size in bytes"`
	Checksum   bool   `help:"Report an md5 of the carved output"`
}

func (c *CarveCmd) Run(logger cr3.Logger) error {
	if c.Outfile == "" {
		c.Outfile = fmt.Sprintf("carved_%s.cr3", FileSafeDateTime())
	}
	last, order, err := walkSettings(c.Lastatom, c.Endianness)
	fatalIfErr(c.Infile, "parse walk settings", err)
	if _, err := os.Lstat(c.Outfile); err == nil {
		log.Fatalf("Output file already exists: %s", c.Outfile)
	}
	file, fi := forceOpen(c.Infile)
	defer file.Close()
	size, valid := cr3.ResolveSize(file, last, order, logger)
	if !valid {
		log.Fatalf("%s doesn't have a valid atom structure, refusing to carve", c.Infile)
	}
	written, err := cr3.Carve(file, c.Outfile, 0, size, c.Bufsize, logger)
	fatalIfErr(c.Outfile, "carve file", err)
	log.Printf("Wrote %d bytes to %s\n", written, c.Outfile)
	result := make(map[string]interface{})
	result["Filename"] = c.Infile
	result["Outfile"] = c.Outfile
	result["FileLength"] = fi.Size()
	result["Size"] = size
	result["Written"] = written
	if c.Checksum {
		out, _ := forceOpen(c.Outfile)
		defer out.Close()
		hash, err := cr3.Md5Stream(out)
		fatalIfErr(c.Outfile, "checksum output", err)
		result["MD5"] = hash
	}
	PrintJson(result)
	return nil
}

// Batch command: the original fixer loop over a whole directory
type BatchCmd struct {
	Indir      string `arg:"" type:"existingdir" help:"Directory of damaged files"`
	Outdir     string `arg:"" type:"path" help:"Directory to write fixed files into"`
	Lastatom   string `help:"Name of the last atom to include"`
	Endianness string `help:"Byte order of atom size fields (big or little)"`
	Bufsize    int    `help:"Copy buffer size in bytes"`
	Checksum   bool   `help:"Report an md5 per carved output"`
	Config     string `type:"existingfile" help:"Toml file with batch defaults"`
}

func (c *BatchCmd) Run(logger cr3.Logger) error {
	opts := &cr3.BatchOptions{}
	if c.Config != "" {
		var err error
		opts, err = cr3.LoadBatchOptions(c.Config)
		fatalIfErr(c.Config, "load config", err)
	}
	// Explicit flags beat the config file
	if c.Lastatom != "" {
		opts.LastAtom = c.Lastatom
	}
	if c.Endianness != "" {
		opts.Endianness = c.Endianness
	}
	if c.Bufsize > 0 {
		opts.BufferSize = c.Bufsize
	}
	if c.Checksum {
		opts.Checksum = true
	}
	result, err := cr3.ProcessDirectory(c.Indir, c.Outdir, opts, logger)
	fatalIfErr(c.Indir, "process directory", err)
	PrintJson(result)
	return nil
}

// **********************************
// *       SCRIPT COMMANDS          *
// **********************************

// Script command: run a lua recovery script against the cr3 api
type ScriptCmd struct {
	Infile string   `arg:"" default:"recover.lua" help:"The recovery script to run"`
	Dir    string   `type:"path" short:"d" help:"Working directory for files the script touches"`
	Args   []string `arg:"" optional:"" help:"Arguments passed to the script"`
}

func (c *ScriptCmd) Run(logger cr3.Logger) error {
	script, err := os.ReadFile(c.Infile)
	fatalIfErr(c.Infile, "read script file", err)
	err = cr3.RunLuaRecoveryScript(string(script), c.Args, c.Dir, logger)
	fatalIfErr(c.Infile, "run recovery script", err)
	log.Printf("Script %s completed\n", c.Infile)
	return nil
}

// **********************************
// *    ALL TOGETHER COMMANDS       *
// **********************************

var cli struct {
	Atoms   AtomsCmd         `cmd:"" help:"List every atom (offset, name, size) found in a file"`
	Resolve ResolveCmd       `cmd:"" help:"Compute the true logical size of a file from its atom structure"`
	Carve   CarveCmd         `cmd:"" help:"Fix a single file by carving exactly its logical size"`
	Batch   BatchCmd         `cmd:"" help:"Fix every file in a directory (skips outputs that already exist)"`
	Script  ScriptCmd        `cmd:"" help:"Run a lua recovery script for unusual cases"`
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("cr3gotools"),
		kong.ShortUsageOnError(),
		kong.Description("Tools for fixing truncated or over-long Canon CR3 files by walking their atom structure"),
		kong.Vars{
			"version": AppVersion,
		},
	)
	logger := cr3.StandardLogger(cli.Verbose)
	ctx.BindTo(logger, (*cr3.Logger)(nil))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
