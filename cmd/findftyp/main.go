package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

const magicString = "ftyp"
const sizeFieldLength = 4

// Scan a damaged blob for ftyp box signatures. Every hit is a candidate
// container start (the box size field sits right before the tag), which
// you can then feed to cr3gotools as an offset.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: go run main.go <filename>")
		return
	}

	filename := os.Args[1]
	file, err := os.Open(filename)
	if err != nil {
		fmt.Println("Error opening file:", err)
		return
	}
	defer file.Close()

	magic := []byte(magicString)
	reader := bufio.NewReader(file)

	// Keep a window of the last few bytes so a tag split across reads
	// still matches
	window := make([]byte, 0, 64*1024)
	offset := 0
	found := 0
	chunk := make([]byte, 64*1024)
	for {
		bytesRead, err := reader.Read(chunk)
		if bytesRead > 0 {
			window = append(window, chunk[:bytesRead]...)
			search := 0
			for {
				hit := bytes.Index(window[search:], magic)
				if hit < 0 {
					break
				}
				tagAt := offset + search + hit
				if tagAt >= sizeFieldLength {
					fmt.Printf("Candidate container start at offset %d (tag at %d)\n",
						tagAt-sizeFieldLength, tagAt)
					found++
				}
				search += hit + 1
			}
			// Drop everything except the tail that could still begin a match
			keep := len(magic) - 1
			if len(window) > keep {
				offset += len(window) - keep
				window = append(window[:0], window[len(window)-keep:]...)
			}
		}
		if err != nil {
			break
		}
	}

	fmt.Printf("Found %d candidate ftyp signatures in '%s'\n", found, filename)
}
