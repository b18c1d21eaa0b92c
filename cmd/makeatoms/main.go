package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/randomouscrap98/cr3gotools/cr3"
)

// Generate a synthetic atom stream for testing: a small ftyp, a moov, an
// mdat of the requested payload size, then trailing garbage that a correct
// carve must exclude.
func main() {
	if len(os.Args) != 4 {
		fmt.Println("Usage: go run main.go <filename> <mdatsize> <garbage>")
		return
	}

	mdatSize, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Println("Error: can't parse mdat size: ", err)
		return
	}
	garbage, err := strconv.Atoi(os.Args[3])
	if err != nil {
		fmt.Println("Error: can't parse garbage length: ", err)
		return
	}

	filename := os.Args[1]
	file, err := os.Create(filename)
	if err != nil {
		fmt.Println("Error opening file:", err)
		return
	}
	defer file.Close()

	writeAtom := func(name string, payload int) {
		tag, err := cr3.MakeTag(name)
		if err != nil {
			fmt.Println("Error making tag: ", err)
			os.Exit(1)
		}
		err = cr3.WriteAtomHeader(file, tag, uint32(cr3.AtomHeaderLength+payload), binary.BigEndian)
		if err != nil {
			fmt.Println("Error writing file: ", err)
			os.Exit(1)
		}
		// Very obvious payload data: constantly increasing values
		data := make([]byte, payload)
		for i := 0; i < payload; i++ {
			data[i] = uint8(i & 0xFF)
		}
		if _, err := file.Write(data); err != nil {
			fmt.Println("Error writing file: ", err)
			os.Exit(1)
		}
	}

	writeAtom("ftyp", 16)
	writeAtom("moov", 92)
	writeAtom("mdat", mdatSize)

	junk := make([]byte, garbage)
	for i := 0; i < garbage; i++ {
		junk[i] = 0xEE
	}
	if _, err := file.Write(junk); err != nil {
		fmt.Println("Error writing file: ", err)
		return
	}

	fmt.Println("Wrote file ", filename)
}
