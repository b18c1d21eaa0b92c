package cr3

import (
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// General tracking for an entire lua recovery script (user can touch
// arbitrary files relative to the script's working directory)
type RecoveryState struct {
	FileDirectory string
	Log           Logger
}

// Get full path to given file requested by user. The system has a way to set
// the "working directory" for the whole script, that's all
func (state *RecoveryState) FilePath(path string) string {
	if state.FileDirectory == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(state.FileDirectory, path)
}

// Add a function to the given lua state that actually tracks with our own state.
// Usually lua functions don't accept extra go parameters
func (state *RecoveryState) AddFunction(name string, f func(*lua.LState, *RecoveryState) int, L *lua.LState) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int { return f(L, state) }))
}

// Read walk/carve options out of an optional lua table argument, layered
// over the usual defaults
func pullWalkOptions(L *lua.LState, index int) *BatchOptions {
	var opts BatchOptions
	opts.ReasonableDefaults()
	if L.GetTop() >= index {
		if table, ok := L.Get(index).(*lua.LTable); ok {
			pullString(table, "lastatom", func(s string) { opts.LastAtom = s })
			pullString(table, "endian", func(s string) { opts.Endianness = s })
			pullInt(table, "bufsize", func(i int) { opts.BufferSize = i })
			pullBool(table, "checksum", func(b bool) { opts.Checksum = b })
		}
	}
	return &opts
}

// List every atom in the given file: atoms(path [, {endian=}]).
// Returns a table of {offset=, name=, size=} tables.
func luaAtoms(L *lua.LState, state *RecoveryState) int {
	path := state.FilePath(L.ToString(1))
	opts := pullWalkOptions(L, 2)
	order, err := ParseByteOrder(opts.Endianness)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	file, err := os.Open(path)
	if err != nil {
		L.RaiseError("Couldn't open file in lua script: %s", err)
		return 0
	}
	defer file.Close()
	atoms, err := ScanAtoms(file, order)
	if err != nil {
		L.RaiseError("Couldn't scan atoms: %s", err)
		return 0
	}
	var result lua.LTable
	for i, atom := range atoms {
		var atomtable lua.LTable
		atomtable.RawSetString("offset", lua.LNumber(atom.Offset))
		atomtable.RawSetString("name", lua.LString(atom.Tag.String()))
		atomtable.RawSetString("size", lua.LNumber(atom.Size))
		result.RawSetInt(i+1, &atomtable)
	}
	L.Push(&result)
	return 1
}

// Compute the logical file size: resolve(path [, {lastatom=, endian=}]).
// Returns 0 when the structure is invalid, same as the go api.
func luaResolve(L *lua.LState, state *RecoveryState) int {
	path := state.FilePath(L.ToString(1))
	opts := pullWalkOptions(L, 2)
	last, err := opts.LastTag()
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	order, err := ParseByteOrder(opts.Endianness)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	file, err := os.Open(path)
	if err != nil {
		L.RaiseError("Couldn't open file in lua script: %s", err)
		return 0
	}
	defer file.Close()
	size, _ := ResolveSize(file, last, order, state.Log)
	L.Push(lua.LNumber(size))
	return 1
}

// Copy an exact byte window into a new file:
// carve(src, dst, offset, size [, {bufsize=}]). Returns bytes written,
// raises on any failure.
func luaCarve(L *lua.LState, state *RecoveryState) int {
	src := state.FilePath(L.ToString(1))
	dst := state.FilePath(L.ToString(2))
	offset := L.ToInt64(3)
	size := L.ToInt64(4)
	opts := pullWalkOptions(L, 5)
	if _, err := os.Lstat(dst); err == nil {
		L.RaiseError("Destination already exists: %s", dst)
		return 0
	}
	file, err := os.Open(src)
	if err != nil {
		L.RaiseError("Couldn't open file in lua script: %s", err)
		return 0
	}
	defer file.Close()
	written, err := Carve(file, dst, offset, size, opts.BufferSize, state.Log)
	if err != nil {
		L.RaiseError("Couldn't carve %s: %s", dst, err)
		return 0
	}
	L.Push(lua.LNumber(written))
	return 1
}

// The whole pipeline for one file:
// restore(src, dst [, {lastatom=, endian=, bufsize=, checksum=}]).
// Returns bytes written (0 if the structure was invalid or the destination
// already exists) plus the output md5 when checksum is requested.
func luaRestore(L *lua.LState, state *RecoveryState) int {
	src := state.FilePath(L.ToString(1))
	dst := state.FilePath(L.ToString(2))
	opts := pullWalkOptions(L, 3)
	last, err := opts.LastTag()
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	order, err := ParseByteOrder(opts.Endianness)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	if _, err := os.Lstat(dst); err == nil {
		state.Log.Warnf("%s already exists: skipping save attempt.", dst)
		L.Push(lua.LNumber(0))
		return 1
	}
	file, err := os.Open(src)
	if err != nil {
		L.RaiseError("Couldn't open file in lua script: %s", err)
		return 0
	}
	defer file.Close()
	size, valid := ResolveSize(file, last, order, state.Log)
	if !valid {
		L.Push(lua.LNumber(0))
		return 1
	}
	written, err := Carve(file, dst, 0, size, opts.BufferSize, state.Log)
	if err != nil {
		L.RaiseError("Couldn't carve %s: %s", dst, err)
		return 0
	}
	L.Push(lua.LNumber(written))
	if opts.Checksum {
		hash, err := checksumFile(dst)
		if err != nil {
			L.RaiseError("Couldn't checksum %s: %s", dst, err)
			return 0
		}
		L.Push(lua.LString(hash))
		return 2
	}
	return 1
}

// Check whether a path exists: exists(path)
func luaExists(L *lua.LState, state *RecoveryState) int {
	path := state.FilePath(L.ToString(1))
	_, err := os.Lstat(path)
	L.Push(lua.LBool(err == nil))
	return 1
}

// Run a user recovery script against the cr3 api. Scripts get the domain
// functions (atoms/resolve/carve/restore/exists), the basic data helpers,
// and their command line arguments in a global 'arguments' table.
func RunLuaRecoveryScript(script string, arguments []string, dir string, log Logger) error {
	state := RecoveryState{
		FileDirectory: dir,
		Log:           log,
	}

	L := lua.NewState()
	defer L.Close()

	setBasicLuaFunctions(L)
	state.AddFunction("atoms", luaAtoms, L)
	state.AddFunction("resolve", luaResolve, L)
	state.AddFunction("carve", luaCarve, L)
	state.AddFunction("restore", luaRestore, L)
	state.AddFunction("exists", luaExists, L)

	var argtable lua.LTable
	for i, arg := range arguments {
		argtable.RawSetInt(i+1, lua.LString(arg))
	}
	L.SetGlobal("arguments", &argtable)

	return L.DoString(script)
}
