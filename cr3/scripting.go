package cr3

// General lua scripting functions shared by recovery scripts.

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	lua "github.com/yuin/gopher-lua"
)

func pullString(table *lua.LTable, key string, done func(string)) bool {
	ttemp := table.RawGetString(key)
	tstring, ok := ttemp.(lua.LString)
	if ok {
		done(string(tstring))
	}
	return ok
}

func pullInt(table *lua.LTable, key string, done func(int)) bool {
	ttemp := table.RawGetString(key)
	tnum, ok := ttemp.(lua.LNumber)
	if ok {
		done(int(tnum))
	}
	return ok
}

func pullBool(table *lua.LTable, key string, done func(bool)) bool {
	ttemp := table.RawGetString(key)
	tbool, ok := ttemp.(lua.LBool)
	if ok {
		done(bool(tbool))
	}
	return ok
}

// Function for lua scripts that lets you parse hex
func luaHex(L *lua.LState) int {
	hexstring := L.ToString(1)
	bytes, err := hex.DecodeString(hexstring)
	if err != nil {
		L.RaiseError("Error decoding hex in lua script: %s", err)
		return 0
	}
	L.Push(lua.LString(string(bytes)))
	return 1
}

// Function for lua scripts that lets you parse base64
func luaBase64(L *lua.LState) int {
	b64string := L.ToString(1)
	bytes, err := base64.StdEncoding.DecodeString(b64string)
	if err != nil {
		L.RaiseError("Error decoding base64 in lua script: %s", err)
		return 0
	}
	L.Push(lua.LString(string(bytes)))
	return 1
}

// Simple function to decode a string into a lua table. Returns the table.
// Raises script error on any error.
func luaJson(L *lua.LState) int {
	str := L.ToString(1)
	var value interface{}
	err := json.Unmarshal([]byte(str), &value)
	if err != nil {
		L.RaiseError("Couldn't parse json: %s", err)
		return 0
	}
	L.Push(luaDecodeValue(L, value))
	return 1
}

// Simple function to decode a toml string into a lua table. Returns the table.
func luaToml(L *lua.LState) int {
	str := L.ToString(1)
	var value interface{}
	err := toml.Unmarshal([]byte(str), &value)
	if err != nil {
		L.RaiseError("Couldn't parse toml: %s", err)
		return 0
	}
	L.Push(luaDecodeValue(L, value))
	return 1
}

// DecodeValue converts the value to a Lua value.
// Taken from https://github.com/layeh/gopher-json
// This function only converts values that the encoding/json package decodes to.
// All other values will return lua.LNil.
func luaDecodeValue(L *lua.LState, value interface{}) lua.LValue {
	switch converted := value.(type) {
	case bool:
		return lua.LBool(converted)
	case float64:
		return lua.LNumber(converted)
	case int64: // NOTE: wasn't needed for json, needed for toml
		return lua.LNumber(converted)
	case string:
		return lua.LString(converted)
	case json.Number:
		return lua.LString(converted)
	case []interface{}:
		arr := L.CreateTable(len(converted), 0)
		for _, item := range converted {
			arr.Append(luaDecodeValue(L, item))
		}
		return arr
	case map[string]interface{}:
		tbl := L.CreateTable(0, len(converted))
		for key, item := range converted {
			tbl.RawSetH(lua.LString(key), luaDecodeValue(L, item))
		}
		return tbl
	case nil:
		return lua.LNil
	}

	return lua.LNil
}

// Get basic info about the entries in a directory, in "filesystem" order
func luaListDir(L *lua.LState) int {
	path := L.ToString(1)
	entries, err := os.ReadDir(path)
	if err != nil {
		L.RaiseError("Couldn't read directory: %s", err)
		return 0
	}
	var result lua.LTable
	for i, entry := range entries {
		var entrytable lua.LTable
		name := entry.Name()
		thispath := filepath.Join(path, name)
		fullpath, err := filepath.Abs(thispath)
		if err != nil {
			L.RaiseError("Couldn't get abs path of %s: %s", thispath, err)
			return 0
		}
		entrytable.RawSetString("name", lua.LString(name))
		entrytable.RawSetString("path", lua.LString(fullpath))
		entrytable.RawSetString("is_directory", lua.LBool(entry.IsDir()))
		result.RawSetInt(i+1, &entrytable)
	}
	L.Push(&result)
	return 1
}

func setBasicLuaFunctions(L *lua.LState) {
	L.SetGlobal("hex", L.NewFunction(luaHex))
	L.SetGlobal("base64", L.NewFunction(luaBase64))
	L.SetGlobal("json", L.NewFunction(luaJson))
	L.SetGlobal("toml", L.NewFunction(luaToml))
	L.SetGlobal("listdir", L.NewFunction(luaListDir))
}
