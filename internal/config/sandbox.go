package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM strips everything that reaches outside the VM: os, io, module
// loading and the debug library. string, table and math stay available.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os",
		"io",
		"require",
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"debug",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a new Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
