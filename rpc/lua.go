package rpc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	lua "github.com/yuin/gopher-lua"
)

const defaultLuaTimeout = time.Second

// LuaHandler runs the Lua chunk given as the first argument and returns the
// chunk's last return value. Remaining arguments are available to the chunk
// as the global table args. Only the base, table, string and math libraries
// are loaded. Errors are returned as {"error": message}.
type LuaHandler struct {
	Timeout time.Duration
}

func (h LuaHandler) Call(args []interface{}) interface{} {
	if len(args) == 0 {
		return luaError(fmt.Errorf("missing source"))
	}
	src, ok := args[0].(string)
	if !ok {
		return luaError(fmt.Errorf("source is not a string: %v", args[0]))
	}
	result, err := h.Run(src, args[1:]...)
	if err != nil {
		return luaError(err)
	}
	return result
}

// Run evaluates src and converts its last return value to Go values.
func (h LuaHandler) Run(src string, args ...interface{}) (interface{}, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultLuaTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if err := openLibs(L); err != nil {
		return nil, err
	}
	L.SetContext(ctx)

	params := L.NewTable()
	for _, arg := range args {
		params.Append(toLua(L, arg))
	}
	L.SetGlobal("args", params)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}
	if L.GetTop() == 0 {
		return nil, nil
	}
	return fromLua(L.Get(-1)), nil
}

func openLibs(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("lua: open %s: %w", lib.name, err)
		}
	}
	// the base library can reach the file system
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

func luaError(err error) interface{} {
	return map[string]interface{}{"error": err.Error()}
}

func toLua(L *lua.LState, v interface{}) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case float64:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []interface{}:
		t := L.NewTable()
		for _, e := range v {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]interface{}:
		t := L.NewTable()
		for k, e := range v {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// fromLua converts a Lua value to the types encoding/json produces. Tables
// that form a sequence become slices, other tables become maps with string
// keys.
func fromLua(v lua.LValue) interface{} {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 && isSequence(v, n) {
			list := make([]interface{}, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, fromLua(v.RawGetInt(i)))
			}
			return list
		}
		m := make(map[string]interface{})
		v.ForEach(func(key, val lua.LValue) {
			m[tableKey(key)] = fromLua(val)
		})
		return m
	default:
		return nil
	}
}

func isSequence(t *lua.LTable, n int) bool {
	count := 0
	sequence := true
	t.ForEach(func(key, _ lua.LValue) {
		count++
		num, ok := key.(lua.LNumber)
		if !ok || float64(num) != math.Trunc(float64(num)) || int(num) < 1 || int(num) > n {
			sequence = false
		}
	})
	return sequence && count == n
}

func tableKey(key lua.LValue) string {
	if num, ok := key.(lua.LNumber); ok {
		return strconv.FormatFloat(float64(num), 'f', -1, 64)
	}
	return key.String()
}
