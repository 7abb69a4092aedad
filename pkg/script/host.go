package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/scripthost/pkg/framework/param"
	"github.com/justyntemme/scripthost/pkg/framework/paramsync"
)

// installHostModule exposes the host table to the script. Every function
// runs with e.mu held by Load or Tick.
func (e *Engine) installHostModule(L *lua.LState) {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"declare":     e.luaDeclare,
		"get":         e.luaGet,
		"set":         e.luaSet,
		"set_range":   e.luaSetRange,
		"count":       e.luaCount,
		"sample_rate": e.luaSampleRate,
		"elapsed":     e.luaElapsed,
		"log":         e.luaLog,
	})
	L.SetGlobal("host", mod)
}

// host.declare{name=, min=, max=, default=, step=, unit=} -> index (1-based)
func (e *Engine) luaDeclare(L *lua.LState) int {
	tbl := L.CheckTable(1)
	if !e.loading {
		e.failure = ErrDeclareAfterLoad
		L.RaiseError("declare %v outside loading", tbl.RawGetString("name"))
		return 0
	}

	name, ok := tbl.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		L.ArgError(1, "name must be a non-empty string")
		return 0
	}
	if _, dup := e.index[string(name)]; dup {
		L.RaiseError("parameter %q declared twice", string(name))
		return 0
	}
	if len(e.decls) >= paramsync.MaxParameters {
		e.failure = ErrTooManyParameters
		L.RaiseError("limit is %d", paramsync.MaxParameters)
		return 0
	}

	d := Declaration{
		Name: string(name),
		Range: param.Range{
			Min:  numberField(L, tbl, "min", 0),
			Max:  numberField(L, tbl, "max", 1),
			Step: numberField(L, tbl, "step", 0),
		},
	}
	if unit, ok := tbl.RawGetString("unit").(lua.LString); ok {
		d.Unit = string(unit)
	}
	if d.Range.Min > d.Range.Max {
		L.RaiseError("parameter %q: min %g is greater than max %g", d.Name, d.Range.Min, d.Range.Max)
		return 0
	}
	d.Default = numberField(L, tbl, "default", d.Range.Min)

	e.index[d.Name] = len(e.decls)
	e.decls = append(e.decls, d)
	L.Push(lua.LNumber(len(e.decls)))
	return 1
}

func numberField(L *lua.LState, tbl *lua.LTable, key string, def float64) float64 {
	v := tbl.RawGetString(key)
	if v == lua.LNil {
		return def
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		L.ArgError(1, fmt.Sprintf("%s must be a number", key))
		return def
	}
	f := float64(n)
	if !isFinite(f) {
		L.ArgError(1, fmt.Sprintf("%s must be finite", key))
		return def
	}
	return f
}

// checkFinite is CheckNumber that also rejects NaN and infinities.
func checkFinite(L *lua.LState, n int) float64 {
	f := float64(L.CheckNumber(n))
	if !isFinite(f) {
		L.ArgError(n, "number must be finite")
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// resolve turns a name or 1-based index argument into a 0-based index.
func (e *Engine) resolve(L *lua.LState, n int) int {
	switch ref := L.CheckAny(n).(type) {
	case lua.LNumber:
		i := int(ref) - 1
		if i < 0 || i >= len(e.decls) {
			L.ArgError(n, fmt.Sprintf("no parameter at index %d", int(ref)))
			return -1
		}
		return i
	case lua.LString:
		i, ok := e.index[string(ref)]
		if !ok {
			L.ArgError(n, fmt.Sprintf("no parameter named %q", string(ref)))
			return -1
		}
		return i
	}
	L.ArgError(n, "expected parameter name or index")
	return -1
}

// host.get(ref) -> native value
func (e *Engine) luaGet(L *lua.LState) int {
	i := e.resolve(L, 1)
	if e.loading {
		L.Push(lua.LNumber(e.decls[i].Default))
		return 1
	}
	L.Push(lua.LNumber(math.Float64frombits(e.slots[i].value.Load())))
	return 1
}

// host.set(ref, value)
func (e *Engine) luaSet(L *lua.LState) int {
	i := e.resolve(L, 1)
	v := checkFinite(L, 2)
	if e.loading {
		e.decls[i].Default = v
		return 0
	}
	e.slots[i].value.Store(math.Float64bits(v))
	return 0
}

// host.set_range(ref, min, max[, step])
//
// Only the script side sees the new range. Host parameters keep the range
// declared at load until the script is reloaded.
func (e *Engine) luaSetRange(L *lua.LState) int {
	i := e.resolve(L, 1)
	min := checkFinite(L, 2)
	max := checkFinite(L, 3)
	if min > max {
		L.ArgError(2, "min is greater than max")
		return 0
	}
	step := e.decls[i].Range.Step
	if L.GetTop() >= 4 {
		step = checkFinite(L, 4)
	}

	r := param.Range{Min: min, Max: max, Step: step}
	e.decls[i].Range = r
	if !e.loading {
		e.slots[i].rng.Store(&r)
	}
	return 0
}

func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(len(e.decls)))
	return 1
}

func (e *Engine) luaSampleRate(L *lua.LState) int {
	L.Push(lua.LNumber(e.SampleRate()))
	return 1
}

func (e *Engine) luaElapsed(L *lua.LState) int {
	L.Push(lua.LNumber(e.elapsed.Seconds()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1), "script", e.name)
	return 0
}
