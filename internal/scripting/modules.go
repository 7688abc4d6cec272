package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicecalc/internal/game/damage"
	"github.com/cory-johannsen/dicecalc/internal/game/expression"
	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// RegisterModules registers the formula and log Lua tables into L.
//
// formula.roll(text[, subs])          -> number | nil, message
// formula.check(text[, subs])         -> true | false, message
// formula.fill(text[, index])         -> string
// formula.damage(yaml[, index])       -> total, {type = total} | nil, message
// formula.damage_text(yaml[, unify[, index]]) -> string | nil, message
// log.debug|info|warn|error(message)
//
// subs maps names to formula text or numbers; index maps names to numbers.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: formula and log globals are defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	L.SetGlobal("formula", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll":        m.luaRoll,
		"check":       m.luaCheck,
		"fill":        m.luaFill,
		"damage":      m.luaDamage,
		"damage_text": m.luaDamageText,
	}))

	logFn := func(write func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			write(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetGlobal("log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": logFn(m.logger.Debug),
		"info":  logFn(m.logger.Info),
		"warn":  logFn(m.logger.Warn),
		"error": logFn(m.logger.Error),
	}))
}

func (m *Manager) luaRoll(L *lua.LState) int {
	text := L.CheckString(1)
	r, err := m.roller.Roll(text, substitutionTable(L, 2))
	if err != nil {
		return failure(L, err)
	}
	L.Push(lua.LNumber(r.Result))
	return 1
}

func (m *Manager) luaCheck(L *lua.LState) int {
	if _, err := expression.Parse(L.CheckString(1), substitutionTable(L, 2)); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaFill(L *lua.LState) int {
	L.Push(lua.LString(formula.Fill(L.CheckString(1), substitutionIndex(L, 2))))
	return 1
}

func (m *Manager) luaDamage(L *lua.LState) int {
	s, err := damage.ParseFormula([]byte(L.CheckString(1)))
	if err != nil {
		return failure(L, err)
	}
	res, err := damage.Calculate(s, m.roller.RandomInteger(), substitutionIndex(L, 2), true)
	if err != nil {
		return failure(L, err)
	}
	types := L.NewTable()
	for _, t := range res.TypeResults {
		types.RawSetString(t.TypeID, lua.LNumber(t.Total))
	}
	L.Push(lua.LNumber(res.TotalDamage))
	L.Push(types)
	return 2
}

func (m *Manager) luaDamageText(L *lua.LState) int {
	s, err := damage.ParseFormula([]byte(L.CheckString(1)))
	if err != nil {
		return failure(L, err)
	}
	unify := L.OptBool(2, false)
	text, _, err := damage.RenderText(s, substitutionIndex(L, 3), unify)
	if err != nil {
		return failure(L, err)
	}
	L.Push(lua.LString(text))
	return 1
}

// failure pushes the Lua (nil, message) error convention.
func failure(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// substitutionTable reads an optional Lua table argument of name -> formula
// text or number. Other value types are skipped.
func substitutionTable(L *lua.LState, n int) expression.SubstitutionTable {
	tbl := L.OptTable(n, nil)
	if tbl == nil {
		return nil
	}
	out := make(expression.SubstitutionTable)
	tbl.ForEach(func(k, v lua.LValue) {
		switch v := v.(type) {
		case lua.LNumber:
			out[k.String()] = expression.Substitution{Expression: formula.FormatNumber(float64(v))}
		case lua.LString:
			out[k.String()] = expression.Substitution{Expression: string(v)}
		}
	})
	return out
}

// substitutionIndex reads an optional Lua table argument of name -> number.
// Non-numeric values are skipped.
func substitutionIndex(L *lua.LState, n int) formula.SubstitutionIndex {
	tbl := L.OptTable(n, nil)
	if tbl == nil {
		return nil
	}
	out := make(formula.SubstitutionIndex)
	tbl.ForEach(func(k, v lua.LValue) {
		if num, ok := v.(lua.LNumber); ok {
			out[k.String()] = float64(num)
		}
	})
	return out
}
