package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
	"github.com/cory-johannsen/dicecalc/internal/scripting"
)

func runHook(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	name := "modtest_" + t.Name()
	require.NoError(t, mgr.LoadDir(name, writeTempLua(t, "test.lua", luaSrc)))
	ret, err := mgr.CallHook(name, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestFormulaRoll(t *testing.T) {
	mgr, logs := newTestManager(t, dice.Sequence(6, 2, 3), 0)
	ret := runHook(t, mgr, `
		function attack()
			return formula.roll("2d6kh + @str", { str = 4 })
		end
	`, "attack")
	assert.Equal(t, lua.LNumber(10), ret)
	assert.Equal(t, 1, logs.FilterMessage("formula roll").Len())
}

func TestFormulaRoll_TextSubstitutions(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(2), 0)
	ret := runHook(t, mgr, `
		function attack()
			return formula.roll("@weapon + 1", { weapon = "1d8" })
		end
	`, "attack")
	assert.Equal(t, lua.LNumber(3), ret)
}

func TestFormulaRoll_ErrorReturnsNilAndMessage(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(1), 0)
	ret := runHook(t, mgr, `
		function broken()
			local v, err = formula.roll("(1d6")
			if v == nil and err ~= nil then
				return err
			end
			return "no error"
		end
	`, "broken")
	assert.Contains(t, ret.String(), "unclosed")
}

func TestFormulaCheck(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(1), 0)
	ret := runHook(t, mgr, `
		function check()
			local ok = formula.check("1d20 + @dex", { dex = 2 })
			local bad, msg = formula.check("@dex")
			return ok and not bad and msg ~= nil
		end
	`, "check")
	assert.Equal(t, lua.LTrue, ret)
}

func TestFormulaFill(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(1), 0)
	ret := runHook(t, mgr, `
		function fill()
			return formula.fill("1d6 + @str + @missing", { str = 3 })
		end
	`, "fill")
	assert.Equal(t, lua.LString("1d6 + 3 + 0"), ret)
}

const torchYAML = `
name: Torch
base_damage:
  name: Torch
  formula: 1d4
  damage_type: fire
additional_sections:
  - name: Bonus
    formula: "@bonus"
  - name: Rider
    formula: 2d4
`

func TestFormulaDamage(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(1), 0)
	ret := runHook(t, mgr, `
		function burn(doc)
			local total, types = formula.damage(doc, { bonus = 2 })
			return total * 100 + types.fire
		end
	`, "burn", lua.LString(torchYAML))
	assert.Equal(t, lua.LNumber(505), ret)
}

func TestFormulaDamageText(t *testing.T) {
	mgr, _ := newTestManager(t, dice.Constant(1), 0)
	ret := runHook(t, mgr, `
		function describe(doc)
			return formula.damage_text(doc, true, { bonus = 2 })
		end
	`, "describe", lua.LString(torchYAML))
	assert.Equal(t, lua.LString("3d4 + 2"), ret)

	ret = runHook(t, mgr, `
		function describe_bad()
			local v, err = formula.damage_text("name: [")
			if v == nil then return err end
			return v
		end
	`, "describe_bad")
	assert.Contains(t, ret.String(), "cannot parse damage formula")
}

func TestLogModule(t *testing.T) {
	mgr, logs := newTestManager(t, dice.Constant(1), 0)
	runHook(t, mgr, `
		function do_logs()
			log.debug("d")
			log.info("i")
			log.warn("w")
			log.error("e")
		end
	`, "do_logs")

	levels := map[string]bool{}
	for _, e := range logs.All() {
		if e.ContextMap()["source"] == "lua" {
			levels[e.Level.String()] = true
		}
	}
	for _, lvl := range []string{zap.DebugLevel.String(), zap.InfoLevel.String(), zap.WarnLevel.String(), zap.ErrorLevel.String()} {
		assert.True(t, levels[lvl], "expected a %s entry", lvl)
	}
}
