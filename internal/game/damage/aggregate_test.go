package damage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dicecalc/internal/game/damage"
)

func result(t damage.DamageType, total float64) damage.TypeResult {
	return damage.TypeResult{TypeID: t.ID(), Type: t, Total: total}
}

func TestDamageType_ID(t *testing.T) {
	assert.Equal(t, "fire", damage.Basic("fire").ID())
	assert.Equal(t, "fire-cold", damage.Multiple("fire", "cold").ID())
	assert.Equal(t, "half-piercing-half-electric", damage.HalfAndHalf("piercing", "electric").ID())
}

func TestDamageType_Validate(t *testing.T) {
	assert.NoError(t, damage.Basic("fire").Validate())
	assert.Error(t, damage.Basic("").Validate())
	assert.Error(t, damage.HalfAndHalf("piercing", "").Validate())
	assert.Error(t, damage.DamageType{Kind: "quarter"}.Validate())
}

func TestDamageType_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Scalar  damage.DamageType `yaml:"scalar"`
		Mapping damage.DamageType `yaml:"mapping"`
		Half    damage.DamageType `yaml:"half"`
	}
	data := `
scalar: fire
mapping:
  name: cold
half:
  type: halfAndHalf
  first: piercing
  second: electric
`
	require.NoError(t, yaml.Unmarshal([]byte(data), &doc))
	assert.Equal(t, damage.Basic("fire"), doc.Scalar)
	assert.Equal(t, damage.Basic("cold"), doc.Mapping)
	assert.Equal(t, damage.HalfAndHalf("piercing", "electric"), doc.Half)
}

func TestAggregate_UnifiesByIDInOrder(t *testing.T) {
	in := []damage.TypeResult{
		result(damage.Basic("slashing"), 3),
		result(damage.Basic("fire"), 2),
		result(damage.Basic("slashing"), 4),
		result(damage.Multiple("fire", "cold"), 1),
	}
	out := damage.Aggregate(in, false)
	assert.Equal(t, []damage.TypeResult{
		result(damage.Basic("slashing"), 7),
		result(damage.Basic("fire"), 2),
		result(damage.Multiple("fire", "cold"), 1),
	}, out)
	assert.Equal(t, 3.0, in[0].Total, "input is not modified")
}

func TestAggregate_ExtractsHalfAndHalf(t *testing.T) {
	in := []damage.TypeResult{
		result(damage.Basic("electric"), 1),
		result(damage.HalfAndHalf("piercing", "electric"), 5),
		result(damage.HalfAndHalf("piercing", "electric"), 4),
	}
	assert.Equal(t, []damage.TypeResult{
		result(damage.Basic("electric"), 5),
		result(damage.Basic("piercing"), 5),
	}, damage.Aggregate(in, true))

	assert.Equal(t, []damage.TypeResult{
		result(damage.Basic("electric"), 1),
		result(damage.HalfAndHalf("piercing", "electric"), 9),
	}, damage.Aggregate(in, false))
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, damage.Aggregate(nil, true))
}

func TestAggregate_Property_PreservesTotal(t *testing.T) {
	types := []damage.DamageType{
		damage.Basic("fire"),
		damage.Basic("cold"),
		damage.Multiple("fire", "cold"),
		damage.HalfAndHalf("fire", "acid"),
	}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		var in []damage.TypeResult
		want := 0.0
		for range n {
			ty := types[rapid.IntRange(0, len(types)-1).Draw(rt, "type")]
			v := float64(rapid.IntRange(0, 40).Draw(rt, "value"))
			in = append(in, result(ty, v))
			want += v
		}
		extract := rapid.Bool().Draw(rt, "extract")

		out := damage.Aggregate(in, extract)
		got := 0.0
		seen := make(map[string]bool)
		for _, r := range out {
			assert.False(rt, seen[r.TypeID], "duplicate id %s", r.TypeID)
			seen[r.TypeID] = true
			if extract {
				assert.NotEqual(rt, damage.KindHalfAndHalf, r.Type.Kind)
			}
			got += r.Total
		}
		assert.Equal(rt, want, got)
	})
}
