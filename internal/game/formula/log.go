package formula

import (
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/dicecalc/internal/game/expression"
)

// dicePools logs dice provenance as an array of objects.
type dicePools []expression.DiceRolledData

func (p dicePools) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, d := range p {
		if err := enc.AppendObject(dicePool(d)); err != nil {
			return err
		}
	}
	return nil
}

type dicePool expression.DiceRolledData

func (d dicePool) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("sides", d.Sides)
	if err := enc.AddArray("kept", ints(d.KeptResults)); err != nil {
		return err
	}
	if err := enc.AddArray("discarded", ints(d.DiscardedResults)); err != nil {
		return err
	}
	enc.AddInt("total", d.TotalResult)
	return nil
}

type ints []int

func (v ints) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, i := range v {
		enc.AppendInt(i)
	}
	return nil
}
