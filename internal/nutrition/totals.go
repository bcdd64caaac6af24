package nutrition

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Totals is an amount of energy and macronutrients. It is used for targets,
// consumed meals and remaining budgets alike; only a remaining budget may
// hold negative components.
type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Add and Sub work in decimal and round to float64 once, so for values
// with at most 15 significant digits t.Sub(o).Add(o) == t exactly.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: sumExact(t.Calories, o.Calories),
		ProteinG: sumExact(t.ProteinG, o.ProteinG),
		CarbsG:   sumExact(t.CarbsG, o.CarbsG),
		FatG:     sumExact(t.FatG, o.FatG),
	}
}

func (t Totals) Sub(o Totals) Totals {
	return Totals{
		Calories: sumExact(t.Calories, -o.Calories),
		ProteinG: sumExact(t.ProteinG, -o.ProteinG),
		CarbsG:   sumExact(t.CarbsG, -o.CarbsG),
		FatG:     sumExact(t.FatG, -o.FatG),
	}
}

// sumExact adds vs as decimals and rounds the total to the nearest float64.
// Decimal addition is exact, so the result does not depend on the order of
// vs. NaN or Inf anywhere falls back to float addition.
func sumExact(vs ...float64) float64 {
	acc := decimal.Zero
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			var f float64
			for _, w := range vs {
				f += w
			}
			return f
		}
		acc = acc.Add(decimal.NewFromFloat(v))
	}
	return acc.InexactFloat64()
}

// Rounded rounds every component to the nearest whole unit, for display.
func (t Totals) Rounded() Totals {
	return Totals{
		Calories: math.Round(t.Calories),
		ProteinG: math.Round(t.ProteinG),
		CarbsG:   math.Round(t.CarbsG),
		FatG:     math.Round(t.FatG),
	}
}

// OverBudget reports whether any component is negative.
func (t Totals) OverBudget() bool {
	return t.Calories < 0 || t.ProteinG < 0 || t.CarbsG < 0 || t.FatG < 0
}

// CheckNonNegative returns ErrInvalidInput if any component is negative or
// not a finite number.
func (t Totals) CheckNonNegative() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"calories", t.Calories},
		{"protein_g", t.ProteinG},
		{"carbs_g", t.CarbsG},
		{"fat_g", t.FatG},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidInput, c.name, c.v)
		}
	}
	return nil
}

// ComputeRemaining subtracts the sum of consumed from targets. The result is
// not clamped: a negative component means the day is over budget on it.
// Each component is summed exactly, so permuting consumed never changes the
// result.
func ComputeRemaining(targets Totals, consumed []Totals) (Totals, error) {
	n := len(consumed) + 1
	cal := append(make([]float64, 0, n), targets.Calories)
	protein := append(make([]float64, 0, n), targets.ProteinG)
	carbs := append(make([]float64, 0, n), targets.CarbsG)
	fat := append(make([]float64, 0, n), targets.FatG)
	for i, m := range consumed {
		if err := m.CheckNonNegative(); err != nil {
			return Totals{}, fmt.Errorf("consumed[%d]: %w", i, err)
		}
		cal = append(cal, -m.Calories)
		protein = append(protein, -m.ProteinG)
		carbs = append(carbs, -m.CarbsG)
		fat = append(fat, -m.FatG)
	}
	return Totals{
		Calories: sumExact(cal...),
		ProteinG: sumExact(protein...),
		CarbsG:   sumExact(carbs...),
		FatG:     sumExact(fat...),
	}, nil
}
