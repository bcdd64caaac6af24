package nutrition

import (
	"fmt"
	"math"
)

// Banking windows are two or three days long.
const (
	MinBankingDays = 2
	MaxBankingDays = 3
)

// BankingDay is one day of a banking plan. Day is zero-based.
type BankingDay struct {
	Day           int     `json:"day"`
	ReductionKcal float64 `json:"reduction_kcal"`
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
}

// Targets returns the day's adjusted targets as Totals.
func (d BankingDay) Targets() Totals {
	return Totals{Calories: d.Calories, ProteinG: d.ProteinG, CarbsG: d.CarbsG, FatG: d.FatG}
}

// BankingPlan spreads a cheat meal's excess calories as reductions over a
// short window of days.
type BankingPlan struct {
	ExcessKcal   float64      `json:"excess_kcal"`
	DailyCapKcal float64      `json:"daily_cap_kcal"`
	Days         []BankingDay `json:"days"`
}

// TotalReductionKcal sums the per-day reductions.
func (p BankingPlan) TotalReductionKcal() float64 {
	var sum float64
	for _, d := range p.Days {
		sum += d.ReductionKcal
	}
	return sum
}

// ComputeBankingPlan distributes excessKcal over windowDays as evenly as
// possible: each day gets floor(excess/n) and the remainder is handed out one
// kcal at a time in day order. A dailyCapKcal <= 0 selects the configured cap.
//
// Protein stays at its daily target on every banked day; the remaining
// calories are split between carbs and fat in the strategy's carbs:fat ratio.
func (e *Engine) ComputeBankingPlan(excessKcal float64, windowDays int, targets DailyTargets, dailyCapKcal float64) (BankingPlan, error) {
	if dailyCapKcal <= 0 {
		dailyCapKcal = e.cfg.DailyCapKcal
	}
	if math.IsNaN(excessKcal) || math.IsInf(excessKcal, 0) || excessKcal < 0 {
		return BankingPlan{}, fmt.Errorf("%w: excess must be a non-negative number, got %v", ErrInvalidInput, excessKcal)
	}
	if windowDays < MinBankingDays || windowDays > MaxBankingDays {
		return BankingPlan{}, fmt.Errorf("%w: window must be %d to %d days, got %d",
			ErrInvalidInput, MinBankingDays, MaxBankingDays, windowDays)
	}
	if math.IsInf(dailyCapKcal, 0) || math.IsNaN(dailyCapKcal) {
		return BankingPlan{}, fmt.Errorf("%w: daily cap must be finite", ErrInvalidInput)
	}
	if err := targets.CheckNonNegative(); err != nil {
		return BankingPlan{}, fmt.Errorf("targets: %w", err)
	}
	if limit := float64(windowDays) * dailyCapKcal; excessKcal > limit {
		return BankingPlan{}, fmt.Errorf("%w: %.0f kcal exceeds %d days x %.0f kcal cap",
			ErrExcessTooLarge, excessKcal, windowDays, dailyCapKcal)
	}

	reductions := spreadEvenly(excessKcal, windowDays, dailyCapKcal)

	carbShare := e.cfg.Split.CarbsPct / (e.cfg.Split.CarbsPct + e.cfg.Split.FatPct)
	plan := BankingPlan{
		ExcessKcal:   excessKcal,
		DailyCapKcal: dailyCapKcal,
		Days:         make([]BankingDay, windowDays),
	}
	for i, r := range reductions {
		calories := targets.Calories - r
		if calories < e.cfg.MinCalories {
			return BankingPlan{}, fmt.Errorf("%w: banked day %d would be %.0f kcal, below the %.0f kcal floor",
				ErrUnsafeTarget, i, calories, e.cfg.MinCalories)
		}
		nonProtein := calories - targets.ProteinG*KcalPerGramProtein
		if nonProtein < 0 {
			return BankingPlan{}, fmt.Errorf("%w: banked day %d cannot hold the protein target", ErrUnsafeTarget, i)
		}
		plan.Days[i] = BankingDay{
			Day:           i,
			ReductionKcal: r,
			Calories:      calories,
			ProteinG:      targets.ProteinG,
			CarbsG:        nonProtein * carbShare / KcalPerGramCarbs,
			FatG:          nonProtein * (1 - carbShare) / KcalPerGramFat,
		}
	}
	return plan, nil
}

// spreadEvenly splits total over n days with per-day cap. The caller
// guarantees total <= n*capKcal. The last handed-out unit may be fractional.
func spreadEvenly(total float64, n int, capKcal float64) []float64 {
	out := make([]float64, n)
	base := math.Min(math.Floor(total/float64(n)), capKcal)
	for i := range out {
		out[i] = base
	}

	rem := total - base*float64(n)
	for i := 0; rem > 0; i = (i + 1) % n {
		room := capKcal - out[i]
		if room <= 0 {
			// Every day is at the cap; any leftover is float noise.
			if allAtCap(out, capKcal) {
				break
			}
			continue
		}
		add := math.Min(math.Min(1, rem), room)
		out[i] += add
		rem -= add
	}
	return out
}

func allAtCap(days []float64, capKcal float64) bool {
	for _, d := range days {
		if d < capKcal {
			return false
		}
	}
	return true
}
