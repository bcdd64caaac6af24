package nutrition

import (
	"errors"
	"math"
	"testing"
)

// maintenance2000 returns balanced maintenance targets for a 2000 kcal TDEE:
// 150 g protein, 200 g carbs, 66.7 g fat.
func maintenance2000(t *testing.T, e *Engine) DailyTargets {
	t.Helper()
	tg, err := e.ComputeDailyTargets(2000, Maintain)
	if err != nil {
		t.Fatalf("ComputeDailyTargets: %v", err)
	}
	return tg
}

func reductions(p BankingPlan) []float64 {
	out := make([]float64, len(p.Days))
	for i, d := range p.Days {
		out[i] = d.ReductionKcal
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

/* ─── Distribution ───────────────────────────────────────────────────── */

func TestComputeBankingPlan_EvenSplit(t *testing.T) {
	e := defaultEngine(t)
	plan, err := e.ComputeBankingPlan(900, 3, maintenance2000(t, e), 400)
	if err != nil {
		t.Fatalf("ComputeBankingPlan: %v", err)
	}
	if got := reductions(plan); !equalFloats(got, []float64{300, 300, 300}) {
		t.Errorf("reductions = %v, want [300 300 300]", got)
	}
	if plan.TotalReductionKcal() != 900 {
		t.Errorf("total = %v, want 900", plan.TotalReductionKcal())
	}
}

// TestComputeBankingPlan_RemainderGoesToEarlyDays checks the tie-break: the
// leftover kcal go one at a time to days in index order.
func TestComputeBankingPlan_RemainderGoesToEarlyDays(t *testing.T) {
	e := defaultEngine(t)
	targets := maintenance2000(t, e)
	cases := []struct {
		excess float64
		days   int
		want   []float64
	}{
		{1000, 3, []float64{334, 333, 333}},
		{1001, 3, []float64{334, 334, 333}},
		{701, 2, []float64{351, 350}},
		{700.5, 2, []float64{350.5, 350}},
		{800, 2, []float64{400, 400}},
		{0, 3, []float64{0, 0, 0}},
		{2, 3, []float64{1, 1, 0}},
	}
	for _, tc := range cases {
		plan, err := e.ComputeBankingPlan(tc.excess, tc.days, targets, 400)
		if err != nil {
			t.Fatalf("ComputeBankingPlan(%v, %d): %v", tc.excess, tc.days, err)
		}
		if got := reductions(plan); !equalFloats(got, tc.want) {
			t.Errorf("ComputeBankingPlan(%v, %d) reductions = %v, want %v", tc.excess, tc.days, got, tc.want)
		}
		if plan.TotalReductionKcal() != tc.excess {
			t.Errorf("ComputeBankingPlan(%v, %d) total = %v", tc.excess, tc.days, plan.TotalReductionKcal())
		}
	}
}

// TestComputeBankingPlan_SumIsExactAcrossRange sweeps every whole excess that
// fits a 3-day, 400 kcal window.
func TestComputeBankingPlan_SumIsExactAcrossRange(t *testing.T) {
	e := defaultEngine(t)
	targets := maintenance2000(t, e)
	for _, days := range []int{2, 3} {
		for excess := 0; excess <= days*400; excess += 7 {
			plan, err := e.ComputeBankingPlan(float64(excess), days, targets, 400)
			if err != nil {
				t.Fatalf("excess %d days %d: %v", excess, days, err)
			}
			if plan.TotalReductionKcal() != float64(excess) {
				t.Fatalf("excess %d days %d: total %v", excess, days, plan.TotalReductionKcal())
			}
			for _, d := range plan.Days {
				if d.ReductionKcal > 400 {
					t.Fatalf("excess %d days %d: day %d reduction %v over cap", excess, days, d.Day, d.ReductionKcal)
				}
			}
		}
	}
}

// TestComputeBankingPlan_FractionalCapNeverExceeded uses a cap that is not a
// whole number, where a naive +1 would push a day over it.
func TestComputeBankingPlan_FractionalCapNeverExceeded(t *testing.T) {
	e := defaultEngine(t)
	plan, err := e.ComputeBankingPlan(1201, 3, maintenance2000(t, e), 400.5)
	if err != nil {
		t.Fatalf("ComputeBankingPlan: %v", err)
	}
	for _, d := range plan.Days {
		if d.ReductionKcal > 400.5 {
			t.Errorf("day %d reduction %v exceeds 400.5 cap", d.Day, d.ReductionKcal)
		}
	}
	if !approxEqual(plan.TotalReductionKcal(), 1201, 1e-9) {
		t.Errorf("total = %v, want 1201", plan.TotalReductionKcal())
	}
}

func TestComputeBankingPlan_DefaultCap(t *testing.T) {
	e := defaultEngine(t)
	plan, err := e.ComputeBankingPlan(600, 2, maintenance2000(t, e), 0)
	if err != nil {
		t.Fatalf("ComputeBankingPlan: %v", err)
	}
	if plan.DailyCapKcal != DefaultDailyCapKcal {
		t.Errorf("cap = %v, want %v", plan.DailyCapKcal, DefaultDailyCapKcal)
	}
	if _, err := e.ComputeBankingPlan(801, 2, maintenance2000(t, e), 0); !errors.Is(err, ErrExcessTooLarge) {
		t.Errorf("expected ErrExcessTooLarge with the default cap, got %v", err)
	}
}

/* ─── Adjusted macros ────────────────────────────────────────────────── */

func TestComputeBankingPlan_ProteinHeldCarbsFatScaled(t *testing.T) {
	e := defaultEngine(t)
	targets := maintenance2000(t, e)
	plan, err := e.ComputeBankingPlan(900, 3, targets, 400)
	if err != nil {
		t.Fatalf("ComputeBankingPlan: %v", err)
	}
	for _, d := range plan.Days {
		if d.Calories != 1700 {
			t.Errorf("day %d calories = %v, want 1700", d.Day, d.Calories)
		}
		if d.ProteinG != targets.ProteinG {
			t.Errorf("day %d protein = %v, want %v", d.Day, d.ProteinG, targets.ProteinG)
		}
		// 1700 - 600 protein kcal = 1100 kcal split 4:3 between carbs and fat.
		if !approxEqual(d.CarbsG*KcalPerGramCarbs, 1100*4.0/7, 1e-9) {
			t.Errorf("day %d carb kcal = %v, want %v", d.Day, d.CarbsG*4, 1100*4.0/7)
		}
		if !approxEqual(d.FatG*KcalPerGramFat, 1100*3.0/7, 1e-9) {
			t.Errorf("day %d fat kcal = %v, want %v", d.Day, d.FatG*9, 1100*3.0/7)
		}
		if kcal := macroKcal(d.Targets()); !approxEqual(kcal, d.Calories, 1) {
			t.Errorf("day %d macros give %v kcal, want %v", d.Day, kcal, d.Calories)
		}
	}
}

/* ─── Failures ───────────────────────────────────────────────────────── */

func TestComputeBankingPlan_ExcessTooLarge(t *testing.T) {
	e := defaultEngine(t)
	_, err := e.ComputeBankingPlan(2000, 2, maintenance2000(t, e), 400)
	if !errors.Is(err, ErrExcessTooLarge) {
		t.Errorf("expected ErrExcessTooLarge, got %v", err)
	}
	_, err = e.ComputeBankingPlan(1200.5, 3, maintenance2000(t, e), 400)
	if !errors.Is(err, ErrExcessTooLarge) {
		t.Errorf("expected ErrExcessTooLarge just over the cap, got %v", err)
	}
}

func TestComputeBankingPlan_InvalidInput(t *testing.T) {
	e := defaultEngine(t)
	targets := maintenance2000(t, e)
	cases := []struct {
		name   string
		excess float64
		days   int
	}{
		{"one day window", 300, 1},
		{"four day window", 300, 4},
		{"negative excess", -50, 2},
		{"NaN excess", math.NaN(), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.ComputeBankingPlan(tc.excess, tc.days, targets, 400); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestComputeBankingPlan_BelowFloorIsUnsafe(t *testing.T) {
	e := defaultEngine(t)
	targets, err := e.ComputeDailyTargets(1500, Maintain)
	if err != nil {
		t.Fatalf("ComputeDailyTargets: %v", err)
	}
	if _, err := e.ComputeBankingPlan(800, 2, targets, 400); !errors.Is(err, ErrUnsafeTarget) {
		t.Errorf("expected ErrUnsafeTarget, got %v", err)
	}
}
