package nutrition

import (
	"errors"
	"math"
	"testing"
)

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// macroKcal converts gram targets back into calories.
func macroKcal(t Totals) float64 {
	return t.ProteinG*KcalPerGramProtein + t.CarbsG*KcalPerGramCarbs + t.FatG*KcalPerGramFat
}

/* ─── Goal adjustment ────────────────────────────────────────────────── */

func TestComputeDailyTargets_GoalAdjustment(t *testing.T) {
	e := defaultEngine(t)
	cases := []struct {
		goal Goal
		want float64
	}{
		{Maintain, 2500},
		{LoseWeight, 2000},
		{GainWeight, 2800},
	}
	for _, tc := range cases {
		t.Run(string(tc.goal), func(t *testing.T) {
			got, err := e.ComputeDailyTargets(2500, tc.goal)
			if err != nil {
				t.Fatalf("ComputeDailyTargets: %v", err)
			}
			if got.Calories != tc.want {
				t.Errorf("calories = %v, want %v", got.Calories, tc.want)
			}
			if got.TDEEKcal != 2500 {
				t.Errorf("TDEEKcal = %v, want 2500", got.TDEEKcal)
			}
		})
	}
}

// TestComputeDailyTargets_MaintainIsIdentity uses awkward TDEE values to make
// sure maintain never perturbs the number.
func TestComputeDailyTargets_MaintainIsIdentity(t *testing.T) {
	e := defaultEngine(t)
	for _, tdee := range []float64{1200, 1814.125 * 1.55, 3333.3333, 4100.7} {
		got, err := e.ComputeDailyTargets(tdee, Maintain)
		if err != nil {
			t.Fatalf("ComputeDailyTargets(%v): %v", tdee, err)
		}
		if got.Calories != tdee {
			t.Errorf("maintain calories = %v, want %v", got.Calories, tdee)
		}
	}
}

func TestComputeDailyTargets_SurplusIsOverridable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SurplusKcal = 500
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	got, err := e.ComputeDailyTargets(2500, GainWeight)
	if err != nil {
		t.Fatalf("ComputeDailyTargets: %v", err)
	}
	if got.Calories != 3000 {
		t.Errorf("calories = %v, want 3000", got.Calories)
	}
}

/* ─── Macro split ────────────────────────────────────────────────────── */

// TestComputeDailyTargets_MacroGramsSumToCalories checks that the grams,
// converted back at 4/4/9 kcal per gram, reproduce the calorie target.
func TestComputeDailyTargets_MacroGramsSumToCalories(t *testing.T) {
	for _, name := range StrategyNames() {
		split, _ := StrategySplit(name)
		e, err := defaultEngine(t).WithSplit(split)
		if err != nil {
			t.Fatalf("WithSplit(%s): %v", name, err)
		}
		for _, tdee := range []float64{1700, 2259.4, 2811.89375, 3900} {
			got, err := e.ComputeDailyTargets(tdee, Maintain)
			if err != nil {
				t.Fatalf("%s ComputeDailyTargets(%v): %v", name, tdee, err)
			}
			if kcal := macroKcal(got.Totals); !approxEqual(kcal, got.Calories, 1) {
				t.Errorf("%s: macros give %v kcal, target is %v", name, kcal, got.Calories)
			}
		}
	}
}

func TestComputeDailyTargets_BalancedGrams(t *testing.T) {
	got, err := defaultEngine(t).ComputeDailyTargets(2000, Maintain)
	if err != nil {
		t.Fatalf("ComputeDailyTargets: %v", err)
	}
	if !approxEqual(got.ProteinG, 150, 1e-9) {
		t.Errorf("protein = %v, want 150", got.ProteinG)
	}
	if !approxEqual(got.CarbsG, 200, 1e-9) {
		t.Errorf("carbs = %v, want 200", got.CarbsG)
	}
	if !approxEqual(got.FatG, 600.0/9, 1e-9) {
		t.Errorf("fat = %v, want %v", got.FatG, 600.0/9)
	}
}

/* ─── Safety floor and bad input ─────────────────────────────────────── */

func TestComputeDailyTargets_UnsafeTarget(t *testing.T) {
	_, err := defaultEngine(t).ComputeDailyTargets(1600, LoseWeight)
	if !errors.Is(err, ErrUnsafeTarget) {
		t.Errorf("expected ErrUnsafeTarget for 1600-500, got %v", err)
	}
	// Exactly at the floor is allowed.
	if _, err := defaultEngine(t).ComputeDailyTargets(1700, LoseWeight); err != nil {
		t.Errorf("1700-500 = 1200 should be allowed, got %v", err)
	}
}

func TestComputeDailyTargets_InvalidArguments(t *testing.T) {
	e := defaultEngine(t)
	if _, err := e.ComputeDailyTargets(2000, "bulk"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for unknown goal, got %v", err)
	}
	for _, tdee := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		if _, err := e.ComputeDailyTargets(tdee, Maintain); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for tdee %v, got %v", tdee, err)
		}
	}
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(c *Config)
	}{
		{"split sums to 0.9", func(c *Config) { c.Split = MacroSplit{0.3, 0.3, 0.3} }},
		{"negative share", func(c *Config) { c.Split = MacroSplit{0.6, 0.5, -0.1} }},
		{"protein only", func(c *Config) { c.Split = MacroSplit{1, 0, 0} }},
		{"zero cap", func(c *Config) { c.DailyCapKcal = 0 }},
		{"negative deficit", func(c *Config) { c.DeficitKcal = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutFn(&cfg)
			if _, err := NewEngine(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

/* ─── Full onboarding calculation ────────────────────────────────────── */

// TestTargetsForProfile_Reference walks the reference profile through the
// whole pipeline. BMR 1814.125, TDEE 2811.89, target 2311.89 kcal.
func TestTargetsForProfile_Reference(t *testing.T) {
	got, err := defaultEngine(t).TargetsForProfile(referenceProfile())
	if err != nil {
		t.Fatalf("TargetsForProfile: %v", err)
	}
	r := got.Rounded()
	want := Totals{Calories: 2312, ProteinG: 173, CarbsG: 231, FatG: 77}
	if r != want {
		t.Errorf("rounded targets = %+v, want %+v", r, want)
	}
	if math.Round(got.BMRKcal) != 1814 || math.Round(got.TDEEKcal) != 2812 {
		t.Errorf("BMR/TDEE = %v/%v, want ~1814/2812", got.BMRKcal, got.TDEEKcal)
	}
}

func TestTargetsForProfile_PropagatesProfileError(t *testing.T) {
	p := referenceProfile()
	p.Activity = "couch"
	if _, err := defaultEngine(t).TargetsForProfile(p); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestCompareStrategies(t *testing.T) {
	got, err := defaultEngine(t).CompareStrategies(referenceProfile())
	if err != nil {
		t.Fatalf("CompareStrategies: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(got))
	}
	balanced := got["balanced"]
	for name, tg := range got {
		if tg.Calories != balanced.Calories {
			t.Errorf("%s calories = %v, want %v", name, tg.Calories, balanced.Calories)
		}
	}
	if got["low_carb"].CarbsG >= balanced.CarbsG {
		t.Errorf("low_carb carbs %v should be below balanced %v", got["low_carb"].CarbsG, balanced.CarbsG)
	}
}
