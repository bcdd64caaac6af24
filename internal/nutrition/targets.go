package nutrition

import (
	"fmt"
	"math"
	"sort"
)

// Energy density of each macronutrient, kcal per gram.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// Default goal adjustments and safety limits.
//
// DefaultSurplusKcal is 300, the muscle-gain surplus the coaching guidance
// uses. The old calculator added 500 for gains too; set
// NUTRITION_SURPLUS_KCAL=500 to reproduce that.
const (
	DefaultDeficitKcal  = 500
	DefaultSurplusKcal  = 300
	DefaultMinCalories  = 1200
	DefaultDailyCapKcal = 400
)

// MacroSplit is the share of target calories given to each macronutrient.
// The three fractions must sum to 1.
type MacroSplit struct {
	ProteinPct float64 `json:"protein_pct"`
	CarbsPct   float64 `json:"carbs_pct"`
	FatPct     float64 `json:"fat_pct"`
}

// Named strategies. Balanced is the default 30/40/30 split.
var (
	BalancedSplit      = MacroSplit{ProteinPct: 0.30, CarbsPct: 0.40, FatPct: 0.30}
	LowCarbSplit       = MacroSplit{ProteinPct: 0.35, CarbsPct: 0.20, FatPct: 0.45}
	MediterraneanSplit = MacroSplit{ProteinPct: 0.20, CarbsPct: 0.45, FatPct: 0.35}
)

var strategies = map[string]MacroSplit{
	"balanced":      BalancedSplit,
	"low_carb":      LowCarbSplit,
	"mediterranean": MediterraneanSplit,
}

// StrategySplit looks up a named strategy.
func StrategySplit(name string) (MacroSplit, bool) {
	s, ok := strategies[normalizeEnum(name)]
	return s, ok
}

// StrategyNames returns the known strategy names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for n := range strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that each share is in [0,1] and that they sum to 1.
func (s MacroSplit) Validate() error {
	for _, p := range []float64{s.ProteinPct, s.CarbsPct, s.FatPct} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: macro share %v out of range", ErrInvalidConfig, p)
		}
	}
	if sum := s.ProteinPct + s.CarbsPct + s.FatPct; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: macro shares sum to %v, want 1", ErrInvalidConfig, sum)
	}
	if s.CarbsPct+s.FatPct == 0 {
		return fmt.Errorf("%w: carbs and fat shares are both zero", ErrInvalidConfig)
	}
	return nil
}

// grams converts a calorie amount into macro grams under the split.
func (s MacroSplit) grams(calories float64) Totals {
	return Totals{
		Calories: calories,
		ProteinG: calories * s.ProteinPct / KcalPerGramProtein,
		CarbsG:   calories * s.CarbsPct / KcalPerGramCarbs,
		FatG:     calories * s.FatPct / KcalPerGramFat,
	}
}

// DailyTargets is a day's calorie and macro target plus the expenditure it
// was derived from. BMRKcal is zero when targets were computed from a bare TDEE.
type DailyTargets struct {
	Totals
	BMRKcal  float64 `json:"bmr_kcal"`
	TDEEKcal float64 `json:"tdee_kcal"`
}

// Config holds the tunable constants of an Engine.
type Config struct {
	DeficitKcal  float64
	SurplusKcal  float64
	MinCalories  float64
	DailyCapKcal float64
	Split        MacroSplit
}

func DefaultConfig() Config {
	return Config{
		DeficitKcal:  DefaultDeficitKcal,
		SurplusKcal:  DefaultSurplusKcal,
		MinCalories:  DefaultMinCalories,
		DailyCapKcal: DefaultDailyCapKcal,
		Split:        BalancedSplit,
	}
}

// Engine computes targets and banking plans under a fixed Config.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine using it.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.DeficitKcal < 0 || cfg.SurplusKcal < 0 {
		return nil, fmt.Errorf("%w: deficit and surplus must be non-negative", ErrInvalidConfig)
	}
	if cfg.MinCalories < 0 {
		return nil, fmt.Errorf("%w: minimum calories must be non-negative", ErrInvalidConfig)
	}
	if !(cfg.DailyCapKcal > 0) {
		return nil, fmt.Errorf("%w: daily banking cap must be positive", ErrInvalidConfig)
	}
	if err := cfg.Split.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// WithSplit returns an engine identical to e but for the macro split.
func (e *Engine) WithSplit(split MacroSplit) (*Engine, error) {
	cfg := e.cfg
	cfg.Split = split
	return NewEngine(cfg)
}

// ComputeDailyTargets applies the goal adjustment to tdeeKcal and splits the
// result into macro grams.
func (e *Engine) ComputeDailyTargets(tdeeKcal float64, goal Goal) (DailyTargets, error) {
	if math.IsNaN(tdeeKcal) || math.IsInf(tdeeKcal, 0) || tdeeKcal <= 0 {
		return DailyTargets{}, fmt.Errorf("%w: tdee must be a positive number, got %v", ErrInvalidInput, tdeeKcal)
	}

	var calories float64
	switch goal {
	case LoseWeight:
		calories = tdeeKcal - e.cfg.DeficitKcal
	case GainWeight:
		calories = tdeeKcal + e.cfg.SurplusKcal
	case Maintain:
		calories = tdeeKcal
	default:
		return DailyTargets{}, fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, goal)
	}

	if calories < e.cfg.MinCalories {
		return DailyTargets{}, fmt.Errorf("%w: %.0f kcal is below the %.0f kcal floor",
			ErrUnsafeTarget, calories, e.cfg.MinCalories)
	}

	return DailyTargets{Totals: e.cfg.Split.grams(calories), TDEEKcal: tdeeKcal}, nil
}

// TargetsForProfile runs the full onboarding calculation for p.
func (e *Engine) TargetsForProfile(p Profile) (DailyTargets, error) {
	energy, err := ComputeEnergyExpenditure(p)
	if err != nil {
		return DailyTargets{}, err
	}
	t, err := e.ComputeDailyTargets(energy.TDEEKcal, p.Goal)
	if err != nil {
		return DailyTargets{}, err
	}
	t.BMRKcal = energy.BMRKcal
	return t, nil
}

// CompareStrategies computes p's targets under every named strategy. The
// calorie target is the same for all of them; only the macro grams differ.
func (e *Engine) CompareStrategies(p Profile) (map[string]DailyTargets, error) {
	out := make(map[string]DailyTargets, len(strategies))
	for name, split := range strategies {
		se, err := e.WithSplit(split)
		if err != nil {
			return nil, err
		}
		t, err := se.TargetsForProfile(p)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}
