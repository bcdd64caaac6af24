package nutrition

import (
	"errors"
	"math"
	"testing"
)

// referenceProfile is a 30-year-old, 180 lb, 6 ft, moderately active male
// who wants to lose weight.
func referenceProfile() Profile {
	return Profile{
		AgeYears: 30,
		WeightKG: 81.6,
		HeightCM: 182.9,
		Sex:      Male,
		Activity: ModeratelyActive,
		Goal:     LoseWeight,
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

/* ─── BMR / TDEE ─────────────────────────────────────────────────────── */

// TestComputeEnergyExpenditure_Male checks the male Mifflin-St Jeor constant.
// 10*81.6 + 6.25*182.9 - 5*30 + 5 = 1814.125; x1.55 = 2811.89375.
func TestComputeEnergyExpenditure_Male(t *testing.T) {
	e, err := ComputeEnergyExpenditure(referenceProfile())
	if err != nil {
		t.Fatalf("ComputeEnergyExpenditure: %v", err)
	}
	if !approxEqual(e.BMRKcal, 1814.125, 1e-6) {
		t.Errorf("BMR = %v, want 1814.125", e.BMRKcal)
	}
	if !approxEqual(e.TDEEKcal, 2811.89375, 1e-6) {
		t.Errorf("TDEE = %v, want 2811.89375", e.TDEEKcal)
	}
}

// TestComputeEnergyExpenditure_Female checks the -161 constant: the female
// BMR is exactly 166 below the male one for the same body.
func TestComputeEnergyExpenditure_Female(t *testing.T) {
	male, err := ComputeEnergyExpenditure(referenceProfile())
	if err != nil {
		t.Fatalf("male: %v", err)
	}
	p := referenceProfile()
	p.Sex = Female
	female, err := ComputeEnergyExpenditure(p)
	if err != nil {
		t.Fatalf("female: %v", err)
	}
	if !approxEqual(male.BMRKcal-female.BMRKcal, 166, 1e-9) {
		t.Errorf("male-female BMR difference = %v, want 166", male.BMRKcal-female.BMRKcal)
	}
}

func TestComputeEnergyExpenditure_ActivityMultipliers(t *testing.T) {
	cases := []struct {
		level ActivityLevel
		mult  float64
	}{
		{Sedentary, 1.2},
		{LightlyActive, 1.375},
		{ModeratelyActive, 1.55},
		{VeryActive, 1.725},
	}
	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			p := referenceProfile()
			p.Activity = tc.level
			e, err := ComputeEnergyExpenditure(p)
			if err != nil {
				t.Fatalf("ComputeEnergyExpenditure: %v", err)
			}
			if e.TDEEKcal != e.BMRKcal*tc.mult {
				t.Errorf("TDEE = %v, want BMR*%v = %v", e.TDEEKcal, tc.mult, e.BMRKcal*tc.mult)
			}
		})
	}
}

// TestComputeEnergyExpenditure_Deterministic verifies repeated calls agree bit for bit.
func TestComputeEnergyExpenditure_Deterministic(t *testing.T) {
	first, _ := ComputeEnergyExpenditure(referenceProfile())
	for i := 0; i < 100; i++ {
		got, _ := ComputeEnergyExpenditure(referenceProfile())
		if got != first {
			t.Fatalf("call %d returned %+v, want %+v", i, got, first)
		}
	}
}

/* ─── Invalid profiles ───────────────────────────────────────────────── */

func TestComputeEnergyExpenditure_InvalidProfile(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(p *Profile)
	}{
		{"zero age", func(p *Profile) { p.AgeYears = 0 }},
		{"negative age", func(p *Profile) { p.AgeYears = -4 }},
		{"zero weight", func(p *Profile) { p.WeightKG = 0 }},
		{"NaN weight", func(p *Profile) { p.WeightKG = math.NaN() }},
		{"negative height", func(p *Profile) { p.HeightCM = -170 }},
		{"unknown sex", func(p *Profile) { p.Sex = "other" }},
		{"empty activity level", func(p *Profile) { p.Activity = "" }},
		{"unknown activity level", func(p *Profile) { p.Activity = "athlete" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := referenceProfile()
			tc.mutFn(&p)
			_, err := ComputeEnergyExpenditure(p)
			if !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

/* ─── Parsing ────────────────────────────────────────────────────────── */

func TestParseActivityLevel(t *testing.T) {
	cases := []struct {
		in   string
		want ActivityLevel
	}{
		{"sedentary", Sedentary},
		{"Lightly Active", LightlyActive},
		{"  moderately_active ", ModeratelyActive},
		{"VERY ACTIVE", VeryActive},
	}
	for _, tc := range cases {
		got, err := ParseActivityLevel(tc.in)
		if err != nil {
			t.Errorf("ParseActivityLevel(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseActivityLevel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := ParseActivityLevel("moderate"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for %q, got %v", "moderate", err)
	}
}

func TestParseGoalAndSex(t *testing.T) {
	if g, err := ParseGoal("Maintain Weight"); err != nil || g != Maintain {
		t.Errorf("ParseGoal(Maintain Weight) = %q, %v", g, err)
	}
	if g, err := ParseGoal("Lose Weight"); err != nil || g != LoseWeight {
		t.Errorf("ParseGoal(Lose Weight) = %q, %v", g, err)
	}
	if _, err := ParseGoal("bulk"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for bulk, got %v", err)
	}
	if s, err := ParseSex("Female"); err != nil || s != Female {
		t.Errorf("ParseSex(Female) = %q, %v", s, err)
	}
	if _, err := ParseSex("x"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for x, got %v", err)
	}
}

func TestImperialConversion(t *testing.T) {
	if kg := PoundsToKG(180); !approxEqual(kg, 81.64656, 1e-9) {
		t.Errorf("PoundsToKG(180) = %v", kg)
	}
	if cm := InchesToCM(72); !approxEqual(cm, 182.88, 1e-9) {
		t.Errorf("InchesToCM(72) = %v", cm)
	}
}
