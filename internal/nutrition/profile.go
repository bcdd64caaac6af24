package nutrition

import (
	"fmt"
	"strings"
)

// Sex selects the Mifflin-St Jeor constant.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
)

// Goal selects the calorie adjustment applied to TDEE.
type Goal string

const (
	LoseWeight Goal = "lose_weight"
	Maintain   Goal = "maintain"
	GainWeight Goal = "gain_weight"
)

// Profile is the body and lifestyle data a plan is computed from.
// Weight is in kilograms and height in centimeters.
type Profile struct {
	AgeYears int
	WeightKG float64
	HeightCM float64
	Sex      Sex
	Activity ActivityLevel
	Goal     Goal
}

// ParseSex normalizes s ("Male", " female ") into a Sex.
func ParseSex(s string) (Sex, error) {
	switch v := Sex(normalizeEnum(s)); v {
	case Male, Female:
		return v, nil
	}
	return "", fmt.Errorf("%w: sex must be one of: male, female", ErrInvalidProfile)
}

// ParseActivityLevel accepts the canonical names as well as the spaced form
// a form select produces ("Moderately Active").
func ParseActivityLevel(s string) (ActivityLevel, error) {
	switch v := ActivityLevel(normalizeEnum(s)); v {
	case Sedentary, LightlyActive, ModeratelyActive, VeryActive:
		return v, nil
	}
	return "", fmt.Errorf("%w: activity_level must be one of: sedentary, lightly_active, moderately_active, very_active", ErrInvalidProfile)
}

// ParseGoal accepts "lose_weight", "maintain" or "gain_weight". "maintain_weight"
// is accepted as an alias for maintain.
func ParseGoal(s string) (Goal, error) {
	v := Goal(normalizeEnum(s))
	if v == "maintain_weight" {
		v = Maintain
	}
	switch v {
	case LoseWeight, Maintain, GainWeight:
		return v, nil
	}
	return "", fmt.Errorf("%w: goal must be one of: lose_weight, maintain, gain_weight", ErrInvalidProfile)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

// Validate reports the first out-of-range field. Goal is not checked here:
// energy expenditure does not depend on it.
func (p Profile) Validate() error {
	if p.AgeYears <= 0 {
		return fmt.Errorf("%w: age must be greater than 0", ErrInvalidProfile)
	}
	if !(p.WeightKG > 0) {
		return fmt.Errorf("%w: weight_kg must be greater than 0", ErrInvalidProfile)
	}
	if !(p.HeightCM > 0) {
		return fmt.Errorf("%w: height_cm must be greater than 0", ErrInvalidProfile)
	}
	if p.Sex != Male && p.Sex != Female {
		return fmt.Errorf("%w: unknown sex %q", ErrInvalidProfile, p.Sex)
	}
	if _, err := activityMultiplier(p.Activity); err != nil {
		return err
	}
	return nil
}

// PoundsToKG and InchesToCM convert imperial form input.
func PoundsToKG(lbs float64) float64 { return lbs * 0.453592 }

func InchesToCM(in float64) float64 { return in * 2.54 }
