package nutrition

import "fmt"

// Energy is a profile's estimated resting and total daily expenditure, in kcal.
type Energy struct {
	BMRKcal  float64 `json:"bmr_kcal"`
	TDEEKcal float64 `json:"tdee_kcal"`
}

// activityMultiplier maps an activity level to its TDEE multiplier.
// There is no fallback: an unmapped level is an error.
func activityMultiplier(level ActivityLevel) (float64, error) {
	switch level {
	case Sedentary:
		return 1.2, nil
	case LightlyActive:
		return 1.375, nil
	case ModeratelyActive:
		return 1.55, nil
	case VeryActive:
		return 1.725, nil
	}
	return 0, fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, level)
}

// ComputeEnergyExpenditure returns BMR via Mifflin-St Jeor and TDEE as BMR
// scaled by the activity multiplier. No rounding is applied.
func ComputeEnergyExpenditure(p Profile) (Energy, error) {
	if err := p.Validate(); err != nil {
		return Energy{}, err
	}

	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.AgeYears)
	if p.Sex == Male {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, err := activityMultiplier(p.Activity)
	if err != nil {
		return Energy{}, err
	}
	return Energy{BMRKcal: bmr, TDEEKcal: bmr * mult}, nil
}
