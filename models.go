package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"lg/nutriflex-api/internal/nutrition"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan date columns into
// DateOnly. NULL zeroes the time.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

const dateLayout = "2006-01-02"

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// nutritionProfile maps to nutrition_profiles, one row per user. Body fields
// are nullable so a freshly created user has a row before onboarding.
type nutritionProfile struct {
	UserID        int        `json:"user_id"        db:"user_id"`
	Sex           *string    `json:"sex"            db:"sex"`
	AgeYears      *int       `json:"age_years"      db:"age_years"`
	WeightKG      *float64   `json:"weight_kg"      db:"weight_kg"`
	HeightCM      *float64   `json:"height_cm"      db:"height_cm"`
	ActivityLevel *string    `json:"activity_level" db:"activity_level"`
	Goal          *string    `json:"goal"           db:"goal"`
	Strategy      string     `json:"strategy"       db:"strategy"`
	UpdatedAt     *time.Time `json:"updated_at"     db:"updated_at"`

	// Computed on read, never stored.
	Targets      *nutrition.DailyTargets `json:"targets,omitempty"       db:"-"`
	TargetsError string                  `json:"targets_error,omitempty" db:"-"`
}

// mealEntry maps to meal_entries. Entries for a day are ordered by created_at.
type mealEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	MealName  string     `json:"meal_name"  db:"meal_name"`
	MealType  string     `json:"meal_type"  db:"meal_type"`
	Calories  float64    `json:"calories"   db:"calories"`
	ProteinG  float64    `json:"protein_g"  db:"protein_g"`
	CarbsG    float64    `json:"carbs_g"    db:"carbs_g"`
	FatG      float64    `json:"fat_g"      db:"fat_g"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

func (m mealEntry) totals() nutrition.Totals {
	return nutrition.Totals{Calories: m.Calories, ProteinG: m.ProteinG, CarbsG: m.CarbsG, FatG: m.FatG}
}

// bankingDay maps to banking_days: the adjusted targets for one date of a
// calorie-banking plan.
type bankingDay struct {
	ID            int        `json:"id"             db:"id"`
	UserID        int        `json:"user_id"        db:"user_id"`
	Date          DateOnly   `json:"date"           db:"date"`
	CheatDate     DateOnly   `json:"cheat_date"     db:"cheat_date"`
	ExcessKcal    float64    `json:"excess_kcal"    db:"excess_kcal"`
	ReductionKcal float64    `json:"reduction_kcal" db:"reduction_kcal"`
	Calories      float64    `json:"calories"       db:"calories"`
	ProteinG      float64    `json:"protein_g"      db:"protein_g"`
	CarbsG        float64    `json:"carbs_g"        db:"carbs_g"`
	FatG          float64    `json:"fat_g"          db:"fat_g"`
	CreatedAt     *time.Time `json:"created_at"     db:"created_at"`
}

func (b bankingDay) targets() nutrition.Totals {
	return nutrition.Totals{Calories: b.Calories, ProteinG: b.ProteinG, CarbsG: b.CarbsG, FatG: b.FatG}
}

// weightEntry maps to weight_log.
type weightEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WeightKG  float64    `json:"weight_kg"  db:"weight_kg"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// weekDayDBRow is the shape of each row returned by the week-summary GROUP BY query.
type weekDayDBRow struct {
	Date     DateOnly `db:"date"`
	Calories float64  `db:"calories"`
	ProteinG float64  `db:"protein_g"`
	CarbsG   float64  `db:"carbs_g"`
	FatG     float64  `db:"fat_g"`
}

/* ─── Responses ──────────────────────────────────────────────────────── */

// dailySummary is the response shape for GET /api/meal-log/daily. Targets and
// Remaining are nil while the profile is incomplete.
type dailySummary struct {
	Date       string            `json:"date"`
	Targets    *nutrition.Totals `json:"targets"`
	Consumed   nutrition.Totals  `json:"consumed"`
	Remaining  *nutrition.Totals `json:"remaining"`
	OverBudget bool              `json:"over_budget"`
	Banking    *bankingDay       `json:"banking,omitempty"`
	Entries    []mealEntry       `json:"entries"`
	Profile    nutritionProfile  `json:"profile"`
}

// weekDaySummary is one day's entry in the GET /api/meal-log/week-summary response.
type weekDaySummary struct {
	Date              DateOnly `json:"date"`
	TargetCalories    *float64 `json:"target_calories"`
	CaloriesConsumed  float64  `json:"calories_consumed"`
	CaloriesRemaining *float64 `json:"calories_remaining"`
	ProteinG          float64  `json:"protein_g"`
	CarbsG            float64  `json:"carbs_g"`
	FatG              float64  `json:"fat_g"`
	Banked            bool     `json:"banked"`
	HasData           bool     `json:"has_data"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// profileRequest is the body of POST /api/targets/preview. Imperial units are
// accepted when weight_kg/height_cm are absent.
type profileRequest struct {
	AgeYears      int      `json:"age_years"`
	WeightKG      *float64 `json:"weight_kg"`
	HeightCM      *float64 `json:"height_cm"`
	WeightLBS     *float64 `json:"weight_lbs"`
	HeightIn      *float64 `json:"height_in"`
	Sex           string   `json:"sex"`
	ActivityLevel string   `json:"activity_level"`
	Goal          string   `json:"goal"`
	Strategy      string   `json:"strategy"`
}

// patchProfileRequest is the body of PATCH /api/profile. Only non-nil fields are written.
type patchProfileRequest struct {
	Sex           *string  `json:"sex"`
	AgeYears      *int     `json:"age_years"`
	WeightKG      *float64 `json:"weight_kg"`
	HeightCM      *float64 `json:"height_cm"`
	ActivityLevel *string  `json:"activity_level"`
	Goal          *string  `json:"goal"`
	Strategy      *string  `json:"strategy"`
}

// createMealEntryRequest is the body of POST /api/meal-log/entries.
type createMealEntryRequest struct {
	Date     string  `json:"date"`
	MealName string  `json:"meal_name"`
	MealType string  `json:"meal_type"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// bankingPlanRequest is the body of POST /api/banking-plans. Exactly one of
// ExcessKcal and Description is required.
type bankingPlanRequest struct {
	ExcessKcal   *float64 `json:"excess_kcal"`
	Description  string   `json:"description"`
	WindowDays   int      `json:"window_days"`
	DailyCapKcal float64  `json:"daily_cap_kcal"`
	CheatDate    string   `json:"cheat_date"`
	StartDate    string   `json:"start_date"`
}

// bankingPlanResponse pairs the computed plan with the dates it was stored under.
type bankingPlanResponse struct {
	CheatDate string                `json:"cheat_date"`
	Estimate  *mealEstimate         `json:"estimate,omitempty"`
	Plan      nutrition.BankingPlan `json:"plan"`
	Days      []bankingDay          `json:"days"`
}
