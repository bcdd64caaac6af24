package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"lg/nutriflex-api/internal/nutrition"
)

// validMealTypes is the set of allowed values for meal_entries.meal_type.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// dayLog is everything the daily summary needs for one user and date.
type dayLog struct {
	entries []mealEntry
	profile nutritionProfile
	banking *bankingDay
}

// loadDayLog reads the day's entries, the profile and any banking day in parallel.
func (h *Handler) loadDayLog(ctx context.Context, userID int, date string) (dayLog, error) {
	var out dayLog
	g, gctx := errgroup.WithContext(ctx)
	args := pgx.NamedArgs{"userID": userID, "date": date}

	g.Go(func() error {
		entries, err := queryMany[mealEntry](gctx, h.db,
			`SELECT * FROM meal_entries
			 WHERE user_id = @userID AND date = @date
			 ORDER BY created_at, id`, args)
		out.entries = entries
		return err
	})
	g.Go(func() error {
		p, err := queryOne[nutritionProfile](gctx, h.db, selectProfileSQL, args)
		out.profile = p
		return err
	})
	g.Go(func() error {
		b, err := queryOne[bankingDay](gctx, h.db,
			"SELECT * FROM banking_days WHERE user_id = @userID AND date = @date", args)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err == nil {
			out.banking = &b
		}
		return err
	})

	// Each goroutine writes a distinct field, so no lock is needed.
	if err := g.Wait(); err != nil {
		return dayLog{}, err
	}
	if out.entries == nil {
		out.entries = []mealEntry{}
	}
	return out, nil
}

// summarizeDay reconciles the day's entries against its targets. A banking
// day's adjusted targets replace the profile's for that date.
func (h *Handler) summarizeDay(date string, day dayLog) (dailySummary, error) {
	consumed := make([]nutrition.Totals, len(day.entries))
	var total nutrition.Totals
	for i, e := range day.entries {
		consumed[i] = e.totals()
		total = total.Add(consumed[i])
	}

	h.populateTargets(&day.profile)
	s := dailySummary{
		Date:     date,
		Consumed: total,
		Banking:  day.banking,
		Entries:  day.entries,
		Profile:  day.profile,
	}

	var targets *nutrition.Totals
	if day.banking != nil {
		t := day.banking.targets()
		targets = &t
	} else if day.profile.Targets != nil {
		t := day.profile.Targets.Totals
		targets = &t
	}
	if targets == nil {
		return s, nil
	}

	remaining, err := nutrition.ComputeRemaining(*targets, consumed)
	if err != nil {
		return dailySummary{}, fmt.Errorf("reconcile %s: %w", date, err)
	}
	s.Targets = targets
	s.Remaining = &remaining
	s.OverBudget = remaining.OverBudget()
	return s, nil
}

// getDailySummary returns the day's meals, targets and remaining budget.
// GET /api/meal-log/daily?date=YYYY-MM-DD (defaults to today).
// Remaining values go negative when the day is over target; they are not clamped.
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", today().Format(dateLayout))

	// An invalid date would silently match no rows.
	if _, err := time.Parse(dateLayout, date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	day, err := h.loadDayLog(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch meal log")
		}
		return
	}

	summary, err := h.summarizeDay(date, day)
	if err != nil {
		reqLog(c).Error().Err(err).Int("user_id", userID).Msg("stored meal entry failed validation")
		apiError(c, http.StatusInternalServerError, "failed to compute remaining budget")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// today is the current calendar date in the server's time zone, at midnight
// UTC like the dates time.Parse returns. Every "defaults to today" uses it.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday on or before day.
func mondayOf(day time.Time) time.Time {
	sinceMonday := (int(day.Weekday()) + 6) % 7 // Sunday=0 -> 6
	return day.AddDate(0, 0, -sinceMonday)
}

// weekStartFor resolves the week_start param to the Monday of its week. An
// empty param selects the current week.
func weekStartFor(param string) (time.Time, error) {
	if param == "" {
		return mondayOf(today()), nil
	}
	t, err := time.Parse(dateLayout, param)
	if err != nil {
		return time.Time{}, err
	}
	return mondayOf(t), nil
}

// getWeekSummary returns per-day consumed and remaining calories for the
// Monday-to-Sunday week containing week_start. Days with no entries have has_data=false.
// GET /api/meal-log/week-summary?week_start=YYYY-MM-DD (defaults to current week).
func (h *Handler) getWeekSummary(c *gin.Context) {
	userID := c.GetInt("user_id")

	weekStart, err := weekStartFor(c.Query("week_start"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid week_start, expected YYYY-MM-DD")
		return
	}
	weekEnd := weekStart.AddDate(0, 0, 6)
	args := pgx.NamedArgs{
		"userID":    userID,
		"weekStart": weekStart.Format(dateLayout),
		"weekEnd":   weekEnd.Format(dateLayout),
	}

	profile, err := h.loadProfile(c, userID)
	if err != nil {
		profileLoadError(c, err)
		return
	}
	h.populateTargets(&profile)

	rows, err := queryMany[weekDayDBRow](c, h.db,
		`SELECT
			date,
			SUM(calories)  AS calories,
			SUM(protein_g) AS protein_g,
			SUM(carbs_g)   AS carbs_g,
			SUM(fat_g)     AS fat_g
		 FROM meal_entries
		 WHERE user_id = @userID AND date >= @weekStart AND date <= @weekEnd
		 GROUP BY date`, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}
	banked, err := queryMany[bankingDay](c, h.db,
		`SELECT * FROM banking_days
		 WHERE user_id = @userID AND date >= @weekStart AND date <= @weekEnd`, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch banking days")
		return
	}

	rowByDate := make(map[string]weekDayDBRow, len(rows))
	for _, r := range rows {
		rowByDate[r.Date.Format(dateLayout)] = r
	}
	bankedByDate := make(map[string]bankingDay, len(banked))
	for _, b := range banked {
		bankedByDate[b.Date.Format(dateLayout)] = b
	}

	result := make([]weekDaySummary, 7)
	for i := range result {
		d := weekStart.AddDate(0, 0, i)
		key := d.Format(dateLayout)
		day := weekDaySummary{Date: DateOnly{d}}

		if b, ok := bankedByDate[key]; ok {
			day.Banked = true
			day.TargetCalories = &b.Calories
		} else if profile.Targets != nil {
			cal := profile.Targets.Calories
			day.TargetCalories = &cal
		}
		if row, ok := rowByDate[key]; ok {
			day.HasData = true
			day.CaloriesConsumed = row.Calories
			day.ProteinG = row.ProteinG
			day.CarbsG = row.CarbsG
			day.FatG = row.FatG
		}
		if day.TargetCalories != nil {
			left := *day.TargetCalories - day.CaloriesConsumed
			day.CaloriesRemaining = &left
		}
		result[i] = day
	}

	c.JSON(http.StatusOK, result)
}

// createMealEntry logs a meal.
// POST /api/meal-log/entries. Defaults date to today if omitted.
func (h *Handler) createMealEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createMealEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealName == "" {
		apiError(c, http.StatusBadRequest, "meal_name is required")
		return
	}
	if body.MealType == "" {
		body.MealType = "snack"
	}
	if !validMealTypes[body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}
	if body.Date == "" {
		body.Date = today().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	totals := nutrition.Totals{Calories: body.Calories, ProteinG: body.ProteinG, CarbsG: body.CarbsG, FatG: body.FatG}
	if err := totals.CheckNonNegative(); err != nil {
		engineError(c, err)
		return
	}

	entry, err := queryOne[mealEntry](c, h.db,
		`INSERT INTO meal_entries (user_id, date, meal_name, meal_type, calories, protein_g, carbs_g, fat_g)
		 VALUES (@userID, @date, @mealName, @mealType, @calories, @proteinG, @carbsG, @fatG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "mealName": body.MealName, "mealType": body.MealType,
			"calories": totals.Calories, "proteinG": totals.ProteinG,
			"carbsG": totals.CarbsG, "fatG": totals.FatG,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateMealEntry updates an existing meal entry.
// PUT /api/meal-log/entries/:id. Uses COALESCE so omitted fields keep their current value.
func (h *Handler) updateMealEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		MealName *string  `json:"meal_name"`
		MealType *string  `json:"meal_type"`
		Calories *float64 `json:"calories"`
		ProteinG *float64 `json:"protein_g"`
		CarbsG   *float64 `json:"carbs_g"`
		FatG     *float64 `json:"fat_g"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse(dateLayout, *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.MealType != nil && !validMealTypes[*body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}
	for name, v := range map[string]*float64{
		"calories": body.Calories, "protein_g": body.ProteinG, "carbs_g": body.CarbsG, "fat_g": body.FatG,
	} {
		if v != nil && !(*v >= 0) {
			apiError(c, http.StatusBadRequest, name+" must be a non-negative number")
			return
		}
	}

	entry, err := queryOne[mealEntry](c, h.db,
		`UPDATE meal_entries SET
			date      = COALESCE(@date, date),
			meal_name = COALESCE(@mealName, meal_name),
			meal_type = COALESCE(@mealType, meal_type),
			calories  = COALESCE(@calories, calories),
			protein_g = COALESCE(@proteinG, protein_g),
			carbs_g   = COALESCE(@carbsG, carbs_g),
			fat_g     = COALESCE(@fatG, fat_g),
			updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID,
			"date": body.Date, "mealName": body.MealName, "mealType": body.MealType,
			"calories": body.Calories, "proteinG": body.ProteinG,
			"carbsG": body.CarbsG, "fatG": body.FatG,
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update entry")
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteMealEntry removes a meal entry. Returns 204 on success.
// DELETE /api/meal-log/entries/:id.
func (h *Handler) deleteMealEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM meal_entries WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "entry not found")
		return
	}

	c.Status(http.StatusNoContent)
}
