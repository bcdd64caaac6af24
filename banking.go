package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutriflex-api/internal/nutrition"
)

// bankingDates are the resolved dates of a banking request.
type bankingDates struct {
	cheat time.Time
	start time.Time
}

// validateBankingRequest checks everything that doesn't need the database and
// resolves the cheat and start dates. The cheat date defaults to defaultCheat.
func validateBankingRequest(req *bankingPlanRequest, defaultCheat time.Time) (bankingDates, string) {
	var d bankingDates
	req.Description = strings.TrimSpace(req.Description)
	hasDesc := req.Description != ""
	if (req.ExcessKcal == nil) == !hasDesc {
		return d, "exactly one of excess_kcal and description is required"
	}
	if req.ExcessKcal != nil && !(*req.ExcessKcal >= 0) {
		return d, "excess_kcal must be a non-negative number"
	}
	if req.WindowDays < nutrition.MinBankingDays || req.WindowDays > nutrition.MaxBankingDays {
		return d, fmt.Sprintf("window_days must be between %d and %d", nutrition.MinBankingDays, nutrition.MaxBankingDays)
	}
	if req.DailyCapKcal < 0 || math.IsNaN(req.DailyCapKcal) {
		return d, "daily_cap_kcal must not be negative"
	}

	d.cheat = defaultCheat
	if req.CheatDate != "" {
		t, err := time.Parse(dateLayout, req.CheatDate)
		if err != nil {
			return d, "invalid cheat_date, expected YYYY-MM-DD"
		}
		d.cheat = t
	}
	d.start = d.cheat.AddDate(0, 0, 1)
	if req.StartDate != "" {
		t, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return d, "invalid start_date, expected YYYY-MM-DD"
		}
		d.start = t
	}
	return d, ""
}

// excessFromEstimate is how far a meal of estCalories overshoots what was left
// of the day's budget. It never goes below zero.
func excessFromEstimate(estCalories, remainingCalories float64) float64 {
	return math.Max(0, estCalories-remainingCalories)
}

// remainingOn returns the calories left on date after the meals already logged.
func (h *Handler) remainingOn(ctx context.Context, userID int, date string) (float64, error) {
	day, err := h.loadDayLog(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	s, err := h.summarizeDay(date, day)
	if err != nil {
		return 0, err
	}
	if s.Remaining == nil {
		return 0, errProfileIncomplete
	}
	return s.Remaining.Calories, nil
}

// saveBankingPlan upserts one banking_days row per plan day in a single
// transaction. Re-planning over an existing date replaces it.
func (h *Handler) saveBankingPlan(ctx context.Context, userID int, dates bankingDates, plan nutrition.BankingPlan) ([]bankingDay, error) {
	var saved []bankingDay
	err := pgx.BeginFunc(ctx, h.db, func(tx pgx.Tx) error {
		saved = make([]bankingDay, 0, len(plan.Days))
		for _, d := range plan.Days {
			rows, err := tx.Query(ctx,
				`INSERT INTO banking_days
					(user_id, date, cheat_date, excess_kcal, reduction_kcal, calories, protein_g, carbs_g, fat_g)
				 VALUES (@userID, @date, @cheatDate, @excess, @reduction, @calories, @proteinG, @carbsG, @fatG)
				 ON CONFLICT (user_id, date) DO UPDATE SET
					cheat_date     = EXCLUDED.cheat_date,
					excess_kcal    = EXCLUDED.excess_kcal,
					reduction_kcal = EXCLUDED.reduction_kcal,
					calories       = EXCLUDED.calories,
					protein_g      = EXCLUDED.protein_g,
					carbs_g        = EXCLUDED.carbs_g,
					fat_g          = EXCLUDED.fat_g,
					created_at     = now()
				 RETURNING *`,
				pgx.NamedArgs{
					"userID":    userID,
					"date":      dates.start.AddDate(0, 0, d.Day).Format(dateLayout),
					"cheatDate": dates.cheat.Format(dateLayout),
					"excess":    plan.ExcessKcal,
					"reduction": d.ReductionKcal,
					"calories":  d.Calories,
					"proteinG":  d.ProteinG,
					"carbsG":    d.CarbsG,
					"fatG":      d.FatG,
				})
			if err != nil {
				return err
			}
			row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[bankingDay])
			if err != nil {
				return err
			}
			saved = append(saved, row)
		}
		return nil
	})
	return saved, err
}

// createBankingPlan spreads a cheat meal's excess calories over the next two
// or three days and stores the adjusted targets.
// POST /api/banking-plans. The excess is given directly or estimated from a
// meal description against what was left of the cheat day's budget.
func (h *Handler) createBankingPlan(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req bankingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	dates, msg := validateBankingRequest(&req, today())
	if msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	row, err := h.loadProfile(c, userID)
	if err != nil {
		profileLoadError(c, err)
		return
	}
	targets, err := h.profileTargets(&row)
	if err != nil {
		engineError(c, err)
		return
	}
	engine, _, err := h.targets.engine(row.Strategy)
	if err != nil {
		engineError(c, err)
		return
	}

	resp := bankingPlanResponse{CheatDate: dates.cheat.Format(dateLayout)}
	var excess float64
	if req.ExcessKcal != nil {
		excess = *req.ExcessKcal
	} else {
		est, err := h.estimateNutrients(c.Request.Context(), req.Description)
		if errors.Is(err, errUnrecognizedMeal) {
			apiError(c, http.StatusBadRequest, "description was not recognized as a meal")
			return
		}
		if err != nil {
			estimateError(c, err)
			return
		}
		remaining, err := h.remainingOn(c.Request.Context(), userID, resp.CheatDate)
		if err != nil {
			engineError(c, err)
			return
		}
		excess = excessFromEstimate(est.Calories, remaining)
		resp.Estimate = &est
	}

	plan, err := engine.ComputeBankingPlan(excess, req.WindowDays, targets, req.DailyCapKcal)
	if err != nil {
		engineError(c, err)
		return
	}
	resp.Plan = plan

	resp.Days, err = h.saveBankingPlan(c.Request.Context(), userID, dates, plan)
	if err != nil {
		reqLog(c).Error().Err(err).Int("user_id", userID).Msg("saving banking plan failed")
		apiError(c, http.StatusInternalServerError, "failed to save banking plan")
		return
	}

	reqLog(c).Info().
		Int("user_id", userID).
		Float64("excess_kcal", plan.ExcessKcal).
		Int("window_days", len(plan.Days)).
		Msg("banking plan saved")
	c.JSON(http.StatusCreated, resp)
}

// getBankingDays returns stored banking days within [start, end].
// GET /api/banking-plans?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
func (h *Handler) getBankingDays(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, msg := parseDateRange(c)
	if msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	days, err := queryMany[bankingDay](c, h.db,
		`SELECT * FROM banking_days
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch banking days")
		return
	}
	if days == nil {
		days = []bankingDay{}
	}

	c.JSON(http.StatusOK, days)
}
