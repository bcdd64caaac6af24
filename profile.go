package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"lg/nutriflex-api/internal/nutrition"
)

const selectProfileSQL = "SELECT * FROM nutrition_profiles WHERE user_id = @userID"

// loadProfile reads the caller's profile row.
func (h *Handler) loadProfile(c *gin.Context, userID int) (nutritionProfile, error) {
	return queryOne[nutritionProfile](c, h.db, selectProfileSQL, pgx.NamedArgs{"userID": userID})
}

// profileLoadError answers a failed profile lookup: 404 when the user has no
// profile row, 500 for anything else.
func profileLoadError(c *gin.Context, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	apiError(c, http.StatusInternalServerError, "failed to fetch profile")
}

// getProfile returns the caller's nutrition profile with computed targets
// when the profile is complete.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.loadProfile(c, userID)
	if err != nil {
		profileLoadError(c, err)
		return
	}

	h.populateTargets(&p)
	c.JSON(http.StatusOK, p)
}

// validateProfilePatch checks every provided field and canonicalizes enum
// values in place, so the stored row always holds engine-recognized names.
func validateProfilePatch(body *patchProfileRequest) string {
	if body.Sex != nil {
		s, err := nutrition.ParseSex(*body.Sex)
		if err != nil {
			return "sex must be one of: male, female"
		}
		*body.Sex = string(s)
	}
	if body.AgeYears != nil && (*body.AgeYears <= 0 || *body.AgeYears > 130) {
		return "age_years must be between 1 and 130"
	}
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > 700) {
		return "weight_kg must be between 0 and 700"
	}
	if body.HeightCM != nil && (*body.HeightCM <= 0 || *body.HeightCM > 300) {
		return "height_cm must be between 0 and 300"
	}
	if body.ActivityLevel != nil {
		a, err := nutrition.ParseActivityLevel(*body.ActivityLevel)
		if err != nil {
			return "activity_level must be one of: sedentary, lightly_active, moderately_active, very_active"
		}
		*body.ActivityLevel = string(a)
	}
	if body.Goal != nil {
		g, err := nutrition.ParseGoal(*body.Goal)
		if err != nil {
			return "goal must be one of: lose_weight, maintain, gain_weight"
		}
		*body.Goal = string(g)
	}
	if body.Strategy != nil {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(*body.Strategy)), " ", "_")
		if _, ok := nutrition.StrategySplit(name); !ok {
			return "strategy must be one of: " + strings.Join(nutrition.StrategyNames(), ", ")
		}
		*body.Strategy = name
	}
	return ""
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile. Pointer fields distinguish "not provided" from zero.
// The response carries the recomputed targets; a profile whose targets the
// engine refuses (below the calorie floor, say) is still saved and the
// reason is returned in targets_error.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateProfilePatch(&body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}
	set := func(column, param string, value any) {
		setClauses = append(setClauses, column+" = @"+param)
		args[param] = value
	}
	if body.Sex != nil {
		set("sex", "sex", *body.Sex)
	}
	if body.AgeYears != nil {
		set("age_years", "ageYears", *body.AgeYears)
	}
	if body.WeightKG != nil {
		set("weight_kg", "weightKG", *body.WeightKG)
	}
	if body.HeightCM != nil {
		set("height_cm", "heightCM", *body.HeightCM)
	}
	if body.ActivityLevel != nil {
		set("activity_level", "activityLevel", *body.ActivityLevel)
	}
	if body.Goal != nil {
		set("goal", "goal", *body.Goal)
	}
	if body.Strategy != nil {
		set("strategy", "strategy", *body.Strategy)
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE nutrition_profiles SET " +
		strings.Join(setClauses, ", ") +
		", updated_at = now() WHERE user_id = @userID RETURNING *"

	p, err := queryOne[nutritionProfile](c, h.db, query, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	h.populateTargets(&p)
	if p.TargetsError != "" {
		reqLog(c).Info().Int("user_id", userID).Str("reason", p.TargetsError).Msg("profile saved without targets")
	}
	c.JSON(http.StatusOK, p)
}

// getStrategies returns the caller's targets under every macro strategy.
// GET /api/profile/strategies.
func (h *Handler) getStrategies(c *gin.Context) {
	userID := c.GetInt("user_id")

	row, err := h.loadProfile(c, userID)
	if err != nil {
		profileLoadError(c, err)
		return
	}
	p, err := profileFromRow(&row)
	if err != nil {
		engineError(c, err)
		return
	}

	e, strategy, err := h.targets.engine(row.Strategy)
	if err != nil {
		engineError(c, err)
		return
	}
	all, err := e.CompareStrategies(p)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": strategy, "strategies": all})
}
