package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const maxWeightKG = 700

// parseDateRange reads the required start and end query params. The returned
// message is empty when both are valid and start <= end.
func parseDateRange(c *gin.Context) (start, end, msg string) {
	start = c.Query("start")
	end = c.Query("end")

	if start == "" || end == "" {
		return "", "", "start and end query params are required"
	}
	if _, err := time.Parse(dateLayout, start); err != nil {
		return "", "", "invalid start, expected YYYY-MM-DD"
	}
	if _, err := time.Parse(dateLayout, end); err != nil {
		return "", "", "invalid end, expected YYYY-MM-DD"
	}
	if start > end {
		return "", "", "start must not be after end"
	}
	return start, end, ""
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, msg := parseDateRange(c)
	if msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	entries, err := queryMany[weightEntry](c, h.db,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// syncProfileWeight copies a weigh-in into the profile when it is for today,
// so targets follow the latest weight. Older weigh-ins leave the profile alone.
func (h *Handler) syncProfileWeight(ctx context.Context, userID int, e weightEntry) error {
	if e.Date.Format(dateLayout) != today().Format(dateLayout) {
		return nil
	}
	_, err := h.db.Exec(ctx,
		"UPDATE nutrition_profiles SET weight_kg = @weightKG, updated_at = now() WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID, "weightKG": e.WeightKG})
	return err
}

// upsertWeightEntry creates or updates the weight entry for the given date.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weight_kg": 84.2 }.
// The UNIQUE(user_id, date) constraint means posting the same date updates in place.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Date     string  `json:"date"`
		WeightKG float64 `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(dateLayout, body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.WeightKG <= 0 || body.WeightKG > maxWeightKG {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 700")
		return
	}

	entry, err := queryOne[weightEntry](c, h.db,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date, @weightKG)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": body.Date, "weightKG": body.WeightKG})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to upsert weight entry")
		return
	}
	if err := h.syncProfileWeight(c, userID, entry); err != nil {
		reqLog(c).Warn().Err(err).Int("user_id", userID).Msg("profile weight not updated")
	}

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight_kg"? }.
// Uses COALESCE so omitted fields keep their current values.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		WeightKG *float64 `json:"weight_kg"`
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
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > maxWeightKG) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 700")
		return
	}

	entry, err := queryOne[weightEntry](c, h.db,
		`UPDATE weight_log SET
			date      = COALESCE(@date, date),
			weight_kg = COALESCE(@weightKG, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": body.Date, "weightKG": body.WeightKG})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "weight entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update weight entry")
		}
		return
	}
	if err := h.syncProfileWeight(c, userID, entry); err != nil {
		reqLog(c).Warn().Err(err).Int("user_id", userID).Msg("profile weight not updated")
	}

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete weight entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}

	c.Status(http.StatusNoContent)
}
