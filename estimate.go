package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// estimateRequest is the request body for POST /api/meals/estimate.
type estimateRequest struct {
	Description string `json:"description"`
}

// mealEstimate is the structured nutrition data returned by the model.
// Confidence is 1-5 indicating how accurate the estimate is.
type mealEstimate struct {
	ItemName   string  `json:"item_name"`
	Calories   float64 `json:"calories"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	Confidence int     `json:"confidence"`
}

var (
	// errUnrecognizedMeal is returned when the model says the description isn't food.
	errUnrecognizedMeal = errors.New("unrecognized meal description")
	// errEstimatesDisabled is returned when no OpenAI key is configured.
	errEstimatesDisabled = errors.New("meal estimates are disabled: OPENAI_API_KEY not set")
)

const mealSystemPrompt = `You are a nutrition assistant. Parse the meal description and return a JSON object with:
- "item_name" (string, cleaned up title case)
- "calories" (number, total for the whole meal)
- "protein_g" (number, total grams)
- "carbs_g" (number, total grams)
- "fat_g" (number, total grams)
- "confidence" (integer 1-5: 5=exact known nutritional data, 3=reasonable estimate, 1=very uncertain)

Always provide your best estimate for vague meals like "a large pizza and two beers". Only return {"error": "unrecognized"} if the input is not food or drink at all.
Return only valid JSON, no explanation.`

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

// callOpenAI sends a chat completions request in JSON mode and returns the
// content of the first choice.
func (h *Handler) callOpenAI(ctx context.Context, messages []openAIMessage) (string, error) {
	if h.openAIKey == "" {
		return "", errEstimatesDisabled
	}

	bodyBytes, err := json.Marshal(openAIRequest{
		Model:          h.openAIModel,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(h.openAIBaseURL, "/")+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.openAIKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

// estimateNutrients asks the model for a meal's calories and macros.
// Returns errUnrecognizedMeal when the description isn't food or the answer
// is unusable.
func (h *Handler) estimateNutrients(ctx context.Context, description string) (mealEstimate, error) {
	content, err := h.callOpenAI(ctx, []openAIMessage{
		{Role: "system", Content: mealSystemPrompt},
		{Role: "user", Content: description},
	})
	if err != nil {
		return mealEstimate{}, err
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &errorResp); err != nil {
		return mealEstimate{}, fmt.Errorf("parse model output: %w", err)
	}
	if errorResp.Error != "" {
		return mealEstimate{}, errUnrecognizedMeal
	}

	var est mealEstimate
	if err := json.Unmarshal([]byte(content), &est); err != nil {
		return mealEstimate{}, fmt.Errorf("parse estimate: %w", err)
	}
	if est.ItemName == "" || !(est.Calories > 0) ||
		est.ProteinG < 0 || est.CarbsG < 0 || est.FatG < 0 {
		return mealEstimate{}, errUnrecognizedMeal
	}
	return est, nil
}

/* ─── Handler ────────────────────────────────────────────────────────── */

// estimateError answers a failed estimate the same way on every route: 503
// when estimates are switched off, 502 when the upstream call or its answer
// failed.
func estimateError(c *gin.Context, err error) {
	if errors.Is(err, errEstimatesDisabled) {
		apiError(c, http.StatusServiceUnavailable, "meal estimates are disabled")
		return
	}
	reqLog(c).Error().Err(err).Msg("meal estimate failed")
	apiError(c, http.StatusBadGateway, "openai request failed")
}

// estimateMeal handles POST /api/meals/estimate. Nothing is stored; the client
// logs the estimate as a meal entry if the user accepts it.
func (h *Handler) estimateMeal(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		apiError(c, http.StatusBadRequest, "description is required")
		return
	}

	est, err := h.estimateNutrients(c.Request.Context(), desc)
	if errors.Is(err, errUnrecognizedMeal) {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}
	if err != nil {
		estimateError(c, err)
		return
	}

	c.JSON(http.StatusOK, est)
}
