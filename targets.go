package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"lg/nutriflex-api/internal/nutrition"
)

// errProfileIncomplete is returned when a stored profile is missing a field
// the engine needs.
var errProfileIncomplete = errors.New("profile is incomplete: sex, age_years, weight_kg, height_cm, activity_level and goal are required")

// targetKey identifies one targets computation. Profile is comparable, so
// equal inputs share a cache slot regardless of which user sent them.
type targetKey struct {
	profile  nutrition.Profile
	strategy string
}

// targetCache holds one engine per macro strategy and memoizes their results.
// Only successful computations are cached.
type targetCache struct {
	engines         map[string]*nutrition.Engine
	defaultStrategy string
	cache           *lru.Cache[targetKey, nutrition.DailyTargets]
}

// newTargetCache builds an engine per named strategy from base, keeping
// base's goal adjustments and limits.
func newTargetCache(base nutrition.Config, defaultStrategy string, size int) (*targetCache, error) {
	engine, err := nutrition.NewEngine(base)
	if err != nil {
		return nil, err
	}
	tc := &targetCache{engines: map[string]*nutrition.Engine{}}
	for _, name := range nutrition.StrategyNames() {
		split, _ := nutrition.StrategySplit(name)
		e, err := engine.WithSplit(split)
		if err != nil {
			return nil, err
		}
		tc.engines[name] = e
	}
	if _, ok := tc.engines[defaultStrategy]; !ok {
		return nil, fmt.Errorf("unknown default strategy %q", defaultStrategy)
	}
	tc.defaultStrategy = defaultStrategy

	tc.cache, err = lru.New[targetKey, nutrition.DailyTargets](size)
	if err != nil {
		return nil, err
	}
	return tc, nil
}

// engine returns the engine for strategy; "" selects the default.
func (tc *targetCache) engine(strategy string) (*nutrition.Engine, string, error) {
	strategy = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(strategy)), " ", "_")
	if strategy == "" {
		strategy = tc.defaultStrategy
	}
	e, ok := tc.engines[strategy]
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown strategy %q", nutrition.ErrInvalidInput, strategy)
	}
	return e, strategy, nil
}

func (tc *targetCache) targetsFor(p nutrition.Profile, strategy string) (nutrition.DailyTargets, error) {
	e, strategy, err := tc.engine(strategy)
	if err != nil {
		return nutrition.DailyTargets{}, err
	}
	key := targetKey{profile: p, strategy: strategy}
	if t, ok := tc.cache.Get(key); ok {
		return t, nil
	}
	t, err := e.TargetsForProfile(p)
	if err != nil {
		return nutrition.DailyTargets{}, err
	}
	tc.cache.Add(key, t)
	return t, nil
}

/* ─── Stored profile → engine input ─────────────────────────────────── */

// profileFromRow converts a stored profile into an engine Profile. Stored
// enum values were validated on write, but they are parsed again here so a
// hand-edited row fails loudly instead of picking a default.
func profileFromRow(p *nutritionProfile) (nutrition.Profile, error) {
	if p.Sex == nil || p.AgeYears == nil || p.WeightKG == nil || p.HeightCM == nil ||
		p.ActivityLevel == nil || p.Goal == nil {
		return nutrition.Profile{}, errProfileIncomplete
	}
	sex, err := nutrition.ParseSex(*p.Sex)
	if err != nil {
		return nutrition.Profile{}, err
	}
	activity, err := nutrition.ParseActivityLevel(*p.ActivityLevel)
	if err != nil {
		return nutrition.Profile{}, err
	}
	goal, err := nutrition.ParseGoal(*p.Goal)
	if err != nil {
		return nutrition.Profile{}, err
	}
	return nutrition.Profile{
		AgeYears: *p.AgeYears,
		WeightKG: *p.WeightKG,
		HeightCM: *p.HeightCM,
		Sex:      sex,
		Activity: activity,
		Goal:     goal,
	}, nil
}

// profileTargets computes the daily targets for a stored profile.
func (h *Handler) profileTargets(p *nutritionProfile) (nutrition.DailyTargets, error) {
	np, err := profileFromRow(p)
	if err != nil {
		return nutrition.DailyTargets{}, err
	}
	return h.targets.targetsFor(np, p.Strategy)
}

// populateTargets fills the computed fields on p. An incomplete profile is
// left without targets and without an error; any other failure (an unsafe
// target, say) is reported in TargetsError.
func (h *Handler) populateTargets(p *nutritionProfile) {
	t, err := h.profileTargets(p)
	switch {
	case err == nil:
		p.Targets = &t
	case errors.Is(err, errProfileIncomplete):
		// nothing to show until onboarding is finished
	default:
		p.TargetsError = err.Error()
	}
}

/* ─── Stateless preview ──────────────────────────────────────────────── */

// profileFromRequest validates a preview body, converting imperial units
// when metric ones are absent.
func profileFromRequest(req profileRequest) (nutrition.Profile, error) {
	sex, err := nutrition.ParseSex(req.Sex)
	if err != nil {
		return nutrition.Profile{}, err
	}
	activity, err := nutrition.ParseActivityLevel(req.ActivityLevel)
	if err != nil {
		return nutrition.Profile{}, err
	}
	goal, err := nutrition.ParseGoal(req.Goal)
	if err != nil {
		return nutrition.Profile{}, err
	}

	p := nutrition.Profile{AgeYears: req.AgeYears, Sex: sex, Activity: activity, Goal: goal}
	switch {
	case req.WeightKG != nil:
		p.WeightKG = *req.WeightKG
	case req.WeightLBS != nil:
		p.WeightKG = nutrition.PoundsToKG(*req.WeightLBS)
	}
	switch {
	case req.HeightCM != nil:
		p.HeightCM = *req.HeightCM
	case req.HeightIn != nil:
		p.HeightCM = nutrition.InchesToCM(*req.HeightIn)
	}
	return p, p.Validate()
}

// previewTargets computes targets for a profile without storing anything.
// POST /api/targets/preview (public). Responds with the targets plus the
// same profile under every strategy so the client can compare them.
func (h *Handler) previewTargets(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := profileFromRequest(req)
	if err != nil {
		engineError(c, err)
		return
	}
	e, strategy, err := h.targets.engine(req.Strategy)
	if err != nil {
		engineError(c, err)
		return
	}
	targets, err := h.targets.targetsFor(p, strategy)
	if err != nil {
		engineError(c, err)
		return
	}
	strategies, err := e.CompareStrategies(p)
	if err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"strategy":   strategy,
		"targets":    targets,
		"rounded":    targets.Rounded(),
		"strategies": strategies,
	})
}
