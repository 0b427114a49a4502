// Package scoring converts a contact's interaction history into a numeric
// lead heat score and a COLD/WARM/HOT classification. Compute and
// ComputeAdvanced are pure; persistence lives in Service.
package scoring

import (
	"math"
	"time"

	"venue_crm_backend/internal/contacts/domain"
)

const (
	defaultHalfLifeDays        = 30.0
	defaultRecencyWindowDays   = 7.0
	defaultRecencyMultiplier   = 1.5
	defaultFrequencyThreshold  = 3
	defaultFrequencyMultiplier = 1.3

	// The frequency boost always looks at the last 7 days, independent of
	// the recency window.
	frequencyWindowDays = 7.0

	hoursPerDay = 24.0
)

// Config controls the advanced scoring modifiers. Each modifier toggles
// independently; zero values for the numeric knobs fall back to defaults.
type Config struct {
	UseTimeDecay bool    `json:"useTimeDecay"`
	HalfLifeDays float64 `json:"halfLifeDays"`

	UseRecencyBoost   bool    `json:"useRecencyBoost"`
	RecencyWindowDays float64 `json:"recencyWindowDays"`
	RecencyMultiplier float64 `json:"recencyMultiplier"`

	UseFrequencyBoost   bool    `json:"useFrequencyBoost"`
	FrequencyThreshold  int     `json:"frequencyThreshold"`
	FrequencyMultiplier float64 `json:"frequencyMultiplier"`
}

// DefaultConfig returns the advanced-mode defaults with all modifiers enabled.
func DefaultConfig() Config {
	return Config{
		UseTimeDecay:        true,
		HalfLifeDays:        defaultHalfLifeDays,
		UseRecencyBoost:     true,
		RecencyWindowDays:   defaultRecencyWindowDays,
		RecencyMultiplier:   defaultRecencyMultiplier,
		UseFrequencyBoost:   true,
		FrequencyThreshold:  defaultFrequencyThreshold,
		FrequencyMultiplier: defaultFrequencyMultiplier,
	}
}

func (c Config) normalized() Config {
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = defaultHalfLifeDays
	}
	if c.RecencyWindowDays <= 0 {
		c.RecencyWindowDays = defaultRecencyWindowDays
	}
	if c.RecencyMultiplier <= 0 {
		c.RecencyMultiplier = defaultRecencyMultiplier
	}
	if c.FrequencyThreshold <= 0 {
		c.FrequencyThreshold = defaultFrequencyThreshold
	}
	if c.FrequencyMultiplier <= 0 {
		c.FrequencyMultiplier = defaultFrequencyMultiplier
	}
	return c
}

// Result is the scoring output.
type Result struct {
	Score float64     `json:"score"`
	Heat  domain.Heat `json:"heatLevel"`
}

// Compute sums the fixed per-type weights. This is the simple mode used for
// every automatic recalculation after interaction create/delete. An empty
// history scores 0/COLD; unknown types contribute nothing.
func Compute(interactions []domain.Interaction) Result {
	score := 0.0
	for _, interaction := range interactions {
		score += domain.InteractionWeight(interaction.Type)
	}
	return Result{Score: score, Heat: domain.HeatForScore(score)}
}

// ComputeAdvanced applies the configured modifiers on top of the shared
// weight table. Decay and recency apply per interaction before summation;
// the frequency boost multiplies the total once. The final score is rounded
// to two decimal places and classified with the same fixed thresholds as
// simple mode.
func ComputeAdvanced(interactions []domain.Interaction, cfg Config, now time.Time) Result {
	cfg = cfg.normalized()

	total := 0.0
	recentCount := 0

	for _, interaction := range interactions {
		weight := domain.InteractionWeight(interaction.Type)
		ageDays := interaction.Age(now).Hours() / hoursPerDay

		if cfg.UseTimeDecay {
			weight *= math.Pow(0.5, ageDays/cfg.HalfLifeDays)
		}
		if cfg.UseRecencyBoost && ageDays <= cfg.RecencyWindowDays {
			weight *= cfg.RecencyMultiplier
		}
		if ageDays <= frequencyWindowDays {
			recentCount++
		}

		total += weight
	}

	if cfg.UseFrequencyBoost && recentCount >= cfg.FrequencyThreshold {
		total *= cfg.FrequencyMultiplier
	}

	score := math.Round(total*100) / 100
	return Result{Score: score, Heat: domain.HeatForScore(score)}
}
