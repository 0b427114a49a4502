package scoring

import (
	"testing"
	"time"

	"venue_crm_backend/internal/contacts/domain"
)

func interactionsOf(now time.Time, types ...string) []domain.Interaction {
	interactions := make([]domain.Interaction, 0, len(types))
	for _, t := range types {
		interactions = append(interactions, domain.Interaction{Type: t, CreatedAt: now})
	}
	return interactions
}

func TestCompute_EmptyHistoryIsColdZero(t *testing.T) {
	result := Compute(nil)

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %v", result.Score)
	}
	if result.Heat != domain.HeatCold {
		t.Fatalf("expected COLD, got %s", result.Heat)
	}
}

func TestCompute_SumsWeightsAndClassifiesHot(t *testing.T) {
	now := time.Now()
	history := interactionsOf(now,
		domain.InteractionSocialFollow,
		domain.InteractionInfoRequest,
		domain.InteractionSiteVisit,
	)

	result := Compute(history)

	if result.Score != 16 {
		t.Fatalf("expected score 16, got %v", result.Score)
	}
	if result.Heat != domain.HeatHot {
		t.Fatalf("expected HOT at score 16, got %s", result.Heat)
	}
}

func TestCompute_SingleQuoteIsWarm(t *testing.T) {
	result := Compute(interactionsOf(time.Now(), domain.InteractionPriceQuote))

	if result.Score != 8 {
		t.Fatalf("expected score 8, got %v", result.Score)
	}
	if result.Heat != domain.HeatWarm {
		t.Fatalf("expected WARM at score 8, got %s", result.Heat)
	}
}

func TestCompute_UnknownTypesContributeNothing(t *testing.T) {
	now := time.Now()
	history := interactionsOf(now, "CARRIER_PIGEON", domain.InteractionWebsiteVisit)

	result := Compute(history)

	if result.Score != 2 {
		t.Fatalf("expected only the known type to count, got %v", result.Score)
	}
}

func TestCompute_ZeroWeightAuditTypesDoNotScore(t *testing.T) {
	now := time.Now()
	history := interactionsOf(now,
		domain.InteractionFormSubmitted,
		domain.InteractionEmailSent,
		domain.InteractionStageProgression,
	)

	if result := Compute(history); result.Score != 0 {
		t.Fatalf("expected progression-domain types to score 0, got %v", result.Score)
	}
}

func TestCompute_RecomputeAfterRemovalMatchesReducedHistory(t *testing.T) {
	now := time.Now()
	full := interactionsOf(now, domain.InteractionSiteVisit, domain.InteractionPriceQuote)

	before := Compute(full)
	if before.Score != 18 {
		t.Fatalf("expected score 18 before removal, got %v", before.Score)
	}

	after := Compute(full[1:])
	if after.Score != 8 {
		t.Fatalf("expected score 8 after removal, got %v", after.Score)
	}
	if after.Heat != domain.HeatWarm {
		t.Fatalf("expected WARM after removal, got %s", after.Heat)
	}
}

func TestHeatForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Heat
	}{
		{0, domain.HeatCold},
		{5.99, domain.HeatCold},
		{6, domain.HeatWarm},
		{15.99, domain.HeatWarm},
		{16, domain.HeatHot},
		{100, domain.HeatHot},
	}

	for _, tc := range cases {
		if got := domain.HeatForScore(tc.score); got != tc.want {
			t.Fatalf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	now := time.Now()
	history := interactionsOf(now, domain.InteractionMeeting, domain.InteractionPhoneCall)

	first := Compute(history)
	second := Compute(history)

	if first != second {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestComputeAdvanced_NoModifiersMatchesSimpleMode(t *testing.T) {
	now := time.Now().UTC()
	history := interactionsOf(now.Add(-100*24*time.Hour), domain.InteractionPriceQuote, domain.InteractionMeeting)

	simple := Compute(history)
	advanced := ComputeAdvanced(history, Config{}, now)

	if advanced.Score != simple.Score {
		t.Fatalf("expected %v with all modifiers off, got %v", simple.Score, advanced.Score)
	}
	if advanced.Heat != simple.Heat {
		t.Fatalf("expected heat %s, got %s", simple.Heat, advanced.Heat)
	}
}

func TestComputeAdvanced_DecayHalvesAtHalfLife(t *testing.T) {
	now := time.Now().UTC()
	history := []domain.Interaction{
		{Type: domain.InteractionSiteVisit, CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	cfg := Config{UseTimeDecay: true, HalfLifeDays: 30}
	result := ComputeAdvanced(history, cfg, now)

	if result.Score != 5 {
		t.Fatalf("expected weight 10 halved to 5 at one half-life, got %v", result.Score)
	}
}

func TestComputeAdvanced_DecayIsMonotonicInAge(t *testing.T) {
	now := time.Now().UTC()
	cfg := Config{UseTimeDecay: true}

	previous := ComputeAdvanced([]domain.Interaction{
		{Type: domain.InteractionMeeting, CreatedAt: now},
	}, cfg, now).Score

	for _, ageDays := range []int{10, 45, 90, 365} {
		score := ComputeAdvanced([]domain.Interaction{
			{Type: domain.InteractionMeeting, CreatedAt: now.Add(-time.Duration(ageDays) * 24 * time.Hour)},
		}, cfg, now).Score

		if score > previous {
			t.Fatalf("expected decayed score to shrink with age, got %v after %v", score, previous)
		}
		previous = score
	}
}

func TestComputeAdvanced_RecencyBoostAppliesInsideWindow(t *testing.T) {
	now := time.Now().UTC()
	cfg := Config{UseRecencyBoost: true}

	recent := ComputeAdvanced([]domain.Interaction{
		{Type: domain.InteractionPriceQuote, CreatedAt: now.Add(-2 * 24 * time.Hour)},
	}, cfg, now)
	if recent.Score != 12 {
		t.Fatalf("expected 8*1.5=12 inside the window, got %v", recent.Score)
	}

	stale := ComputeAdvanced([]domain.Interaction{
		{Type: domain.InteractionPriceQuote, CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}, cfg, now)
	if stale.Score != 8 {
		t.Fatalf("expected no boost outside the window, got %v", stale.Score)
	}
}

func TestComputeAdvanced_FrequencyBoostAppliesOnceOnTotal(t *testing.T) {
	now := time.Now().UTC()
	cfg := Config{UseFrequencyBoost: true}

	history := []domain.Interaction{
		{Type: domain.InteractionWebsiteVisit, CreatedAt: now.Add(-1 * 24 * time.Hour)},
		{Type: domain.InteractionWebsiteVisit, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{Type: domain.InteractionWebsiteVisit, CreatedAt: now.Add(-3 * 24 * time.Hour)},
	}

	result := ComputeAdvanced(history, cfg, now)

	// 3 recent interactions meet the default threshold: (2+2+2)*1.3 = 7.8.
	if result.Score != 7.8 {
		t.Fatalf("expected 7.8, got %v", result.Score)
	}
	if result.Heat != domain.HeatWarm {
		t.Fatalf("expected WARM, got %s", result.Heat)
	}
}

func TestComputeAdvanced_BelowFrequencyThresholdNoBoost(t *testing.T) {
	now := time.Now().UTC()
	cfg := Config{UseFrequencyBoost: true}

	history := []domain.Interaction{
		{Type: domain.InteractionWebsiteVisit, CreatedAt: now.Add(-1 * 24 * time.Hour)},
		{Type: domain.InteractionWebsiteVisit, CreatedAt: now.Add(-2 * 24 * time.Hour)},
	}

	if result := ComputeAdvanced(history, cfg, now); result.Score != 4 {
		t.Fatalf("expected 4 with only two recent interactions, got %v", result.Score)
	}
}

func TestComputeAdvanced_RoundsToTwoDecimals(t *testing.T) {
	now := time.Now().UTC()
	cfg := Config{UseTimeDecay: true, HalfLifeDays: 30}

	history := []domain.Interaction{
		{Type: domain.InteractionSiteVisit, CreatedAt: now.Add(-17 * 24 * time.Hour)},
	}

	result := ComputeAdvanced(history, cfg, now)
	rounded := float64(int(result.Score*100)) / 100

	if result.Score != rounded {
		t.Fatalf("expected score rounded to 2 decimals, got %v", result.Score)
	}
}

func TestComputeAdvanced_EmptyHistoryIsColdZero(t *testing.T) {
	result := ComputeAdvanced(nil, DefaultConfig(), time.Now().UTC())

	if result.Score != 0 || result.Heat != domain.HeatCold {
		t.Fatalf("expected 0/COLD, got %v/%s", result.Score, result.Heat)
	}
}
