package domain

import (
	"encoding/json"
	"testing"
)

func TestDecodeInteractionCount_Valid(t *testing.T) {
	raw := json.RawMessage(`{"interactionTypes":["SOCIAL_LIKE","SOCIAL_COMMENT"],"minCount":3}`)

	cond, err := DecodeInteractionCount(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cond.InteractionTypes) != 2 || cond.MinCount != 3 {
		t.Fatalf("unexpected condition: %+v", cond)
	}
}

func TestDecodeInteractionCount_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"interactionTypes":`},
		{"missing types", `{"minCount":3}`},
		{"empty types", `{"interactionTypes":[],"minCount":3}`},
		{"zero minCount", `{"interactionTypes":["MEETING"],"minCount":0}`},
		{"wrong shape", `{"interactionTypes":"MEETING","minCount":1}`},
	}

	for _, tc := range cases {
		if _, err := DecodeInteractionCount(json.RawMessage(tc.raw)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDecodeTimeBased_RejectsNegatives(t *testing.T) {
	if _, err := DecodeTimeBased(json.RawMessage(`{"daysSinceLastInteraction":-1}`)); err == nil {
		t.Fatal("expected error for negative days")
	}
	if _, err := DecodeTimeBased(json.RawMessage(`{"noResponseToEmails":-2}`)); err == nil {
		t.Fatal("expected error for negative email count")
	}

	cond, err := DecodeTimeBased(json.RawMessage(`{"daysSinceLastInteraction":30,"noResponseToEmails":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond.DaysSinceLastInteraction != 30 || cond.NoResponseToEmails != 2 {
		t.Fatalf("unexpected condition: %+v", cond)
	}
}

func TestDecodeLeadHeatIncrease_RejectsUnknownHeat(t *testing.T) {
	if _, err := DecodeLeadHeatIncrease(json.RawMessage(`{"minHeatLevel":"SCORCHING"}`)); err == nil {
		t.Fatal("expected error for unknown heat level")
	}

	cond, err := DecodeLeadHeatIncrease(json.RawMessage(`{"minHeatLevel":"HOT","requiredInteractions":["SITE_VISIT"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond.MinHeatLevel != "HOT" || len(cond.RequiredInteractions) != 1 {
		t.Fatalf("unexpected condition: %+v", cond)
	}
}

func TestDecodeEmailEngagement_RequiresPositiveScore(t *testing.T) {
	if _, err := DecodeEmailEngagement(json.RawMessage(`{"minEngagementScore":0}`)); err == nil {
		t.Fatal("expected error for zero threshold")
	}
	if _, err := DecodeEmailEngagement(json.RawMessage(`{"minEngagementScore":3}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCondition_FormSubmissionTakesNoPayload(t *testing.T) {
	if err := ValidateCondition(TriggerFormSubmission, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCondition_UnknownTrigger(t *testing.T) {
	if err := ValidateCondition("WEATHER_BASED", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown trigger type")
	}
}
