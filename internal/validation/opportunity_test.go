package validation

import (
	"strings"
	"testing"
	"time"

	"marketplace/internal/models"
)

const testMaxReward = 70000

func validVersion() models.OpportunityVersion {
	deadline := time.Date(2026, 10, 1, 16, 0, 0, 0, time.UTC)
	assignment := deadline.Add(7 * 24 * time.Hour)
	start := assignment.Add(7 * 24 * time.Hour)
	return models.OpportunityVersion{
		Title:              "Rebuild the permit search",
		Teaser:             "Short-term contract",
		Location:           "Victoria",
		Reward:             25000,
		Skills:             []string{"Go", "PostgreSQL"},
		Description:        "Full description of the work.",
		ProposalDeadline:   &deadline,
		AssignmentDate:     &assignment,
		StartDate:          &start,
		AcceptanceCriteria: "all acceptance tests pass",
		EvaluationCriteria: "highest total score",
	}
}

func TestValidateOpportunityDraftAllowsIncomplete(t *testing.T) {
	v := models.OpportunityVersion{Title: "just a title"}

	_, errs := ValidateOpportunity(v, testMaxReward, false)
	if errs != nil {
		t.Fatalf("an incomplete draft should validate, got %v", errs)
	}
}

func TestValidateOpportunityDraftStillBoundsLengths(t *testing.T) {
	v := models.OpportunityVersion{Title: strings.Repeat("x", TitleMaxLength+1)}

	_, errs := ValidateOpportunity(v, testMaxReward, false)
	if len(errs["title"]) == 0 {
		t.Fatalf("an oversized title should fail even in draft mode, got %v", errs)
	}
}

func TestValidateOpportunityStrictRequiresEverything(t *testing.T) {
	_, errs := ValidateOpportunity(models.OpportunityVersion{}, testMaxReward, true)
	if errs == nil {
		t.Fatal("an empty version should not pass strict validation")
	}

	for _, field := range []string{"title", "location", "description", "skills", "acceptanceCriteria", "evaluationCriteria", "proposalDeadline"} {
		if len(errs[field]) == 0 {
			t.Errorf("expected a strict-mode error for %q, got %v", field, errs)
		}
	}
}

func TestValidateOpportunityStrictPasses(t *testing.T) {
	out, errs := ValidateOpportunity(validVersion(), testMaxReward, true)
	if errs != nil {
		t.Fatalf("a complete version should pass strict validation, got %v", errs)
	}
	if out.Title != "Rebuild the permit search" {
		t.Fatalf("validated content should round-trip, got %+v", out)
	}
}

func TestValidateOpportunityRewardCap(t *testing.T) {
	v := validVersion()
	v.Reward = testMaxReward + 1

	_, errs := ValidateOpportunity(v, testMaxReward, true)
	if len(errs["reward"]) == 0 {
		t.Fatalf("a reward above the cap should fail, got %v", errs)
	}

	// a zero reward is fine for a draft but not for publication
	v.Reward = 0
	if _, errs = ValidateOpportunity(v, testMaxReward, false); errs != nil {
		t.Fatalf("a draft with no reward should validate, got %v", errs)
	}
	if _, errs = ValidateOpportunity(v, testMaxReward, true); len(errs["reward"]) == 0 {
		t.Fatalf("strict mode should require a positive reward, got %v", errs)
	}
}

func TestValidateOpportunityDateChain(t *testing.T) {
	v := validVersion()
	badAssignment := v.ProposalDeadline.Add(-time.Hour)
	v.AssignmentDate = &badAssignment

	_, errs := ValidateOpportunity(v, testMaxReward, true)
	if len(errs["assignmentDate"]) == 0 {
		t.Fatalf("an assignment date before the deadline should fail, got %v", errs)
	}

	v = validVersion()
	badStart := v.AssignmentDate.Add(-time.Hour)
	v.StartDate = &badStart
	_, errs = ValidateOpportunity(v, testMaxReward, true)
	if len(errs["startDate"]) == 0 {
		t.Fatalf("a start date before the assignment date should fail, got %v", errs)
	}

	// completion is optional, but ordered when present
	v = validVersion()
	badCompletion := v.StartDate.Add(-time.Hour)
	v.CompletionDate = &badCompletion
	_, errs = ValidateOpportunity(v, testMaxReward, true)
	if len(errs["completionDate"]) == 0 {
		t.Fatalf("a completion date before the start date should fail, got %v", errs)
	}
}

func TestValidateOpportunityPastDeadlineIsAccepted(t *testing.T) {
	// the clock is the closing hook's concern, not validation's
	v := validVersion()
	past := time.Now().Add(-24 * time.Hour)
	assignment := past.Add(7 * 24 * time.Hour)
	start := assignment.Add(7 * 24 * time.Hour)
	v.ProposalDeadline, v.AssignmentDate, v.StartDate = &past, &assignment, &start

	if _, errs := ValidateOpportunity(v, testMaxReward, true); errs != nil {
		t.Fatalf("a past deadline should still validate, got %v", errs)
	}
}

func TestValidateOpportunitySkillsDedup(t *testing.T) {
	v := validVersion()
	v.Skills = []string{"Go", "Go", "SQL", "Go"}

	out, errs := ValidateOpportunity(v, testMaxReward, true)
	if errs != nil {
		t.Fatal(errs)
	}
	if len(out.Skills) != 2 || out.Skills[0] != "Go" || out.Skills[1] != "SQL" {
		t.Fatalf("skills should be deduplicated preserving order, got %v", out.Skills)
	}
}

func TestValidateOpportunityRemoteDescription(t *testing.T) {
	v := validVersion()
	v.RemoteOk = true

	_, errs := ValidateOpportunity(v, testMaxReward, true)
	if len(errs["remoteDesc"]) == 0 {
		t.Fatalf("remote work requires a description in strict mode, got %v", errs)
	}

	v.RemoteDesc = "fully remote within the province"
	if _, errs = ValidateOpportunity(v, testMaxReward, true); errs != nil {
		t.Fatal(errs)
	}
}

func TestValidateAddendumText(t *testing.T) {
	if ValidateAddendumText("").Valid() {
		t.Error("an empty addendum should fail")
	}
	if ValidateAddendumText(strings.Repeat("x", AddendumMaxLength+1)).Valid() {
		t.Error("an oversized addendum should fail")
	}
	if !ValidateAddendumText("the deadline moved").Valid() {
		t.Error("a normal addendum should pass")
	}
}

func TestValidationErrorsAggregate(t *testing.T) {
	// every failing field reports, not just the first
	v := models.OpportunityVersion{
		Title:  strings.Repeat("x", TitleMaxLength+1),
		Teaser: strings.Repeat("x", TeaserMaxLength+1),
	}

	_, errs := ValidateOpportunity(v, testMaxReward, false)
	if len(errs["title"]) == 0 || len(errs["teaser"]) == 0 {
		t.Fatalf("both failing fields should be reported, got %v", errs)
	}
}
