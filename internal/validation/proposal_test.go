package validation

import (
	"strings"
	"testing"

	"marketplace/internal/models"
)

func validIndividual() *models.IndividualProponent {
	return &models.IndividualProponent{
		LegalName: "Jordan Example",
		Email:     "jordan@example.com",
		Street1:   "100 Main St",
		City:      "Victoria",
		Region:    "BC",
		MailCode:  "V8V 1A1",
		Country:   "Canada",
	}
}

func TestValidateProposalDraftAllowsIncomplete(t *testing.T) {
	p := models.Proposal{ProponentType: models.ProponentIndividual}

	_, errs := ValidateProposal(p, false)
	if errs != nil {
		t.Fatalf("an empty individual draft should validate, got %v", errs)
	}
}

func TestValidateProposalStrictRequiresContent(t *testing.T) {
	p := models.Proposal{ProponentType: models.ProponentIndividual}

	_, errs := ValidateProposal(p, true)
	if errs == nil {
		t.Fatal("an empty proposal should not pass strict validation")
	}
	for _, field := range []string{"proposalText", "proponent.legalName", "proponent.email", "proponent.street1", "proponent.city", "proponent.region", "proponent.mailCode", "proponent.country"} {
		if len(errs[field]) == 0 {
			t.Errorf("expected a strict-mode error for %q, got %v", field, errs)
		}
	}
}

func TestValidateProposalStrictPasses(t *testing.T) {
	p := models.Proposal{
		ProposalText:  "I will complete the work in four weeks.",
		ProponentType: models.ProponentIndividual,
		Individual:    validIndividual(),
	}

	out, errs := ValidateProposal(p, true)
	if errs != nil {
		t.Fatal(errs)
	}
	if out.Individual == nil || out.OrganizationId != "" {
		t.Fatalf("an individual proponent should carry no organization, got %+v", out)
	}
}

func TestValidateProposalProponentType(t *testing.T) {
	p := models.Proposal{ProposalText: "text"}

	_, errs := ValidateProposal(p, false)
	if len(errs["proponentType"]) == 0 {
		t.Fatalf("a missing proponent type should fail, got %v", errs)
	}

	p.ProponentType = "PARTNERSHIP"
	_, errs = ValidateProposal(p, false)
	if len(errs["proponentType"]) == 0 {
		t.Fatalf("an unknown proponent type should fail, got %v", errs)
	}
}

func TestValidateProposalOrganizationProponent(t *testing.T) {
	p := models.Proposal{
		ProposalText:   "text",
		ProponentType:  models.ProponentOrganization,
		OrganizationId: "not-a-uuid",
		Individual:     validIndividual(),
	}

	_, errs := ValidateProposal(p, false)
	if len(errs["organizationId"]) == 0 {
		t.Fatalf("a malformed organization id should fail, got %v", errs)
	}

	p.OrganizationId = "0b6cc9ae-2a38-4ffd-b66c-bb03eed3ed26"
	out, errs := ValidateProposal(p, false)
	if errs != nil {
		t.Fatal(errs)
	}
	if out.Individual != nil {
		t.Fatal("an organization proponent should drop individual details")
	}
}

func TestValidateProposalInvalidEmail(t *testing.T) {
	p := models.Proposal{
		ProposalText:  "text",
		ProponentType: models.ProponentIndividual,
		Individual:    validIndividual(),
	}
	p.Individual.Email = "not-an-email"

	_, errs := ValidateProposal(p, false)
	if len(errs["proponent.email"]) == 0 {
		t.Fatalf("a malformed email should fail even in draft mode, got %v", errs)
	}
}

func TestValidateScore(t *testing.T) {
	cases := []struct {
		score float64
		ok    bool
	}{
		{0, true},
		{100, true},
		{85.25, true},
		{-0.5, false},
		{100.01, false},
		{85.255, false}, // three decimal places
	}

	for _, c := range cases {
		if got := ValidateScore(c.score).Valid(); got != c.ok {
			t.Errorf("ValidateScore(%v) = %v, want %v", c.score, got, c.ok)
		}
	}
}

func TestValidateDisqualificationReason(t *testing.T) {
	if ValidateDisqualificationReason("").Valid() {
		t.Error("disqualification requires a reason")
	}
	if ValidateDisqualificationReason(strings.Repeat("x", DisqualificationReasonMaxLength+1)).Valid() {
		t.Error("an oversized reason should fail")
	}
	if !ValidateDisqualificationReason("conflict of interest").Valid() {
		t.Error("a normal reason should pass")
	}
}
