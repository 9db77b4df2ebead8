package lifecycle

import (
	"testing"

	"marketplace/internal/models"
)

func TestOpportunityEdges(t *testing.T) {
	allowed := []struct {
		from, to models.OpportunityStatus
	}{
		{models.OpportunityDraft, models.OpportunityPublished},
		{models.OpportunityDraft, models.OpportunityCanceled},
		{models.OpportunityPublished, models.OpportunityEvaluation},
		{models.OpportunityPublished, models.OpportunitySuspended},
		{models.OpportunityPublished, models.OpportunityCanceled},
		{models.OpportunityEvaluation, models.OpportunityAwarded},
		{models.OpportunityEvaluation, models.OpportunityCanceled},
		{models.OpportunitySuspended, models.OpportunityPublished},
		{models.OpportunitySuspended, models.OpportunityCanceled},
	}

	for _, c := range allowed {
		if !OpportunityEdge(c.from, c.to) {
			t.Errorf("expected edge %s -> %s", c.from, c.to)
		}
	}

	// nothing leaves a terminal status, and no edge skips evaluation
	statuses := []models.OpportunityStatus{
		models.OpportunityDraft, models.OpportunityPublished, models.OpportunityEvaluation,
		models.OpportunityAwarded, models.OpportunitySuspended, models.OpportunityCanceled,
	}
	for _, to := range statuses {
		if OpportunityEdge(models.OpportunityAwarded, to) {
			t.Errorf("AWARDED should admit no transition, found edge to %s", to)
		}
		if OpportunityEdge(models.OpportunityCanceled, to) {
			t.Errorf("CANCELED should admit no transition, found edge to %s", to)
		}
	}
	if OpportunityEdge(models.OpportunityDraft, models.OpportunityEvaluation) {
		t.Error("a draft cannot move straight to evaluation")
	}
	if OpportunityEdge(models.OpportunityPublished, models.OpportunityAwarded) {
		t.Error("awarding requires passing through evaluation")
	}
	if OpportunityEdge(models.OpportunityPublished, models.OpportunityDraft) {
		t.Error("publication cannot be undone back to draft")
	}
}

func TestProposalEdges(t *testing.T) {
	allowed := []struct {
		from, to models.ProposalStatus
	}{
		{models.ProposalDraft, models.ProposalSubmitted},
		{models.ProposalSubmitted, models.ProposalUnderReview},
		{models.ProposalSubmitted, models.ProposalWithdrawn},
		{models.ProposalUnderReview, models.ProposalEvaluated},
		{models.ProposalUnderReview, models.ProposalWithdrawn},
		{models.ProposalEvaluated, models.ProposalAwarded},
		{models.ProposalEvaluated, models.ProposalNotAwarded},
		{models.ProposalEvaluated, models.ProposalWithdrawn},
	}
	for _, c := range allowed {
		if !ProposalEdge(c.from, c.to) {
			t.Errorf("expected edge %s -> %s", c.from, c.to)
		}
	}

	if ProposalEdge(models.ProposalDraft, models.ProposalUnderReview) {
		t.Error("a draft must be submitted before review")
	}
	if ProposalEdge(models.ProposalSubmitted, models.ProposalAwarded) {
		t.Error("awarding requires scoring first")
	}
	if ProposalEdge(models.ProposalDraft, models.ProposalWithdrawn) {
		t.Error("a draft has nothing to withdraw")
	}

	terminal := []models.ProposalStatus{
		models.ProposalAwarded, models.ProposalNotAwarded,
		models.ProposalDisqualified, models.ProposalWithdrawn,
	}
	for _, from := range terminal {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		if ProposalEdge(from, models.ProposalSubmitted) || ProposalEdge(from, models.ProposalDraft) {
			t.Errorf("%s should admit no transition", from)
		}
	}
}

func TestDisqualifyReachableFromAnyLiveStatus(t *testing.T) {
	live := []models.ProposalStatus{
		models.ProposalDraft, models.ProposalSubmitted,
		models.ProposalUnderReview, models.ProposalEvaluated,
	}
	for _, from := range live {
		if !ProposalEdge(from, models.ProposalDisqualified) {
			t.Errorf("disqualification should be reachable from %s", from)
		}
	}
}

func TestWithdrawAllowed(t *testing.T) {
	if WithdrawAllowed(models.ProposalDraft) {
		t.Error("withdrawing a draft is not a transition")
	}
	for _, s := range []models.ProposalStatus{models.ProposalSubmitted, models.ProposalUnderReview, models.ProposalEvaluated} {
		if !WithdrawAllowed(s) {
			t.Errorf("withdraw should be allowed from %s", s)
		}
	}
	if WithdrawAllowed(models.ProposalAwarded) {
		t.Error("an awarded proposal cannot be withdrawn")
	}
}

func TestOpportunityEditable(t *testing.T) {
	if !OpportunityEditable(models.OpportunityDraft) || !OpportunityEditable(models.OpportunityPublished) {
		t.Error("drafts and published opportunities are editable")
	}
	for _, s := range []models.OpportunityStatus{models.OpportunityEvaluation, models.OpportunityAwarded, models.OpportunitySuspended, models.OpportunityCanceled} {
		if OpportunityEditable(s) {
			t.Errorf("%s should not be editable", s)
		}
	}
}

//// Permissions

func user(role models.UserRole, id string) models.User {
	return models.User{Id: id, Role: role}
}

func TestOpportunityPermissions(t *testing.T) {
	owner := user(models.RoleGovernment, "gov-1")
	peer := user(models.RoleGovernment, "gov-2")
	admin := user(models.RoleAdmin, "adm-1")
	vendor := user(models.RoleVendor, "ven-1")

	draft := models.Opportunity{Status: models.OpportunityDraft, CreatedBy: owner.Id}
	suspended := models.Opportunity{Status: models.OpportunitySuspended, CreatedBy: owner.Id}

	if !CanCreateOpportunity(owner) || !CanCreateOpportunity(admin) {
		t.Error("government staff create opportunities")
	}
	if CanCreateOpportunity(vendor) {
		t.Error("vendors do not create opportunities")
	}

	if !CanEditOpportunity(owner, draft) || !CanEditOpportunity(admin, draft) {
		t.Error("the owner and admins edit an opportunity")
	}
	if CanEditOpportunity(peer, draft) || CanEditOpportunity(vendor, draft) {
		t.Error("peers and vendors do not edit a foreign opportunity")
	}

	// reinstating a suspended opportunity is admin-only
	if CanPublishOpportunity(owner, suspended) {
		t.Error("only an admin republishes a suspended opportunity")
	}
	if !CanPublishOpportunity(admin, suspended) || !CanPublishOpportunity(owner, draft) {
		t.Error("admin republishes suspended, owner publishes their draft")
	}

	if CanSuspendOpportunity(owner) || !CanSuspendOpportunity(admin) {
		t.Error("suspension is admin-only")
	}
}

func TestOpportunityReadVisibility(t *testing.T) {
	owner := user(models.RoleGovernment, "gov-1")
	peer := user(models.RoleGovernment, "gov-2")
	admin := user(models.RoleAdmin, "adm-1")

	draft := models.Opportunity{Status: models.OpportunityDraft, CreatedBy: owner.Id}
	published := models.Opportunity{Status: models.OpportunityPublished, CreatedBy: owner.Id}

	if !CanReadOpportunity(nil, published) {
		t.Error("published opportunities are public")
	}
	if CanReadOpportunity(nil, draft) || CanReadOpportunity(&peer, draft) {
		t.Error("drafts are private to their owner")
	}
	if !CanReadOpportunity(&owner, draft) || !CanReadOpportunity(&admin, draft) {
		t.Error("the owner and admins see drafts")
	}
}

func TestProposalPermissions(t *testing.T) {
	vendor := user(models.RoleVendor, "ven-1")
	rival := user(models.RoleVendor, "ven-2")
	gov := user(models.RoleGovernment, "gov-1")
	admin := user(models.RoleAdmin, "adm-1")

	p := models.Proposal{CreatedBy: vendor.Id}
	opp := models.Opportunity{CreatedBy: gov.Id}

	if !CanCreateProposal(vendor) || CanCreateProposal(gov) {
		t.Error("only vendors create proposals")
	}
	if !CanEditProposal(vendor, p) || CanEditProposal(rival, p) || CanEditProposal(gov, p) {
		t.Error("only the owning vendor edits a proposal")
	}
	if !CanScoreProposal(gov) || !CanScoreProposal(admin) || CanScoreProposal(vendor) {
		t.Error("scoring is a government action")
	}

	if !CanReadProposal(vendor, p, opp) {
		t.Error("the owning vendor reads their proposal")
	}
	if !CanReadProposal(gov, p, opp) {
		t.Error("the opportunity owner reads its proposals")
	}
	if CanReadProposal(rival, p, opp) {
		t.Error("a rival vendor must not read a foreign proposal")
	}
	unrelated := user(models.RoleGovernment, "gov-2")
	if CanReadProposal(unrelated, p, opp) {
		t.Error("unrelated staff must not read proposals")
	}
	if !CanReadProposal(admin, p, opp) {
		t.Error("admins read everything")
	}
}
