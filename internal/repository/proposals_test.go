package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/models"
)

func TestAddProposal(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	vendor := SeedUser(t, repo, models.RoleVendor, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))

	p := SeedProposal(t, repo, vendor, o.Id, models.ProposalDraft)

	stored, err := repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.OpportunityId != o.Id || stored.Status != models.ProposalDraft {
		t.Fatalf("stored proposal does not round-trip: %+v", stored)
	}
	if stored.ProponentType != models.ProponentIndividual || stored.Individual == nil {
		t.Fatalf("individual proponent should round-trip, got %+v", stored)
	}

	// one proposal per vendor per opportunity
	_, err = repo.AddProposal(ctx, models.Proposal{
		OpportunityId: o.Id,
		Status:        models.ProposalDraft,
		CreatedBy:     vendor.Id,
		ProponentType: models.ProponentIndividual,
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("a second proposal by the same vendor should be ErrConflict, got %v", err)
	}
}

func TestSetProposalStatusWithScore(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	vendor := SeedUser(t, repo, models.RoleVendor, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	p := SeedProposal(t, repo, vendor, o.Id, models.ProposalUnderReview)

	score := 87.5
	err := repo.SetProposalStatus(ctx, p.Id, models.ProposalUnderReview, models.ProposalEvaluated, "solid work", &score, &owner.Id)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.ProposalEvaluated || stored.Score == nil || *stored.Score != score {
		t.Fatalf("expected evaluated proposal with score %v, got %+v", score, stored)
	}

	// a transition without a score keeps the recorded one
	err = repo.SetProposalStatus(ctx, p.Id, models.ProposalEvaluated, models.ProposalWithdrawn, "", nil, &vendor.Id)
	if err != nil {
		t.Fatal(err)
	}
	stored, err = repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Score == nil || *stored.Score != score {
		t.Fatalf("the score should survive later transitions, got %+v", stored.Score)
	}

	// stale source status finds the guard
	err = repo.SetProposalStatus(ctx, p.Id, models.ProposalEvaluated, models.ProposalAwarded, "", nil, &owner.Id)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict on a stale source status, got %v", err)
	}
}

func TestAwardProposal(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	first := SeedUser(t, repo, models.RoleVendor, true)
	second := SeedUser(t, repo, models.RoleVendor, true)
	third := SeedUser(t, repo, models.RoleVendor, true)

	o := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	winner := SeedProposal(t, repo, first, o.Id, models.ProposalEvaluated)
	runnerUp := SeedProposal(t, repo, second, o.Id, models.ProposalEvaluated)
	unreviewed := SeedProposal(t, repo, third, o.Id, models.ProposalUnderReview)

	// the opportunity must be in evaluation for the guarded update to land
	err := repo.SetOpportunityStatus(ctx, o.Id, models.OpportunityPublished, models.OpportunityEvaluation, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	err = repo.AwardProposal(ctx, winner.Id, "best value", owner.Id)
	if err != nil {
		t.Fatal(err)
	}

	// winner, opportunity and every live sibling changed together
	stored, err := repo.GetProposalByUUID(ctx, winner.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.ProposalAwarded {
		t.Fatalf("expected %s, got %s", models.ProposalAwarded, stored.Status)
	}

	opp, err := repo.GetOpportunityByUUID(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if opp.Status != models.OpportunityAwarded {
		t.Fatalf("expected opportunity in %s, got %s", models.OpportunityAwarded, opp.Status)
	}

	for _, id := range []string{runnerUp.Id, unreviewed.Id} {
		p, err := repo.GetProposalByUUID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if p.Status != models.ProposalNotAwarded {
			t.Fatalf("expected sibling %s in %s, got %s", id, models.ProposalNotAwarded, p.Status)
		}
	}

	awarded, err := repo.HasAwardedProposal(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !awarded {
		t.Fatal("HasAwardedProposal should report the award")
	}

	// the runner-up is terminal now; a second award is a conflict
	err = repo.AwardProposal(ctx, runnerUp.Id, "", owner.Id)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("a second award should be ErrConflict, got %v", err)
	}
}

func TestAwardProposalSiblingGuard(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	first := SeedUser(t, repo, models.RoleVendor, true)
	second := SeedUser(t, repo, models.RoleVendor, true)

	o := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	SeedProposal(t, repo, first, o.Id, models.ProposalAwarded)
	challenger := SeedProposal(t, repo, second, o.Id, models.ProposalEvaluated)

	// a sibling already holding AWARDED aborts the transaction outright,
	// whatever state the rest of the rows are in
	err := repo.AwardProposal(ctx, challenger.Id, "", owner.Id)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("awarding next to an awarded sibling should be ErrConflict, got %v", err)
	}

	stored, err := repo.GetProposalByUUID(ctx, challenger.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.ProposalEvaluated {
		t.Fatalf("a refused award must leave the challenger untouched, got %s", stored.Status)
	}
}

func TestUpdateProposalContent(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	vendor := SeedUser(t, repo, models.RoleVendor, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	other := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))

	p := SeedProposal(t, repo, vendor, o.Id, models.ProposalDraft)

	p.ProposalText = "revised pitch"
	p.OpportunityId = other.Id // must be ignored, the reference is immutable
	if _, err := repo.UpdateProposalContent(ctx, p); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetProposalByUUID(ctx, p.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ProposalText != "revised pitch" {
		t.Fatalf("content should update, got %+v", stored)
	}
	if stored.OpportunityId != o.Id {
		t.Fatal("the opportunity reference must not change on edit")
	}

	history, err := repo.ProposalHistory(ctx, p.Id)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, rec := range history {
		if rec.Event == models.ProposalEventEdited {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an %s event in history, got %+v", models.ProposalEventEdited, history)
	}
}
