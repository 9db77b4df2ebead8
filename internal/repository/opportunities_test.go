package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/models"
)

func TestAddOpportunity(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))

	stored, err := repo.GetOpportunityByUUID(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != o.Title || stored.Status != models.OpportunityDraft || stored.Version != 1 {
		t.Fatalf("stored opportunity does not round-trip: %+v", stored)
	}
	if len(stored.Skills) != 2 || stored.Skills[0] != "Go" {
		t.Fatalf("skills array does not round-trip: %v", stored.Skills)
	}
	if stored.ProposalDeadline == nil {
		t.Fatal("proposal deadline should round-trip")
	}

	// the first history row is the creation status, attributed to the owner
	history, err := repo.OpportunityHistory(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || models.OpportunityStatus(history[0].Status) != models.OpportunityDraft || history[0].CreatedBy != owner.Id {
		t.Fatalf("unexpected creation history: %+v", history)
	}

	_, err = repo.GetOpportunityByUUID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("a missing opportunity should be ErrNotFound, got %v", err)
	}
}

func TestOpportunitiesByUUIDs(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	first := SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))
	second := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))

	batch, err := repo.OpportunitiesByUUIDs(ctx, []string{first.Id, second.Id, "00000000-0000-0000-0000-000000000000"})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected the two requested opportunities, got %d", len(batch))
	}
	if batch[first.Id].Title != first.Title || batch[second.Id].Status != models.OpportunityPublished {
		t.Fatalf("batch content does not round-trip: %+v", batch)
	}

	batch, err = repo.OpportunitiesByUUIDs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 0 {
		t.Fatalf("an empty id list should fetch nothing, got %d", len(batch))
	}
}

func TestUpdateOpportunityContent(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))

	o.Title = "updated title"
	updated, err := repo.UpdateOpportunityContent(ctx, o, owner.Id)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Version != o.Version+1 {
		t.Fatalf("expected version %d, got %d", o.Version+1, updated.Version)
	}

	stored, err := repo.GetOpportunityByUUID(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "updated title" || stored.Version != 2 {
		t.Fatalf("latest version should be served, got %+v", stored)
	}
	if stored.Status != models.OpportunityDraft {
		t.Fatal("a content edit must not move status")
	}

	// old versions stay on record
	var count int
	row := repo.TestGetDB().QueryRow("SELECT COUNT(*) FROM opportunity_versions WHERE opportunity_id = $1", o.Id)
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 immutable versions, got %d", count)
	}

	// and the edit lands in the history as an event
	history, err := repo.OpportunityHistory(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, rec := range history {
		if rec.Event == models.OpportunityEventEdited {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an %s event in history, got %+v", models.OpportunityEventEdited, history)
	}
}

func TestSetOpportunityStatusGuard(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))

	err := repo.SetOpportunityStatus(ctx, o.Id, models.OpportunityDraft, models.OpportunityPublished, "live", &owner.Id)
	if err != nil {
		t.Fatal(err)
	}

	// repeating the same transition finds the guard
	err = repo.SetOpportunityStatus(ctx, o.Id, models.OpportunityDraft, models.OpportunityPublished, "", &owner.Id)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("a stale source status should be ErrConflict, got %v", err)
	}

	stored, err := repo.GetOpportunityByUUID(ctx, o.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.OpportunityPublished {
		t.Fatalf("expected %s, got %s", models.OpportunityPublished, stored.Status)
	}
}

func TestCloseOpportunity(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	vendor := SeedUser(t, repo, models.RoleVendor, true)
	drafter := SeedUser(t, repo, models.RoleVendor, true)

	expired := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(-time.Hour))
	open := SeedOpportunity(t, repo, owner, models.OpportunityPublished, time.Now().Add(time.Hour))
	submitted := SeedProposal(t, repo, vendor, expired.Id, models.ProposalSubmitted)
	draft := SeedProposal(t, repo, drafter, expired.Id, models.ProposalDraft)

	ids, err := repo.ExpiredPublishedOpportunities(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != expired.Id {
		t.Fatalf("expected only the expired opportunity, got %v (open is %s)", ids, open.Id)
	}

	closed, err := repo.CloseOpportunity(ctx, expired.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !closed {
		t.Fatal("the first close should report closed=true")
	}

	stored, err := repo.GetOpportunityByUUID(ctx, expired.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.OpportunityEvaluation {
		t.Fatalf("expected %s, got %s", models.OpportunityEvaluation, stored.Status)
	}

	// submitted proposals move, drafts stay behind
	p, err := repo.GetProposalByUUID(ctx, submitted.Id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.ProposalUnderReview {
		t.Fatalf("expected %s, got %s", models.ProposalUnderReview, p.Status)
	}
	p, err = repo.GetProposalByUUID(ctx, draft.Id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.ProposalDraft {
		t.Fatalf("a draft should survive the close untouched, got %s", p.Status)
	}

	// the close is unattributed in the history
	history, err := repo.OpportunityHistory(ctx, expired.Id)
	if err != nil {
		t.Fatal(err)
	}
	if models.OpportunityStatus(history[0].Status) != models.OpportunityEvaluation || history[0].CreatedBy != "" {
		t.Fatalf("the close record should be unattributed, got %+v", history[0])
	}

	// closing again is a no-op, not an error
	closed, err = repo.CloseOpportunity(ctx, expired.Id)
	if err != nil {
		t.Fatal(err)
	}
	if closed {
		t.Fatal("a repeated close should report closed=false")
	}
}

func TestDeleteOpportunity(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx := context.Background()
	owner := SeedUser(t, repo, models.RoleGovernment, true)
	o := SeedOpportunity(t, repo, owner, models.OpportunityDraft, time.Now().Add(time.Hour))

	if err := repo.DeleteOpportunity(ctx, o.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetOpportunityByUUID(ctx, o.Id); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// versions and history go with it
	var count int
	row := repo.TestGetDB().QueryRow("SELECT COUNT(*) FROM opportunity_versions WHERE opportunity_id = $1", o.Id)
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected versions to cascade, %d remain", count)
	}
}
