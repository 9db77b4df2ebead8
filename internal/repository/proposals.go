package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"marketplace/internal/models"
)

const proposalColumns = `
	id,
	opportunity_id,
	status,
	created_by,
	score,
	proposal_text,
	additional_comments,
	proponent_type,
	legal_name,
	email,
	phone,
	street1,
	street2,
	city,
	region,
	mail_code,
	country,
	COALESCE(organization_id::text, ''),
	created_at,
	updated_at
`

func scanProposal(row interface{ Scan(...any) error }) (models.Proposal, error) {
	var p models.Proposal
	var ind models.IndividualProponent
	err := row.Scan(
		&p.Id, &p.OpportunityId, &p.Status, &p.CreatedBy, &p.Score, &p.ProposalText,
		&p.AdditionalComments, &p.ProponentType, &ind.LegalName, &ind.Email, &ind.Phone,
		&ind.Street1, &ind.Street2, &ind.City, &ind.Region, &ind.MailCode, &ind.Country,
		&p.OrganizationId, &p.CreatedAt, &p.UpdatedAt,
	)
	if p.ProponentType == models.ProponentIndividual {
		p.Individual = &ind
	}
	return p, err
}

func (repo *Repository) prepProposalsQuery(limit, offset int, proposalId, opportunityId, createdBy string) (query string, queryParams []interface{}) {
	query = `
	SELECT ` + proposalColumns + `
	FROM proposals
	$conditions$
	ORDER BY created_at DESC
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)

	if limit <= 0 {
		queryParams = append(queryParams, nil)
	} else {
		queryParams = append(queryParams, limit)
	}
	queryParams = append(queryParams, offset)

	if len(proposalId) > 0 {
		conditions = append(conditions, "id = $$")
		queryParams = append(queryParams, proposalId)
	}

	if len(opportunityId) > 0 {
		conditions = append(conditions, "opportunity_id = $$")
		queryParams = append(queryParams, opportunityId)
	}

	if len(createdBy) > 0 {
		conditions = append(conditions, "created_by = $$")
		queryParams = append(queryParams, createdBy)
	}

	condStr := ""
	if len(conditions) > 0 {
		for i := 0; i < len(conditions); i++ {
			conditions[i] = strings.Replace(conditions[i], "$$", "$"+strconv.Itoa(i+3), -1)
		}
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func (repo *Repository) GetProposals(ctx context.Context, limit, offset int, opportunityId, createdBy string) ([]models.Proposal, error) {
	query, queryParams := repo.prepProposalsQuery(limit, offset, "", opportunityId, createdBy)

	rows, err := repo.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetProposals: %w", err)
	}
	defer rows.Close()

	var result []models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetProposals: row scan failed: %w", err)
		}
		result = append(result, p)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetProposals: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetProposalByUUID(ctx context.Context, UUID string) (models.Proposal, error) {
	query, queryParams := repo.prepProposalsQuery(1, 0, UUID, "", "")

	p, err := scanProposal(repo.db.QueryRowContext(ctx, query, queryParams...))
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("repository.Repository.GetProposalByUUID: no proposal found by UUID %s: %w", UUID, models.ErrNotFound)
	} else if err != nil {
		return p, fmt.Errorf("repository.Repository.GetProposalByUUID: %w", err)
	}

	return p, nil
}

// AddProposal inserts the proposal and its first status history row in one
// transaction. A second proposal by the same vendor on the same opportunity
// trips the unique constraint and surfaces as ErrConflict.
func (repo *Repository) AddProposal(ctx context.Context, p models.Proposal) (models.Proposal, error) {
	result := p

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddProposal: failed to start transaction: %w", err)
	}

	ind := p.Individual
	if ind == nil {
		ind = &models.IndividualProponent{}
	}

	query := `
	INSERT INTO proposals
		(opportunity_id, status, created_by, proposal_text, additional_comments, proponent_type,
		legal_name, email, phone, street1, street2, city, region, mail_code, country, organization_id)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, '')::uuid)
	RETURNING
		id, created_at, updated_at
	`
	row := tx.QueryRowContext(ctx, query,
		p.OpportunityId, p.Status, p.CreatedBy, p.ProposalText, p.AdditionalComments, p.ProponentType,
		ind.LegalName, ind.Email, ind.Phone, ind.Street1, ind.Street2, ind.City, ind.Region,
		ind.MailCode, ind.Country, p.OrganizationId,
	)
	err = row.Scan(&result.Id, &result.CreatedAt, &result.UpdatedAt)
	if isUniqueViolation(err) {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddProposal: proposal already exists for this opportunity and vendor: %w", models.ErrConflict))
	} else if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddProposal: %w", err))
	}

	err = addProposalStatus(ctx, tx, result.Id, string(result.Status), "", "", &result.CreatedBy)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddProposal: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddProposal: failed to commit transaction: %w", err)
	}

	return result, nil
}

func addProposalStatus(ctx context.Context, tx *sql.Tx, proposalId, status, event, note string, createdBy *string) error {
	query := `
	INSERT INTO proposal_statuses
		(proposal_id, status, event, note, created_by)
	VALUES
		($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, proposalId, status, event, note, createdBy)
	if err != nil {
		return fmt.Errorf("repository.addProposalStatus: %w", err)
	}
	return nil
}

// UpdateProposalContent overwrites a draft's content and records an EDITED
// history event. The opportunity reference is immutable and not part of the
// update.
func (repo *Repository) UpdateProposalContent(ctx context.Context, p models.Proposal) (models.Proposal, error) {
	result := p

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.UpdateProposalContent: failed to start transaction: %w", err)
	}

	ind := p.Individual
	if ind == nil {
		ind = &models.IndividualProponent{}
	}

	query := `
	UPDATE proposals
	SET (proposal_text, additional_comments, proponent_type, legal_name, email, phone,
		street1, street2, city, region, mail_code, country, organization_id, updated_at) =
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, '')::uuid, CURRENT_TIMESTAMP)
	WHERE id = $14
	RETURNING updated_at
	`
	row := tx.QueryRowContext(ctx, query,
		p.ProposalText, p.AdditionalComments, p.ProponentType, ind.LegalName, ind.Email, ind.Phone,
		ind.Street1, ind.Street2, ind.City, ind.Region, ind.MailCode, ind.Country, p.OrganizationId, p.Id,
	)
	err = row.Scan(&result.UpdatedAt)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.UpdateProposalContent: %w", err))
	}

	err = addProposalStatus(ctx, tx, p.Id, "", models.ProposalEventEdited, "", &p.CreatedBy)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.UpdateProposalContent: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return result, fmt.Errorf("repository.Repository.UpdateProposalContent: failed to commit transaction: %w", err)
	}

	return result, nil
}

// SetProposalStatus performs one declared status transition, optionally
// recording a score (the evaluate verb). Guarded on the expected source
// status like SetOpportunityStatus.
func (repo *Repository) SetProposalStatus(ctx context.Context, proposalId string, from, to models.ProposalStatus, note string, score *float64, actor *string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Repository.SetProposalStatus: failed to start transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
	UPDATE proposals
	SET status = $1, score = COALESCE($2, score), updated_at = CURRENT_TIMESTAMP
	WHERE id = $3 AND status = $4
	`, to, score, proposalId, from)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetProposalStatus: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetProposalStatus: %w", err))
	}
	if n == 0 {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetProposalStatus: proposal %s is no longer %s: %w", proposalId, from, models.ErrConflict))
	}

	err = addProposalStatus(ctx, tx, proposalId, string(to), "", note, actor)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetProposalStatus: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.SetProposalStatus: failed to commit transaction: %w", err)
	}

	return nil
}

func (repo *Repository) ProposalHistory(ctx context.Context, proposalId string) ([]models.StatusRecord, error) {
	query := `
	SELECT
		id, proposal_id, COALESCE(status, ''), COALESCE(event, ''), note, COALESCE(created_by::text, ''), created_at
	FROM proposal_statuses
	WHERE proposal_id = $1
	ORDER BY created_at DESC, id
	`
	rows, err := repo.db.QueryContext(ctx, query, proposalId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.ProposalHistory: %w", err)
	}
	defer rows.Close()

	var result []models.StatusRecord
	var rec models.StatusRecord
	for rows.Next() {
		err = rows.Scan(&rec.Id, &rec.EntityId, &rec.Status, &rec.Event, &rec.Note, &rec.CreatedBy, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.ProposalHistory: row scan failed: %w", err)
		}
		result = append(result, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.ProposalHistory: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) DeleteProposal(ctx context.Context, proposalId string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM proposals WHERE id = $1", proposalId)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteProposal: %w", err)
	}
	return nil
}

// AwardProposal is the whole award in one transaction: the winning proposal
// goes to AWARDED, its opportunity goes to AWARDED, and every other still
// live proposal on the opportunity goes to NOT_AWARDED. The winning row is
// locked and re-checked inside the transaction, and a sibling already
// holding AWARDED aborts with ErrConflict: at most one proposal per
// opportunity can ever win.
func (repo *Repository) AwardProposal(ctx context.Context, proposalId, note string, actor string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Repository.AwardProposal: failed to start transaction: %w", err)
	}

	var opportunityId string
	var status models.ProposalStatus
	row := tx.QueryRowContext(ctx, `
	SELECT opportunity_id, status
	FROM proposals
	WHERE id = $1
	FOR UPDATE
	`, proposalId)
	err = row.Scan(&opportunityId, &status)
	if err == sql.ErrNoRows {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", models.ErrNotFound))
	} else if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}

	if status != models.ProposalEvaluated {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: proposal %s is no longer %s: %w", proposalId, models.ProposalEvaluated, models.ErrConflict))
	}

	var awardedSibling bool
	err = tx.QueryRowContext(ctx, `
	SELECT EXISTS(SELECT 1 FROM proposals WHERE opportunity_id = $1 AND status = $2 AND id != $3)
	`, opportunityId, models.ProposalAwarded, proposalId).Scan(&awardedSibling)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}
	if awardedSibling {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: another proposal is already awarded for opportunity %s: %w", opportunityId, models.ErrConflict))
	}

	// Winner.
	_, err = tx.ExecContext(ctx, `
	UPDATE proposals
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $2
	`, models.ProposalAwarded, proposalId)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}
	err = addProposalStatus(ctx, tx, proposalId, string(models.ProposalAwarded), "", note, &actor)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}

	// Opportunity follows.
	res, err := tx.ExecContext(ctx, `
	UPDATE opportunities
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $2 AND status = $3
	`, models.OpportunityAwarded, opportunityId, models.OpportunityEvaluation)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}
	if n == 0 {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: opportunity %s is no longer %s: %w", opportunityId, models.OpportunityEvaluation, models.ErrConflict))
	}
	err = addOpportunityStatus(ctx, tx, opportunityId, string(models.OpportunityAwarded), "", "", &actor)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}

	// Everyone else still in the running loses.
	rows, err := tx.QueryContext(ctx, `
	UPDATE proposals
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE opportunity_id = $2 AND id != $3 AND status = any($4::text[])
	RETURNING id
	`, models.ProposalNotAwarded, opportunityId, proposalId,
		"{"+strings.Join([]string{string(models.ProposalSubmitted), string(models.ProposalUnderReview), string(models.ProposalEvaluated)}, ",")+"}")
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
	}

	var siblingIds []string
	var id string
	for rows.Next() {
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: row scan failed: %w", err))
		}
		siblingIds = append(siblingIds, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", rows.Err()))
	}

	for _, siblingId := range siblingIds {
		err = addProposalStatus(ctx, tx, siblingId, string(models.ProposalNotAwarded), "", "", &actor)
		if err != nil {
			return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AwardProposal: %w", err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.AwardProposal: failed to commit transaction: %w", err)
	}

	return nil
}
