package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/models"

	"github.com/lib/pq"
)

const opportunityColumns = `
	o.id,
	o.type,
	o.status,
	o.version,
	o.created_by,
	o.created_at,
	o.updated_at,
	v.title,
	v.teaser,
	v.remote_ok,
	v.remote_desc,
	v.location,
	v.reward,
	v.skills,
	v.description,
	v.proposal_deadline,
	v.assignment_date,
	v.start_date,
	v.completion_date,
	v.submission_info,
	v.acceptance_criteria,
	v.evaluation_criteria,
	v.created_at
`

func scanOpportunity(row interface{ Scan(...any) error }) (models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(
		&o.Id, &o.Type, &o.Status, &o.Version, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		&o.Title, &o.Teaser, &o.RemoteOk, &o.RemoteDesc, &o.Location, &o.Reward,
		pq.Array(&o.Skills), &o.Description, &o.ProposalDeadline, &o.AssignmentDate,
		&o.StartDate, &o.CompletionDate, &o.SubmissionInfo, &o.AcceptanceCriteria,
		&o.EvaluationCriteria, &o.OpportunityVersion.CreatedAt,
	)
	o.OpportunityId = o.Id
	return o, err
}

func (repo *Repository) prepOpportunitiesQuery(limit, offset int, opportunityId, createdBy string, statuses []models.OpportunityStatus) (query string, queryParams []interface{}) {
	query = `
	SELECT ` + opportunityColumns + `
	FROM opportunities o
	JOIN opportunity_versions v
		ON v.opportunity_id = o.id AND v.version = o.version
	$conditions$
	ORDER BY o.created_at DESC
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

	if len(opportunityId) > 0 {
		conditions = append(conditions, "o.id = $$")
		queryParams = append(queryParams, opportunityId)
	}

	if len(createdBy) > 0 {
		conditions = append(conditions, "o.created_by = $$")
		queryParams = append(queryParams, createdBy)
	}

	if len(statuses) > 0 {
		conditions = append(conditions, "o.status = any($$::text[])")
		queryParams = append(queryParams, pq.Array(statuses))
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

func (repo *Repository) GetOpportunities(ctx context.Context, limit, offset int, createdBy string, statuses []models.OpportunityStatus) ([]models.Opportunity, error) {
	query, queryParams := repo.prepOpportunitiesQuery(limit, offset, "", createdBy, statuses)

	rows, err := repo.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetOpportunities: %w", err)
	}
	defer rows.Close()

	var result []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetOpportunities: row scan failed: %w", err)
		}
		result = append(result, o)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetOpportunities: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetOpportunityByUUID(ctx context.Context, UUID string) (models.Opportunity, error) {
	query, queryParams := repo.prepOpportunitiesQuery(1, 0, UUID, "", nil)

	o, err := scanOpportunity(repo.db.QueryRowContext(ctx, query, queryParams...))
	if err == sql.ErrNoRows {
		return o, fmt.Errorf("repository.Repository.GetOpportunityByUUID: no opportunity found by UUID %s: %w", UUID, models.ErrNotFound)
	} else if err != nil {
		return o, fmt.Errorf("repository.Repository.GetOpportunityByUUID: %w", err)
	}

	return o, nil
}

// OpportunitiesByUUIDs fetches a batch of opportunities in one query, keyed
// by id. Unknown ids are simply absent from the result.
func (repo *Repository) OpportunitiesByUUIDs(ctx context.Context, UUIDs []string) (map[string]models.Opportunity, error) {
	result := make(map[string]models.Opportunity, len(UUIDs))
	if len(UUIDs) == 0 {
		return result, nil
	}

	query := `
	SELECT ` + opportunityColumns + `
	FROM opportunities o
	JOIN opportunity_versions v
		ON v.opportunity_id = o.id AND v.version = o.version
	WHERE o.id = any($1::uuid[])
	`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(UUIDs))
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.OpportunitiesByUUIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.OpportunitiesByUUIDs: row scan failed: %w", err)
		}
		result[o.Id] = o
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.OpportunitiesByUUIDs: %w", rows.Err())
	}

	return result, nil
}

// AddOpportunity inserts the opportunity, its first version and its first
// status history row in one transaction.
func (repo *Repository) AddOpportunity(ctx context.Context, o models.Opportunity) (models.Opportunity, error) {
	result := o

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddOpportunity: failed to start transaction: %w", err)
	}

	query := `
	INSERT INTO opportunities
		(type, status, version, created_by)
	VALUES
		($1, $2, 1, $3)
	RETURNING
		id, version, created_at, updated_at
	`
	row := tx.QueryRowContext(ctx, query, o.Type, o.Status, o.CreatedBy)
	err = row.Scan(&result.Id, &result.Version, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOpportunity: %w", err))
	}

	result.OpportunityId = result.Id
	result.OpportunityVersion.CreatedBy = o.CreatedBy
	err = repo.addOpportunityVersion(ctx, tx, result)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOpportunity: %w", err))
	}

	err = addOpportunityStatus(ctx, tx, result.Id, string(result.Status), "", "", &result.CreatedBy)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOpportunity: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddOpportunity: failed to commit transaction: %w", err)
	}

	return result, nil
}

func (repo *Repository) addOpportunityVersion(ctx context.Context, tx *sql.Tx, o models.Opportunity) error {
	query := `
	INSERT INTO opportunity_versions
		(opportunity_id, version, title, teaser, remote_ok, remote_desc, location, reward,
		skills, description, proposal_deadline, assignment_date, start_date, completion_date,
		submission_info, acceptance_criteria, evaluation_criteria, created_by)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := tx.ExecContext(ctx, query,
		o.Id, o.Version, o.Title, o.Teaser, o.RemoteOk, o.RemoteDesc, o.Location, o.Reward,
		pq.Array(o.Skills), o.Description, o.ProposalDeadline, o.AssignmentDate, o.StartDate,
		o.CompletionDate, o.SubmissionInfo, o.AcceptanceCriteria, o.EvaluationCriteria,
		o.OpportunityVersion.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("repository.Repository.addOpportunityVersion: %w", err)
	}
	return nil
}

func addOpportunityStatus(ctx context.Context, tx *sql.Tx, opportunityId, status, event, note string, createdBy *string) error {
	query := `
	INSERT INTO opportunity_statuses
		(opportunity_id, status, event, note, created_by)
	VALUES
		($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, opportunityId, status, event, note, createdBy)
	if err != nil {
		return fmt.Errorf("repository.addOpportunityStatus: %w", err)
	}
	return nil
}

// UpdateOpportunityContent appends a new immutable version, points the
// opportunity at it and records an EDITED history event, all in one
// transaction. Status is untouched.
func (repo *Repository) UpdateOpportunityContent(ctx context.Context, o models.Opportunity, editor string) (models.Opportunity, error) {
	result := o

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.UpdateOpportunityContent: failed to start transaction: %w", err)
	}

	query := `
	UPDATE opportunities
	SET version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	RETURNING version, updated_at
	`
	row := tx.QueryRowContext(ctx, query, o.Id)
	err = row.Scan(&result.Version, &result.UpdatedAt)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.UpdateOpportunityContent: %w", err))
	}

	result.OpportunityVersion.CreatedBy = editor
	err = repo.addOpportunityVersion(ctx, tx, result)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.UpdateOpportunityContent: %w", err))
	}

	err = addOpportunityStatus(ctx, tx, result.Id, "", models.OpportunityEventEdited, "", &editor)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.UpdateOpportunityContent: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return result, fmt.Errorf("repository.Repository.UpdateOpportunityContent: failed to commit transaction: %w", err)
	}

	return result, nil
}

// SetOpportunityStatus performs one declared status transition and records
// it. The UPDATE is guarded on the expected source status, so a concurrent
// transition of the same row surfaces as ErrConflict instead of silently
// overwriting.
func (repo *Repository) SetOpportunityStatus(ctx context.Context, opportunityId string, from, to models.OpportunityStatus, note string, actor *string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Repository.SetOpportunityStatus: failed to start transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
	UPDATE opportunities
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $2 AND status = $3
	`, to, opportunityId, from)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetOpportunityStatus: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetOpportunityStatus: %w", err))
	}
	if n == 0 {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetOpportunityStatus: opportunity %s is no longer %s: %w", opportunityId, from, models.ErrConflict))
	}

	err = addOpportunityStatus(ctx, tx, opportunityId, string(to), "", note, actor)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.SetOpportunityStatus: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.SetOpportunityStatus: failed to commit transaction: %w", err)
	}

	return nil
}

// AddOpportunityEvent appends a history-only event (an addendum), leaving
// status untouched.
func (repo *Repository) AddOpportunityEvent(ctx context.Context, opportunityId, event, note string, actor string) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Repository.AddOpportunityEvent: failed to start transaction: %w", err)
	}

	err = addOpportunityStatus(ctx, tx, opportunityId, "", event, note, &actor)
	if err != nil {
		return wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOpportunityEvent: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.AddOpportunityEvent: failed to commit transaction: %w", err)
	}
	return nil
}

func (repo *Repository) OpportunityHistory(ctx context.Context, opportunityId string) ([]models.StatusRecord, error) {
	query := `
	SELECT
		id, opportunity_id, COALESCE(status, ''), COALESCE(event, ''), note, COALESCE(created_by::text, ''), created_at
	FROM opportunity_statuses
	WHERE opportunity_id = $1
	ORDER BY created_at DESC, id
	`
	rows, err := repo.db.QueryContext(ctx, query, opportunityId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.OpportunityHistory: %w", err)
	}
	defer rows.Close()

	var result []models.StatusRecord
	var rec models.StatusRecord
	for rows.Next() {
		err = rows.Scan(&rec.Id, &rec.EntityId, &rec.Status, &rec.Event, &rec.Note, &rec.CreatedBy, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.OpportunityHistory: row scan failed: %w", err)
		}
		result = append(result, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.OpportunityHistory: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) DeleteOpportunity(ctx context.Context, opportunityId string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM opportunities WHERE id = $1", opportunityId)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteOpportunity: %w", err)
	}
	return nil
}

// HasAwardedProposal guards opportunity cancellation: an opportunity with
// an awarded proposal can no longer be canceled.
func (repo *Repository) HasAwardedProposal(ctx context.Context, opportunityId string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM proposals WHERE opportunity_id = $1 AND status = $2)`
	err := repo.db.QueryRowContext(ctx, query, opportunityId, models.ProposalAwarded).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository.Repository.HasAwardedProposal: %w", err)
	}
	return exists, nil
}

// ExpiredPublishedOpportunities lists opportunities the closing hook should
// act on: still published, proposal deadline elapsed.
func (repo *Repository) ExpiredPublishedOpportunities(ctx context.Context, now time.Time) ([]string, error) {
	query := `
	SELECT o.id
	FROM opportunities o
	JOIN opportunity_versions v
		ON v.opportunity_id = o.id AND v.version = o.version
	WHERE o.status = $1 AND v.proposal_deadline IS NOT NULL AND v.proposal_deadline < $2
	ORDER BY v.proposal_deadline
	`
	rows, err := repo.db.QueryContext(ctx, query, models.OpportunityPublished, now)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.ExpiredPublishedOpportunities: %w", err)
	}
	defer rows.Close()

	var ids []string
	var id string
	for rows.Next() {
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository.Repository.ExpiredPublishedOpportunities: row scan failed: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.ExpiredPublishedOpportunities: %w", rows.Err())
	}

	return ids, nil
}

// CloseOpportunity moves one published opportunity to evaluation and its
// submitted proposals to under review, in a single transaction. The status
// guard makes a repeated run a no-op (closed == false) rather than an
// error, which is what makes the closing hook idempotent. History rows are
// unattributed: the clock, not a user, caused the transition.
func (repo *Repository) CloseOpportunity(ctx context.Context, opportunityId string) (closed bool, err error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("repository.Repository.CloseOpportunity: failed to start transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
	UPDATE opportunities
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $2 AND status = $3
	`, models.OpportunityEvaluation, opportunityId, models.OpportunityPublished)
	if err != nil {
		return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", err))
	}
	if n == 0 {
		// Already closed (or canceled/suspended meanwhile).
		return false, tx.Rollback()
	}

	err = addOpportunityStatus(ctx, tx, opportunityId, string(models.OpportunityEvaluation), "", "", nil)
	if err != nil {
		return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", err))
	}

	rows, err := tx.QueryContext(ctx, `
	UPDATE proposals
	SET status = $1, updated_at = CURRENT_TIMESTAMP
	WHERE opportunity_id = $2 AND status = $3
	RETURNING id
	`, models.ProposalUnderReview, opportunityId, models.ProposalSubmitted)
	if err != nil {
		return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", err))
	}

	var proposalIds []string
	var id string
	for rows.Next() {
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: row scan failed: %w", err))
		}
		proposalIds = append(proposalIds, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", rows.Err()))
	}

	for _, proposalId := range proposalIds {
		err = addProposalStatus(ctx, tx, proposalId, string(models.ProposalUnderReview), "", "", nil)
		if err != nil {
			return false, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.CloseOpportunity: %w", err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return false, fmt.Errorf("repository.Repository.CloseOpportunity: failed to commit transaction: %w", err)
	}

	return true, nil
}
