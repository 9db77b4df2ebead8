// Package audit appends an attributed record for every successful mutating
// operation. Writes happen after the mutation's transaction commits and are
// best-effort: a failed audit insert is logged and swallowed, never rolled
// into the request's outcome.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
)

// Mutation event names.
const (
	EventOpportunityCreated   = "opportunity created"
	EventOpportunityEdited    = "opportunity edited"
	EventOpportunityPublished = "opportunity published"
	EventOpportunitySuspended = "opportunity suspended"
	EventOpportunityCanceled  = "opportunity canceled"
	EventOpportunityDeleted   = "opportunity deleted"
	EventOpportunityClosed    = "opportunity closed"
	EventAddendumAdded        = "addendum added"
	EventProposalCreated      = "proposal created"
	EventProposalEdited       = "proposal edited"
	EventProposalSubmitted    = "proposal submitted"
	EventProposalWithdrawn    = "proposal withdrawn"
	EventProposalScored       = "proposal scored"
	EventProposalDisqualified = "proposal disqualified"
	EventProposalAwarded      = "proposal awarded"
	EventProposalDeleted      = "proposal deleted"
	EventOrganizationCreated  = "organization created"
)

type Writer struct {
	db *sql.DB
}

func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// Record appends one audit entry. actor is empty for system-initiated
// mutations (the closing hook). snapshot is stored as JSON; a snapshot that
// fails to marshal is recorded as null rather than dropping the entry.
func (w *Writer) Record(ctx context.Context, actor, event, entityKind, entityId string, snapshot any) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("audit.Writer.Record: could not marshal snapshot for %s %s: %s", entityKind, entityId, err)
		data = nil
	}

	query := `
	INSERT INTO audit_log
		(actor_id, event, entity_kind, entity_id, snapshot)
	VALUES
		(NULLIF($1, '')::uuid, $2, $3, $4, $5)
	`
	_, err = w.db.ExecContext(ctx, query, actor, event, entityKind, entityId, data)
	if err != nil {
		log.Printf("audit.Writer.Record: %s", err)
	}
}
