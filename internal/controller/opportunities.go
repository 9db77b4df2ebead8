package controller

import (
	"context"
	"net/http"

	"marketplace/internal/lifecycle"
	"marketplace/internal/models"
)

// GET /api/opportunities
func (c *Controller) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	opportunities, err := c.service.GetOpportunities(r.Context(), query.Get("username"), limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, opportunities)
}

// POST /api/opportunities
func (c *Controller) NewOpportunity(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewOpportunityReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunity, err := c.service.CreateOpportunity(r.Context(), username, models.Opportunity{
		Type:               req.Type,
		Status:             req.Status,
		OpportunityVersion: req.OpportunityVersion,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalCreatedResponse(w, opportunity)
}

// GET /api/opportunities/{opportunityId}
func (c *Controller) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	opportunityId := r.PathValue("opportunityId")
	if len(opportunityId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty opportunityId supplied")
		return
	}

	opportunity, err := c.service.GetOpportunity(r.Context(), r.URL.Query().Get("username"), opportunityId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, opportunity)
}

// PUT /api/opportunities/{opportunityId}
//
// The body is a tagged action; the switch below is the complete set of
// verbs an opportunity accepts. A tag outside it is a client error.
func (c *Controller) OpportunityAction(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	opportunityId := r.PathValue("opportunityId")
	if len(opportunityId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty opportunityId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseActionReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Tag {
	case lifecycle.TagEdit:
		version, err := req.OpportunityVersion()
		if err != nil {
			c.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		opportunity, err := c.service.EditOpportunity(r.Context(), username, opportunityId, version)
		if err != nil {
			c.serviceErrorResponse(w, err)
			return
		}
		c.marshalResponse(w, opportunity)
	case lifecycle.TagPublish:
		c.opportunityNoteAction(w, r, req, username, opportunityId, c.service.PublishOpportunity)
	case lifecycle.TagSuspend:
		c.opportunityNoteAction(w, r, req, username, opportunityId, c.service.SuspendOpportunity)
	case lifecycle.TagCancel:
		c.opportunityNoteAction(w, r, req, username, opportunityId, c.service.CancelOpportunity)
	case lifecycle.TagAddAddendum:
		c.opportunityNoteAction(w, r, req, username, opportunityId, c.service.AddAddendum)
	default:
		c.errorResponse(w, http.StatusBadRequest, "unknown opportunity action: "+req.Tag)
	}
}

// DELETE /api/opportunities/{opportunityId}
func (c *Controller) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
		return
	}

	opportunityId := r.PathValue("opportunityId")
	if len(opportunityId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty opportunityId supplied")
		return
	}

	err := c.service.DeleteOpportunity(r.Context(), username, opportunityId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// opportunityNoteAction runs a verb whose only payload is a string value.
func (c *Controller) opportunityNoteAction(w http.ResponseWriter, r *http.Request, req *ActionReq, username, opportunityId string,
	verb func(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error)) {

	note, err := req.Note()
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunity, err := verb(r.Context(), username, opportunityId, note)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, opportunity)
}
