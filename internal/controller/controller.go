package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"marketplace/internal/models"
)

type Service interface {
	CreateOpportunity(ctx context.Context, username string, o models.Opportunity) (models.Opportunity, error)
	GetOpportunities(ctx context.Context, username string, limit, offset int) ([]models.Opportunity, error)
	GetOpportunity(ctx context.Context, username, opportunityId string) (models.Opportunity, error)
	EditOpportunity(ctx context.Context, username, opportunityId string, v models.OpportunityVersion) (models.Opportunity, error)
	PublishOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error)
	SuspendOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error)
	CancelOpportunity(ctx context.Context, username, opportunityId, note string) (models.Opportunity, error)
	AddAddendum(ctx context.Context, username, opportunityId, text string) (models.Opportunity, error)
	DeleteOpportunity(ctx context.Context, username, opportunityId string) error

	CreateProposal(ctx context.Context, username string, p models.Proposal) (models.Proposal, error)
	GetProposals(ctx context.Context, username, opportunityId string, limit, offset int) ([]models.Proposal, error)
	GetProposal(ctx context.Context, username, proposalId string) (models.Proposal, error)
	EditProposal(ctx context.Context, username, proposalId string, p models.Proposal) (models.Proposal, error)
	SubmitProposal(ctx context.Context, username, proposalId string) (models.Proposal, error)
	WithdrawProposal(ctx context.Context, username, proposalId, note string) (models.Proposal, error)
	ScoreProposal(ctx context.Context, username, proposalId string, score float64, note string) (models.Proposal, error)
	DisqualifyProposal(ctx context.Context, username, proposalId, reason string) (models.Proposal, error)
	AwardProposal(ctx context.Context, username, proposalId, note string) (models.Proposal, error)
	DeleteProposal(ctx context.Context, username, proposalId string) error

	CreateOrganization(ctx context.Context, username, legalName string) (models.Organization, error)
}

// Closer is the scheduled closing hook. The status endpoint pokes it on
// every request; throttling lives behind this interface.
type Closer interface {
	Poll(ctx context.Context)
}

type Controller struct {
	service Service
	closer  Closer
}

func NewController(service Service, closer Closer) *Controller {
	return &Controller{service: service, closer: closer}
}

// GET /api/status
func (c *Controller) Status(w http.ResponseWriter, r *http.Request) {
	if c.closer != nil {
		c.closer.Poll(r.Context())
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Organizations

// POST /api/organizations
func (c *Controller) NewOrganization(w http.ResponseWriter, r *http.Request) {
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

	req, err := ParseNewOrganizationReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := c.service.CreateOrganization(r.Context(), username, req.LegalName)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalCreatedResponse(w, org)
}

// Service

const permissionMessage = "you do not have permission to perform this action"

type ErrorResponse struct {
	Reason string `json:"reason"`
}

// ValidationResponse carries the full per-field error map of a rejected
// request so a client can show every problem at once.
type ValidationResponse struct {
	Errors models.ValidationErrors `json:"errors"`
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		return strconv.Atoi(strs[0])
	}
	return 0, nil
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}

	_, err = w.Write(data)
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}
}

// serviceErrorResponse maps a service error onto the wire exactly once.
// Permission failures share one undiscriminating message so a caller
// cannot tell "no such right" from "no such user". Anything unexpected is
// logged in full and reported as a fixed 503 without internal detail.
func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	verrs, isValidation := models.AsValidationErrors(err)
	switch {
	case isValidation:
		w.WriteHeader(http.StatusBadRequest)
		data, merr := json.Marshal(ValidationResponse{Errors: verrs})
		if merr != nil {
			log.Printf("controller.Controller.serviceErrorResponse: %s", merr)
			return
		}
		w.Write(data)
	case errors.Is(err, models.ErrPermission):
		c.errorResponse(w, http.StatusUnauthorized, permissionMessage)
	case errors.Is(err, models.ErrNotFound):
		c.errorResponse(w, http.StatusNotFound, "the requested resource does not exist")
	case errors.Is(err, models.ErrConflict):
		c.errorResponse(w, http.StatusConflict, "the resource changed underneath this request, fetch it again and retry")
	default:
		log.Println("controller:", err)
		c.errorResponse(w, http.StatusServiceUnavailable, "the service is temporarily unable to handle this request")
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	_, err = w.Write(d)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not write response data")
		return
	}
}

// marshalCreatedResponse is marshalResponse for the create endpoints,
// which report 201. The body is marshaled before the header goes out so a
// marshal failure can still produce a proper error status.
func (c *Controller) marshalCreatedResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	w.WriteHeader(http.StatusCreated)
	_, err = w.Write(d)
	if err != nil {
		log.Printf("controller.Controller.marshalCreatedResponse: %s", err)
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
