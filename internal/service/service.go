package service

import (
	"context"
	"fmt"

	"marketplace/internal/audit"
	"marketplace/internal/config"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

// Service is the status transition authority: every mutation runs its
// permission gate, its validation tier and its transition guard here, in
// that order, before anything touches the database.
type Service struct {
	repo  *repository.Repository
	audit *audit.Writer
	cfg   *config.Config
}

func NewService(repo *repository.Repository, auditWriter *audit.Writer, cfg *config.Config) *Service {
	return &Service{repo: repo, audit: auditWriter, cfg: cfg}
}

// userByUsername resolves the request identity. An unknown username maps to
// the generic permission error, so callers cannot probe which users exist.
func (s *Service) userByUsername(ctx context.Context, username string) (models.User, error) {
	user, ok, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.userByUsername: %w", err)
	}
	if !ok {
		return models.User{}, fmt.Errorf("service.Service.userByUsername: %w", models.ErrPermission)
	}
	return user, nil
}

// optionalUser resolves an identity when one was supplied; public reads
// work without one.
func (s *Service) optionalUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	user, ok, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service.Service.optionalUser: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// maxReward is the strict-mode budget cap per opportunity flavor.
func (s *Service) maxReward(t models.OpportunityType) float64 {
	if t == models.TypeSprintWithUs {
		return s.cfg.SWUMaxBudget
	}
	return s.cfg.CWUMaxBudget
}

//// Organizations

const legalNameMaxLength = 200

// CreateOrganization creates an organization owned by the acting user. The
// organization row and the OWNER affiliation commit in one transaction.
func (s *Service) CreateOrganization(ctx context.Context, username, legalName string) (models.Organization, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.Organization{}, fmt.Errorf("service.Service.CreateOrganization: %w", err)
	}

	validated := validation.String(legalName, "legal name", 1, legalNameMaxLength)
	if !validated.Valid() {
		return models.Organization{}, models.ValidationErrors{"legalName": validated.Errors()}
	}

	org, err := s.repo.AddOrganization(ctx, models.Organization{
		LegalName: validated.Value(),
		CreatedBy: user.Id,
	})
	if err != nil {
		return models.Organization{}, fmt.Errorf("service.Service.CreateOrganization: %w", err)
	}

	s.audit.Record(ctx, user.Id, audit.EventOrganizationCreated, "organization", org.Id, org)
	return org, nil
}
