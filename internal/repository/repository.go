package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace/internal/config"
	"marketplace/internal/models"

	postgres "marketplace/internal/repository/db"

	"github.com/lib/pq"
)

type Repository struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewRepository(db *sql.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateUp: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateDown: %w", err)
	}
	return nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

//// Users

func (repo *Repository) UserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT
		id,
		username,
		role,
		accepted_terms_at,
		created_at,
		updated_at
	FROM users
	WHERE username = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, username)
	err := row.Scan(&user.Id, &user.Username, &user.Role, &user.AcceptedTermsAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByUsername: %w", err)
	}

	return user, true, nil
}

func (repo *Repository) UserByUUID(ctx context.Context, UUID string) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT
		id,
		username,
		role,
		accepted_terms_at,
		created_at,
		updated_at
	FROM users
	WHERE id = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, UUID)
	err := row.Scan(&user.Id, &user.Username, &user.Role, &user.AcceptedTermsAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByUUID: %w", err)
	}

	return user, true, nil
}

// AddUser registers a resolved identity. Identity provisioning belongs to
// the external session layer; this exists for seeding and tests.
func (repo *Repository) AddUser(ctx context.Context, user models.User) (models.User, error) {
	result := user
	query := `
	INSERT INTO users
		(username, role, accepted_terms_at)
	VALUES
		($1, $2, $3)
	RETURNING
		id, created_at, updated_at
	`
	row := repo.db.QueryRowContext(ctx, query, user.Username, user.Role, user.AcceptedTermsAt)
	err := row.Scan(&result.Id, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddUser: %w", err)
	}
	return result, nil
}

//// Organizations

// AddOrganization creates the organization together with its creator's
// OWNER affiliation in one transaction.
func (repo *Repository) AddOrganization(ctx context.Context, org models.Organization) (models.Organization, error) {
	result := org

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddOrganization: failed to start transaction: %w", err)
	}

	query := `
	INSERT INTO organizations
		(legal_name, created_by)
	VALUES
		($1, $2)
	RETURNING
		id, created_at, updated_at
	`
	row := tx.QueryRowContext(ctx, query, org.LegalName, org.CreatedBy)
	err = row.Scan(&result.Id, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOrganization: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO affiliations
		(organization_id, user_id, membership)
	VALUES
		($1, $2, $3)
	`, result.Id, org.CreatedBy, models.MemberOwner)
	if err != nil {
		return result, wrapRollbackErr(tx, fmt.Errorf("repository.Repository.AddOrganization: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddOrganization: failed to commit transaction: %w", err)
	}

	return result, nil
}

func (repo *Repository) OrganizationByUUID(ctx context.Context, UUID string) (models.Organization, bool, error) {
	var org models.Organization
	query := `
	SELECT
		id, legal_name, created_by, created_at, updated_at
	FROM organizations
	WHERE id = $1
	`
	row := repo.db.QueryRowContext(ctx, query, UUID)
	err := row.Scan(&org.Id, &org.LegalName, &org.CreatedBy, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return org, false, nil
	} else if err != nil {
		return org, false, fmt.Errorf("repository.Repository.OrganizationByUUID: %w", err)
	}
	return org, true, nil
}

//// Service

func wrapRollbackErr(tx *sql.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

// isUniqueViolation detects constraint conflicts so they can surface as 409
// rather than 503.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// DB exposes the underlying handle for the audit writer, which shares the
// repository's connection pool.
func (repo *Repository) DB() *sql.DB {
	return repo.db
}

//// Test utils

func (repo *Repository) TestGetDB() *sql.DB {
	return repo.db
}
