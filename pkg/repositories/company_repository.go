package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/models"
)

// CompanyRepository defines data access for companies.
type CompanyRepository interface {
	List(ctx context.Context) ([]*models.Company, error)
	Get(ctx context.Context, id string) (*models.Company, error)
	Upsert(ctx context.Context, company *models.Company) error
	Delete(ctx context.Context, id string) error
}

type companyRepository struct {
	db *sql.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *sql.DB) CompanyRepository {
	return &companyRepository{db: db}
}

const companyColumns = "id, name, core_values, themes, decision_making, culture, created_at, updated_at"

func (r *companyRepository) List(ctx context.Context) ([]*models.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+companyColumns+" FROM companies ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (r *companyRepository) Get(ctx context.Context, id string) (*models.Company, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE id = ?", id)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

// Upsert inserts the company or replaces an existing record with the same id.
// CreatedAt is preserved on update; UpdatedAt is stamped here.
func (r *companyRepository) Upsert(ctx context.Context, company *models.Company) error {
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, core_values, themes, decision_making, culture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name,
		    core_values = excluded.core_values,
		    themes = excluded.themes,
		    decision_making = excluded.decision_making,
		    culture = excluded.culture,
		    updated_at = excluded.updated_at`,
		company.ID,
		company.Name,
		company.Values,
		company.Themes,
		company.DecisionMaking,
		company.Culture,
		toMillis(company.CreatedAt),
		toMillis(company.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// Delete removes a company by id. Deleting an unknown id is a no-op, and no
// cascade runs: members and diaries keep their companyId references.
func (r *companyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var company models.Company
	var createdAt, updatedAt int64

	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Values,
		&company.Themes,
		&company.DecisionMaking,
		&company.Culture,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}

	company.CreatedAt = fromMillis(createdAt)
	company.UpdatedAt = fromMillis(updatedAt)
	return &company, nil
}

// Ensure companyRepository implements CompanyRepository at compile time.
var _ CompanyRepository = (*companyRepository)(nil)
