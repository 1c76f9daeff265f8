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

// MemberRepository defines data access for team members.
type MemberRepository interface {
	List(ctx context.Context) ([]*models.TeamMember, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.TeamMember, error)
	Get(ctx context.Context, id string) (*models.TeamMember, error)
	Upsert(ctx context.Context, member *models.TeamMember) error
	Delete(ctx context.Context, id string) error
}

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new member repository.
func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = "id, company_id, display_name, email, role, avatar, influence, project_impacts, superpowers, growth_areas, created_at, updated_at"

func (r *memberRepository) List(ctx context.Context) ([]*models.TeamMember, error) {
	return r.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY created_at ASC")
}

func (r *memberRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.TeamMember, error) {
	return r.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members WHERE company_id = ? ORDER BY created_at ASC", companyID)
}

func (r *memberRepository) queryMembers(ctx context.Context, query string, args ...any) ([]*models.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *memberRepository) Get(ctx context.Context, id string) (*models.TeamMember, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id)

	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *memberRepository) Upsert(ctx context.Context, member *models.TeamMember) error {
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	member.ClampTraits()

	superpowers, err := marshalStrings(member.Superpowers)
	if err != nil {
		return err
	}
	growthAreas, err := marshalStrings(member.GrowthAreas)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO members (id, company_id, display_name, email, role, avatar, influence, project_impacts, superpowers, growth_areas, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET company_id = excluded.company_id,
		    display_name = excluded.display_name,
		    email = excluded.email,
		    role = excluded.role,
		    avatar = excluded.avatar,
		    influence = excluded.influence,
		    project_impacts = excluded.project_impacts,
		    superpowers = excluded.superpowers,
		    growth_areas = excluded.growth_areas,
		    updated_at = excluded.updated_at`,
		member.ID,
		member.CompanyID,
		member.DisplayName,
		member.Email,
		member.Role,
		member.Avatar,
		member.Influence,
		member.ProjectImpacts,
		superpowers,
		growthAreas,
		toMillis(member.CreatedAt),
		toMillis(member.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

func scanMember(row rowScanner) (*models.TeamMember, error) {
	var member models.TeamMember
	var superpowers, growthAreas string
	var createdAt, updatedAt int64

	err := row.Scan(
		&member.ID,
		&member.CompanyID,
		&member.DisplayName,
		&member.Email,
		&member.Role,
		&member.Avatar,
		&member.Influence,
		&member.ProjectImpacts,
		&superpowers,
		&growthAreas,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	if member.Superpowers, err = unmarshalStrings(superpowers); err != nil {
		return nil, err
	}
	if member.GrowthAreas, err = unmarshalStrings(growthAreas); err != nil {
		return nil, err
	}
	member.CreatedAt = fromMillis(createdAt)
	member.UpdatedAt = fromMillis(updatedAt)
	return &member, nil
}

// Ensure memberRepository implements MemberRepository at compile time.
var _ MemberRepository = (*memberRepository)(nil)
