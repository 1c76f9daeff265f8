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

// DraftRepository defines data access for unassigned diary drafts.
type DraftRepository interface {
	List(ctx context.Context) ([]*models.DiaryDraft, error)
	Get(ctx context.Context, id string) (*models.DiaryDraft, error)
	Upsert(ctx context.Context, draft *models.DiaryDraft) error
	Delete(ctx context.Context, id string) error

	// ListPending returns drafts with no suggested member, no definitive
	// verdict yet, and a last update older than the cutoff. The
	// classification worker treats this as its durable queue; a draft the
	// model has already answered (ClassifiedAt set) is never re-queued.
	ListPending(ctx context.Context, olderThan time.Time) ([]*models.DiaryDraft, error)
}

type draftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(db *sql.DB) DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = "id, content, suggested_member_id, reasoning, mentioned_member_ids, mentioned_company_ids, classified_at, created_at, updated_at"

func (r *draftRepository) List(ctx context.Context) ([]*models.DiaryDraft, error) {
	return r.queryDrafts(ctx,
		"SELECT "+draftColumns+" FROM diary_drafts ORDER BY created_at ASC")
}

func (r *draftRepository) ListPending(ctx context.Context, olderThan time.Time) ([]*models.DiaryDraft, error) {
	return r.queryDrafts(ctx,
		"SELECT "+draftColumns+" FROM diary_drafts WHERE suggested_member_id = '' AND classified_at = 0 AND updated_at < ? ORDER BY updated_at ASC",
		toMillis(olderThan))
}

func (r *draftRepository) queryDrafts(ctx context.Context, query string, args ...any) ([]*models.DiaryDraft, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.DiaryDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

func (r *draftRepository) Get(ctx context.Context, id string) (*models.DiaryDraft, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+draftColumns+" FROM diary_drafts WHERE id = ?", id)

	draft, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (r *draftRepository) Upsert(ctx context.Context, draft *models.DiaryDraft) error {
	now := time.Now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	memberIDs, err := marshalStrings(draft.MentionedMemberIDs)
	if err != nil {
		return err
	}
	companyIDs, err := marshalStrings(draft.MentionedCompanyIDs)
	if err != nil {
		return err
	}

	var classifiedAt int64
	if !draft.ClassifiedAt.IsZero() {
		classifiedAt = toMillis(draft.ClassifiedAt)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO diary_drafts (id, content, suggested_member_id, reasoning, mentioned_member_ids, mentioned_company_ids, classified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET content = excluded.content,
		    suggested_member_id = excluded.suggested_member_id,
		    reasoning = excluded.reasoning,
		    mentioned_member_ids = excluded.mentioned_member_ids,
		    mentioned_company_ids = excluded.mentioned_company_ids,
		    classified_at = excluded.classified_at,
		    updated_at = excluded.updated_at`,
		draft.ID,
		draft.Content,
		draft.SuggestedMemberID,
		draft.Reasoning,
		memberIDs,
		companyIDs,
		classifiedAt,
		toMillis(draft.CreatedAt),
		toMillis(draft.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert draft: %w", err)
	}
	return nil
}

func (r *draftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM diary_drafts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func scanDraft(row rowScanner) (*models.DiaryDraft, error) {
	var draft models.DiaryDraft
	var memberIDs, companyIDs string
	var classifiedAt, createdAt, updatedAt int64

	err := row.Scan(
		&draft.ID,
		&draft.Content,
		&draft.SuggestedMemberID,
		&draft.Reasoning,
		&memberIDs,
		&companyIDs,
		&classifiedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}

	if draft.MentionedMemberIDs, err = unmarshalStrings(memberIDs); err != nil {
		return nil, err
	}
	if draft.MentionedCompanyIDs, err = unmarshalStrings(companyIDs); err != nil {
		return nil, err
	}
	if classifiedAt != 0 {
		draft.ClassifiedAt = fromMillis(classifiedAt)
	}
	draft.CreatedAt = fromMillis(createdAt)
	draft.UpdatedAt = fromMillis(updatedAt)
	return &draft, nil
}

// Ensure draftRepository implements DraftRepository at compile time.
var _ DraftRepository = (*draftRepository)(nil)
