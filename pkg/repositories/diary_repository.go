package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/models"
)

// DiaryEmbedding pairs an entry with its stored embedding vector for
// semantic search.
type DiaryEmbedding struct {
	Entry  *models.DiaryEntry
	Vector []float32
}

// DiaryRepository defines data access for finalized diary entries.
type DiaryRepository interface {
	List(ctx context.Context) ([]*models.DiaryEntry, error)
	ListByMember(ctx context.Context, memberID string) ([]*models.DiaryEntry, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.DiaryEntry, error)
	Get(ctx context.Context, id string) (*models.DiaryEntry, error)
	Upsert(ctx context.Context, entry *models.DiaryEntry) error
	Delete(ctx context.Context, id string) error

	// SetEmbedding stores the embedding vector for an entry.
	SetEmbedding(ctx context.Context, id string, vector []float32) error
	// ListWithEmbeddings returns every entry that has an embedding.
	ListWithEmbeddings(ctx context.Context) ([]DiaryEmbedding, error)
}

type diaryRepository struct {
	db *sql.DB
}

// NewDiaryRepository creates a new diary repository.
func NewDiaryRepository(db *sql.DB) DiaryRepository {
	return &diaryRepository{db: db}
}

const diaryColumns = "id, member_id, company_id, content, entry_timestamp, tags, projects, created_at, updated_at"

func (r *diaryRepository) List(ctx context.Context) ([]*models.DiaryEntry, error) {
	return r.queryEntries(ctx,
		"SELECT "+diaryColumns+" FROM diaries ORDER BY entry_timestamp DESC")
}

// ListByMember returns the member's entries newest first.
func (r *diaryRepository) ListByMember(ctx context.Context, memberID string) ([]*models.DiaryEntry, error) {
	return r.queryEntries(ctx,
		"SELECT "+diaryColumns+" FROM diaries WHERE member_id = ? ORDER BY entry_timestamp DESC", memberID)
}

func (r *diaryRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.DiaryEntry, error) {
	return r.queryEntries(ctx,
		"SELECT "+diaryColumns+" FROM diaries WHERE company_id = ? ORDER BY entry_timestamp DESC", companyID)
}

func (r *diaryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.DiaryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diary entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DiaryEntry
	for rows.Next() {
		entry, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *diaryRepository) Get(ctx context.Context, id string) (*models.DiaryEntry, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+diaryColumns+" FROM diaries WHERE id = ?", id)

	entry, err := scanDiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *diaryRepository) Upsert(ctx context.Context, entry *models.DiaryEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entry.UpdatedAt = now

	tags, err := marshalStrings(entry.Tags)
	if err != nil {
		return err
	}
	projects, err := marshalStrings(entry.Projects)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO diaries (id, member_id, company_id, content, entry_timestamp, tags, projects, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET member_id = excluded.member_id,
		    company_id = excluded.company_id,
		    content = excluded.content,
		    entry_timestamp = excluded.entry_timestamp,
		    tags = excluded.tags,
		    projects = excluded.projects,
		    updated_at = excluded.updated_at`,
		entry.ID,
		entry.MemberID,
		entry.CompanyID,
		entry.Content,
		toMillis(entry.Timestamp),
		tags,
		projects,
		toMillis(entry.CreatedAt),
		toMillis(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert diary entry: %w", err)
	}
	return nil
}

func (r *diaryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM diaries WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	return nil
}

func (r *diaryRepository) SetEmbedding(ctx context.Context, id string, vector []float32) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE diaries SET embedding = ? WHERE id = ?", string(raw), id)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *diaryRepository) ListWithEmbeddings(ctx context.Context) ([]DiaryEmbedding, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+diaryColumns+", embedding FROM diaries WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var results []DiaryEmbedding
	for rows.Next() {
		var entry models.DiaryEntry
		var tags, projects, embedding string
		var timestamp, createdAt, updatedAt int64

		err := rows.Scan(
			&entry.ID,
			&entry.MemberID,
			&entry.CompanyID,
			&entry.Content,
			&timestamp,
			&tags,
			&projects,
			&createdAt,
			&updatedAt,
			&embedding,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}

		if entry.Tags, err = unmarshalStrings(tags); err != nil {
			return nil, err
		}
		if entry.Projects, err = unmarshalStrings(projects); err != nil {
			return nil, err
		}
		entry.Timestamp = fromMillis(timestamp)
		entry.CreatedAt = fromMillis(createdAt)
		entry.UpdatedAt = fromMillis(updatedAt)

		var vector []float32
		if err := json.Unmarshal([]byte(embedding), &vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}

		results = append(results, DiaryEmbedding{Entry: &entry, Vector: vector})
	}
	return results, rows.Err()
}

func scanDiary(row rowScanner) (*models.DiaryEntry, error) {
	var entry models.DiaryEntry
	var tags, projects string
	var timestamp, createdAt, updatedAt int64

	err := row.Scan(
		&entry.ID,
		&entry.MemberID,
		&entry.CompanyID,
		&entry.Content,
		&timestamp,
		&tags,
		&projects,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan diary entry: %w", err)
	}

	if entry.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	if entry.Projects, err = unmarshalStrings(projects); err != nil {
		return nil, err
	}
	entry.Timestamp = fromMillis(timestamp)
	entry.CreatedAt = fromMillis(createdAt)
	entry.UpdatedAt = fromMillis(updatedAt)
	return &entry, nil
}

// Ensure diaryRepository implements DiaryRepository at compile time.
var _ DiaryRepository = (*diaryRepository)(nil)
