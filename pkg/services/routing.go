package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// AssignedMember describes the member an entry was routed to.
type AssignedMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// RouteResult is the outcome of submitting a quick entry: either an assigned
// diary entry or a stored draft.
type RouteResult struct {
	Status    string             `json:"status"`
	Entry     *models.DiaryEntry `json:"entry,omitempty"`
	Member    *AssignedMember    `json:"member,omitempty"`
	Reasoning string             `json:"reasoning,omitempty"`
	Draft     *models.DiaryDraft `json:"draft,omitempty"`
}

// AssignedEntry records one diary entry created when a draft is assigned.
type AssignedEntry struct {
	MemberID  string `json:"memberId"`
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	CompanyID string `json:"companyId"`
	EntryID   string `json:"entryId"`
}

// QuickEntryService routes quick diary entries to members, falling back to
// drafts when no confident match exists.
type QuickEntryService interface {
	// RouteQuickEntry trims and routes a quick entry. Explicit mention ids
	// are validated against the roster; exactly one valid member mention
	// assigns directly without consulting the classifier.
	RouteQuickEntry(ctx context.Context, content string, mentionMemberIDs, mentionCompanyIDs []string) (*RouteResult, error)

	// AssignDraft fans a draft out to the given members, one entry each with
	// a shared timestamp, and deletes the draft. Unknown member ids are
	// skipped; if none resolve the draft is left untouched and ErrNotFound
	// is returned.
	AssignDraft(ctx context.Context, draftID string, memberIDs []string) ([]AssignedEntry, error)

	// ClassifyDraft re-runs classification on a stored draft. A member
	// verdict converts it into an entry; otherwise the draft's suggestion
	// and reasoning are updated in place and ClassifiedAt is stamped. When
	// the model is unreachable the error is returned and the draft is left
	// untouched, so callers decide whether to retry.
	ClassifyDraft(ctx context.Context, draftID string) (*RouteResult, error)

	ListDrafts(ctx context.Context) ([]*models.DiaryDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

type quickEntryService struct {
	memberRepo  repositories.MemberRepository
	companyRepo repositories.CompanyRepository
	diaryRepo   repositories.DiaryRepository
	draftRepo   repositories.DraftRepository
	classifier  Classifier
	search      SearchService
	logger      *zap.Logger
}

// NewQuickEntryService creates the routing engine with its dependencies.
func NewQuickEntryService(
	memberRepo repositories.MemberRepository,
	companyRepo repositories.CompanyRepository,
	diaryRepo repositories.DiaryRepository,
	draftRepo repositories.DraftRepository,
	classifier Classifier,
	search SearchService,
	logger *zap.Logger,
) QuickEntryService {
	return &quickEntryService{
		memberRepo:  memberRepo,
		companyRepo: companyRepo,
		diaryRepo:   diaryRepo,
		draftRepo:   draftRepo,
		classifier:  classifier,
		search:      search,
		logger:      logger,
	}
}

func (s *quickEntryService) RouteQuickEntry(ctx context.Context, content string, mentionMemberIDs, mentionCompanyIDs []string) (*RouteResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}

	validMembers := filterKnown(mentionMemberIDs, func(id string) bool {
		_, ok := roster.Member(id)
		return ok
	})
	validCompanies := filterKnown(mentionCompanyIDs, func(id string) bool {
		_, ok := roster.Company(id)
		return ok
	})

	// Exactly one tagged teammate routes directly.
	if len(validMembers) == 1 {
		member, _ := roster.Member(validMembers[0])
		entry, err := s.createEntry(ctx, member, trimmed)
		if err != nil {
			return nil, err
		}
		return &RouteResult{
			Status:    "assigned",
			Entry:     entry,
			Member:    s.assignedMember(roster, member),
			Reasoning: "Assigned via explicit handle mention.",
		}, nil
	}

	verdict, classifyErr := s.classifier.Classify(ctx, trimmed, roster, validMembers, validCompanies)
	if classifyErr != nil {
		// The model was unreachable: store the entry as a draft and let the
		// background worker retry. ClassifiedAt stays zero so it requeues.
		s.logger.Warn("quick entry classification failed", zap.Error(classifyErr))
		verdict = failedClassification(classifyErr)
	}

	if verdict.MatchType == MatchMember {
		if member, ok := roster.Member(verdict.MemberID); ok {
			entry, err := s.createEntry(ctx, member, trimmed)
			if err != nil {
				return nil, err
			}
			return &RouteResult{
				Status:    "assigned",
				Entry:     entry,
				Member:    s.assignedMember(roster, member),
				Reasoning: verdict.Reasoning,
			}, nil
		}
	}

	draft := &models.DiaryDraft{
		ID:                  uuid.New().String(),
		Content:             trimmed,
		SuggestedMemberID:   verdict.MemberID,
		Reasoning:           verdict.Reasoning,
		MentionedMemberIDs:  validMembers,
		MentionedCompanyIDs: validCompanies,
	}
	if classifyErr == nil {
		// A delivered verdict is final; the worker should not re-ask.
		draft.ClassifiedAt = time.Now().UTC()
	}
	if err := s.draftRepo.Upsert(ctx, draft); err != nil {
		return nil, err
	}
	return &RouteResult{Status: "draft", Draft: draft}, nil
}

func (s *quickEntryService) AssignDraft(ctx context.Context, draftID string, memberIDs []string) ([]AssignedEntry, error) {
	unique := filterKnown(memberIDs, func(id string) bool {
		return strings.TrimSpace(id) != ""
	})
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: memberIds is required", apperrors.ErrValidation)
	}

	draft, err := s.draftRepo.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC()
	var created []AssignedEntry
	for _, memberID := range unique {
		member, ok := roster.Member(memberID)
		if !ok {
			continue
		}

		entry := &models.DiaryEntry{
			ID:        uuid.New().String(),
			MemberID:  member.ID,
			CompanyID: member.CompanyID,
			Content:   draft.Content,
			Timestamp: timestamp,
			Tags:      []string{},
			Projects:  []string{},
			CreatedAt: timestamp,
		}
		if err := s.diaryRepo.Upsert(ctx, entry); err != nil {
			return nil, err
		}
		s.search.EmbedEntry(ctx, entry)

		created = append(created, AssignedEntry{
			MemberID:  member.ID,
			Name:      member.DisplayName,
			Handle:    roster.MemberHandle(member.ID),
			CompanyID: member.CompanyID,
			EntryID:   entry.ID,
		})
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("%w: no valid members found for assignment", apperrors.ErrNotFound)
	}

	if err := s.draftRepo.Delete(ctx, draftID); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *quickEntryService) ClassifyDraft(ctx context.Context, draftID string) (*RouteResult, error) {
	draft, err := s.draftRepo.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}

	verdict, err := s.classifier.Classify(ctx, draft.Content, roster, draft.MentionedMemberIDs, draft.MentionedCompanyIDs)
	if err != nil {
		return nil, err
	}

	if verdict.MatchType == MatchMember {
		if member, ok := roster.Member(verdict.MemberID); ok {
			entry, err := s.createEntry(ctx, member, draft.Content)
			if err != nil {
				return nil, err
			}
			if err := s.draftRepo.Delete(ctx, draftID); err != nil {
				return nil, err
			}
			return &RouteResult{
				Status:    "assigned",
				Entry:     entry,
				Member:    s.assignedMember(roster, member),
				Reasoning: verdict.Reasoning,
			}, nil
		}
	}

	draft.SuggestedMemberID = verdict.MemberID
	draft.Reasoning = verdict.Reasoning
	draft.ClassifiedAt = time.Now().UTC()
	if err := s.draftRepo.Upsert(ctx, draft); err != nil {
		return nil, err
	}
	return &RouteResult{Status: "draft", Draft: draft}, nil
}

func (s *quickEntryService) ListDrafts(ctx context.Context) ([]*models.DiaryDraft, error) {
	return s.draftRepo.List(ctx)
}

func (s *quickEntryService) DeleteDraft(ctx context.Context, id string) error {
	return s.draftRepo.Delete(ctx, id)
}

func (s *quickEntryService) loadRoster(ctx context.Context) (*Roster, error) {
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildRoster(members, companies), nil
}

func (s *quickEntryService) createEntry(ctx context.Context, member *models.TeamMember, content string) (*models.DiaryEntry, error) {
	now := time.Now().UTC()
	entry := &models.DiaryEntry{
		ID:        uuid.New().String(),
		MemberID:  member.ID,
		CompanyID: member.CompanyID,
		Content:   content,
		Timestamp: now,
		Tags:      []string{},
		Projects:  []string{},
		CreatedAt: now,
	}
	if err := s.diaryRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	s.search.EmbedEntry(ctx, entry)
	return entry, nil
}

func (s *quickEntryService) assignedMember(roster *Roster, member *models.TeamMember) *AssignedMember {
	return &AssignedMember{
		ID:     member.ID,
		Name:   member.DisplayName,
		Handle: roster.MemberHandle(member.ID),
	}
}

// filterKnown dedupes ids in first-seen order, keeping only those the
// predicate accepts.
func filterKnown(ids []string, keep func(string) bool) []string {
	seen := make(map[string]bool, len(ids))
	result := []string{}
	for _, id := range ids {
		if id == "" || seen[id] || !keep(id) {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
