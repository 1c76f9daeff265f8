package models

import "time"

// DiaryEntry is a finalized, member-attributed work diary entry.
//
// Timestamp is the entry's logical date and is distinct from the
// CreatedAt/UpdatedAt record timestamps. CompanyID is a denormalized copy of
// the member's company taken at creation time.
type DiaryEntry struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId"`
	CompanyID string    `json:"companyId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags,omitempty"`
	Projects  []string  `json:"projects,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DiaryDraft is a quick-capture entry that has not been attributed to a
// member yet. It is deleted outright or consumed into one or more
// DiaryEntry records when assigned.
type DiaryDraft struct {
	ID                  string   `json:"id"`
	Content             string   `json:"content"`
	SuggestedMemberID   string   `json:"suggestedMemberId,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	MentionedMemberIDs  []string `json:"mentionedMemberIds"`
	MentionedCompanyIDs []string `json:"mentionedCompanyIds"`
	// ClassifiedAt is set once the model has delivered a definitive verdict
	// for this draft. Zero means classification is still owed, either because
	// it has not run yet or because it failed in transit; the background
	// worker only picks up drafts with a zero ClassifiedAt.
	ClassifiedAt time.Time `json:"classifiedAt,omitzero"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
