// Package services holds the engine's domain logic: handle resolution,
// quick-entry routing, LLM-backed classification and generation, semantic
// search, and the background classification worker.
package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pulseboard/engine/pkg/models"
)

// MemberMarker and CompanyMarker prefix mention handles in diary text.
const (
	MemberMarker  = "@"
	CompanyMarker = "^"
)

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)
	mentionPattern  = regexp.MustCompile(`(?i)([@^])([a-z0-9][a-z0-9-_]*)`)
)

// Slugify lowercases a name and collapses non-alphanumeric runs into single
// hyphens, trimming hyphens at the edges.
func Slugify(value string) string {
	slug := nonAlnumPattern.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(slug, "-")
}

// MakeHandle builds a mention handle for an entity. The slug falls back to
// the first six characters of the id when the name yields nothing. Collisions
// within the used set get a numeric suffix. Handles are recomputed from the
// current roster on every request and are never persisted, so renames shift
// them.
func MakeHandle(marker, name, id string, used map[string]bool) string {
	slug := Slugify(name)
	if slug == "" {
		fallback := id
		if len(fallback) > 6 {
			fallback = fallback[:6]
		}
		slug = strings.ToLower(fallback)
	}

	handle := marker + slug
	if used != nil {
		candidate := handle
		for i := 1; used[strings.ToLower(candidate)]; i++ {
			candidate = handle + "-" + strconv.Itoa(i)
		}
		used[strings.ToLower(candidate)] = true
		handle = candidate
	}
	return handle
}

// Roster maps lowercased handles back to the entities they name.
type Roster struct {
	MemberHandles  map[string]*models.TeamMember
	CompanyHandles map[string]*models.Company

	memberByID  map[string]string
	companyByID map[string]string
	members     map[string]*models.TeamMember
	companies   map[string]*models.Company
}

// BuildRoster computes handles for the given members and companies. Member
// and company handles occupy separate namespaces since their markers differ.
func BuildRoster(members []*models.TeamMember, companies []*models.Company) *Roster {
	roster := &Roster{
		MemberHandles:  make(map[string]*models.TeamMember, len(members)),
		CompanyHandles: make(map[string]*models.Company, len(companies)),
		memberByID:     make(map[string]string, len(members)),
		companyByID:    make(map[string]string, len(companies)),
		members:        make(map[string]*models.TeamMember, len(members)),
		companies:      make(map[string]*models.Company, len(companies)),
	}

	used := make(map[string]bool)
	for _, member := range members {
		handle := MakeHandle(MemberMarker, member.DisplayName, member.ID, used)
		roster.MemberHandles[strings.ToLower(handle)] = member
		roster.memberByID[member.ID] = handle
		roster.members[member.ID] = member
	}

	used = make(map[string]bool)
	for _, company := range companies {
		handle := MakeHandle(CompanyMarker, company.Name, company.ID, used)
		roster.CompanyHandles[strings.ToLower(handle)] = company
		roster.companyByID[company.ID] = handle
		roster.companies[company.ID] = company
	}

	return roster
}

// Member looks up a roster member by id.
func (r *Roster) Member(id string) (*models.TeamMember, bool) {
	member, ok := r.members[id]
	return member, ok
}

// Company looks up a roster company by id.
func (r *Roster) Company(id string) (*models.Company, bool) {
	company, ok := r.companies[id]
	return company, ok
}

// MemberHandle returns the computed handle for a member id, or "" when the
// member is not in the roster.
func (r *Roster) MemberHandle(id string) string {
	return r.memberByID[id]
}

// CompanyHandle returns the computed handle for a company id.
func (r *Roster) CompanyHandle(id string) string {
	return r.companyByID[id]
}

// MentionAnalysis is the result of scanning free text for handle mentions.
type MentionAnalysis struct {
	MemberIDs      []string `json:"memberIds"`
	CompanyIDs     []string `json:"companyIds"`
	UnknownHandles []string `json:"unknownHandles"`
}

// AnalyzeMentions scans text for @member and ^company handles and resolves
// them against the roster. Resolved ids are deduplicated in first-seen order;
// tokens that resolve to nothing are reported, not dropped.
func (r *Roster) AnalyzeMentions(text string) MentionAnalysis {
	analysis := MentionAnalysis{
		MemberIDs:      []string{},
		CompanyIDs:     []string{},
		UnknownHandles: []string{},
	}

	seenMembers := make(map[string]bool)
	seenCompanies := make(map[string]bool)
	seenUnknown := make(map[string]bool)

	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		marker := match[1]
		token := strings.ToLower(marker + match[2])

		switch marker {
		case MemberMarker:
			if member, ok := r.MemberHandles[token]; ok {
				if !seenMembers[member.ID] {
					seenMembers[member.ID] = true
					analysis.MemberIDs = append(analysis.MemberIDs, member.ID)
				}
				continue
			}
		case CompanyMarker:
			if company, ok := r.CompanyHandles[token]; ok {
				if !seenCompanies[company.ID] {
					seenCompanies[company.ID] = true
					analysis.CompanyIDs = append(analysis.CompanyIDs, company.ID)
				}
				continue
			}
		}

		if !seenUnknown[token] {
			seenUnknown[token] = true
			analysis.UnknownHandles = append(analysis.UnknownHandles, token)
		}
	}

	return analysis
}
