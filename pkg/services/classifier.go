package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/models"
)

// Match types the classifier may return.
const (
	MatchMember     = "member"
	MatchUnassigned = "unassigned"
)

// Classification is the routing verdict for a quick entry.
type Classification struct {
	MatchType string `json:"matchType"`
	MemberID  string `json:"memberId,omitempty"`
	Reasoning string `json:"reasoning"`
}

// Classifier asks the primary model which member a diary entry belongs to.
type Classifier interface {
	// Classify returns a verdict, or an error when the model could not be
	// reached at all. A reply the model did deliver always yields a verdict,
	// even when it is malformed; only transport-level failures error out, so
	// callers can retry those and treat every verdict as final.
	Classify(ctx context.Context, content string, roster *Roster, mentionMemberIDs, mentionCompanyIDs []string) (Classification, error)
}

type classifier struct {
	factory  llm.Factory
	settings SettingsProvider
	logger   *zap.Logger
}

// NewClassifier creates a classifier using the configured Ollama host and
// primary model.
func NewClassifier(factory llm.Factory, settings SettingsProvider, logger *zap.Logger) Classifier {
	return &classifier{
		factory:  factory,
		settings: settings,
		logger:   logger,
	}
}

const classifierSystemPrompt = `You are a routing assistant. Given a diary entry, pick the best member to own it or return "unassigned" when no obvious match exists. Respond with JSON only.`

func (c *classifier) Classify(ctx context.Context, content string, roster *Roster, mentionMemberIDs, mentionCompanyIDs []string) (Classification, error) {
	settings, err := c.settings.Current(ctx)
	if err != nil {
		return Classification{}, fmt.Errorf("load settings: %w", err)
	}

	prompt := buildClassifierPrompt(content, roster, mentionMemberIDs, mentionCompanyIDs)

	client := c.factory(settings.Ollama.Host)
	response, err := client.Chat(ctx, settings.Ollama.PrimaryModel, []llm.Message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		c.logger.Warn("classification failed", zap.Error(err))
		return Classification{}, fmt.Errorf("classify chat: %w", err)
	}

	// The model answered; a garbled reply is a final verdict, not a reason
	// to retry.
	parsed, err := llm.ParseJSONResponse[Classification](response)
	if err != nil {
		c.logger.Warn("classification reply unparseable", zap.Error(err))
		return Classification{
			MatchType: MatchUnassigned,
			Reasoning: "Model produced an unexpected format. Stored as draft.",
		}, nil
	}

	if !validVerdict(parsed) {
		return Classification{
			MatchType: MatchUnassigned,
			Reasoning: "Model produced an unexpected format. Stored as draft.",
		}, nil
	}
	return parsed, nil
}

func validVerdict(c Classification) bool {
	switch c.MatchType {
	case MatchUnassigned:
		return true
	case MatchMember:
		return c.MemberID != ""
	default:
		return false
	}
}

func failedClassification(err error) Classification {
	return Classification{
		MatchType: MatchUnassigned,
		Reasoning: fmt.Sprintf("LLM classification failed: %v", err),
	}
}

// buildClassifierPrompt assembles the diary text, the team roster, and the
// required reply shape, with explicit mentions listed as strong signals when
// the request carried any.
func buildClassifierPrompt(content string, roster *Roster, mentionMemberIDs, mentionCompanyIDs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diary Entry:\n\"\"\"%s\"\"\"\n\n", content)
	b.WriteString("Team Members:\n")
	b.WriteString(buildMemberContext(roster))
	b.WriteString("\n\nRespond strictly in JSON with this shape:\n")
	b.WriteString("{\n  \"matchType\": \"member\" | \"unassigned\",\n  \"memberId\"?: string,\n  \"reasoning\": string\n}\n")
	b.WriteString(`Pick a member only if the diary clearly belongs to them. Otherwise mark as "unassigned" with reasoning.`)

	summary := mentionSummary(roster, mentionMemberIDs, mentionCompanyIDs)
	if summary != "" {
		b.WriteString("\n\nExplicit mentions (strong signals):\n")
		b.WriteString(summary)
	}

	return b.String()
}

// buildMemberContext writes one block per member with id, name, company and
// the profile fields the model can match against.
func buildMemberContext(roster *Roster) string {
	companyNames := make(map[string]string, len(roster.CompanyHandles))
	for _, company := range roster.CompanyHandles {
		companyNames[company.ID] = company.Name
	}

	blocks := make([]string, 0, len(roster.memberByID))
	for _, member := range sortedMembers(roster) {
		lines := []string{
			"Member ID: " + member.ID,
			"Name: " + member.DisplayName,
		}
		companyName := companyNames[member.CompanyID]
		if companyName == "" {
			companyName = "Unknown"
		}
		lines = append(lines, "Company: "+companyName)
		if member.Role != "" {
			lines = append(lines, "Role: "+member.Role)
		}
		if len(member.Superpowers) > 0 {
			lines = append(lines, "Superpowers: "+strings.Join(member.Superpowers, ", "))
		}
		if len(member.GrowthAreas) > 0 {
			lines = append(lines, "Growth Areas: "+strings.Join(member.GrowthAreas, ", "))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func mentionSummary(roster *Roster, memberIDs, companyIDs []string) string {
	var parts []string

	if len(memberIDs) > 0 {
		var entries []string
		for _, id := range memberIDs {
			if member, ok := roster.Member(id); ok {
				entries = append(entries, fmt.Sprintf("%s — %s", roster.MemberHandle(id), member.DisplayName))
			}
		}
		if len(entries) > 0 {
			parts = append(parts, "Mentioned members: "+strings.Join(entries, ", "))
		}
	}

	if len(companyIDs) > 0 {
		var entries []string
		for _, id := range companyIDs {
			if company, ok := roster.Company(id); ok {
				entries = append(entries, fmt.Sprintf("%s — %s", roster.CompanyHandle(id), company.Name))
			}
		}
		if len(entries) > 0 {
			parts = append(parts, "Mentioned companies: "+strings.Join(entries, ", "))
		}
	}

	return strings.Join(parts, "\n")
}

// sortedMembers returns the roster members ordered by handle for stable
// prompt construction.
func sortedMembers(roster *Roster) []*models.TeamMember {
	handles := make([]string, 0, len(roster.MemberHandles))
	for handle := range roster.MemberHandles {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	members := make([]*models.TeamMember, 0, len(handles))
	for _, handle := range handles {
		members = append(members, roster.MemberHandles[handle])
	}
	return members
}
