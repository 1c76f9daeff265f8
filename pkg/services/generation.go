package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// CompanyProfile is the four-field result of whole-profile generation.
type CompanyProfile struct {
	Values         string `json:"values"`
	Themes         string `json:"themes"`
	DecisionMaking string `json:"decisionMaking"`
	Culture        string `json:"culture"`
}

// MemberProfile is the generated assessment of a member's work.
type MemberProfile struct {
	Influence      string   `json:"influence"`
	ProjectImpacts string   `json:"projectImpacts"`
	Superpowers    []string `json:"superpowers"`
	GrowthAreas    []string `json:"growthAreas"`
}

// GenerationService produces LLM-drafted company descriptions and member
// profiles. Unlike classification these are user-requested operations, so
// failures surface as Guidance errors with remediation hints.
type GenerationService interface {
	// GenerateCompanyField drafts a single company field. Field "all" is not
	// accepted here; use GenerateCompanyProfile.
	GenerateCompanyField(ctx context.Context, field, companyName string, existing map[string]string) (string, error)

	// GenerateCompanyProfile drafts all four company fields at once.
	GenerateCompanyProfile(ctx context.Context, companyName string, existing map[string]string) (*CompanyProfile, error)

	// GenerateMemberProfile analyzes the member's diary and team context.
	GenerateMemberProfile(ctx context.Context, memberID string) (*MemberProfile, error)
}

type generationService struct {
	memberRepo  repositories.MemberRepository
	companyRepo repositories.CompanyRepository
	diaryRepo   repositories.DiaryRepository
	factory     llm.Factory
	settings    SettingsProvider
	logger      *zap.Logger
}

// NewGenerationService creates the generation service.
func NewGenerationService(
	memberRepo repositories.MemberRepository,
	companyRepo repositories.CompanyRepository,
	diaryRepo repositories.DiaryRepository,
	factory llm.Factory,
	settings SettingsProvider,
	logger *zap.Logger,
) GenerationService {
	return &generationService{
		memberRepo:  memberRepo,
		companyRepo: companyRepo,
		diaryRepo:   diaryRepo,
		factory:     factory,
		settings:    settings,
		logger:      logger,
	}
}

const companySystemPrompt = "You are a company culture and organizational expert. Generate realistic, professional company descriptions. Be concise and specific."

const profileSystemPrompt = "You are an expert in analyzing professional work and team dynamics. Generate accurate, evidence-based assessments."

// companyFieldPrompts keys the per-field generation prompts. %s is the
// company name.
var companyFieldPrompts = map[string]string{
	"values":         `Generate a concise description of core company values for "%s". Keep it to 2-4 sentences focusing on what the company believes in and prioritizes.`,
	"themes":         `Generate 2-4 sentences describing the key themes that define "%s"'s mission and work. What topics, industries, or focus areas does this company center on?`,
	"decisionMaking": `Describe in 2-4 sentences how "%s" makes decisions. Consider: Is it consensus-driven? Data-driven? Top-down? Collaborative? Fast or deliberate?`,
	"culture":        `Describe the work culture and environment at "%s" in 2-4 sentences. What's it like to work there? What's valued in the workplace?`,
}

const companyAllPrompt = `Generate a comprehensive company profile for "%s". Include:
1. Core Values (what the company believes in)
2. Key Themes (mission and focus areas)
3. Decision Making approach
4. Work Culture and environment

Format as JSON with keys: values, themes, decisionMaking, culture. Keep each field to 2-4 sentences.`

func (s *generationService) GenerateCompanyField(ctx context.Context, field, companyName string, existing map[string]string) (string, error) {
	if strings.TrimSpace(companyName) == "" {
		return "", &apperrors.Guidance{
			Status:  http.StatusBadRequest,
			Code:    "company_name_required",
			Message: "Company name is required",
			Details: "Please enter a company name before generating content.",
		}
	}

	template, ok := companyFieldPrompts[field]
	if !ok {
		return "", &apperrors.Guidance{
			Status:  http.StatusBadRequest,
			Code:    "invalid_field",
			Message: "Invalid field",
			Details: fmt.Sprintf("Unknown field: %s", field),
		}
	}

	prompt := fmt.Sprintf(template, companyName)
	prompt = appendExistingContext(prompt, existing)

	response, err := s.chat(ctx, companySystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (s *generationService) GenerateCompanyProfile(ctx context.Context, companyName string, existing map[string]string) (*CompanyProfile, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, &apperrors.Guidance{
			Status:  http.StatusBadRequest,
			Code:    "company_name_required",
			Message: "Company name is required",
			Details: "Please enter a company name before generating content.",
		}
	}

	prompt := fmt.Sprintf(companyAllPrompt, companyName)
	prompt = appendExistingContext(prompt, existing)

	response, err := s.chat(ctx, companySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	profile, err := llm.ParseJSONResponse[CompanyProfile](response)
	if err != nil {
		return nil, &apperrors.Guidance{
			Status:  http.StatusInternalServerError,
			Code:    "parse_failed",
			Message: "Failed to parse AI response",
			Details: "The AI returned an invalid JSON format. Try generating individual fields instead.",
			Fix:     `Use the individual field generation buttons instead of "Auto-Generate All".`,
		}
	}
	return &profile, nil
}

// profileEntryCap and teamEntryCap bound the prompt context sizes.
const (
	profileEntryCap = 50
	teamEntryCap    = 30
)

func (s *generationService) GenerateMemberProfile(ctx context.Context, memberID string) (*MemberProfile, error) {
	member, err := s.memberRepo.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	company, err := s.companyRepo.Get(ctx, member.CompanyID)
	if err != nil {
		return nil, err
	}

	memberDiaries, err := s.diaryRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(memberDiaries) == 0 {
		return nil, &apperrors.Guidance{
			Status:  http.StatusBadRequest,
			Code:    "no_diary_entries",
			Message: "No diary entries found",
			Details: "This member needs to have diary entries before a profile can be generated.",
			Fix:     "Add some work diary entries first, then try again.",
		}
	}

	companyDiaries, err := s.diaryRepo.ListByCompany(ctx, member.CompanyID)
	if err != nil {
		return nil, err
	}
	teammates, err := s.memberRepo.ListByCompany(ctx, member.CompanyID)
	if err != nil {
		return nil, err
	}

	prompt := buildProfilePrompt(member, company, memberDiaries, companyDiaries, teammates)

	response, err := s.chat(ctx, profileSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	profile, err := llm.ParseJSONResponse[MemberProfile](response)
	if err != nil {
		s.logger.Warn("profile reply unparseable", zap.String("member_id", memberID), zap.Error(err))
		return nil, &apperrors.Guidance{
			Status:  http.StatusInternalServerError,
			Code:    "parse_failed",
			Message: "Failed to parse profile data",
			Details: "The AI generated an invalid response format.",
			Fix:     "Try again. If the problem persists, check your Ollama model configuration.",
		}
	}

	if len(profile.Superpowers) > models.MaxProfileTraits {
		profile.Superpowers = profile.Superpowers[:models.MaxProfileTraits]
	}
	if len(profile.GrowthAreas) > models.MaxProfileTraits {
		profile.GrowthAreas = profile.GrowthAreas[:models.MaxProfileTraits]
	}
	return &profile, nil
}

// chat probes connectivity first so unreachable-Ollama and missing-model
// failures answer with actionable guidance rather than opaque errors.
func (s *generationService) chat(ctx context.Context, system, user string) (string, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return "", err
	}

	client := s.factory(settings.Ollama.Host)
	if _, err := client.ListModels(ctx); err != nil {
		return "", &apperrors.Guidance{
			Status:  http.StatusServiceUnavailable,
			Code:    "ollama_unreachable",
			Message: "Cannot connect to Ollama",
			Details: fmt.Sprintf("Unable to reach Ollama at %s. Make sure Ollama is running.", settings.Ollama.Host),
			Fix:     `Start Ollama by running "ollama serve" in your terminal.`,
		}
	}

	response, err := client.Chat(ctx, settings.Ollama.PrimaryModel, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if err != nil {
		if errors.Is(err, llm.ErrModelNotFound) {
			return "", &apperrors.Guidance{
				Status:  http.StatusNotFound,
				Code:    "model_not_found",
				Message: "Model not found",
				Details: fmt.Sprintf("The model %q is not available.", settings.Ollama.PrimaryModel),
				Fix:     fmt.Sprintf("Pull the model by running: ollama pull %s", settings.Ollama.PrimaryModel),
			}
		}
		return "", err
	}
	return response, nil
}

func appendExistingContext(prompt string, existing map[string]string) string {
	if len(existing) == 0 {
		return prompt
	}
	raw, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return prompt
	}
	return prompt + fmt.Sprintf("\n\nExisting context:\n%s\n\nUse this context to ensure consistency.", raw)
}

func buildProfilePrompt(
	member *models.TeamMember,
	company *models.Company,
	memberDiaries []*models.DiaryEntry,
	companyDiaries []*models.DiaryEntry,
	teammates []*models.TeamMember,
) string {
	displayName := member.DisplayName
	if displayName == "" {
		displayName = "this team member"
	}
	role := member.Role
	if role == "" {
		role = "Not specified"
	}

	ownLines := make([]string, 0, profileEntryCap)
	for i, entry := range memberDiaries {
		if i == profileEntryCap {
			break
		}
		ownLines = append(ownLines, fmt.Sprintf("[%s] %s", entry.Timestamp.Format("1/2/2006"), entry.Content))
	}

	nameByID := make(map[string]string, len(teammates))
	for _, teammate := range teammates {
		nameByID[teammate.ID] = teammate.DisplayName
	}

	teamLines := make([]string, 0, teamEntryCap)
	for _, entry := range companyDiaries {
		if entry.MemberID == member.ID {
			continue
		}
		if len(teamLines) == teamEntryCap {
			break
		}
		name := nameByID[entry.MemberID]
		if name == "" {
			name = "Unknown"
		}
		teamLines = append(teamLines, fmt.Sprintf("[%s] %s", name, entry.Content))
	}

	return fmt.Sprintf(`You are analyzing a team member's work diary and team interactions to create a professional profile.

COMPANY CONTEXT:
Company: %s
Values: %s
Themes: %s

TEAM MEMBER: %s
Role: %s

THEIR WORK DIARY (Recent Entries):
%s

TEAM CONTEXT (What colleagues have been working on):
%s

Based on this information, analyze %s's contributions and generate:

1. **Influence**: How does this person influence the team and organization? Look for:
   - Leadership in initiatives
   - Mentoring or helping others
   - Cross-team collaboration
   - Decision-making impact

2. **Project Impacts**: What concrete impact have they had on projects? Look for:
   - Key deliverables
   - Problem-solving
   - Innovation
   - Quality improvements

3. **Superpowers** (3-5): What are their standout strengths? Examples:
   - Technical skills (e.g., "System Design", "Frontend Architecture")
   - Soft skills (e.g., "Clear Communication", "Mentoring")
   - Domain expertise (e.g., "Payment Systems", "Data Pipeline")

4. **Growth Areas** (3-5): What areas could they develop? Be constructive:
   - Skills to expand
   - New domains to explore
   - Process improvements
   - Leadership opportunities

Respond in valid JSON format:
{
  "influence": "1-2 paragraphs describing their influence",
  "projectImpacts": "1-2 paragraphs describing concrete project impacts",
  "superpowers": ["Strength 1", "Strength 2", "Strength 3"],
  "growthAreas": ["Growth area 1", "Growth area 2", "Growth area 3"]
}

Be specific and evidence-based. Use actual work mentioned in the diaries.`,
		company.Name, company.Values, company.Themes,
		displayName, role,
		strings.Join(ownLines, "\n\n"),
		strings.Join(teamLines, "\n\n"),
		displayName,
	)
}

var _ GenerationService = (*generationService)(nil)
