package models

import (
	"strings"
	"time"
)

// MaxProfileTraits caps the superpowers and growth-areas lists.
const MaxProfileTraits = 5

// TeamMember represents a person within a company.
//
// DisplayName is the single canonical name field. The original data model
// carried name/fullName/firstName/lastName in parallel and reconciled them on
// every edit; here the parts are derived on read instead of stored.
type TeamMember struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	DisplayName    string    `json:"displayName"`
	Email          string    `json:"email,omitempty"`
	Role           string    `json:"role,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	Influence      string    `json:"influence"`
	ProjectImpacts string    `json:"projectImpacts"`
	Superpowers    []string  `json:"superpowers"`
	GrowthAreas    []string  `json:"growthAreas"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FirstName returns the first whitespace-separated token of DisplayName.
func (m *TeamMember) FirstName() string {
	parts := strings.Fields(m.DisplayName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName returns everything after the first token of DisplayName.
func (m *TeamMember) LastName() string {
	parts := strings.Fields(m.DisplayName)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

// ClampTraits truncates Superpowers and GrowthAreas to MaxProfileTraits.
func (m *TeamMember) ClampTraits() {
	if len(m.Superpowers) > MaxProfileTraits {
		m.Superpowers = m.Superpowers[:MaxProfileTraits]
	}
	if len(m.GrowthAreas) > MaxProfileTraits {
		m.GrowthAreas = m.GrowthAreas[:MaxProfileTraits]
	}
}
