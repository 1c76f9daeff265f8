package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulseboard/engine/pkg/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jordan Reyes", "jordan-reyes"},
		{"  Acme  Corp!! ", "acme-corp"},
		{"Ärger", "rger"},
		{"---", ""},
		{"", ""},
		{"O'Brien & Sons", "o-brien-sons"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestMakeHandle_Fallback(t *testing.T) {
	handle := MakeHandle(MemberMarker, "!!!", "ABC123XYZ", nil)
	assert.Equal(t, "@abc123", handle)
}

func TestMakeHandle_Collisions(t *testing.T) {
	used := make(map[string]bool)
	first := MakeHandle(MemberMarker, "Sam Lee", "id-1", used)
	second := MakeHandle(MemberMarker, "Sam Lee", "id-2", used)
	third := MakeHandle(MemberMarker, "Sam Lee", "id-3", used)

	assert.Equal(t, "@sam-lee", first)
	assert.Equal(t, "@sam-lee-1", second)
	assert.Equal(t, "@sam-lee-2", third)
}

func testRoster() *Roster {
	members := []*models.TeamMember{
		{ID: "m1", DisplayName: "Bob Smith", CompanyID: "c1"},
		{ID: "m2", DisplayName: "Dana Wu", CompanyID: "c1"},
	}
	companies := []*models.Company{
		{ID: "c1", Name: "Acme"},
	}
	return BuildRoster(members, companies)
}

func TestBuildRoster_Handles(t *testing.T) {
	roster := testRoster()

	assert.Equal(t, "@bob-smith", roster.MemberHandle("m1"))
	assert.Equal(t, "^acme", roster.CompanyHandle("c1"))

	member, ok := roster.Member("m2")
	assert.True(t, ok)
	assert.Equal(t, "Dana Wu", member.DisplayName)

	_, ok = roster.Member("missing")
	assert.False(t, ok)
}

func TestAnalyzeMentions(t *testing.T) {
	roster := testRoster()

	analysis := roster.AnalyzeMentions("hello @bob-smith and ^acme, also @ghost")
	assert.Equal(t, []string{"m1"}, analysis.MemberIDs)
	assert.Equal(t, []string{"c1"}, analysis.CompanyIDs)
	assert.Equal(t, []string{"@ghost"}, analysis.UnknownHandles)
}

func TestAnalyzeMentions_EmptyText(t *testing.T) {
	roster := testRoster()

	analysis := roster.AnalyzeMentions("")
	assert.Empty(t, analysis.MemberIDs)
	assert.Empty(t, analysis.CompanyIDs)
	assert.Empty(t, analysis.UnknownHandles)
}

func TestAnalyzeMentions_DedupFirstSeen(t *testing.T) {
	roster := testRoster()

	analysis := roster.AnalyzeMentions("@dana-wu then @bob-smith then @dana-wu again")
	assert.Equal(t, []string{"m2", "m1"}, analysis.MemberIDs)
}

func TestAnalyzeMentions_CaseInsensitive(t *testing.T) {
	roster := testRoster()

	analysis := roster.AnalyzeMentions("ping @Bob-Smith about ^ACME")
	assert.Equal(t, []string{"m1"}, analysis.MemberIDs)
	assert.Equal(t, []string{"c1"}, analysis.CompanyIDs)
}

func TestAnalyzeMentions_WrongMarkerNamespace(t *testing.T) {
	roster := testRoster()

	// ^bob-smith is a company lookup and must not resolve to the member.
	analysis := roster.AnalyzeMentions("^bob-smith")
	assert.Empty(t, analysis.MemberIDs)
	assert.Empty(t, analysis.CompanyIDs)
	assert.Equal(t, []string{"^bob-smith"}, analysis.UnknownHandles)
}
