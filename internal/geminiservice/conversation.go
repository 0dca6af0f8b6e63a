package geminiservice

import (
	"fmt"
	"strings"

	"NutriScan_V1.0/internal/database"
)

// Turn roles. The wire format calls the assistant "model"; everything above
// the wire uses "assistant".
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of the scan conversation, in chronological
// order. Turns are replayed verbatim into chat prompts.
type ConversationTurn struct {
	Role string
	Text string
}

// HealthProfileSummary is the personalization snapshot derived once from the
// stored profile. A user without a profile gets the zero value, which means
// "no personalization".
type HealthProfileSummary struct {
	Conditions         []string
	Allergies          []string
	DietaryPreferences []string
	Demographics       string
}

// IsEmpty reports whether there is nothing to personalize on.
func (s HealthProfileSummary) IsEmpty() bool {
	return len(s.Conditions) == 0 && len(s.Allergies) == 0 &&
		len(s.DietaryPreferences) == 0 && s.Demographics == ""
}

// Text renders the summary as the block embedded into prompts.
func (s HealthProfileSummary) Text() string {
	var parts []string
	if s.Demographics != "" {
		parts = append(parts, fmt.Sprintf("Data diri: %s", s.Demographics))
	}
	if len(s.Conditions) > 0 {
		parts = append(parts, fmt.Sprintf("Kondisi kesehatan: %s", strings.Join(s.Conditions, ", ")))
	}
	if len(s.Allergies) > 0 {
		parts = append(parts, fmt.Sprintf("Alergi makanan: %s", strings.Join(s.Allergies, ", ")))
	}
	if len(s.DietaryPreferences) > 0 {
		parts = append(parts, fmt.Sprintf("Preferensi diet: %s", strings.Join(s.DietaryPreferences, ", ")))
	}
	return strings.Join(parts, "\n")
}

// BuildProfileSummary derives the prompt summary from a stored profile row.
// A nil row collapses to the empty summary.
func BuildProfileSummary(p *database.UserHealthProfile) HealthProfileSummary {
	if p == nil {
		return HealthProfileSummary{}
	}

	summary := HealthProfileSummary{
		Conditions:         append([]string(nil), p.Conditions...),
		Allergies:          append([]string(nil), p.FoodAllergies...),
		DietaryPreferences: append([]string(nil), p.DietaryRestrictions...),
	}

	var demo []string
	if p.Gender.Valid && p.Gender.String != "" {
		demo = append(demo, p.Gender.String)
	}
	if p.Age.Valid && p.Age.Int32 > 0 {
		demo = append(demo, fmt.Sprintf("%d tahun", p.Age.Int32))
	}
	summary.Demographics = strings.Join(demo, ", ")

	return summary
}

// ConversationContext owns the ordered turn history plus the profile snapshot
// and analysis text the chat prompts are composed from. The profile snapshot
// is fixed for the lifetime of the context; a chat session never mixes two
// profile versions.
type ConversationContext struct {
	profile  HealthProfileSummary
	analysis string
	turns    []ConversationTurn
}

// NewConversationContext builds a context around one analysis result.
func NewConversationContext(profile HealthProfileSummary, analysisText string) *ConversationContext {
	return &ConversationContext{profile: profile, analysis: analysisText}
}

// AppendUser records a user turn. Callers append only after the outcome of
// the corresponding network call is known, so ordering stays chronological.
func (c *ConversationContext) AppendUser(text string) {
	c.turns = append(c.turns, ConversationTurn{Role: RoleUser, Text: text})
}

// AppendAssistant records an assistant turn. Failed model calls are recorded
// too, as a synthetic assistant turn carrying the error message, so the
// history never silently drops an exchange.
func (c *ConversationContext) AppendAssistant(text string) {
	c.turns = append(c.turns, ConversationTurn{Role: RoleAssistant, Text: text})
}

// Window returns the most recent k turns in original order. Windowing always
// takes a suffix, never a subsequence with gaps.
func (c *ConversationContext) Window(k int) []ConversationTurn {
	if k <= 0 || len(c.turns) == 0 {
		return nil
	}
	start := len(c.turns) - k
	if start < 0 {
		start = 0
	}
	out := make([]ConversationTurn, len(c.turns)-start)
	copy(out, c.turns[start:])
	return out
}

// Turns returns a copy of the full history.
func (c *ConversationContext) Turns() []ConversationTurn {
	out := make([]ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Profile returns the fixed profile snapshot.
func (c *ConversationContext) Profile() HealthProfileSummary {
	return c.profile
}

// Analysis returns the product analysis text this conversation is about.
func (c *ConversationContext) Analysis() string {
	return c.analysis
}
