package geminiservice

import "encoding/base64"

// --- Structs for the Gemini API request body ---

type GeminiPayload struct {
	Contents         []GeminiContent   `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []SafetySetting   `json:"safetySettings,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inlineData,omitempty"`
}

type GeminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Generation parameters per mode. Analysis must be near-deterministic so the
// section layout (and the product-name extraction that depends on it) stays
// stable; chat can afford a more conversational temperature.
var (
	AnalysisGenerationConfig = GenerationConfig{
		Temperature:     0.2,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 4096,
	}

	ChatGenerationConfig = GenerationConfig{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 2048,
	}
)

func defaultSafetySettings() []SafetySetting {
	return []SafetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	}
}

// ChatHistoryWindow is the number of recent turns replayed into each chat
// prompt.
const ChatHistoryWindow = 10

// BuildAnalysisPayload composes the first-scan request: a single user turn
// carrying the analysis instructions and the inlined label image. The
// instruction variant is selected solely by whether the profile summary is
// empty.
func BuildAnalysisPayload(profile HealthProfileSummary, image []byte, mimeType string) *GeminiPayload {
	cfg := AnalysisGenerationConfig
	return &GeminiPayload{
		Contents: []GeminiContent{
			{
				Role: "user",
				Parts: []GeminiPart{
					{Text: AnalysisInstruction(profile)},
					{InlineData: &GeminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
		GenerationConfig: &cfg,
		SafetySettings:   defaultSafetySettings(),
	}
}

// BuildChatPayload composes a follow-up request: a synthetic opening pair
// that smuggles the system instructions through the user channel (the
// generateContent protocol has no system role on this path), then the most
// recent ChatHistoryWindow turns in original order, then the new message.
func BuildChatPayload(convo *ConversationContext, userMessage string) *GeminiPayload {
	contents := []GeminiContent{
		{Role: "user", Parts: []GeminiPart{{Text: ChatSystemInstruction(convo)}}},
		{Role: "model", Parts: []GeminiPart{{Text: chatSystemAck}}},
	}

	for _, turn := range convo.Window(ChatHistoryWindow) {
		contents = append(contents, GeminiContent{
			Role:  wireRole(turn.Role),
			Parts: []GeminiPart{{Text: turn.Text}},
		})
	}

	contents = append(contents, GeminiContent{
		Role:  "user",
		Parts: []GeminiPart{{Text: userMessage}},
	})

	cfg := ChatGenerationConfig
	return &GeminiPayload{
		Contents:         contents,
		GenerationConfig: &cfg,
		SafetySettings:   defaultSafetySettings(),
	}
}

// wireRole maps conversation roles onto the provider's role names.
func wireRole(role string) string {
	if role == RoleAssistant {
		return "model"
	}
	return "user"
}
