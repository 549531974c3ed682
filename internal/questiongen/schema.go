package questiongen

import "github.com/persenaut/challenges/internal/llm"

// ChallengeSchema is the structured output requested from the backend.
var ChallengeSchema = &llm.Schema{
	Name:        "challenge-question",
	Description: "One multiple-choice question in the fixed text format",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"challenge": map[string]any{
				"type":        "string",
				"description": "The full question: numbered stem, options A-D and the 'Respuesta correcta' line",
			},
		},
		"required":             []any{"challenge"},
		"additionalProperties": false,
	},
}

// challengeOutput is the decoded structured response.
type challengeOutput struct {
	Challenge string `json:"challenge"`
}
