package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{
		"type":        "object",
		"description": "one challenge",
		"properties": map[string]any{
			"challenge": map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"challenge"},
	})

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if schema.Description != "one challenge" {
		t.Errorf("description = %q", schema.Description)
	}
	if schema.Properties["challenge"].Type != genai.TypeString {
		t.Errorf("challenge type = %s", schema.Properties["challenge"].Type)
	}
	if schema.Properties["tags"].Items.Type != genai.TypeString {
		t.Errorf("tags item type = %s", schema.Properties["tags"].Items.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "challenge" {
		t.Errorf("required = %v", schema.Required)
	}
}

func TestBuildGeminiContents(t *testing.T) {
	contents := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "1. Pregunta"},
	})
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Fatalf("unexpected roles: %s, %s", contents[0].Role, contents[1].Role)
	}
	if contents[1].Parts[0].Text != "1. Pregunta" {
		t.Fatalf("unexpected text: %q", contents[1].Parts[0].Text)
	}
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(t.Context(), "", "gemini-flash"); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
