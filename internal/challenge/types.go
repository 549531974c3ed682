// Package challenge holds the domain types shared by the generation pipeline:
// the inbound request, generated candidates, stored records, the persistence
// contract and the error taxonomy.
package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how long a stored question lives before it expires.
const DefaultRetention = 30 * 24 * time.Hour

// sortKeyLayout is a fixed-width UTC timestamp so that lexical order of sort
// keys is creation order.
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// Request is a single inbound generation request.
type Request struct {
	Theme string `json:"tematica" validate:"required,max=100"`
	Level string `json:"nivel" validate:"required,max=100"`
}

// Normalize returns a copy with surrounding whitespace removed.
func (r Request) Normalize() Request {
	return Request{
		Theme: strings.TrimSpace(r.Theme),
		Level: strings.TrimSpace(r.Level),
	}
}

// GeneratedQuestion is one candidate produced by the generator.
type GeneratedQuestion struct {
	// Text is the question in the fixed multiple-choice format.
	Text string

	// Prompt is the exact user prompt sent to the backend.
	Prompt string

	// Attempt is the zero-based attempt index within one orchestration run.
	Attempt int

	// Temperature is the sampling temperature used for this attempt.
	Temperature float64

	// Model is the model that served the request, as reported by the backend.
	Model string
}

// StoredQuestion is an accepted question as persisted. Records are never
// mutated once written.
type StoredQuestion struct {
	ID           string
	PartitionKey string
	SortKey      string
	Theme        string
	Level        string
	Text         string
	Prompt       string
	CreatedAt    time.Time
	Expiry       time.Time
	SourceModel  string
}

// Expired reports whether the record is past its expiry at now.
func (s StoredQuestion) Expired(now time.Time) bool {
	return !s.Expiry.After(now)
}

// Gateway is the persistence contract of the pipeline.
type Gateway interface {
	// FetchRecent returns at most limit unexpired records for the pair,
	// most recent first. An empty result is valid.
	FetchRecent(ctx context.Context, theme, level string, limit int) ([]StoredQuestion, error)

	// Save writes a new record for q. It never overwrites an existing record.
	Save(ctx context.Context, q GeneratedQuestion, theme, level string) (*StoredQuestion, error)
}

// PartitionKey returns the key under which all records of a theme/level pair
// are grouped. Matching is case-insensitive.
func PartitionKey(theme, level string) string {
	return "THEMELEVEL#" + strings.ToLower(strings.TrimSpace(theme)) + "#" + strings.ToLower(strings.TrimSpace(level))
}

// NewID returns a fresh, time-ordered record identifier.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return "challenge-" + id.String(), nil
}

// NewStoredQuestion derives the durable record for an accepted candidate.
func NewStoredQuestion(q GeneratedQuestion, theme, level string, now time.Time, retention time.Duration) (*StoredQuestion, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	created := now.UTC()
	return &StoredQuestion{
		ID:           id,
		PartitionKey: PartitionKey(theme, level),
		SortKey:      created.Format(sortKeyLayout) + "#" + id,
		Theme:        theme,
		Level:        level,
		Text:         q.Text,
		Prompt:       q.Prompt,
		CreatedAt:    created,
		Expiry:       created.Add(retention),
		SourceModel:  q.Model,
	}, nil
}

// Texts returns the question texts of records, preserving order.
func Texts(records []StoredQuestion) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}
