package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/psiclinic/platform/internal/intake"
	"github.com/psiclinic/platform/pkg/logging"
)

// ErrNoNotes is returned when a summary is requested for a patient without
// any clinical notes.
var ErrNoNotes = errors.New("notes: no notes to summarize")

// Summary is the model's structured overview of a patient's clinical notes.
type Summary struct {
	Summary     string   `json:"summary"`
	Themes      []string `json:"themes"`
	Suggestions []string `json:"suggestions"`
}

const summarySystemPrompt = `You are an AI assistant for psychologists. Your task is to analyze
clinical notes and return a structured summary as a JSON object. Be concise,
professional and rely strictly on the information provided. Never invent
details. Your reply MUST contain ONLY the JSON object, with no extra text,
explanation or markdown markers.`

const summaryUserPrompt = `Analyze the following clinical notes for the patient %s.

Notes:
---
%s
---

Return a JSON object with these keys:
- "summary": a concise summary of the patient's overall progress (at most 4 sentences).
- "themes": a list of 3 to 5 themes or topics that recur across the notes.
- "suggestions": a list of 2 to 3 points to explore or techniques to consider in the next session, based on the identified themes.`

// Summarizer asks the language model for a clinical overview of a patient's
// notes.
type Summarizer struct {
	llm    intake.LLMClient
	logger *logging.Logger
}

// NewSummarizer creates a summarizer on top of the shared LLM client.
func NewSummarizer(llm intake.LLMClient, logger *logging.Logger) *Summarizer {
	if llm == nil {
		panic("notes: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Summarizer{llm: llm, logger: logger}
}

// Summarize builds the prompt from the notes and parses the model's JSON
// reply.
func (s *Summarizer) Summarize(ctx context.Context, patientName string, list []ClinicalNote) (*Summary, error) {
	if len(list) == 0 {
		return nil, ErrNoNotes
	}

	var b strings.Builder
	for i, n := range list {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "Date: %s\nNote: %s", n.CreatedAt.Format("02/01/2006"), n.Content)
	}

	resp, err := s.llm.Complete(ctx, intake.LLMRequest{
		System: []string{summarySystemPrompt},
		Messages: []intake.ChatMessage{{
			Role:    intake.ChatRoleUser,
			Content: fmt.Sprintf(summaryUserPrompt, patientName, b.String()),
		}},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("notes: summary completion failed: %w", err)
	}

	var out Summary
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &out); err != nil {
		s.logger.Error("model returned invalid summary", "error", err)
		return nil, fmt.Errorf("notes: model returned invalid summary: %w", err)
	}
	return &out, nil
}

// extractJSON strips the markdown code fence the model sometimes wraps
// around the object despite the prompt.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	i := strings.Index(text, "```")
	if i < 0 {
		return text
	}
	rest := strings.TrimPrefix(text[i+3:], "json")
	if j := strings.Index(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
