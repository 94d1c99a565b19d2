package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Review statuses the agent may report when finishing.
const (
	StatusCompleted     = "completed"
	StatusNoIssuesFound = "no_issues_found"
)

// FinishReviewTool is the agent's terminal signal: the review is done. When
// no status is given, it is inferred from whether any suggestions were made.
type FinishReviewTool struct{}

func NewFinishReviewTool() *FinishReviewTool {
	return &FinishReviewTool{}
}

type finishReviewParams struct {
	Summary string `json:"summary,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (p *finishReviewParams) validate() error {
	switch p.Status {
	case "", StatusCompleted, StatusNoIssuesFound:
		return nil
	}
	return fmt.Errorf("status must be %q or %q, got %q", StatusCompleted, StatusNoIssuesFound, p.Status)
}

// ReviewOutcome is the value of a successful finish_review call.
type ReviewOutcome struct {
	Status          string `json:"status"`
	Summary         string `json:"summary,omitempty"`
	SuggestionCount int    `json:"suggestion_count"`
}

func (t *FinishReviewTool) Name() string {
	return "finish_review"
}

func (t *FinishReviewTool) Description() string {
	return "Signal that the review is complete. Call once, after all highlights have been made."
}

func (t *FinishReviewTool) Mutating() bool { return false }

func (t *FinishReviewTool) JSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Optional one-paragraph summary of the review",
			},
			"status": map[string]any{
				"type":        "string",
				"enum":        []string{StatusCompleted, StatusNoIssuesFound},
				"description": "Outcome; inferred from the suggestion count when omitted",
			},
		},
	}
}

func (t *FinishReviewTool) Check(args json.RawMessage) error {
	var p finishReviewParams
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return fmt.Errorf("malformed arguments: %w", err)
		}
	}
	return p.validate()
}

func (t *FinishReviewTool) Call(ctx context.Context, args json.RawMessage, tc *Context) Result {
	var p finishReviewParams
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return Failure(CodeInvalidParams, true, "malformed arguments: %v", err)
		}
	}

	count := tc.Store.Highlights.Len()
	status := p.Status
	if status == "" {
		if count == 0 {
			status = StatusNoIssuesFound
		} else {
			status = StatusCompleted
		}
	}
	return Success(ReviewOutcome{Status: status, Summary: p.Summary, SuggestionCount: count}, "")
}
