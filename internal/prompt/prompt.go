// Package prompt renders the instructions handed to the external reviewing
// agent: what the review is for, which tools exist, and how a session is
// expected to flow. The agent itself lives outside this process; the
// generated text plus the registry's tool specs are its whole interface.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kvit-s/redline/internal/tools"
)

// Generator builds reviewer instructions from the registered tools.
type Generator struct {
	registry *tools.Registry
}

// NewGenerator creates a new prompt generator
func NewGenerator(registry *tools.Registry) *Generator {
	return &Generator{registry: registry}
}

// GenerateSystemPrompt builds the complete instruction text.
func (g *Generator) GenerateSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("# ROLE\n")
	sb.WriteString("You are a writing reviewer. Read the document through the provided tools and propose precise, span-anchored suggestions.\n\n")

	sb.WriteString("# WORKFLOW\n")
	steps := g.workflowSteps()
	for i, step := range steps {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	sb.WriteString("\n")

	sb.WriteString("# GUIDELINES\n")
	sb.WriteString("- Only use the tools listed below\n")
	sb.WriteString("- Quote original_text exactly as it appears in the document\n")
	sb.WriteString("- Never propose overlapping spans; pick the strongest issue in a region\n")
	sb.WriteString("- Always end the review with finish_review\n\n")

	sb.WriteString(g.generateToolDocs())
	return sb.String()
}

func (g *Generator) workflowSteps() []string {
	var steps []string
	if g.registry.Has("get_document_stats") {
		steps = append(steps, "Call get_document_stats to size up the document")
	}
	if g.registry.Has("get_line_content") {
		steps = append(steps, "Read the text with get_line_content, a window at a time")
	}
	if g.registry.Has("highlight_text") {
		steps = append(steps, "Propose each issue with highlight_text, one span per issue")
	}
	if g.registry.Has("finish_review") {
		steps = append(steps, "Call finish_review with a short summary when done")
	}
	return steps
}

// generateToolDocs renders every registered tool with its JSON schema.
func (g *Generator) generateToolDocs() string {
	var sb strings.Builder
	sb.WriteString("# TOOLS\n")
	for _, spec := range g.registry.Specs() {
		sb.WriteString(fmt.Sprintf("## %s\n%s\n", spec.Name, spec.Description))
		if schema, err := json.MarshalIndent(spec.Parameters, "", "  "); err == nil {
			sb.WriteString("```json\n")
			sb.Write(schema)
			sb.WriteString("\n```\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// ToolSpecsJSON exports the registry's specs as provider-format JSON, for
// wiring the tools into an agent host's function-calling API.
func (g *Generator) ToolSpecsJSON() (string, error) {
	data, err := json.MarshalIndent(g.registry.Specs(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
