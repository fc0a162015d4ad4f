package suggestion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemInstruction is sent with every inference call.
const SystemInstruction = "You are an AI assistant specialized in task management and productivity. " +
	"You help users prioritize tasks, suggest deadlines, and enhance task descriptions based on context analysis. " +
	"Always respond with valid JSON only."

const noContext = "No additional context available."

// ContextSummary renders the first MaxContextSnippets snippets, each cut to
// MaxSnippetLen runes, as a numbered digest.
func ContextSummary(snippets []ContextSnippet) string {
	if len(snippets) == 0 {
		return noContext
	}

	var b strings.Builder
	b.WriteString("Recent context information:\n")
	for i, snippet := range snippets {
		if i == MaxContextSnippets {
			break
		}
		source := snippet.SourceType
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, source, Truncate(snippet.Content, MaxSnippetLen))
	}
	return b.String()
}

// BuildPrompt renders the analysis prompt for req. The output depends only on
// req, so identical requests produce identical prompts.
func BuildPrompt(req Request) string {
	category := req.Category
	if category == "" {
		category = "Not specified"
	}

	var b strings.Builder
	b.WriteString("\nAnalyze this task and provide intelligent suggestions. You must respond with valid JSON only.\n\n")
	b.WriteString("TASK DETAILS:\n")
	fmt.Fprintf(&b, "- Title: %s\n", req.Title)
	fmt.Fprintf(&b, "- Description: %s\n", req.Description)
	fmt.Fprintf(&b, "- Category: %s\n", category)
	fmt.Fprintf(&b, "- Current workload: %d pending tasks\n\n", req.Workload())
	b.WriteString("CONTEXT:\n")
	b.WriteString(ContextSummary(req.Context))
	b.WriteString("\n\nUSER PREFERENCES:\n")
	b.WriteString(formatPreferences(req.UserPreferences))
	b.WriteString("\n\n")
	b.WriteString(responseShape)
	return b.String()
}

func formatPreferences(prefs map[string]any) string {
	if len(prefs) == 0 {
		return "None specified"
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", prefs)
	}
	return string(data)
}

const responseShape = `Respond with this exact JSON structure:

{
    "priority_score": <integer between 1-10>,
    "suggested_deadline": "<ISO datetime string or null>",
    "enhanced_description": "<enhanced description with context>",
    "suggested_category": "<category suggestion>",
    "ai_suggested_tags": ["<tag1>", "<tag2>", "<tag3>"],
    "reasoning": "<explanation of priority and deadline reasoning>",
    "estimated_duration": "<estimated time to complete>",
    "context_insights": ["<insight1>", "<insight2>", "<insight3>"]
}

PRIORITY SCORING GUIDELINES:
- 1-3: Low priority, can be done anytime
- 4-6: Medium priority, should be done within a week
- 7-8: High priority, should be done within 2-3 days
- 9-10: Critical/Urgent, needs immediate attention

For suggested_deadline, use ISO format like "2024-01-15T10:00:00" or null if no specific deadline is needed.

Respond with valid JSON only, no other text.
`
