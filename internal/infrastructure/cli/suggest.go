package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
)

var (
	suggestDescription string
	suggestCategory    string
	suggestWorkload    int
	suggestContext     []string
	suggestPrefs       []string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <title>",
	Short: "Suggest priority, deadline and details for a task",
	Long: `Ask the suggestion pipeline about a prospective task without saving it.

Context snippets are given as source:content, for example
--context "email:client needs the report by Friday". Without --context the
five most recent stored context entries are used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snippets, err := parseSnippets(suggestContext)
		if err != nil {
			return err
		}
		prefs, err := parsePreferences(suggestPrefs)
		if err != nil {
			return err
		}

		req := suggestion.Request{
			Title:           strings.Join(args, " "),
			Description:     suggestDescription,
			Category:        suggestCategory,
			Context:         snippets,
			UserPreferences: prefs,
			CurrentWorkload: suggestWorkload,
		}

		return withApp(cmd, func(app *wiring.App) error {
			result, err := app.Tasks.Suggest(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, suggestionPayload{Suggestion: result.Suggestion, Source: result.Source})
			}
			_, err = fmt.Fprintln(out, renderSuggestion(req.Title, result))
			return err
		})
	},
}

type suggestionPayload struct {
	Suggestion suggestion.Suggestion `json:"suggestion"`
	Source     suggestion.Source     `json:"source"`
}

func parseSnippets(values []string) ([]suggestion.ContextSnippet, error) {
	snippets := make([]suggestion.ContextSnippet, 0, len(values))
	for _, v := range values {
		source, content, ok := strings.Cut(v, ":")
		source, content = strings.TrimSpace(source), strings.TrimSpace(content)
		if !ok || source == "" || content == "" {
			return nil, NewCLIError(fmt.Sprintf("invalid context %q", v), "Use the form source:content, e.g. email:meeting moved to Monday", nil)
		}
		snippets = append(snippets, suggestion.ContextSnippet{SourceType: source, Content: content})
	}
	return snippets, nil
}

// parsePreferences turns key=value pairs into a preference map. Numbers
// and booleans keep their type so the prompt renders them naturally.
func parsePreferences(values []string) (map[string]any, error) {
	prefs := make(map[string]any, len(values))
	for _, v := range values {
		key, raw, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, NewCLIError(fmt.Sprintf("invalid preference %q", v), "Use the form key=value, e.g. working_hours=9-17", nil)
		}
		raw = strings.TrimSpace(raw)
		if n, err := strconv.Atoi(raw); err == nil {
			prefs[key] = n
		} else if b, err := strconv.ParseBool(raw); err == nil {
			prefs[key] = b
		} else {
			prefs[key] = raw
		}
	}
	return prefs, nil
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestDescription, "description", "d", "", "Task description")
	suggestCmd.Flags().StringVarP(&suggestCategory, "category", "c", "", "Task category")
	suggestCmd.Flags().IntVar(&suggestWorkload, "workload", 0, "Open task count (0 counts stored pending and in-progress tasks)")
	suggestCmd.Flags().StringArrayVar(&suggestContext, "context", nil, "Context snippet as source:content (repeatable)")
	suggestCmd.Flags().StringArrayVar(&suggestPrefs, "pref", nil, "User preference as key=value (repeatable)")
	RootCmd.AddCommand(suggestCmd)
}
