package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
)

var (
	analyzeSource      string
	analyzeNoKeywords  bool
	analyzeNoRelevance bool
	analyzeNoSentiment bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Extract keywords, relevance and sentiment from text",
	Long: `Run the context analyzer over text given as arguments or on stdin.
Nothing is stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}

		svc := application.NewContextService(nil, nil)
		analysis, err := svc.Analyze(application.AnalyzeInput{
			Content:    text,
			SourceType: analyzeSource,
			AnalysisOptions: suggestion.AnalysisOptions{
				Keywords:  !analyzeNoKeywords,
				Relevance: !analyzeNoRelevance,
				Sentiment: !analyzeNoSentiment,
			},
		})
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, analysis)
		}
		_, err = fmt.Fprintln(out, renderAnalysis(analysis))
		return err
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSource, "source", "s", "notes", "Source type (email, whatsapp, notes, other)")
	analyzeCmd.Flags().BoolVar(&analyzeNoKeywords, "no-keywords", false, "Skip keyword extraction")
	analyzeCmd.Flags().BoolVar(&analyzeNoRelevance, "no-relevance", false, "Skip relevance scoring")
	analyzeCmd.Flags().BoolVar(&analyzeNoSentiment, "no-sentiment", false, "Skip sentiment analysis")
	RootCmd.AddCommand(analyzeCmd)
}
