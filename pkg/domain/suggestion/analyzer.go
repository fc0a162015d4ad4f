package suggestion

import (
	"regexp"
	"sort"
	"strings"
)

// Sentiment is the coarse polarity of a piece of text.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

const maxKeywords = 10

// tokenSeparator splits on anything that is not a Unicode letter, digit or
// underscore, so accented words stay whole instead of breaking at the accent.
var tokenSeparator = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

const minKeywordLen = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"can": {}, "a": {}, "an": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"they": {}, "we": {}, "you": {}, "i": {}, "me": {}, "him": {}, "her": {}, "us": {},
	"them": {}, "my": {}, "your": {}, "his": {}, "our": {}, "their": {},
}

type weightedKeyword struct {
	word   string
	weight int
}

// relevanceKeywords is ordered; the total weight is relevanceMax.
var relevanceKeywords = []weightedKeyword{
	{"task", 2}, {"todo", 2}, {"deadline", 2}, {"urgent", 2}, {"important", 2},
	{"meeting", 2}, {"project", 2}, {"work", 2}, {"complete", 2}, {"finish", 2},
	{"priority", 1}, {"schedule", 1}, {"appointment", 1}, {"reminder", 1},
	{"follow", 1}, {"action", 1}, {"deliver", 1},
}

const relevanceMax = 27

var (
	positiveWords = []string{
		"good", "great", "excellent", "happy", "pleased", "satisfied", "love", "like",
		"amazing", "wonderful", "perfect", "awesome", "fantastic", "brilliant", "outstanding", "superb",
	}
	negativeWords = []string{
		"bad", "terrible", "awful", "hate", "dislike", "disappointed", "frustrated", "angry",
		"upset", "problem", "issue", "difficult", "challenging", "struggle", "fail", "wrong",
	}
)

// ExtractKeywords returns up to ten significant words ordered by frequency.
// Equal counts keep the order in which the words first appear.
func ExtractKeywords(text string) []string {
	counts := map[string]int{}
	var order []string
	for _, word := range tokenSeparator.Split(strings.ToLower(text), -1) {
		if !isKeywordToken(word) {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// RelevanceScore rates how task-related text is, in [0, 1].
func RelevanceScore(text string) float64 {
	lower := strings.ToLower(text)
	points := 0
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw.word) {
			points += kw.weight
		}
	}
	score := float64(points) / relevanceMax
	if score > 1 {
		return 1
	}
	return score
}

// AnalyzeSentiment classifies text by counting polar words. Ties are neutral.
func AnalyzeSentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	pos := countContained(lower, positiveWords)
	neg := countContained(lower, negativeWords)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ExtractInsights returns up to five observations about text, using checks
// specific to the source type followed by generic ones. Source types match
// exactly; "Email" only gets the generic checks.
func ExtractInsights(text, sourceType string) []string {
	lower := strings.ToLower(text)
	insights := []string{}

	switch sourceType {
	case "email":
		if containsAny(lower, "meeting", "call") {
			insights = append(insights, "Contains meeting or call information")
		}
		if containsAny(lower, "deadline", "due") {
			insights = append(insights, "Contains deadline information")
		}
		if containsAny(lower, "attached", "attachment") {
			insights = append(insights, "Contains file attachments")
		}
	case "whatsapp":
		if strings.Contains(lower, "urgent") || strings.Contains(text, "!!") {
			insights = append(insights, "Marked as urgent")
		}
		if strings.Contains(text, "?") {
			insights = append(insights, "Contains questions needing response")
		}
		if strings.Contains(lower, "meeting") {
			insights = append(insights, "Discussion about meeting")
		}
	case "notes":
		if containsAny(lower, "todo", "task") {
			insights = append(insights, "Contains task-related notes")
		}
		if strings.Contains(lower, "remember") {
			insights = append(insights, "Contains reminder information")
		}
		if strings.Contains(lower, "idea") {
			insights = append(insights, "Contains ideas or suggestions")
		}
	}

	if strings.Contains(lower, "follow up") {
		insights = append(insights, "Requires follow-up action")
	}
	if strings.Contains(lower, "review") {
		insights = append(insights, "Involves review or feedback")
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}

// AnalysisOptions toggles the optional parts of Analyze.
type AnalysisOptions struct {
	Keywords  bool `json:"extract_keywords"`
	Relevance bool `json:"calculate_relevance"`
	Sentiment bool `json:"analyze_sentiment"`
}

// AllAnalysis enables every part of Analyze.
var AllAnalysis = AnalysisOptions{Keywords: true, Relevance: true, Sentiment: true}

// Analysis bundles the analyzer results for a piece of context.
type Analysis struct {
	Keywords       []string  `json:"extracted_keywords"`
	RelevanceScore float64   `json:"relevance_score"`
	Sentiment      Sentiment `json:"sentiment"`
	Insights       []string  `json:"insights"`
}

// Analyze runs the selected analyzers. Disabled parts report empty keywords,
// a zero score and neutral sentiment. Insights are always extracted.
func Analyze(text, sourceType string, opts AnalysisOptions) Analysis {
	a := Analysis{
		Keywords:  []string{},
		Sentiment: SentimentNeutral,
		Insights:  ExtractInsights(text, sourceType),
	}
	if opts.Keywords {
		a.Keywords = ExtractKeywords(text)
	}
	if opts.Relevance {
		a.RelevanceScore = RelevanceScore(text)
	}
	if opts.Sentiment {
		a.Sentiment = AnalyzeSentiment(text)
	}
	return a
}

// isKeywordToken accepts lowercase ASCII words of at least minKeywordLen
// letters. Tokens mixing in digits, underscores or non-ASCII letters are
// skipped whole.
func isKeywordToken(word string) bool {
	if len(word) < minKeywordLen {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func countContained(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
