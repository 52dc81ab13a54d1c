package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText flattens Reddit-flavored markdown into plain text
// before scoring.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")

	return RemoveLinks(plainText)
}

// Analyze scores a post's title and body together and maps the compound
// score onto the pipeline's three sentiment labels.
func Analyze(title, body string) (float64, string) {
	plainText := ConvertMarkdownToText(strings.TrimSpace(title + " " + body))

	scores := analyzer.PolarityScores(plainText)
	score := scores.Compound

	var label string
	switch {
	case score >= 0.20:
		label = models.SentimentPositive
	case score <= -0.20:
		label = models.SentimentNegative
	default:
		label = models.SentimentNeutral
	}

	return score, label
}
