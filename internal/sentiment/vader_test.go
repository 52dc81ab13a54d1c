package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

func TestRemoveLinks(t *testing.T) {
	in := "check [the docs](https://example.com/docs) or https://example.com"
	assert.Equal(t, "check the docs or ", RemoveLinks(in))
}

func TestConvertMarkdownToText(t *testing.T) {
	in := "**bold** and\n\n- a list\n- item"
	out := ConvertMarkdownToText(in)
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "bold")
}

func TestAnalyze_Labels(t *testing.T) {
	_, label := Analyze("I love this product", "it is absolutely wonderful and great")
	assert.Equal(t, models.SentimentPositive, label)

	_, label = Analyze("This is terrible", "worst experience ever, horrible and broken")
	assert.Equal(t, models.SentimentNegative, label)

	_, label = Analyze("Release notes", "version 2.3.1 changes the config file location")
	assert.Equal(t, models.SentimentNeutral, label)
}
