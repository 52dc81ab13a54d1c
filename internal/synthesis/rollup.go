package synthesis

import (
	"math"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// rollupSentiment turns per-record labels into percentages that sum to
// exactly 100: each bucket is rounded, then the largest bucket absorbs the
// rounding remainder.
func rollupSentiment(records []models.FeedbackRecord) models.SentimentBreakdown {
	if len(records) == 0 {
		return models.SentimentBreakdown{Neutral: 100, Mood: moodFor(0)}
	}

	var pos, neu, neg int
	for _, r := range records {
		switch r.Analysis.Sentiment {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		default:
			neu++
		}
	}

	total := float64(len(records))
	b := models.SentimentBreakdown{
		Positive: int(math.Round(float64(pos) / total * 100)),
		Neutral:  int(math.Round(float64(neu) / total * 100)),
		Negative: int(math.Round(float64(neg) / total * 100)),
	}

	if diff := 100 - (b.Positive + b.Neutral + b.Negative); diff != 0 {
		switch largestBucket(b) {
		case models.SentimentPositive:
			b.Positive += diff
		case models.SentimentNegative:
			b.Negative += diff
		default:
			b.Neutral += diff
		}
	}

	b.Mood = moodFor(b.Negative)
	return b
}

func largestBucket(b models.SentimentBreakdown) string {
	switch {
	case b.Positive >= b.Neutral && b.Positive >= b.Negative:
		return models.SentimentPositive
	case b.Negative >= b.Neutral:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// moodFor derives the overall mood label from the negative share alone.
func moodFor(negativePct int) string {
	switch {
	case negativePct >= 50:
		return "alarmed"
	case negativePct >= 30:
		return "frustrated"
	case negativePct >= 15:
		return "mixed"
	default:
		return "upbeat"
	}
}
