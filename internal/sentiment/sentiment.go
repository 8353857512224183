// Package sentiment derives a polarity label and score from review text.
// The lexicon scorer itself is an injected capability so tests can substitute
// a deterministic double.
package sentiment

import (
	"github.com/seifmohamed1w/elastic-search/internal/domain"
)

// Thresholds for the classification dead zone. Scores of exactly
// PositiveThreshold or NegativeThreshold are inclusive toward their label.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer maps text to a single compound polarity score in [-1, 1].
// Implementations must be deterministic for a fixed text and lexicon version.
type Scorer interface {
	Score(text string) float64
}

// Classifier turns a scorer's compound score into a sentiment label.
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a classifier backed by the given scorer.
func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Classify scores the given text and maps the score to a label:
// positive if score >= 0.05, negative if score <= -0.05, neutral otherwise.
func (c *Classifier) Classify(text string) (string, float64) {
	score := c.scorer.Score(text)
	switch {
	case score >= PositiveThreshold:
		return domain.SentimentPositive, score
	case score <= NegativeThreshold:
		return domain.SentimentNegative, score
	default:
		return domain.SentimentNeutral, score
	}
}
