package sentiment

import (
	"github.com/jonreiter/govader"
)

// VaderScorer scores text with the VADER lexicon. It satisfies Scorer.
// The analyzer is stateless after construction and safe for concurrent use.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer creates a VADER-backed scorer with the default lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound polarity score in [-1, 1].
func (s *VaderScorer) Score(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}
