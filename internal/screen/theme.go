// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"strings"

	"github.com/ahzs645/saturationsearch/internal/catalog"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// Classifier assigns a thematic stream to an article. Certainty is the
// classifier's own confidence in [0,1] and feeds the screening confidence.
type Classifier interface {
	Classify(text string) (types.Theme, float64)
}

// KeywordClassifier scores each theme by keyword occurrence and picks the
// highest. It is the fallback path of the original methodology and the
// only classifier shipped; a trained model can slot in behind Classifier.
type KeywordClassifier struct {
	keywords map[types.Theme][]string
}

// NewKeywordClassifier returns a classifier loaded with the review's
// theme vocabularies.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: map[types.Theme][]string{
		types.ThemeEnvironment: {
			"water quality", "ecosystem", "habitat", "fish", "salmon", "trout",
			"pollution", "contamination", "sediment", "temperature", "flow",
			"hydrology", "watershed", "stream", "river", "lake", "wetland",
			"biodiversity", "species", "environmental", "ecology", "conservation",
		},
		types.ThemeCommunity: {
			"first nations", "indigenous", "aboriginal", "community", "cultural",
			"traditional", "social", "economic", "development", "land use",
			"resource management", "stakeholder", "governance", "policy",
			"treaty", "consultation", "capacity building", "employment",
		},
		types.ThemeHealth: {
			"health", "disease", "mortality", "survival", "growth", "reproduction",
			"toxicity", "contamination", "mercury", "heavy metals", "pathogen",
			"stress", "biomarker", "epidemiology", "public health", "exposure",
		},
	}}
}

// Classify returns the theme with the most keyword hits and the share of
// all hits that theme accounts for. No hits at all means ThemeUnknown
// with zero certainty.
func (c *KeywordClassifier) Classify(text string) (types.Theme, float64) {
	lower := catalog.Normalize(text)

	scores := make(map[types.Theme]int, len(c.keywords))
	total := 0
	for theme, words := range c.keywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				scores[theme]++
				total++
			}
		}
	}
	if total == 0 {
		return types.ThemeUnknown, 0
	}

	// Deterministic winner on ties: fixed evaluation order.
	best := types.ThemeUnknown
	bestScore := 0
	for _, theme := range []types.Theme{types.ThemeEnvironment, types.ThemeCommunity, types.ThemeHealth} {
		if scores[theme] > bestScore {
			best = theme
			bestScore = scores[theme]
		}
	}
	return best, float64(bestScore) / float64(total)
}
