// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen applies the review's inclusion and exclusion criteria to
// deduplicated records: language, publication window, geographic scope,
// domain exclusion rules, and theme classification.
package screen

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/catalog"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

const (
	defaultConfidenceThreshold = 0.8
	defaultRelevanceThreshold  = 0.3
	defaultMinYear             = 1930

	// reviewConfidenceCap keeps any decision with an open question under
	// the manual-review threshold. The flag is derived from confidence
	// alone, so the cap is what routes these records to a human.
	reviewConfidenceCap = 0.75

	// minTextLen below which a title+abstract is too thin to screen
	// automatically.
	minTextLen = 50

	confidentExclusion = 0.95

	// lowGeoConfidence marks exclusions where some catalog terms did
	// match: plausibly in scope, so a human decides.
	lowGeoConfidence = 0.5
)

// DefaultExclusionRules returns the review's standing exclusion patterns:
// locally affiliated research in fields unrelated to the watershed, unless
// the text also names the watershed itself.
func DefaultExclusionRules() []types.ExclusionRule {
	return []types.ExclusionRule{{
		Keywords: []string{
			"timber engineering", "forestry engineering", "astronomy",
			"astrophysics", "software engineering", "computer science",
		},
		UnlessTerms: []string{"nechako", "stuart lake", "fraser lake", "vanderhoof"},
		Reason:      "institution-affiliated research outside the watershed scope",
	}}
}

// Screener makes automated inclusion decisions for one run.
type Screener struct {
	cfg        types.ScreenConfig
	cat        *catalog.Catalog
	classifier Classifier
	logger     *zap.Logger
}

// New builds a Screener, filling unset config fields with the review
// defaults. A nil classifier gets the keyword classifier.
func New(cfg types.ScreenConfig, cat *catalog.Catalog, classifier Classifier, logger *zap.Logger) *Screener {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = defaultRelevanceThreshold
	}
	if cfg.MinYear <= 0 {
		cfg.MinYear = defaultMinYear
	}
	if cfg.ExclusionRules == nil {
		cfg.ExclusionRules = DefaultExclusionRules()
	}
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Screener{cfg: cfg, cat: cat, classifier: classifier, logger: logger}
}

// ScreenAll screens every record and logs the aggregate outcome.
func (s *Screener) ScreenAll(records []types.Record) []types.ScreeningDecision {
	decisions := make([]types.ScreeningDecision, 0, len(records))
	included, excluded, review := 0, 0, 0
	for _, r := range records {
		d := s.Screen(r)
		decisions = append(decisions, d)
		switch {
		case d.ManualReviewRequired:
			review++
		case d.Included:
			included++
		default:
			excluded++
		}
	}
	if s.logger != nil {
		s.logger.Info("screening complete",
			zap.Int("records", len(records)),
			zap.Int("included", included),
			zap.Int("excluded", excluded),
			zap.Int("manual_review", review))
	}
	return decisions
}

// Screen evaluates one record. Exclusion rules win unconditionally: any
// rule hit zeroes the quality score no matter how strong the other
// signals are.
func (s *Screener) Screen(r types.Record) types.ScreeningDecision {
	text := strings.TrimSpace(r.Title + " " + r.Abstract)
	geo, matches := s.cat.Relevance(text)

	d := types.ScreeningDecision{
		Record:          r,
		Theme:           types.ThemeUnknown,
		GeographicScore: geo,
		LocationMatches: matches,
	}

	var exclusions []string
	lowGeo := false

	if lang, ok := nonEnglish(r, text); ok {
		exclusions = append(exclusions, "Non-English language: "+lang)
	}
	if r.Year != 0 && r.Year < s.cfg.MinYear {
		exclusions = append(exclusions, fmt.Sprintf("published %d, before %d", r.Year, s.cfg.MinYear))
	}
	if geo < s.cfg.RelevanceThreshold {
		if matches == 0 {
			exclusions = append(exclusions, "Outside geographic scope: no watershed location terms found")
		} else {
			exclusions = append(exclusions, fmt.Sprintf("Outside geographic scope: low relevance %.2f", geo))
			lowGeo = true
		}
	}
	lower := catalog.Normalize(text)
	for _, rule := range s.cfg.ExclusionRules {
		if reason, hit := ruleHit(rule, lower); hit {
			exclusions = append(exclusions, reason)
			lowGeo = false
		}
	}

	if len(exclusions) > 0 {
		d.Reasons = exclusions
		d.Confidence = confidentExclusion
		if lowGeo && len(exclusions) == 1 {
			d.Confidence = lowGeoConfidence
		}
		d.QualityScore = 0
		d.ManualReviewRequired = d.Confidence < s.cfg.ConfidenceThreshold
		return d
	}

	theme, certainty := s.classifier.Classify(text)
	d.Theme = theme
	d.Included = true
	d.QualityScore = 10*float64(matches) + geo
	d.Reasons = append(d.Reasons,
		fmt.Sprintf("geographic relevance: %.2f", geo),
		fmt.Sprintf("location matches: %d", matches))

	conf := 0.3 + 0.4*geo + min(0.05*float64(matches), 0.2) + 0.1*certainty
	if conf > 1 {
		conf = 1
	}

	if r.Year == 0 {
		d.Reasons = append(d.Reasons, "missing publication year")
		conf = min(conf, reviewConfidenceCap)
	} else {
		d.Reasons = append(d.Reasons, fmt.Sprintf("valid publication year: %d", r.Year))
	}
	if len(text) < minTextLen {
		d.Reasons = append(d.Reasons, "very short title/abstract")
		conf = min(conf, reviewConfidenceCap)
	}

	d.Confidence = conf
	d.ManualReviewRequired = conf < s.cfg.ConfidenceThreshold
	return d
}

// nonEnglish reports whether the record is in a language other than
// English: first from the provider's declared language, otherwise by
// detection on the title and abstract. Unreliable detections pass, since
// a wrong exclusion here is unrecoverable.
func nonEnglish(r types.Record, text string) (string, bool) {
	if r.Language != "" {
		switch strings.ToLower(r.Language) {
		case "english", "eng", "en":
			return "", false
		}
		return r.Language, true
	}
	if text == "" {
		return "", false
	}
	info := whatlanggo.Detect(text)
	if info.IsReliable() && info.Lang != whatlanggo.Eng {
		return info.Lang.String(), true
	}
	return "", false
}

// ruleHit evaluates one exclusion rule against normalized text.
func ruleHit(rule types.ExclusionRule, lower string) (string, bool) {
	matched := false
	for _, kw := range rule.Keywords {
		if strings.Contains(lower, catalog.Normalize(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	for _, unless := range rule.UnlessTerms {
		if strings.Contains(lower, catalog.Normalize(unless)) {
			return "", false
		}
	}
	return rule.Reason, true
}
