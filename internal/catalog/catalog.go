// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the location term vocabulary used to build queries
// and score geographic relevance. A catalog is loaded once per run and is
// read-only afterwards.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Term is one canonical location name plus optional explicit variant
// spellings. Accent and watercourse-suffix variants are generated, not
// listed.
type Term struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants,omitempty"`
}

// UnmarshalYAML accepts either a plain string or a canonical/variants
// mapping, so catalog files can list bare names for the common case.
func (t *Term) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Canonical = value.Value
		return nil
	}
	type plain Term
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Term(p)
	return nil
}

// Category groups terms of one kind (rivers, lakes, populated places).
type Category struct {
	Name  string `yaml:"name"`
	Terms []Term `yaml:"terms"`
}

// Catalog is an ordered set of term categories. Category order is priority
// order: earlier categories are packed into queries first.
type Catalog struct {
	// Categories in priority order.
	Categories []Category `yaml:"categories"`

	// Priority names the categories used when a caller asks for the
	// priority subset only.
	Priority []string `yaml:"priority,omitempty"`

	// PrimaryTerms are the major water bodies whose presence earns a
	// relevance bonus.
	PrimaryTerms []string `yaml:"primary_terms,omitempty"`
}

// watercourseSynonyms maps a watercourse suffix to its interchangeable forms.
var watercourseSynonyms = map[string][]string{
	"creek":  {"Creek", "River", "Brook", "Stream"},
	"river":  {"River", "Creek", "Brook", "Stream"},
	"brook":  {"Brook", "Creek", "River", "Stream"},
	"stream": {"Stream", "Creek", "River", "Brook"},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips accents, so "François Lake" and
// "Francois Lake" canonicalize identically.
func Normalize(text string) string {
	folded, _, err := transform.String(accentFolder, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// AccentVariants returns the name plus its accent-stripped spellings, when
// they differ.
func AccentVariants(name string) []string {
	variants := []string{name}
	folded, _, err := transform.String(accentFolder, name)
	if err != nil || folded == name {
		return variants
	}
	variants = append(variants, folded)
	return variants
}

// WatercourseVariants returns the name rendered with each interchangeable
// watercourse suffix: "Tatuk Creek" also appears as "Tatuk River",
// "Tatuk Brook", and "Tatuk Stream" in provider records.
func WatercourseVariants(name string) []string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return []string{name}
	}
	suffix := strings.ToLower(parts[len(parts)-1])
	synonyms, ok := watercourseSynonyms[suffix]
	if !ok {
		return []string{name}
	}
	base := strings.Join(parts[:len(parts)-1], " ")
	variants := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		variants = append(variants, base+" "+s)
	}
	return variants
}

// Expand returns the term's canonical form, explicit variants, accent
// variants, and watercourse variants, deduplicated by normalized form in a
// stable order.
func (t Term) Expand() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		key := Normalize(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	add(t.Canonical)
	for _, v := range t.Variants {
		add(v)
	}
	for _, v := range AccentVariants(t.Canonical) {
		add(v)
	}
	if isWatercourse(t.Canonical) {
		for _, v := range WatercourseVariants(t.Canonical) {
			add(v)
		}
	}
	return out
}

func isWatercourse(name string) bool {
	lower := strings.ToLower(name)
	for suffix := range watercourseSynonyms {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}

// Category returns the named category, or nil.
func (c *Catalog) Category(name string) *Category {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i]
		}
	}
	return nil
}

// categoriesFor returns the categories to use, in priority order.
func (c *Catalog) categoriesFor(priorityOnly bool) []Category {
	if !priorityOnly || len(c.Priority) == 0 {
		return c.Categories
	}
	var out []Category
	for _, name := range c.Priority {
		if cat := c.Category(name); cat != nil {
			out = append(out, *cat)
		}
	}
	return out
}

// CategoryNames returns category names in priority order, restricted to the
// priority subset when asked.
func (c *Catalog) CategoryNames(priorityOnly bool) []string {
	cats := c.categoriesFor(priorityOnly)
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	return names
}

// ExpandedTerms returns every term string (canonical plus variants) for the
// selected categories, deduplicated across the whole catalog by normalized
// form. Order is deterministic: category priority order, then term order.
func (c *Catalog) ExpandedTerms(priorityOnly bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, cat := range c.categoriesFor(priorityOnly) {
		for _, term := range cat.Terms {
			for _, s := range term.Expand() {
				key := Normalize(s)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// CategoryExpandedTerms returns the expanded terms of a single category,
// deduplicated within the category only.
func (c *Catalog) CategoryExpandedTerms(name string) []string {
	cat := c.Category(name)
	if cat == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, term := range cat.Terms {
		for _, s := range term.Expand() {
			key := Normalize(s)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

// CountMatches counts catalog terms found in text, per category and in
// total. Matching is case- and accent-insensitive substring containment
// over the expanded variants; a term counts once per category no matter how
// many of its variants appear.
func (c *Catalog) CountMatches(text string) (map[string]int, int) {
	haystack := Normalize(text)
	counts := make(map[string]int, len(c.Categories))
	total := 0
	for _, cat := range c.Categories {
		for _, term := range cat.Terms {
			for _, s := range term.Expand() {
				if strings.Contains(haystack, Normalize(s)) {
					counts[cat.Name]++
					total++
					break
				}
			}
		}
	}
	return counts, total
}

// Relevance scores how strongly the text ties to the catalog's geography,
// in [0,1]: 0.3 base for any match, +0.1 per match capped at +0.4, and a
// one-time +0.2 bonus when a primary water body appears.
func (c *Catalog) Relevance(text string) (float64, int) {
	_, total := c.CountMatches(text)
	if total == 0 {
		return 0, 0
	}
	score := 0.3
	bonus := float64(total) * 0.1
	if bonus > 0.4 {
		bonus = 0.4
	}
	score += bonus

	haystack := Normalize(text)
	for _, primary := range c.PrimaryTerms {
		if strings.Contains(haystack, Normalize(primary)) {
			score += 0.2
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, total
}

// Stats summarizes the catalog for reporting.
type Stats struct {
	Categories     int            `yaml:"categories"`
	RawTerms       int            `yaml:"raw_terms"`
	ExpandedTerms  int            `yaml:"expanded_terms"`
	UniqueTerms    int            `yaml:"unique_terms"`
	PerCategoryRaw map[string]int `yaml:"per_category_raw"`
}

// Stats reports raw, expanded, and deduplicated term counts.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Categories:     len(c.Categories),
		PerCategoryRaw: make(map[string]int, len(c.Categories)),
	}
	unique := make(map[string]bool)
	expanded := 0
	for _, cat := range c.Categories {
		s.PerCategoryRaw[cat.Name] = len(cat.Terms)
		s.RawTerms += len(cat.Terms)
		for _, term := range cat.Terms {
			for _, v := range term.Expand() {
				expanded++
				unique[Normalize(v)] = true
			}
		}
	}
	s.ExpandedTerms = expanded
	s.UniqueTerms = len(unique)
	return s
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("catalog %s has no categories", path)
	}
	return &c, nil
}
