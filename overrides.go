package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overrides are keyword rules applied after oracle classification. A phrase
// match pins the category or priority regardless of what the oracle answered.
type Overrides struct {
	CategoryTerms []CategoryTerm `yaml:"category_terms"`
	PriorityHints []PriorityHint `yaml:"priority_hints"`
}

type CategoryTerm struct {
	Phrase   string `yaml:"phrase"`
	Category string `yaml:"category"`
}

type PriorityHint struct {
	Phrase   string `yaml:"phrase"`
	Priority string `yaml:"priority"`
}

func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse overrides yaml: %w", err)
	}
	for _, t := range o.CategoryTerms {
		if _, ok := ParseCategory(t.Category); !ok {
			return nil, fmt.Errorf("unknown category %q for phrase %q", t.Category, t.Phrase)
		}
	}
	for _, h := range o.PriorityHints {
		if _, ok := ParsePriority(h.Priority); !ok {
			return nil, fmt.Errorf("unknown priority %q for phrase %q", h.Priority, h.Phrase)
		}
	}
	return &o, nil
}

// Apply returns the result with any matching override rules applied. A nil
// receiver applies nothing.
func (o *Overrides) Apply(complaint string, result TriageResult) TriageResult {
	if o == nil || result.Status != StatusProcessed {
		return result
	}
	text := normalizeTextToken(complaint)

	for _, t := range o.CategoryTerms {
		phrase := normalizeTextToken(t.Phrase)
		if phrase != "" && strings.Contains(text, phrase) {
			if cat, ok := ParseCategory(t.Category); ok {
				result.Category = cat
			}
			break
		}
	}

	for _, h := range o.PriorityHints {
		phrase := normalizeTextToken(h.Phrase)
		if phrase != "" && strings.Contains(text, phrase) {
			if pri, ok := ParsePriority(h.Priority); ok {
				result.Priority = pri
			}
			break
		}
	}

	return result
}

func normalizeTextToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
