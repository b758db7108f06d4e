// Package content serves the static help pages and their single-question
// assistant.
package content

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

type FAQItem struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type FAQCategory struct {
	ID    string    `yaml:"id" json:"id"`
	Label string    `yaml:"label" json:"label"`
	Items []FAQItem `yaml:"items" json:"items"`
}

// ProcessStep is one stage of the claim timeline.
type ProcessStep struct {
	ID          int      `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Duration    string   `yaml:"duration" json:"duration"`
	Description string   `yaml:"description" json:"description"`
	Details     []string `yaml:"details" json:"details"`
}

// Catalogue is the full static help content.
type Catalogue struct {
	FAQ     []FAQCategory `yaml:"faq" json:"faq"`
	Process []ProcessStep `yaml:"process" json:"process"`
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("content: parse catalogue: %w", err)
	}
	if len(c.FAQ) == 0 || len(c.Process) == 0 {
		return nil, fmt.Errorf("content: catalogue needs faq and process entries")
	}
	return &c, nil
}

// Category returns the FAQ category with the given id.
func (c *Catalogue) Category(id string) (FAQCategory, bool) {
	for _, cat := range c.FAQ {
		if cat.ID == id {
			return cat, true
		}
	}
	return FAQCategory{}, false
}

// SearchFAQ keeps the items whose question or answer contains every word
// of query, case-insensitively. Categories left empty are dropped.
func (c *Catalogue) SearchFAQ(query string) []FAQCategory {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return c.FAQ
	}
	var out []FAQCategory
	for _, cat := range c.FAQ {
		var items []FAQItem
		for _, item := range cat.Items {
			text := strings.ToLower(item.Question + " " + item.Answer)
			if containsAll(text, words) {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			out = append(out, FAQCategory{ID: cat.ID, Label: cat.Label, Items: items})
		}
	}
	return out
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
