// Package categorizer assigns subject categories to free text using a keyword table.
package categorizer

import (
	"bytes"
	_ "embed"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/textutil"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Rule maps a keyword to the category it implies.
type Rule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// Table is an ordered list of rules. Order matters: categories are reported in the
// order rules match.
type Table []Rule

// Categorizer classifies text against a fixed Table. It is safe for concurrent use
// since it is never mutated after construction.
type Categorizer struct {
	rules []Rule
}

var (
	defaultOnce        sync.Once
	defaultCategorizer *Categorizer
)

// Default returns the process-wide categorizer built from the embedded keyword table.
func Default() *Categorizer {
	defaultOnce.Do(func() {
		table, err := LoadTable(bytes.NewReader(defaultKeywords))
		if err != nil {
			// The embedded table is part of the binary, so this is a build defect.
			panic(err)
		}
		defaultCategorizer = New(table)
	})
	return defaultCategorizer
}

// LoadTable reads a YAML list of {keyword, category} rules.
func LoadTable(r io.Reader) (Table, error) {
	var table Table
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, nil
		}
		return nil, errors.Wrap(err, "failed to decode keyword table")
	}
	for i, rule := range table {
		if strings.TrimSpace(rule.Keyword) == "" {
			return nil, errors.Errorf("rule %d has an empty keyword", i)
		}
		if strings.TrimSpace(rule.Category) == "" {
			return nil, errors.Errorf("rule %d (%q) has an empty category", i, rule.Keyword)
		}
	}
	return table, nil
}

// New builds a Categorizer. Keywords are folded the same way input text is and
// categories are lower-cased.
func New(table Table) *Categorizer {
	rules := make([]Rule, 0, len(table))
	for _, rule := range table {
		rules = append(rules, Rule{
			Keyword:  textutil.Fold(rule.Keyword),
			Category: strings.ToLower(strings.TrimSpace(rule.Category)),
		})
	}
	return &Categorizer{rules: rules}
}

// Classify returns the categories of every rule whose keyword is contained in a token
// of text. Tokens are visited in order and, for each, rules in table order. Repeats
// are kept. Keywords containing spaces or punctuation can never match since tokens
// never contain them.
func (c *Categorizer) Classify(text string) []string {
	var categories []string
	for _, token := range Tokenize(text) {
		for _, rule := range c.rules {
			if strings.Contains(token, rule.Keyword) {
				categories = append(categories, rule.Category)
			}
		}
	}
	return categories
}

// Len returns the number of rules.
func (c *Categorizer) Len() int {
	return len(c.rules)
}

// Tokenize folds text and splits it into runs of letters, digits and underscores.
func Tokenize(text string) []string {
	return tokenRE.FindAllString(textutil.Fold(text), -1)
}
