// Package teams maps scraped team-name variants to canonical names.
// Each source spells school names differently ("Michigan St." vs
// "Michigan State"), so the aggregator rewrites every name through a
// normalizer before datasets are combined.
package teams

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultAliases maps canonical names to their known variants. The
// table is incomplete by construction; unlisted names pass through
// unchanged. A YAML file can replace it entirely (see Load).
var defaultAliases = map[string][]string{
	"Michigan St.": {"Michigan St.", "Michigan State", "Mich St", "MSU"},
	"Duke":         {"Duke"},
	"UNC":          {"North Carolina", "UNC", "Tar Heels"},
}

// aliasFile is the on-disk shape of a replacement alias table.
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// Normalizer canonicalizes team names via an alias table.
type Normalizer struct {
	canonical map[string]string
}

// NewNormalizer builds a normalizer from the built-in alias table.
func NewNormalizer() *Normalizer {
	return fromAliases(defaultAliases)
}

// Load builds a normalizer from a YAML file of the form:
//
//	aliases:
//	  Michigan St.: ["Michigan State", "Mich St", "MSU"]
//
// An empty path falls back to the built-in table.
func Load(path string) (*Normalizer, error) {
	if path == "" {
		return NewNormalizer(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases file %s: %w", path, err)
	}

	var file aliasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse aliases file %s: %w", path, err)
	}
	if len(file.Aliases) == 0 {
		return nil, fmt.Errorf("aliases file %s has no aliases", path)
	}
	return fromAliases(file.Aliases), nil
}

func fromAliases(aliases map[string][]string) *Normalizer {
	canonical := make(map[string]string, len(aliases))
	for name, variants := range aliases {
		canonical[name] = name
		for _, variant := range variants {
			canonical[strings.TrimSpace(variant)] = name
		}
	}
	return &Normalizer{canonical: canonical}
}

// Normalize returns the canonical name for a scraped team name, or
// the trimmed input when no alias matches.
func (n *Normalizer) Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := n.canonical[trimmed]; ok {
		return canonical
	}
	return trimmed
}
