// Package labels maps backend codes (categories, levels, genders) to the
// localized strings shown in tables, forms and exported spreadsheets.
package labels

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Placeholder is rendered for absent optional values.
const Placeholder = "-"

// Label groups.
const (
	GroupCategory   = "category"
	GroupLevel      = "level"
	GroupGender     = "gender"
	GroupSalutation = "salutation"
	GroupActive     = "active"
	GroupStatus     = "status"
	GroupOutcome    = "outcome"
)

//go:embed labels.yaml
var catalogYAML []byte

var catalog = mustParse(catalogYAML)

// Catalog is a two-level map: group -> code -> label.
type Catalog map[string]map[string]string

// Parse decodes a YAML label catalog.
// PRE: data is a YAML mapping of mappings
// POST: Returns the catalog or a decode error
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse label catalog: %w", err)
	}
	return c, nil
}

func mustParse(data []byte) Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the label for code within group, or Placeholder when the
// code is empty or unknown.
func Lookup(group, code string) string {
	if code == "" {
		return Placeholder
	}
	if l, ok := catalog[group][code]; ok {
		return l
	}
	return Placeholder
}

// Category labels a point category (ADD, CONSUME).
func Category(code string) string { return Lookup(GroupCategory, code) }

// Level labels a member level (PASSER, FORMAL).
func Level(code string) string { return Lookup(GroupLevel, code) }

// Gender labels a gender code.
func Gender(code string) string { return Lookup(GroupGender, code) }

// Salutation returns the honorific used on the member card.
func Salutation(code string) string { return Lookup(GroupSalutation, code) }

// Active labels an active flag as yes/no.
func Active(v bool) string { return Lookup(GroupActive, strconv.FormatBool(v)) }

// Status labels a list status filter choice.
func Status(code string) string { return Lookup(GroupStatus, code) }

// Outcome labels an audit outcome.
func Outcome(code string) string { return Lookup(GroupOutcome, code) }

// Text returns s, or Placeholder when s is empty.
func Text(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Int formats an optional integer, rendering Placeholder when absent.
func Int(v *int64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatInt(*v, 10)
}
