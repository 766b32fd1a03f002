// Package catalog derives the category list from the tags found in a
// movement log. Categories have no table of their own: a rename or delete
// is a rewrite of the matching movements, and the list is rebuilt on every
// read.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/BudHamud/safe/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Category is one entry of the derived index.
type Category struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Custom bool   `json:"custom"`
	Count  int    `json:"count"`
}

// Normalize folds a label for matching: trimmed, upper-cased and stripped
// of combining accents, so "Educación" and " EDUCACION" compare equal.
func Normalize(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(label))
	}
	return folded
}

// Matches reports whether two labels name the same category.
func Matches(a, b string) bool { return Normalize(a) == Normalize(b) }

// ID derives a stable identifier from a label.
func ID(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(Normalize(label)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return "tx-cat-" + b.String()
}

//go:embed defaults.yaml
var defaultsYAML []byte

// Catalog holds the icon suggestions and fallback glyphs.
type Catalog struct {
	Fallback struct {
		Icon          string `yaml:"icon"`
		ReassignLabel string `yaml:"reassign_label"`
		ReassignIcon  string `yaml:"reassign_icon"`
		ImportIcon    string `yaml:"import_icon"`
	} `yaml:"fallback"`
	Categories []struct {
		Label string `yaml:"label"`
		Icon  string `yaml:"icon"`
	} `yaml:"categories"`

	icons map[string]string
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded defaults: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded one when path is
// empty. Missing fallback fields are taken from the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	def := Default()
	if c.Fallback.Icon == "" {
		c.Fallback.Icon = def.Fallback.Icon
	}
	if c.Fallback.ReassignLabel == "" {
		c.Fallback.ReassignLabel = def.Fallback.ReassignLabel
		c.Fallback.ReassignIcon = def.Fallback.ReassignIcon
	}
	if c.Fallback.ImportIcon == "" {
		c.Fallback.ImportIcon = def.Fallback.ImportIcon
	}
	return c, nil
}

func parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	c.icons = make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		c.icons[Normalize(cat.Label)] = cat.Icon
	}
	return &c, nil
}

// Icon returns the suggested icon for label and whether one was known.
func (c *Catalog) Icon(label string) (string, bool) {
	icon, ok := c.icons[Normalize(label)]
	return icon, ok
}

// IconFor returns the icon to show for a movement: its own, the catalog
// suggestion for its tag, or the generic fallback.
func (c *Catalog) IconFor(tx *models.Transaction) string {
	if tx.Icon != "" {
		return tx.Icon
	}
	if icon, ok := c.Icon(tx.Tag); ok {
		return icon
	}
	return c.Fallback.Icon
}

// Reassign returns the label and icon deleted categories are moved to.
func (c *Catalog) Reassign() (string, string) {
	return c.Fallback.ReassignLabel, c.Fallback.ReassignIcon
}

// ImportIcon returns the icon for an imported row with tag label.
func (c *Catalog) ImportIcon(label string) string {
	if icon, ok := c.Icon(label); ok {
		return icon
	}
	return c.Fallback.ImportIcon
}

// Discover builds the category list. Tags from transactions come first,
// the first spelling and icon seen for a label winning; visible overrides
// then replace or add entries, and hidden overrides drop labels that no
// visible override brought back. The result is sorted by label ignoring
// case and accents.
func (c *Catalog) Discover(txs []models.Transaction, overrides []models.CustomCategory) []Category {
	index := make(map[string]*Category)
	var order []string

	put := func(key string, cat Category) {
		if existing, ok := index[key]; ok {
			cat.Count = existing.Count
			*existing = cat
			return
		}
		index[key] = &cat
		order = append(order, key)
	}

	for i := range txs {
		label := strings.TrimSpace(txs[i].Tag)
		if label == "" {
			continue
		}
		key := Normalize(label)
		if existing, ok := index[key]; ok {
			existing.Count++
			continue
		}
		icon := txs[i].Icon
		if icon == "" {
			icon = c.Fallback.Icon
		}
		put(key, Category{ID: ID(label), Label: label, Icon: icon, Count: 1})
	}

	visible := make(map[string]bool)
	for _, o := range overrides {
		label := strings.TrimSpace(o.Label)
		if o.Hidden || label == "" {
			continue
		}
		key := Normalize(label)
		icon := o.Icon
		if icon == "" {
			icon = c.Fallback.Icon
		}
		put(key, Category{ID: ID(label), Label: label, Icon: icon, Custom: true})
		visible[key] = true
	}

	hidden := make(map[string]bool)
	for _, o := range overrides {
		if key := Normalize(o.Label); o.Hidden && !visible[key] {
			hidden[key] = true
		}
	}

	out := make([]Category, 0, len(order))
	for _, key := range order {
		if !hidden[key] {
			out = append(out, *index[key])
		}
	}
	SortByLabel(out)
	return out
}

// SortByLabel orders categories A-Z ignoring case and accents.
func SortByLabel(cats []Category) {
	col := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(cats, func(i, j int) bool {
		return col.CompareString(cats[i].Label, cats[j].Label) < 0
	})
}

// Usage is the number of movements filed under one label.
type Usage struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// CountUsage tallies movements per normalized tag, most used first. The
// known categories are listed even when unused; tags outside them are
// appended as they are seen. Ties keep that order.
func CountUsage(known []Category, txs []models.Transaction) []Usage {
	idx := make(map[string]int, len(known))
	out := make([]Usage, 0, len(known))
	for _, c := range known {
		key := Normalize(c.Label)
		if _, ok := idx[key]; ok {
			continue
		}
		idx[key] = len(out)
		out = append(out, Usage{Label: c.Label, Icon: c.Icon})
	}
	for i := range txs {
		label := strings.TrimSpace(txs[i].Tag)
		if label == "" {
			continue
		}
		key := Normalize(label)
		at, ok := idx[key]
		if !ok {
			at = len(out)
			idx[key] = at
			out = append(out, Usage{Label: label, Icon: txs[i].Icon})
		}
		out[at].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
