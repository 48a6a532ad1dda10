// Package template loads the per-category inspection checklist catalogs.
// Checklist structure is supplied by these templates and is immutable once
// an inspection is created; the engine itself is category-agnostic.
package template

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/hotelaria/opshub/data"
)

// ItemTemplate describes one checklist line before evaluation.
type ItemTemplate struct {
	Descripcion          string  `json:"descripcion"`
	TipoDato             string  `json:"tipo_dato"`
	CumplimientoEditable bool    `json:"cumplimiento_editable"`
	CalifEditable        bool    `json:"calif_editable"`
	ComentariosLibre     bool    `json:"comentarios_libre"`
	CumplimientoInicial  string  `json:"cumplimiento_inicial,omitempty"`
	CalifInicial         float64 `json:"calif_inicial,omitempty"`
}

// AreaTemplate is an ordered grouping of item templates.
type AreaTemplate struct {
	AreaName string         `json:"area_name"`
	Items    []ItemTemplate `json:"items"`
}

type categoryFile struct {
	Category string         `json:"category"`
	Areas    []AreaTemplate `json:"areas"`
}

// Catalog maps a department/category label to its checklist areas.
type Catalog struct {
	categories []string
	byCategory map[string][]AreaTemplate
}

// Load parses every embedded template file into a Catalog.
func Load() (*Catalog, error) {
	cat := &Catalog{byCategory: make(map[string][]AreaTemplate)}

	entries, err := fs.ReadDir(data.Templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}

	for _, entry := range entries {
		raw, err := fs.ReadFile(data.Templates, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}

		var file categoryFile
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
		if file.Category == "" || len(file.Areas) == 0 {
			return nil, fmt.Errorf("template %s has no category or areas", entry.Name())
		}

		key := normalize(file.Category)
		if _, exists := cat.byCategory[key]; exists {
			return nil, fmt.Errorf("duplicate template category %q", file.Category)
		}
		cat.categories = append(cat.categories, file.Category)
		cat.byCategory[key] = file.Areas
	}

	if len(cat.categories) == 0 {
		return nil, fmt.Errorf("template catalog is empty")
	}

	return cat, nil
}

// Categories returns the canonical category labels, also serving as the
// canonical department catalog for scope resolution.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// ForCategory returns the area templates for a category. The match is
// case-insensitive and trimmed.
func (c *Catalog) ForCategory(category string) ([]AreaTemplate, bool) {
	areas, ok := c.byCategory[normalize(category)]
	return areas, ok
}

// CanonicalCategory maps a loosely-cased label to the canonical one.
func (c *Catalog) CanonicalCategory(category string) (string, bool) {
	key := normalize(category)
	for _, name := range c.categories {
		if normalize(name) == key {
			return name, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
