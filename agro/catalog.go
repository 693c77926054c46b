package agro

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CULTIVAR CATALOG
// =============================================================================

//go:embed cultivars.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Cultivars []struct {
		Crop      string   `yaml:"cultura"`
		Varieties []string `yaml:"variedades"`
	} `yaml:"cultivares"`
}

// DefaultCultivars returns the built-in catalog in file order, without IDs.
func DefaultCultivars() ([]CultivarEntry, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// ParseCatalog reads a YAML catalog and rejects duplicate pairs.
func ParseCatalog(data []byte) ([]CultivarEntry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cultivar catalog: %w", err)
	}

	seen := make(map[string]bool)
	var entries []CultivarEntry
	for _, group := range file.Cultivars {
		for _, variety := range group.Varieties {
			e := CultivarEntry{Crop: group.Crop, Variety: variety}
			if err := e.Validate(); err != nil {
				return nil, err
			}
			key := e.Key()
			if seen[key] {
				return nil, fmt.Errorf("%w: %s %s", ErrDuplicateCultivar, e.Crop, e.Variety)
			}
			seen[key] = true
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Key identifies the pair for uniqueness: lower-cased crop plus variety.
func (e CultivarEntry) Key() string {
	return strings.ToLower(e.Crop) + "\x00" + e.Variety
}

func (e CultivarEntry) Validate() error {
	if strings.TrimSpace(e.Crop) == "" {
		return NewValidationError("cultura", CodeRequired, "crop name is required")
	}
	if strings.TrimSpace(e.Variety) == "" {
		return NewValidationError("variedade", CodeRequired, "variety name is required")
	}
	return nil
}

// MatchesCrop compares crop names case-insensitively.
func (e CultivarEntry) MatchesCrop(crop string) bool {
	return strings.EqualFold(e.Crop, crop)
}

// FilterByCrop keeps the entries for crop, ordered by ID.
func FilterByCrop(entries []CultivarEntry, crop string) []CultivarEntry {
	var out []CultivarEntry
	for _, e := range entries {
		if e.MatchesCrop(crop) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PickVariety chooses round-robin among the crop's catalog varieties. With
// no catalog entry for the crop, the crop name is used as placeholder.
func PickVariety(catalog []CultivarEntry, crop string, index int) string {
	matches := FilterByCrop(catalog, crop)
	if len(matches) == 0 {
		return crop
	}
	return matches[index%len(matches)].Variety
}
