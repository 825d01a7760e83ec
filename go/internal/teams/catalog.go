package teams

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/draftroom/go/internal/models"
)

//go:embed assets/*.yaml
var assets embed.FS

// catalogFile is the YAML layout of a team catalog.
type catalogFile struct {
	Sport string        `yaml:"sport"`
	Teams []models.Team `yaml:"teams"`
}

// Catalog is a fixed list of draftable teams loaded from YAML.
type Catalog struct {
	sport string
	teams []models.Team
}

// LoadCatalog parses a YAML catalog. Ids must be non-empty and unique.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse team catalog: %w", err)
	}
	if len(file.Teams) == 0 {
		return nil, fmt.Errorf("team catalog %q has no teams", file.Sport)
	}

	seen := make(map[string]struct{}, len(file.Teams))
	for _, t := range file.Teams {
		if err := validateTeam(t); err != nil {
			return nil, err
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %s in catalog", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	sort.Slice(file.Teams, func(i, j int) bool { return file.Teams[i].ID < file.Teams[j].ID })

	return &Catalog{sport: file.Sport, teams: file.Teams}, nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team catalog: %w", err)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// BuiltinCatalog loads one of the catalogs shipped with the binary, e.g. "nfl".
func BuiltinCatalog(sport string) (*Catalog, error) {
	data, err := assets.ReadFile("assets/" + sport + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no builtin catalog for sport %q: %w", sport, models.ErrNotFound)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// Sport names the catalog.
func (c *Catalog) Sport() string { return c.sport }

// Teams returns a copy of the catalog ordered by id.
func (c *Catalog) Teams(ctx context.Context) ([]models.Team, error) {
	out := make([]models.Team, len(c.teams))
	copy(out, c.teams)
	return out, nil
}

func validateTeam(t models.Team) error {
	if t.ID == "" {
		return fmt.Errorf("team %q has no id", t.Name)
	}
	if t.Name == "" {
		return fmt.Errorf("team %s has no name", t.ID)
	}
	if t.Rank < 0 {
		return fmt.Errorf("team %s has negative rank %d", t.ID, t.Rank)
	}
	return nil
}
