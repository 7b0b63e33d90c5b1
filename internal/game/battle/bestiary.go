package battle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avheur/dicedelve/internal/game/dice"
)

// Bestiary holds the enemy name templates used by GenerateEnemy. Names
// render as "Lvl. <level> <template>".
type Bestiary struct {
	Names []string `yaml:"names"`
}

// DefaultBestiary returns the built-in enemy names.
func DefaultBestiary() Bestiary {
	return Bestiary{Names: []string{"Goon"}}
}

// Pick returns a uniformly chosen name template.
//
// Precondition: the bestiary must contain at least one name.
func (b Bestiary) Pick(src dice.Source) string {
	if len(b.Names) == 0 {
		panic("battle: Pick called on an empty bestiary")
	}
	return b.Names[src.Intn(len(b.Names))]
}

// LoadBestiary reads a Bestiary from a YAML file.
//
// Postcondition: returns a bestiary with at least one name, or an error.
func LoadBestiary(path string) (Bestiary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bestiary{}, fmt.Errorf("LoadBestiary: cannot read file %q: %w", path, err)
	}
	var b Bestiary
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bestiary{}, fmt.Errorf("LoadBestiary: cannot parse file %q: %w", path, err)
	}
	if len(b.Names) == 0 {
		return Bestiary{}, fmt.Errorf("LoadBestiary: no names in %q", path)
	}
	return b, nil
}
