package item

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NameTable holds the display-name templates for generated loot. Names
// render as "Lvl. <level> <template>".
type NameTable struct {
	WeaponOneHanded string `yaml:"weapon_one_handed"`
	WeaponTwoHanded string `yaml:"weapon_two_handed"`
	Shield          string `yaml:"shield"`
	Armor           string `yaml:"armor"`
}

// DefaultNames returns the built-in loot name templates.
func DefaultNames() NameTable {
	return NameTable{
		WeaponOneHanded: "Shortsword",
		WeaponTwoHanded: "Greatsword",
		Shield:          "Shield",
		Armor:           "Armor",
	}
}

// Validate checks that every template is non-empty.
func (n NameTable) Validate() error {
	if n.WeaponOneHanded == "" || n.WeaponTwoHanded == "" || n.Shield == "" || n.Armor == "" {
		return fmt.Errorf("name table is missing templates: %+v", n)
	}
	return nil
}

// LoadNames reads a NameTable from a YAML file, filling any omitted field
// from the defaults.
//
// Postcondition: returns a validated table or a non-nil error.
func LoadNames(path string) (NameTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NameTable{}, fmt.Errorf("LoadNames: cannot read file %q: %w", path, err)
	}
	names := DefaultNames()
	if err := yaml.Unmarshal(data, &names); err != nil {
		return NameTable{}, fmt.Errorf("LoadNames: cannot parse file %q: %w", path, err)
	}
	if err := names.Validate(); err != nil {
		return NameTable{}, fmt.Errorf("LoadNames: invalid table in %q: %w", path, err)
	}
	return names, nil
}
