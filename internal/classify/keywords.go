package classify

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Keywords holds the term lists the classifier matches against.
type Keywords struct {
	Tabletop []string `mapstructure:"tabletop_keywords"`
	Digital  []string `mapstructure:"digital_keywords"`
}

// DefaultKeywords returns the compiled-in term lists used when no
// keywords file is present.
func DefaultKeywords() Keywords {
	return Keywords{
		Tabletop: []string{
			"analog game",
			"analogue game",
			"belonging outside belonging",
			"fitd",
			"gmless",
			"megadungeon",
			"osr",
			"pamphlet",
			"pbta",
			"physical game",
			"srd",
			"sword dream",
			"sworddream",
			"system reference document",
			"tabletop",
			"ttrpg",
		},
		Digital: []string{
			"bitsy",
			"construct 3",
			"game maker",
			"game off",
			"gamemaker",
			"godot",
			"pico-8",
			"ren'py",
			"renpy",
			"rpg maker",
			"unity",
			"unreal",
			"video game",
			"videogame",
		},
	}
}

// LoadKeywords reads term lists from a TOML file. A missing file falls
// back to the defaults; a present but unreadable or empty file is an
// error.
func LoadKeywords(path string) (Keywords, error) {
	if path == "" {
		return DefaultKeywords(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultKeywords(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Keywords{}, fmt.Errorf("read keywords file: %w", err)
	}
	var k Keywords
	if err := v.Unmarshal(&k); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords file: %w", err)
	}
	if len(k.Tabletop) == 0 && len(k.Digital) == 0 {
		return Keywords{}, fmt.Errorf("keywords file %s defines no terms", path)
	}
	return k, nil
}
