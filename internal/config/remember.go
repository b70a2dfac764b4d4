// Package config implements the two small persisted config surfaces
// carried over from the ambient application: GameUserSettings.ini's
// RememberMe section, and an optional splash.toml of tunables for the
// engines (spec.md §6.1, SPEC_FULL.md AMBIENT STACK).
package config

import (
	"gopkg.in/ini.v1"
)

const rememberMeSection = "RememberMe"

// RememberMe is the persisted opt-in-login state.
type RememberMe struct {
	Enabled bool
	Data    string
}

// LoadRememberMe reads the RememberMe section from an INI file at path.
// A missing file is treated as "not remembered" rather than an error.
func LoadRememberMe(path string) (RememberMe, error) {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return RememberMe{}, err
	}

	section := cfg.Section(rememberMeSection)
	return RememberMe{
		Enabled: section.Key("Enabled").MustBool(false),
		Data:    section.Key("Data").String(),
	}, nil
}

// SaveRememberMe writes the RememberMe section to the INI file at path,
// preserving any other sections already present.
func SaveRememberMe(path string, rm RememberMe) error {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}

	section := cfg.Section(rememberMeSection)
	section.Key("Enabled").SetValue(boolString(rm.Enabled))
	if rm.Enabled {
		section.Key("Data").SetValue(rm.Data)
	}

	return cfg.SaveTo(path)
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
