package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Account is a named identity a preset always creates.
type Account struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Bio      string `yaml:"bio"`
}

// Preset describes the size and shape of a generated dataset.
type Preset struct {
	Name           string    `yaml:"name"`
	Users          int       `yaml:"users"`
	PostsPerUser   int       `yaml:"posts_per_user"`
	FollowsPerUser int       `yaml:"follows_per_user"`
	MaxDays        int       `yaml:"max_days"`
	Accounts       []Account `yaml:"accounts"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

func (p Preset) validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("preset without a name")
	case p.Users < 0 || p.PostsPerUser < 0 || p.FollowsPerUser < 0 || p.MaxDays < 0:
		return fmt.Errorf("preset %q: counts must not be negative", p.Name)
	}
	for _, a := range p.Accounts {
		if a.Username == "" || a.Email == "" {
			return fmt.Errorf("preset %q: accounts need a username and an email", p.Name)
		}
	}
	return nil
}

// LoadPresets decodes a presets document. Unknown fields are rejected so a
// typo does not silently fall back to zero.
func LoadPresets(r io.Reader) (map[string]Preset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file presetFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	out := make(map[string]Preset, len(file.Presets))
	for _, p := range file.Presets {
		if err := p.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.Name)
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		out[key] = p
	}
	return out, nil
}

// LoadPresetFile reads presets from path.
func LoadPresetFile(path string) (map[string]Preset, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadPresets(f)
}

// BuiltinPresets returns the presets shipped with the binary.
func BuiltinPresets() map[string]Preset {
	presets, err := LoadPresets(strings.NewReader(string(builtinPresets)))
	if err != nil {
		panic(fmt.Sprintf("seed: invalid built-in presets: %v", err))
	}
	return presets
}

// FindPreset looks name up case-insensitively.
func FindPreset(presets map[string]Preset, name string) (Preset, error) {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
}
