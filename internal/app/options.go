package app

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vk/latticego/internal/convert"
)

// envPrefix namespaces the environment overrides for translation options,
// e.g. LATTICEGO_ALLOW_THICK=true.
const envPrefix = "LATTICEGO_"

// LoadOptions builds the translator options by merging, in order of
// precedence: built-in defaults, the YAML options file (when given), and
// environment variables.
func LoadOptions(path string) (convert.Options, error) {
	k := koanf.New(".")

	defaults := convert.DefaultOptions()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"use_compound_elements": defaults.UseCompoundElements,
	}, "."), nil); err != nil {
		return convert.Options{}, fmt.Errorf("app: loading option defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return convert.Options{}, fmt.Errorf("app: loading options file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return convert.Options{}, fmt.Errorf("app: loading option environment overrides: %w", err)
	}

	var opts convert.Options
	if err := k.Unmarshal("", &opts); err != nil {
		return convert.Options{}, fmt.Errorf("app: unmarshaling options: %w", err)
	}
	return opts, nil
}
