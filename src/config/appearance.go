package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// SetDefaultTheme rewrites theme.defaultTheme in the settings file at path,
// keeping the rest of the document and its key order. The file is created when
// it does not exist yet.
func SetDefaultTheme(path, theme string) error {
	var doc yaml.MapSlice
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	themeSection := yaml.MapSlice{}
	idx := -1
	for i, item := range doc {
		if item.Key == "theme" {
			idx = i
			if ms, ok := item.Value.(yaml.MapSlice); ok {
				themeSection = ms
			}
			break
		}
	}
	themeSection = setKey(themeSection, "defaultTheme", theme)
	if idx >= 0 {
		doc[idx].Value = themeSection
	} else {
		doc = append(doc, yaml.MapItem{Key: "theme", Value: themeSection})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setKey(ms yaml.MapSlice, key string, value any) yaml.MapSlice {
	for i, item := range ms {
		if item.Key == key {
			ms[i].Value = value
			return ms
		}
	}
	return append(ms, yaml.MapItem{Key: key, Value: value})
}
