package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"

	appdefaults "github.com/saker-ai/live-interpreter/config"
)

// Language is one selectable entry of the catalogue.
type Language struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Catalogue is the ordered language menu offered to the user.
type Catalogue struct {
	Fallback  string     `yaml:"fallback" json:"fallback"`
	Languages []Language `yaml:"languages" json:"languages"`
}

// LoadCatalogue reads the catalogue from path, or the embedded one when path is empty.
func LoadCatalogue(path string) (Catalogue, error) {
	data := appdefaults.Languages
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Catalogue{}, fmt.Errorf("read languages file: %w", err)
		}
		data = raw
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes a YAML catalogue and fills missing display names.
func ParseCatalogue(data []byte) (Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalogue{}, fmt.Errorf("parse languages: %w", err)
	}
	if len(cat.Languages) == 0 {
		return Catalogue{}, errors.New("language catalogue is empty")
	}
	seen := make(map[string]struct{}, len(cat.Languages))
	for i := range cat.Languages {
		entry := &cat.Languages[i]
		entry.Code = strings.TrimSpace(entry.Code)
		tag, err := language.Parse(entry.Code)
		if err != nil {
			return Catalogue{}, fmt.Errorf("language %q: %w", entry.Code, err)
		}
		if _, dup := seen[entry.Code]; dup {
			return Catalogue{}, fmt.Errorf("language %q listed twice", entry.Code)
		}
		seen[entry.Code] = struct{}{}
		if strings.TrimSpace(entry.Name) == "" {
			entry.Name = display.English.Tags().Name(tag)
		}
	}
	cat.Fallback = strings.TrimSpace(cat.Fallback)
	if cat.Fallback == "" {
		cat.Fallback = "en"
	}
	return cat, nil
}

// Resolve maps a menu number ("2") or a language code ("fr") to a code.
// Unknown menu numbers resolve to the fallback language.
func (c Catalogue) Resolve(choice string) string {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return c.Fallback
	}
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(c.Languages) {
			return c.Languages[n-1].Code
		}
		return c.Fallback
	}
	for _, entry := range c.Languages {
		if strings.EqualFold(entry.Code, choice) {
			return entry.Code
		}
	}
	return choice
}
