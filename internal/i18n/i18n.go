// Package i18n resolves localized reply strings using dot-separated keys.
// Locale catalogs are YAML files embedded at build time.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Tf(key string, args ...any) string
	Lang() string
}

// Manager stores all available translations.
type Manager struct {
	translations map[string]map[string]string
	defaultLang  string
}

// Load parses the embedded locale catalogs.
func Load(defaultLang string) (*Manager, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read embedded locales: %w", err)
	}

	catalog := make(map[string]map[string]string)
	for _, entry := range entries {
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", entry.Name(), err)
		}

		lang := strings.ToLower(strings.TrimSuffix(entry.Name(), ".yaml"))

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", entry.Name(), err)
		}

		flattened := make(map[string]string)
		flatten("", raw, flattened)
		catalog[lang] = flattened
	}

	if defaultLang == "" {
		defaultLang = "en"
	}
	defaultLang = strings.ToLower(strings.TrimSpace(defaultLang))

	if _, ok := catalog[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{translations: catalog, defaultLang: defaultLang}, nil
}

// Translator returns a translator for the requested language, falling back to
// the default when the language is unknown.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))
	if norm == "" || m.translations[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:         norm,
		fallback:     m.defaultLang,
		translations: m.translations,
	}
}

// Languages returns all loaded languages.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.translations))
	for lang := range m.translations {
		languages = append(languages, lang)
	}
	return languages
}

type translator struct {
	lang         string
	fallback     string
	translations map[string]map[string]string
}

func (t translator) Lang() string {
	return t.lang
}

// T returns the localized string for key, or the key itself when no catalog
// has it. Missing keys stay visible instead of silently rendering empty.
func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if value := t.lookup(t.lang, key); value != "" {
		return value
	}

	if value := t.lookup(t.fallback, key); value != "" {
		return value
	}

	return key
}

// Tf is T followed by Sprintf on the resolved template.
func (t translator) Tf(key string, args ...any) string {
	template := t.T(key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

func (t translator) lookup(lang, key string) string {
	if lang == "" || t.translations == nil {
		return ""
	}

	if entries := t.translations[lang]; entries != nil {
		if value, ok := entries[key]; ok {
			return value
		}
	}

	return ""
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		if key == "" {
			continue
		}

		nextKey := key
		if prefix != "" {
			nextKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[nextKey] = v
		case map[string]any:
			flatten(nextKey, v, out)
		}
	}
}
