// Package localization holds the static list of supported languages and the
// translations used for bot replies. Translations are JSON files named after
// the language code (e.g. "hi.json"); missing keys fall back to English.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed locales/*.json
var locales embed.FS

// Language is one entry of the language picker.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages is the fixed picker list, in display order.
var Languages = []Language{
	{"en", "English"},
	{"hi", "Hindi"},
	{"mr", "Marathi"},
	{"ta", "Tamil"},
	{"te", "Telugu"},
	{"gu", "Gujarati"},
	{"kn", "Kannada"},
	{"ml", "Malayalam"},
	{"or", "Odia"},
	{"pa", "Punjabi"},
	{"bn", "Bengali"},
	{"ur", "Urdu"},
	{"ne", "Nepali"},
	{"as", "Assamese"},
	{"bho", "Bhojpuri"},
}

const DefaultLanguage = "en"

// Lookup finds a language by code or display name, ignoring case.
func Lookup(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(l.Code, s) || strings.EqualFold(l.Name, s) {
			return l, true
		}
	}
	return Language{}, false
}

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads every *.json file at the root of fsys.
func NewLocalizer(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || path.Ext(file.Name()) != ".json" {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	return l, nil
}

// Default returns a Localizer over the embedded translations.
func Default() (*Localizer, error) {
	sub, err := fs.Sub(locales, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizer(sub)
}

// GetString returns the string for key in lang, which may be a code or a
// display name. Unknown keys fall back to English, then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	code := DefaultLanguage
	if language, ok := Lookup(lang); ok {
		code = language.Code
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if value, ok := l.translations[code][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Format is GetString followed by fmt.Sprintf.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}
