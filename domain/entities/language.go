package entities

import (
	"errors"
	"fmt"
	"strings"
)

// LanguageCode identifies a supported natural language, e.g. "en" or "ur"
type LanguageCode string

// Language describes a selectable language
type Language struct {
	Code   LanguageCode `json:"code"`
	Name   string       `json:"name"`
	Locale string       `json:"locale"` // BCP-47 tag handed to speech recognition
}

// LanguagePair is the active source/target selection. Source may equal Target.
type LanguagePair struct {
	Source LanguageCode `json:"source"`
	Target LanguageCode `json:"target"`
}

// Swapped returns the pair with source and target exchanged
func (p LanguagePair) Swapped() LanguagePair {
	return LanguagePair{Source: p.Target, Target: p.Source}
}

// String formats the pair the way translation endpoints expect it ("en|ur")
func (p LanguagePair) String() string {
	return string(p.Source) + "|" + string(p.Target)
}

// Catalog is the closed, ordered set of languages offered to the user
type Catalog struct {
	languages []Language
	index     map[LanguageCode]int
}

// DefaultCatalog returns English, Urdu and Sindhi
func DefaultCatalog() *Catalog {
	catalog, _ := NewCatalog([]Language{
		{Code: "en", Name: "English", Locale: "en-US"},
		{Code: "ur", Name: "Urdu", Locale: "ur-PK"},
		{Code: "sd", Name: "Sindhi", Locale: "sd-IN"},
	})
	return catalog
}

// NewCatalog builds a catalog, rejecting empty or duplicated codes
func NewCatalog(languages []Language) (*Catalog, error) {
	if len(languages) == 0 {
		return nil, errors.New("catalog requires at least one language")
	}

	c := &Catalog{
		languages: make([]Language, 0, len(languages)),
		index:     make(map[LanguageCode]int, len(languages)),
	}
	for _, lang := range languages {
		if lang.Code == "" {
			return nil, errors.New("language code is required")
		}
		if _, exists := c.index[lang.Code]; exists {
			return nil, fmt.Errorf("duplicate language code: %s", lang.Code)
		}
		if lang.Locale == "" {
			lang.Locale = string(lang.Code)
		}
		if lang.Name == "" {
			lang.Name = string(lang.Code)
		}
		c.index[lang.Code] = len(c.languages)
		c.languages = append(c.languages, lang)
	}
	return c, nil
}

// ParseCatalog parses "code:Name:locale" entries separated by commas.
// Name and locale are optional.
func ParseCatalog(list string) (*Catalog, error) {
	var languages []Language
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		lang := Language{Code: LanguageCode(strings.TrimSpace(parts[0]))}
		if len(parts) > 1 {
			lang.Name = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			lang.Locale = strings.TrimSpace(parts[2])
		}
		languages = append(languages, lang)
	}
	return NewCatalog(languages)
}

// Languages returns a copy of the catalog entries in declaration order
func (c *Catalog) Languages() []Language {
	out := make([]Language, len(c.languages))
	copy(out, c.languages)
	return out
}

// Lookup returns the language registered under code
func (c *Catalog) Lookup(code LanguageCode) (Language, bool) {
	i, ok := c.index[code]
	if !ok {
		return Language{}, false
	}
	return c.languages[i], true
}

// Contains reports whether code is part of the catalog
func (c *Catalog) Contains(code LanguageCode) bool {
	_, ok := c.index[code]
	return ok
}

// Locale returns the recognition locale for code, falling back to the code itself
func (c *Catalog) Locale(code LanguageCode) string {
	if lang, ok := c.Lookup(code); ok {
		return lang.Locale
	}
	return string(code)
}

// ValidatePair checks both ends of the pair against the catalog
func (c *Catalog) ValidatePair(pair LanguagePair) error {
	if !c.Contains(pair.Source) {
		return fmt.Errorf("unsupported source language: %s", pair.Source)
	}
	if !c.Contains(pair.Target) {
		return fmt.Errorf("unsupported target language: %s", pair.Target)
	}
	return nil
}
