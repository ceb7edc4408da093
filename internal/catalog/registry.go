package catalog

import (
	"embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// searchFallbackURL is the search-engine prefix used when a technology has
// no curated deep link.
const searchFallbackURL = "https://duckduckgo.com/?q="

// Registry resolves file extensions to language names and technology names
// to documentation deep links, from embedded YAML tables.
type Registry struct {
	extToLanguage map[string]string
	deepLinks     map[string]string
	mu            sync.RWMutex
}

type languageFile struct {
	Languages []struct {
		Name       string   `yaml:"name"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"languages"`
}

type deepLinkFile struct {
	Links map[string]string `yaml:"links"`
}

// NewRegistry creates a registry from the embedded YAML tables.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		extToLanguage: make(map[string]string),
		deepLinks:     make(map[string]string),
	}

	if err := r.loadLanguages(); err != nil {
		return nil, fmt.Errorf("failed to load language table: %w", err)
	}

	if err := r.loadDeepLinks(); err != nil {
		return nil, fmt.Errorf("failed to load deep link table: %w", err)
	}

	return r, nil
}

func (r *Registry) loadLanguages() error {
	data, err := configFiles.ReadFile("config/languages.yaml")
	if err != nil {
		return fmt.Errorf("failed to read languages.yaml: %w", err)
	}

	var parsed languageFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal languages.yaml: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lang := range parsed.Languages {
		for _, ext := range lang.Extensions {
			r.extToLanguage[strings.ToLower(ext)] = lang.Name
		}
	}

	return nil
}

func (r *Registry) loadDeepLinks() error {
	data, err := configFiles.ReadFile("config/deeplinks.yaml")
	if err != nil {
		return fmt.Errorf("failed to read deeplinks.yaml: %w", err)
	}

	var parsed deepLinkFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal deeplinks.yaml: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, link := range parsed.Links {
		r.deepLinks[name] = link
	}

	return nil
}

// LanguageForPath returns the language for a file path's extension, or
// ("", false) when the extension is unknown.
func (r *Registry) LanguageForPath(path string) (string, bool) {
	ext := extensionOf(path)
	if ext == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.extToLanguage[ext]
	return lang, ok
}

// DeepLink returns the documentation URL for a technology name, falling
// back to a search-engine query for unmapped names.
func (r *Registry) DeepLink(name string) string {
	r.mu.RLock()
	link, ok := r.deepLinks[name]
	r.mu.RUnlock()

	if ok {
		return link
	}
	return searchFallbackURL + url.QueryEscape(name+" documentation")
}

// extensionOf returns the lowercased extension without the dot, or "" when
// the name has none (dotfiles like ".env" count as extensionless).
func extensionOf(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}

	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}
