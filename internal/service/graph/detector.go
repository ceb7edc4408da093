package graph

import (
	"strings"

	"codeatlas/internal/catalog"
	"codeatlas/internal/domain/models"
)

// Detector classifies a project's technology stack from file paths alone.
// Pure heuristic: no file content is ever inspected, and unmatched files
// simply contribute nothing.
type Detector struct {
	catalog *catalog.Registry
}

// NewDetector creates a new technology detector.
func NewDetector(registry *catalog.Registry) *Detector {
	return &Detector{catalog: registry}
}

// Detect returns the ordered, deduplicated technology list for a file set.
// Extension-derived languages come first (in input order), then the fixed
// sequence of filename-based signals. A name is added at most once.
func (d *Detector) Detect(files []string) []models.DetectedTechnology {
	technologies := make([]models.DetectedTechnology, 0)
	seen := make(map[string]bool)

	add := func(name, category string) {
		if seen[name] {
			return
		}
		seen[name] = true
		technologies = append(technologies, models.DetectedTechnology{
			Name:     name,
			Category: category,
		})
	}

	sig := signalsFrom(files)

	// Language pass: extension table, in input order
	for _, file := range files {
		if lang, ok := d.catalog.LanguageForPath(file); ok {
			add(lang, models.TechCategoryLanguage)
		}
	}

	// Filename signal pass, fixed priority order
	if sig.hasPackageJSON && sig.hasReactFile {
		add("React", models.TechCategoryFramework)
	}
	if sig.hasNextConfig {
		add("Next.js", models.TechCategoryFramework)
	}
	if sig.hasPackageJSON && sig.hasPlainJS {
		add("Node.js", models.TechCategoryRuntime)
	}
	if sig.hasPythonManifest && sig.hasPythonFile {
		add("Python Ecosystem", models.TechCategoryTooling)
	}
	if sig.hasPomXML {
		add("Maven", models.TechCategoryTooling)
	}
	if sig.hasDockerFile {
		add("Docker", models.TechCategoryTooling)
	}

	return technologies
}

type signals struct {
	hasPackageJSON    bool
	hasReactFile      bool
	hasPlainJS        bool
	hasNextConfig     bool
	hasPythonManifest bool
	hasPythonFile     bool
	hasPomXML         bool
	hasDockerFile     bool
}

func signalsFrom(files []string) signals {
	var sig signals

	for _, file := range files {
		name := lastSegment(file)
		lower := strings.ToLower(name)

		switch name {
		case "package.json":
			sig.hasPackageJSON = true
		case "next.config.js", "next.config.ts":
			sig.hasNextConfig = true
		case "requirements.txt", "setup.py":
			sig.hasPythonManifest = true
		case "pom.xml":
			sig.hasPomXML = true
		}

		// Docker filenames match case-insensitively
		switch lower {
		case "dockerfile", "docker-compose.yml", "docker-compose.yaml":
			sig.hasDockerFile = true
		}

		switch {
		case strings.HasSuffix(lower, ".jsx"), strings.HasSuffix(lower, ".tsx"):
			sig.hasReactFile = true
		case strings.HasSuffix(lower, ".js"), strings.HasSuffix(lower, ".mjs"):
			sig.hasPlainJS = true
		case strings.HasSuffix(lower, ".py"):
			sig.hasPythonFile = true
		}
	}

	return sig
}
