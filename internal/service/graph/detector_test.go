package graph

import (
	"testing"

	"codeatlas/internal/catalog"
	"codeatlas/internal/domain/models"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	registry, err := catalog.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to create catalog registry: %v", err)
	}
	return NewDetector(registry)
}

// TestDetect_PythonOrdering verifies deterministic output: the language tag
// always precedes the filename-derived tooling tag.
func TestDetect_PythonOrdering(t *testing.T) {
	detector := newTestDetector(t)

	techs := detector.Detect([]string{"app.py", "requirements.txt"})

	if len(techs) != 2 {
		t.Fatalf("expected 2 technologies, got %d: %+v", len(techs), techs)
	}
	if techs[0].Name != "Python" || techs[0].Category != models.TechCategoryLanguage {
		t.Errorf("expected Python/language first, got %+v", techs[0])
	}
	if techs[1].Name != "Python Ecosystem" || techs[1].Category != models.TechCategoryTooling {
		t.Errorf("expected Python Ecosystem/tooling second, got %+v", techs[1])
	}
}

// TestDetect_ReactRequiresBothSignals verifies React needs package.json and
// at least one .jsx/.tsx file.
func TestDetect_ReactRequiresBothSignals(t *testing.T) {
	detector := newTestDetector(t)

	names := func(techs []models.DetectedTechnology) map[string]bool {
		m := make(map[string]bool)
		for _, tech := range techs {
			m[tech.Name] = true
		}
		return m
	}

	// Plain JS project: Node.js yes, React no
	plain := names(detector.Detect([]string{"src/index.js", "package.json"}))
	if plain["React"] {
		t.Error("React should not be detected without .jsx/.tsx files")
	}
	if !plain["Node.js"] {
		t.Error("Node.js should be detected from package.json + .js")
	}
	if !plain["JavaScript"] {
		t.Error("JavaScript should be detected from .js extension")
	}

	// With a component file, React appears
	react := names(detector.Detect([]string{"src/App.jsx", "package.json"}))
	if !react["React"] {
		t.Error("React should be detected from package.json + .jsx")
	}

	// A .tsx file alone is not enough either
	noManifest := names(detector.Detect([]string{"src/App.tsx"}))
	if noManifest["React"] {
		t.Error("React should not be detected without package.json")
	}
}

// TestDetect_DockerCaseInsensitive verifies Docker filename matching ignores case.
func TestDetect_DockerCaseInsensitive(t *testing.T) {
	detector := newTestDetector(t)

	for _, file := range []string{"Dockerfile", "dockerfile", "docker-compose.yml", "Docker-Compose.YAML"} {
		techs := detector.Detect([]string{file})
		found := false
		for _, tech := range techs {
			if tech.Name == "Docker" {
				found = true
				if tech.Category != models.TechCategoryTooling {
					t.Errorf("%s: expected tooling category, got %q", file, tech.Category)
				}
			}
		}
		if !found {
			t.Errorf("Docker not detected for %q", file)
		}
	}
}

// TestDetect_Deduplication verifies each technology name appears once no
// matter how many files contribute it.
func TestDetect_Deduplication(t *testing.T) {
	detector := newTestDetector(t)

	techs := detector.Detect([]string{"a.py", "b.py", "c.py", "pom.xml", "lib/pom.xml"})

	counts := make(map[string]int)
	for _, tech := range techs {
		counts[tech.Name]++
	}
	for name, n := range counts {
		if n != 1 {
			t.Errorf("technology %q appears %d times, want 1", name, n)
		}
	}
	if counts["Python"] != 1 || counts["Maven"] != 1 {
		t.Errorf("expected Python and Maven once each, got %+v", counts)
	}
}

// TestDetect_NoSignals verifies unmatched files contribute nothing.
func TestDetect_NoSignals(t *testing.T) {
	detector := newTestDetector(t)

	techs := detector.Detect([]string{"LICENSE", "notes.xyz"})
	if len(techs) != 0 {
		t.Errorf("expected no technologies, got %+v", techs)
	}
}
