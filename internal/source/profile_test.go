package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestDefaultProfileNormalizesBaseURL(t *testing.T) {
	profile := DefaultProfile("https://origin.example.com/")
	if profile.BaseURL != "https://origin.example.com" {
		t.Fatalf("baseURL = %q", profile.BaseURL)
	}
	if profile.DetailPath != "/manga/{slug}" {
		t.Fatalf("detailPath = %q", profile.DetailPath)
	}
	if len(profile.Selectors.Title) == 0 || len(profile.Selectors.Chapters) == 0 {
		t.Fatal("default selectors must not be empty")
	}
}

func TestLoadProfileOverridesOnlyNamedFields(t *testing.T) {
	path := writeProfile(t, `
detail_path: /series/{slug}
selectors:
  title:
    - h2.series-name
`)

	profile, err := LoadProfile(path, "https://origin.example.com")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}

	if profile.DetailPath != "/series/{slug}" {
		t.Fatalf("detailPath = %q", profile.DetailPath)
	}
	if len(profile.Selectors.Title) != 1 || profile.Selectors.Title[0] != "h2.series-name" {
		t.Fatalf("title selectors = %v", profile.Selectors.Title)
	}
	// Untouched lists keep their defaults.
	if len(profile.Selectors.Chapters) == 0 {
		t.Fatal("chapter selectors should fall back to defaults")
	}
	if profile.GenrePath != "/genre/{genre}?page={page}" {
		t.Fatalf("genrePath = %q", profile.GenrePath)
	}
}

func TestLoadProfileValidatesPlaceholders(t *testing.T) {
	path := writeProfile(t, `
detail_path: /series/fixed
`)

	if _, err := LoadProfile(path, "https://origin.example.com"); err == nil {
		t.Fatal("expected an error for a detail_path without {slug}")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yml"), "https://origin.example.com"); err == nil {
		t.Fatal("expected an error for a missing profile file")
	}
}
