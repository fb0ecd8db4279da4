package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Selectors are ordered candidate lists: extraction tries each selector in
// turn and keeps the first non-empty result. The defaults match the layout
// the origin has shipped for years; a YAML profile overrides individual
// lists when the markup shifts.
type Selectors struct {
	Title            []string `yaml:"title"`
	Description      []string `yaml:"description"`
	Genres           []string `yaml:"genres"`
	Cover            []string `yaml:"cover"`
	Chapters         []string `yaml:"chapters"`
	ReaderImages     []string `yaml:"reader_images"`
	ReaderContainers []string `yaml:"reader_containers"`
	CatalogItems     []string `yaml:"catalog_items"`
	FeaturedItems    []string `yaml:"featured_items"`
}

type Profile struct {
	BaseURL    string    `yaml:"base_url"`
	DetailPath string    `yaml:"detail_path"`
	HomePath   string    `yaml:"home_path"`
	GenrePath  string    `yaml:"genre_path"`
	Selectors  Selectors `yaml:"selectors"`
}

func DefaultProfile(baseURL string) Profile {
	profile := Profile{
		BaseURL:    baseURL,
		DetailPath: "/manga/{slug}",
		HomePath:   "/",
		GenrePath:  "/genre/{genre}?page={page}",
		Selectors: Selectors{
			Title:            []string{"h1.manga-title", "div.manga-info h1", "a.bigChar", "h1"},
			Description:      []string{"div.summary p", "p.manga-summary", "div.manga-info p.description"},
			Genres:           []string{"div.genres a", "p.genres a", "a[href*='/genre/']"},
			Cover:            []string{"div.manga-cover img", "img.cover", "div.manga-info img"},
			Chapters:         []string{"ul.chapter-list li a", "table.listing td a", "div.chapters a[href*='chapter']"},
			ReaderImages:     []string{"img.chapter-img", "img.reader-img", "img#imgCurrent"},
			ReaderContainers: []string{"div#divImage", "div.reader-area", "div#readerarea", "div.chapter-content"},
			CatalogItems:     []string{"div.manga-list div.item", "ul.manga-grid li", "div.listing div.item"},
			FeaturedItems:    []string{"div.featured div.item", "div#slider div.item"},
		},
	}
	profile.normalize()
	return profile
}

// LoadProfile reads a YAML override and fills every unset field from the
// defaults, so a profile only needs to name what actually changed.
func LoadProfile(path string, baseURL string) (Profile, error) {
	defaults := DefaultProfile(baseURL)

	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read site profile: %w", err)
	}

	profile := defaults
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse site profile: %w", err)
	}

	profile.fillDefaults(defaults)
	profile.normalize()
	if err := profile.validate(); err != nil {
		return Profile{}, err
	}

	return profile, nil
}

func (p *Profile) normalize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.DetailPath = ensurePathPrefix(p.DetailPath)
	p.HomePath = ensurePathPrefix(p.HomePath)
	p.GenrePath = ensurePathPrefix(p.GenrePath)
}

func (p *Profile) fillDefaults(defaults Profile) {
	if strings.TrimSpace(p.BaseURL) == "" {
		p.BaseURL = defaults.BaseURL
	}
	if strings.TrimSpace(p.DetailPath) == "" {
		p.DetailPath = defaults.DetailPath
	}
	if strings.TrimSpace(p.HomePath) == "" {
		p.HomePath = defaults.HomePath
	}
	if strings.TrimSpace(p.GenrePath) == "" {
		p.GenrePath = defaults.GenrePath
	}
	if len(p.Selectors.Title) == 0 {
		p.Selectors.Title = defaults.Selectors.Title
	}
	if len(p.Selectors.Description) == 0 {
		p.Selectors.Description = defaults.Selectors.Description
	}
	if len(p.Selectors.Genres) == 0 {
		p.Selectors.Genres = defaults.Selectors.Genres
	}
	if len(p.Selectors.Cover) == 0 {
		p.Selectors.Cover = defaults.Selectors.Cover
	}
	if len(p.Selectors.Chapters) == 0 {
		p.Selectors.Chapters = defaults.Selectors.Chapters
	}
	if len(p.Selectors.ReaderImages) == 0 {
		p.Selectors.ReaderImages = defaults.Selectors.ReaderImages
	}
	if len(p.Selectors.ReaderContainers) == 0 {
		p.Selectors.ReaderContainers = defaults.Selectors.ReaderContainers
	}
	if len(p.Selectors.CatalogItems) == 0 {
		p.Selectors.CatalogItems = defaults.Selectors.CatalogItems
	}
	if len(p.Selectors.FeaturedItems) == 0 {
		p.Selectors.FeaturedItems = defaults.Selectors.FeaturedItems
	}
}

func (p *Profile) validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("site profile: base_url is required")
	}
	if !strings.Contains(p.DetailPath, "{slug}") {
		return fmt.Errorf("site profile: detail_path must contain {slug}")
	}
	if !strings.Contains(p.GenrePath, "{genre}") {
		return fmt.Errorf("site profile: genre_path must contain {genre}")
	}
	return nil
}

func ensurePathPrefix(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if !strings.HasPrefix(trimmed, "/") {
		return "/" + trimmed
	}
	return trimmed
}
