package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSiteFile is the site file name used when none is given.
const DefaultSiteFile = "docnav.yaml"

// RootLocale is the locale key served at the site root.
const RootLocale = "root"

// ErrInvalidSite wraps every site file validation failure.
var ErrInvalidSite = errors.New("invalid site config")

// Site is the declarative navigation of a documentation site.
type Site struct {
	Title     string            `yaml:"title"`
	Base      string            `yaml:"base,omitempty"`
	DocsRoot  string            `yaml:"docs_root"`
	SourceExt string            `yaml:"source_ext,omitempty"`
	Locales   map[string]Locale `yaml:"locales"`
}

// Locale is one language variant of the site's navigation.
type Locale struct {
	Label   string         `yaml:"label"`
	Lang    string         `yaml:"lang,omitempty"`
	Link    string         `yaml:"link,omitempty"`
	Sidebar []SidebarGroup `yaml:"sidebar"`
}

// SidebarGroup is a titled list of pages. Pages are paths relative to the
// docs root without extension, e.g. "guide/introduction".
type SidebarGroup struct {
	Text      string   `yaml:"text"`
	Collapsed *bool    `yaml:"collapsed,omitempty"`
	Pages     []string `yaml:"pages"`
}

// LoadSite reads, defaults and validates a site file. A relative docs_root
// is resolved against the directory holding the file.
func LoadSite(file string) (*Site, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read site config %s: %w", file, err)
	}

	site, err := ParseSite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	if !filepath.IsAbs(site.DocsRoot) {
		site.DocsRoot = filepath.Join(filepath.Dir(file), site.DocsRoot)
	}
	return site, nil
}

// ParseSite decodes YAML site config, applying defaults and validation.
func ParseSite(data []byte) (*Site, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var site Site
	if err := dec.Decode(&site); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSite, err)
	}

	site.applyDefaults()
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Site) applyDefaults() {
	if s.DocsRoot == "" {
		s.DocsRoot = "docs"
	}
	if s.SourceExt == "" {
		s.SourceExt = ".md"
	}
	if !strings.HasPrefix(s.SourceExt, ".") {
		s.SourceExt = "." + s.SourceExt
	}
}

// Validate checks that every locale and page reference is usable.
func (s *Site) Validate() error {
	if len(s.Locales) == 0 {
		return fmt.Errorf("%w: at least one locale is required", ErrInvalidSite)
	}
	for _, name := range s.LocaleNames() {
		loc := s.Locales[name]
		for gi, group := range loc.Sidebar {
			if strings.TrimSpace(group.Text) == "" {
				return fmt.Errorf("%w: locale %q group #%d has no text", ErrInvalidSite, name, gi+1)
			}
			for pi, page := range group.Pages {
				if err := validatePage(page); err != nil {
					return fmt.Errorf("%w: locale %q group %q page #%d: %v", ErrInvalidSite, name, group.Text, pi+1, err)
				}
			}
		}
	}
	return nil
}

func validatePage(page string) error {
	switch {
	case strings.TrimSpace(page) == "":
		return errors.New("empty page path")
	case strings.HasPrefix(page, "/"):
		return fmt.Errorf("page %q must be relative to docs_root", page)
	case path.Clean(page) != page || strings.HasPrefix(page, "../") || page == "..":
		return fmt.Errorf("page %q is not a clean relative path", page)
	}
	return nil
}

// LocaleNames returns locale keys with the root locale first and the rest
// sorted.
func (s *Site) LocaleNames() []string {
	names := make([]string, 0, len(s.Locales))
	for name := range s.Locales {
		if name != RootLocale {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := s.Locales[RootLocale]; ok {
		names = append([]string{RootLocale}, names...)
	}
	return names
}

// PageCount returns the number of page references across all locales.
func (s *Site) PageCount() int {
	n := 0
	for _, loc := range s.Locales {
		for _, g := range loc.Sidebar {
			n += len(g.Pages)
		}
	}
	return n
}
