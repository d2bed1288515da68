// Package content serves the marketing pages. Pages are YAML files embedded in
// the binary; their markdown bodies are rendered to HTML once at load time.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	apperrors "ecoaceite/internal/errors"
)

//go:embed pages/*.yaml
var embeddedPages embed.FS

// Raw HTML in page bodies is escaped: WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// CTA is the call to action shown at the end of a page.
type CTA struct {
	Label    string `yaml:"label" json:"label"`
	Href     string `yaml:"href" json:"href"`
	Programa string `yaml:"programa,omitempty" json:"programa,omitempty"`
}

// Page is a rendered marketing page.
type Page struct {
	Slug    string `yaml:"slug" json:"slug"`
	Title   string `yaml:"title" json:"title"`
	Summary string `yaml:"summary" json:"summary"`
	Order   int    `yaml:"order" json:"order"`
	Body    string `yaml:"body" json:"-"`
	CTA     *CTA   `yaml:"cta,omitempty" json:"cta,omitempty"`
	HTML    string `yaml:"-" json:"html"`
}

// PageSummary is the listing view of a Page.
type PageSummary struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Store holds every page keyed by slug.
type Store struct {
	bySlug  map[string]*Page
	ordered []*Page
}

// Load parses the pages embedded in the binary.
func Load() (*Store, error) {
	return LoadFS(embeddedPages, "pages")
}

// LoadFS parses every .yaml file under dir in fsys.
func LoadFS(fsys fs.FS, dir string) (*Store, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", dir, err)
	}

	s := &Store{bySlug: make(map[string]*Page)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		page, err := parsePage(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := s.bySlug[page.Slug]; dup {
			return nil, fmt.Errorf("content: duplicate slug %q", page.Slug)
		}
		s.bySlug[page.Slug] = page
		s.ordered = append(s.ordered, page)
	}

	sort.SliceStable(s.ordered, func(i, j int) bool {
		if s.ordered[i].Order != s.ordered[j].Order {
			return s.ordered[i].Order < s.ordered[j].Order
		}
		return s.ordered[i].Slug < s.ordered[j].Slug
	})
	return s, nil
}

func parsePage(fsys fs.FS, name string) (*Page, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", name, err)
	}

	var page Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", name, err)
	}
	if page.Slug == "" {
		page.Slug = strings.TrimSuffix(path.Base(name), ".yaml")
	}
	if page.Title == "" {
		return nil, fmt.Errorf("content: %s has no title", name)
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(page.Body), &buf); err != nil {
		return nil, fmt.Errorf("content: render %s: %w", name, err)
	}
	page.HTML = buf.String()
	return &page, nil
}

// Get returns the page with slug.
func (s *Store) Get(slug string) (*Page, error) {
	page, ok := s.bySlug[slug]
	if !ok {
		return nil, apperrors.ErrPageNotFound
	}
	return page, nil
}

// List returns every page in menu order.
func (s *Store) List() []PageSummary {
	out := make([]PageSummary, 0, len(s.ordered))
	for _, p := range s.ordered {
		out = append(out, PageSummary{Slug: p.Slug, Title: p.Title, Summary: p.Summary})
	}
	return out
}
